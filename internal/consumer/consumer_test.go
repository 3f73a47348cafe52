package consumer

import "testing"

func TestNewConsumer_Validation(t *testing.T) {
	tests := []struct {
		name                  string
		brokers, topic, group string
	}{
		{"empty brokers", "", "01-smoker", "monitor"},
		{"empty topic", "localhost:9092", "", "monitor"},
		{"empty group", "localhost:9092", "01-smoker", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewConsumer(tt.brokers, tt.topic, tt.group)
			if err == nil {
				c.Close()
				t.Fatal("NewConsumer() should fail validation")
			}
		})
	}
}
