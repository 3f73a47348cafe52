package evaluator

import (
	"testing"

	"telemetry-streams/internal/events"
)

func TestWindow_PartialToFull(t *testing.T) {
	w := NewWindow(3)
	for i := 1; i <= 3; i++ {
		if w.Full() {
			t.Fatalf("window full after %d pushes", i-1)
		}
		if _, evicted := w.Push(events.Reading{Value: float64(i)}); evicted {
			t.Fatalf("unexpected eviction on push %d", i)
		}
	}
	if !w.Full() || w.Len() != 3 {
		t.Fatalf("Len() = %d, Full() = %v", w.Len(), w.Full())
	}

	// Once full, the window stays full and evicts the oldest each time.
	for i := 4; i <= 6; i++ {
		old, evicted := w.Push(events.Reading{Value: float64(i)})
		if !evicted || old.Value != float64(i-3) {
			t.Errorf("push %d evicted %v (%v), want %d", i, old.Value, evicted, i-3)
		}
		if !w.Full() {
			t.Errorf("window left FULL state after push %d", i)
		}
	}
	if w.Oldest().Value != 4 || w.Newest().Value != 6 {
		t.Errorf("Oldest/Newest = %v/%v, want 4/6", w.Oldest().Value, w.Newest().Value)
	}
}

func TestNewWindow_BelowMinCapacity(t *testing.T) {
	for _, capacity := range []int{-1, 0, 1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("NewWindow(%d) did not panic", capacity)
				}
			}()
			NewWindow(capacity)
		}()
	}

	if got := NewWindow(MinCapacity).Capacity(); got != MinCapacity {
		t.Errorf("Capacity() = %d, want %d", got, MinCapacity)
	}
}

func TestRuleValidate_MatchesWindowMinimum(t *testing.T) {
	r := Rule{Source: "01-smoker", Capacity: MinCapacity - 1, Threshold: 1}
	if err := r.Validate(); err == nil {
		t.Errorf("Validate() accepted capacity %d", r.Capacity)
	}
	r.Capacity = MinCapacity
	if err := r.Validate(); err != nil {
		t.Errorf("Validate() rejected capacity %d: %v", r.Capacity, err)
	}
}
