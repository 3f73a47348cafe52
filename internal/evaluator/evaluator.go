// Package evaluator implements the sliding-window threshold alert used by the consumers.
//
// Each monitored source owns a Window sized by its Rule. After every reading, once the
// window is full, the oldest and newest values are compared; an Alert is returned when
// the change in the rule's direction reaches the threshold. There is no debounce, so the
// same old reading can take part in several consecutive alerts until it is evicted.
package evaluator

import (
	"fmt"

	"telemetry-streams/internal/events"
)

// Evaluator keeps one Window per monitored source. It is not safe for concurrent use;
// it belongs to a single consumer loop.
type Evaluator struct {
	rules   map[string]Rule
	windows map[string]*Window
}

// New creates an evaluator for the given rules. Rules are validated and sources must be unique.
func New(rules []Rule) (*Evaluator, error) {
	e := &Evaluator{
		rules:   make(map[string]Rule, len(rules)),
		windows: make(map[string]*Window, len(rules)),
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := e.rules[r.Source]; dup {
			return nil, fmt.Errorf("duplicate rule for source %s", r.Source)
		}
		if r.Direction == "" {
			r.Direction = Drop
		}
		e.rules[r.Source] = r
	}
	return e, nil
}

// Rule returns the rule configured for sourceID.
func (e *Evaluator) Rule(sourceID string) (Rule, bool) {
	r, ok := e.rules[sourceID]
	return r, ok
}

// Window returns the window of sourceID, or nil if no reading has been observed yet.
func (e *Evaluator) Window(sourceID string) *Window {
	return e.windows[sourceID]
}

// Observe adds reading to the window of sourceID and returns an alert if the rule fires.
// Sources without a rule are ignored.
func (e *Evaluator) Observe(sourceID string, reading events.Reading) (*events.Alert, bool) {
	rule, ok := e.rules[sourceID]
	if !ok {
		return nil, false
	}

	w, ok := e.windows[sourceID]
	if !ok {
		w = NewWindow(rule.Capacity)
		e.windows[sourceID] = w
	}
	w.Push(reading)

	if !w.Full() {
		return nil, false
	}

	first := w.Oldest().Value
	delta := rule.delta(first, reading.Value)
	if delta < rule.Threshold {
		return nil, false
	}

	return &events.Alert{
		SourceID:         sourceID,
		Label:            rule.Label,
		Direction:        string(rule.Direction),
		WindowFirstValue: first,
		WindowLastValue:  reading.Value,
		Delta:            delta,
		Threshold:        rule.Threshold,
		WindowSize:       w.Len(),
		TriggeredAt:      reading.Timestamp,
	}, true
}
