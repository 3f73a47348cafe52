package evaluator

import (
	"fmt"

	"github.com/gammazero/deque"

	"telemetry-streams/internal/events"
)

// Window is a fixed-capacity FIFO of the most recent readings of one source.
// Once full, every push evicts exactly the oldest reading.
type Window struct {
	capacity int
	readings deque.Deque[events.Reading]
}

// MinCapacity is the smallest usable window. A single-reading window compares a
// reading with itself, so its delta is always 0.
const MinCapacity = 2

// NewWindow creates an empty window. It panics if capacity is below MinCapacity;
// rules are checked by Rule.Validate before any window is built.
func NewWindow(capacity int) *Window {
	if capacity < MinCapacity {
		panic(fmt.Sprintf("evaluator: window capacity %d below minimum %d", capacity, MinCapacity))
	}
	return &Window{capacity: capacity}
}

// Push appends r and returns the evicted reading, if any.
func (w *Window) Push(r events.Reading) (events.Reading, bool) {
	var evicted events.Reading
	var ok bool
	if w.readings.Len() == w.capacity {
		evicted, ok = w.readings.PopFront(), true
	}
	w.readings.PushBack(r)
	return evicted, ok
}

// Len returns the number of readings held.
func (w *Window) Len() int { return w.readings.Len() }

// Capacity returns the maximum number of readings held.
func (w *Window) Capacity() int { return w.capacity }

// Full reports whether the window holds capacity readings.
func (w *Window) Full() bool { return w.readings.Len() == w.capacity }

// Oldest returns the reading at the head. The window must not be empty.
func (w *Window) Oldest() events.Reading { return w.readings.Front() }

// Newest returns the reading at the tail. The window must not be empty.
func (w *Window) Newest() events.Reading { return w.readings.Back() }

// Values returns the held values, oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, w.readings.Len())
	for i := range out {
		out[i] = w.readings.At(i).Value
	}
	return out
}
