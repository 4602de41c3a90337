package activity

import "time"

// Event is one observation about one agent. Message is empty when the
// gateway sent no progress note. At is the receipt time and is only used
// for display.
type Event struct {
	Agent   Agent
	Status  Status
	Message string
	At      time.Time
}

// Running reports whether the event marks an in-flight step.
func (e Event) Running() bool { return e.Status == StatusRunning }

// Completed reports whether the event is terminal for its agent.
func (e Event) Completed() bool { return e.Status == StatusCompleted }

// History is the append-only log of events for the current run.
// It has a single writer; readers consolidate a snapshot from Events.
type History struct {
	events []Event
}

// Append adds an event to the tail. Nothing is rejected, reordered or
// deduplicated here; consolidation decides what the events mean.
func (h *History) Append(e Event) {
	h.events = append(h.events, e)
}

// Reset clears the history at the start of a new run.
func (h *History) Reset() {
	h.events = nil
}

// Events returns a snapshot of the history in arrival order.
func (h *History) Events() []Event {
	out := make([]Event, len(h.events))
	copy(out, h.events)
	return out
}

// Len returns the number of events appended since the last reset.
func (h *History) Len() int {
	return len(h.events)
}
