package activity

// Tracker owns the history of the current run together with the stream
// state reported by the transport. It is driven from a single goroutine
// (the TUI update loop) and does no locking.
type Tracker struct {
	history    History
	streamOpen bool
	runID      string
}

// NewTracker returns a tracker with no run in progress.
func NewTracker() *Tracker {
	return &Tracker{}
}

// StartRun clears the previous run's history and opens the stream for a
// new user turn. It must be called before the first event of that turn.
func (t *Tracker) StartRun(runID string) {
	t.history.Reset()
	t.runID = runID
	t.streamOpen = true
}

// Append records an event for the current run.
func (t *Tracker) Append(e Event) {
	t.history.Append(e)
}

// Close marks the stream finished, either because the gateway ended it or
// because the user aborted the run. The next View drops any running entry.
func (t *Tracker) Close() {
	t.streamOpen = false
}

// View consolidates the full history. Safe to call at any time.
func (t *Tracker) View() View {
	return Consolidate(t.history.Events(), t.streamOpen)
}

// StreamOpen reports whether the current run is still streaming.
func (t *Tracker) StreamOpen() bool { return t.streamOpen }

// RunID returns the identifier passed to the last StartRun.
func (t *Tracker) RunID() string { return t.runID }

// Len returns the number of events recorded for the current run.
func (t *Tracker) Len() int { return t.history.Len() }
