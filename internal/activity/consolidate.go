package activity

// View is the render-ready snapshot of a run.
type View struct {
	// Current is the in-flight step to highlight, or nil.
	Current *Event
	// Completed holds one completed event per agent, ordered by the
	// position of that agent's first event in the history.
	Completed []Event
}

// IsEmpty reports whether there is nothing to render.
func (v View) IsEmpty() bool {
	return v.Current == nil && len(v.Completed) == 0
}

// CompletedFor returns the completed entry for agent, if any.
func (v View) CompletedFor(agent Agent) (Event, bool) {
	for _, e := range v.Completed {
		if e.Agent == agent {
			return e, true
		}
	}
	return Event{}, false
}

// Consolidate reduces a history to its View. It is pure and total: the
// same history and streamOpen always yield the same View, and the history
// is never modified.
//
// Per agent the latest event wins, except that once an agent is recorded
// as completed only another completed event may replace it. A running
// event arriving after that is a stale delivery and is dropped.
func Consolidate(history []Event, streamOpen bool) View {
	order := make([]Agent, 0, len(history))
	latest := make(map[Agent]Event, len(history))
	lastAccepted := false

	for _, e := range history {
		prev, seen := latest[e.Agent]
		switch {
		case !seen:
			order = append(order, e.Agent)
			latest[e.Agent] = e
			lastAccepted = true
		case !prev.Completed():
			latest[e.Agent] = e
			lastAccepted = true
		case e.Completed():
			latest[e.Agent] = e
			lastAccepted = true
		default:
			lastAccepted = false
		}
	}

	var view View
	for _, agent := range order {
		if e := latest[agent]; e.Completed() {
			view.Completed = append(view.Completed, e)
		}
	}

	if streamOpen && len(history) > 0 {
		last := history[len(history)-1]
		if last.Running() && lastAccepted {
			current := last
			view.Current = &current
		}
	}

	return view
}
