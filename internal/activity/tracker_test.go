package activity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerBeforeFirstRun(t *testing.T) {
	tr := NewTracker()

	assert.False(t, tr.StreamOpen())
	assert.Equal(t, "", tr.RunID())
	assert.True(t, tr.View().IsEmpty())
}

func TestTrackerRunLifecycle(t *testing.T) {
	tr := NewTracker()
	tr.StartRun("run-1")
	require.True(t, tr.StreamOpen())

	tr.Append(ev(AgentCoordinator, StatusRunning, "planning"))
	view := tr.View()
	require.NotNil(t, view.Current)
	assert.Equal(t, AgentCoordinator, view.Current.Agent)

	tr.Append(ev(AgentCoordinator, StatusCompleted, "plan ready"))
	tr.Append(ev(AgentExecutor, StatusRunning, "working"))
	assert.Equal(t, 3, tr.Len())

	tr.Close()
	view = tr.View()
	assert.Nil(t, view.Current, "closing the stream clears the spinner")
	assert.Len(t, view.Completed, 1)
	assert.Equal(t, 3, tr.Len(), "closing does not touch history")
}

func TestTrackerStartRunResets(t *testing.T) {
	tr := NewTracker()
	tr.StartRun("run-1")
	tr.Append(ev(AgentExecutor, StatusCompleted, "done"))
	tr.Close()

	tr.StartRun("run-2")

	assert.Equal(t, "run-2", tr.RunID())
	assert.Equal(t, 0, tr.Len())
	assert.True(t, tr.StreamOpen())
	assert.True(t, tr.View().IsEmpty())
}

func TestHistorySnapshotIsIndependent(t *testing.T) {
	var h History
	h.Append(ev(AgentExecutor, StatusRunning, "a"))

	snap := h.Events()
	h.Append(ev(AgentExecutor, StatusRunning, "b"))
	snap[0].Message = "mutated"

	assert.Len(t, snap, 1)
	assert.Equal(t, "a", h.Events()[0].Message)

	h.Reset()
	assert.Equal(t, 0, h.Len())
}

func TestHistoryKeepsDuplicates(t *testing.T) {
	var h History
	e := ev(AgentResponder, StatusCompleted, "sent")
	h.Append(e)
	h.Append(e)

	assert.Equal(t, 2, h.Len())
}

func TestParseAgent(t *testing.T) {
	tests := []struct {
		in   string
		want Agent
	}{
		{"coordinator", AgentCoordinator},
		{"Prompt_Rewriter", AgentPromptRewriter},
		{" executor ", AgentExecutor},
		{"quality_checker", AgentQualityChecker},
		{"qa", AgentQualityChecker},
		{"planner", AgentCoordinator},
		{"summarizer", AgentSummarizer},
		{"responder", AgentResponder},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAgent(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseAgent("janitor")
	assert.True(t, errors.Is(err, ErrUnknownAgent))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("started")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, s)

	s, err = ParseStatus("DONE")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)

	_, err = ParseStatus("error")
	assert.True(t, errors.Is(err, ErrUnknownStatus))
}

func TestAgentNames(t *testing.T) {
	for _, a := range AllAgents() {
		assert.True(t, a.Valid())
		parsed, err := ParseAgent(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
		assert.NotEmpty(t, a.DisplayName())
	}
	assert.False(t, Agent(0).Valid())
	assert.Equal(t, "agent(0)", Agent(0).String())
	assert.Equal(t, "Quality Checker", AgentQualityChecker.DisplayName())
}
