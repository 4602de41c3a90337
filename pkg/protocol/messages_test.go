package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentdeck/internal/activity"
)

func TestParseAgentActivity(t *testing.T) {
	raw := []byte(`{
		"type": "agent_activity",
		"id": "a1",
		"timestamp": "2026-01-02T03:04:05Z",
		"session_key": "s1",
		"request_id": "r1",
		"agent": "executor",
		"status": "running",
		"message": "working"
	}`)

	parsed, err := ParseMessage(raw)
	require.NoError(t, err)

	msg, ok := parsed.(*AgentActivity)
	require.True(t, ok, "got %T", parsed)
	assert.Equal(t, "r1", msg.RequestID)

	ev, err := msg.ToEvent()
	require.NoError(t, err)
	assert.Equal(t, activity.AgentExecutor, ev.Agent)
	assert.Equal(t, activity.StatusRunning, ev.Status)
	assert.Equal(t, "working", ev.Message)
	assert.Equal(t, 2026, ev.At.Year())
}

func TestParseAgentActivityRejectsUnknownAgent(t *testing.T) {
	raw := []byte(`{"type":"agent_activity","agent":"janitor","status":"running"}`)

	_, err := ParseMessage(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidActivity))
}

func TestParseAgentActivityRejectsUnknownStatus(t *testing.T) {
	raw := []byte(`{"type":"agent_activity","agent":"executor","status":"failed"}`)

	_, err := ParseMessage(raw)
	assert.True(t, errors.Is(err, ErrInvalidActivity))
}

func TestAgentActivityToEventDefaultsTimestamp(t *testing.T) {
	a := &AgentActivity{Agent: "qa", Status: "done"}

	ev, err := a.ToEvent()
	require.NoError(t, err)
	assert.Equal(t, activity.AgentQualityChecker, ev.Agent)
	assert.Equal(t, activity.StatusCompleted, ev.Status)
	assert.False(t, ev.At.IsZero())
}

func TestParseMessageStreamFrames(t *testing.T) {
	end := &StreamEnd{
		BaseMessage: NewBase(TypeStreamEnd, "e1"),
		RequestID:   "r1",
		Content:     "hello",
		Aborted:     true,
	}
	data, err := json.Marshal(end)
	require.NoError(t, err)

	parsed, err := ParseMessage(data)
	require.NoError(t, err)
	got, ok := parsed.(*StreamEnd)
	require.True(t, ok)
	assert.Equal(t, "hello", got.Content)
	assert.True(t, got.Aborted)
}

func TestParseMessageUnknownType(t *testing.T) {
	parsed, err := ParseMessage([]byte(`{"type":"plan_tree","id":"x"}`))
	require.NoError(t, err)

	base, ok := parsed.(*BaseMessage)
	require.True(t, ok)
	assert.Equal(t, MessageType("plan_tree"), base.Type)
}

func TestParseMessageInvalidJSON(t *testing.T) {
	_, err := ParseMessage([]byte(`{not json`))
	assert.Error(t, err)
}
