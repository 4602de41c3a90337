package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentdeck/internal/activity"
	"agentdeck/pkg/protocol"
)

func TestTranslate_Activity(t *testing.T) {
	frame := `{"type":"agent_activity","id":"1","timestamp":"2026-01-02T03:04:05Z",` +
		`"session_key":"s1","request_id":"r1","agent":"qa","status":"done","message":"Checked"}`

	msg := translate([]byte(frame))

	am, ok := msg.(ActivityMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "r1", am.RequestID)
	assert.Equal(t, activity.AgentQualityChecker, am.Event.Agent)
	assert.Equal(t, activity.StatusCompleted, am.Event.Status)
	assert.Equal(t, "Checked", am.Event.Message)
}

func TestTranslate_DropsInvalidActivity(t *testing.T) {
	frame := `{"type":"agent_activity","id":"1","agent":"janitor","status":"running"}`
	assert.Nil(t, translate([]byte(frame)))
}

func TestTranslate_StreamEnd(t *testing.T) {
	frame := `{"type":"stream_end","id":"1","session_key":"s1","request_id":"r1","content":"done","aborted":true}`

	msg := translate([]byte(frame))

	end, ok := msg.(StreamEndMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "done", end.Content)
	assert.True(t, end.Aborted)
}

func TestTranslate_IgnoresUnrenderedFrames(t *testing.T) {
	assert.Nil(t, translate([]byte(`{"type":"health_check","id":"1"}`)))
	assert.Nil(t, translate([]byte(`not json`)))
}

func TestReconnectDelay(t *testing.T) {
	assert.Equal(t, time.Second, reconnectDelay(0))
	assert.Equal(t, 2*time.Second, reconnectDelay(1))
	assert.Equal(t, 16*time.Second, reconnectDelay(4))
	assert.Equal(t, 30*time.Second, reconnectDelay(5))
	assert.Equal(t, 30*time.Second, reconnectDelay(50))
}

func TestWSClient_RequiresToken(t *testing.T) {
	c := NewWSClient("ws://127.0.0.1:1/ws", "", "u")
	err := c.Connect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestWSClient_RoundTrip(t *testing.T) {
	received := make(chan protocol.ChatMessage, 1)
	upgrader := websocket.Upgrader{Subprotocols: []string{protocol.AuthSubprotocol}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protocols := websocket.Subprotocols(r)
		if len(protocols) != 2 || protocols[1] != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var chat protocol.ChatMessage
		if err := json.Unmarshal(data, &chat); err != nil {
			return
		}
		received <- chat

		frame := protocol.AgentActivity{
			BaseMessage: protocol.NewBase(protocol.TypeAgentActivity, "a1"),
			SessionKey:  chat.SessionKey,
			RequestID:   chat.RequestID,
			Agent:       "executor",
			Status:      "running",
			Message:     "Working",
		}
		out, _ := json.Marshal(frame)
		conn.WriteMessage(websocket.TextMessage, out)

		// Hold the connection until the client closes it.
		conn.ReadMessage()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewWSClient(url, "secret", "tester")
	require.NoError(t, c.Connect())
	defer c.Close()
	assert.True(t, c.IsConnected())

	require.NoError(t, c.SendChatWithID("s1", "hello", "run-1"))

	select {
	case chat := <-received:
		assert.Equal(t, "hello", chat.Text)
		assert.Equal(t, "run-1", chat.RequestID)
		assert.Equal(t, "tester", chat.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive chat message")
	}

	msgCh := make(chan tea.Msg, 1)
	go func() { msgCh <- c.ListenCmd()() }()

	select {
	case msg := <-msgCh:
		am, ok := msg.(ActivityMsg)
		require.True(t, ok, "got %T", msg)
		assert.Equal(t, "run-1", am.RequestID)
		assert.Equal(t, activity.AgentExecutor, am.Event.Agent)
		assert.True(t, am.Event.Running())
	case <-time.After(2 * time.Second):
		t.Fatal("client did not receive activity")
	}
}

func TestWSClient_RejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewWSClient("ws"+strings.TrimPrefix(srv.URL, "http"), "wrong", "tester")
	err := c.Connect()
	require.Error(t, err)
	assert.False(t, c.IsConnected())
}

func TestWSClient_SendWhileDisconnected(t *testing.T) {
	c := NewWSClient("ws://127.0.0.1:1/ws", "secret", "tester")
	assert.Error(t, c.SendChatWithID("s1", "hello", "r1"))
}
