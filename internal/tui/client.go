package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"agentdeck/internal/version"
	"agentdeck/pkg/protocol"
)

// WSClient manages the WebSocket connection to the gateway
type WSClient struct {
	url       string
	token     string
	userID    string
	conn      *websocket.Conn
	inbox     chan tea.Msg
	connected bool
	mu        sync.RWMutex
	done      chan struct{}
}

// NewWSClient creates a new WebSocket client
func NewWSClient(url, token, userID string) *WSClient {
	return &WSClient{
		url:    url,
		token:  token,
		userID: userID,
		inbox:  make(chan tea.Msg, 256),
		done:   make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection
func (c *WSClient) Connect() error {
	if c.token == "" {
		return errors.New("no authentication token configured")
	}

	dialer := websocket.Dialer{
		Subprotocols:     []string{protocol.AuthSubprotocol, c.token},
		HandshakeTimeout: 10 * time.Second,
	}

	header := http.Header{"User-Agent": []string{version.UserAgent()}}
	conn, _, err := dialer.Dial(c.url, header)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump(conn)

	return nil
}

// ConnectCmd returns a tea.Cmd that connects to the gateway
func (c *WSClient) ConnectCmd() tea.Cmd {
	return func() tea.Msg {
		if err := c.Connect(); err != nil {
			return DisconnectedMsg{Err: err}
		}
		return ConnectedMsg{}
	}
}

// ListenCmd returns a tea.Cmd that blocks until the next message arrives on the inbox.
func (c *WSClient) ListenCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-c.inbox:
			return msg
		case <-c.done:
			return nil
		}
	}
}

// ReconnectCmd returns a tea.Cmd that reconnects with backoff
func (c *WSClient) ReconnectCmd(attempt int) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-time.After(reconnectDelay(attempt)):
		case <-c.done:
			return nil
		}
		if err := c.Connect(); err != nil {
			return DisconnectedMsg{Err: err}
		}
		return ConnectedMsg{}
	}
}

// reconnectDelay is 1s, 2s, 4s, ... capped at 30s.
func reconnectDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		return 30 * time.Second
	}
	delay := time.Duration(1<<uint(attempt)) * time.Second
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}

// IsConnected returns the connection status
func (c *WSClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close gracefully disconnects
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
	default:
		close(c.done)
	}

	if c.conn != nil {
		c.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
}

// SendChatWithID sends a chat message; requestID correlates the whole run
func (c *WSClient) SendChatWithID(sessionKey, text, requestID string) error {
	return c.writeJSON(&protocol.ChatMessage{
		BaseMessage: protocol.NewBase(protocol.TypeChatMessage, uuid.NewString()),
		SessionKey:  sessionKey,
		UserID:      c.userID,
		RequestID:   requestID,
		Text:        text,
	})
}

// SendCommand sends a slash command to the gateway
func (c *WSClient) SendCommand(sessionKey, command, args, requestID string) error {
	return c.writeJSON(&protocol.CommandMessage{
		BaseMessage: protocol.NewBase(protocol.TypeCommandMessage, uuid.NewString()),
		SessionKey:  sessionKey,
		RequestID:   requestID,
		Command:     command,
		Args:        args,
	})
}

// writeJSON sends a JSON message through the WebSocket
func (c *WSClient) writeJSON(msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.conn == nil {
		return errors.New("not connected")
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// send enqueues a tea.Msg into the inbox. It blocks while the inbox is
// full so activity frames are never dropped, and gives up after Close.
func (c *WSClient) send(msg tea.Msg) {
	select {
	case c.inbox <- msg:
	case <-c.done:
	}
}

// readPump reads frames from conn and enqueues them as tea.Msg in the
// order the gateway sent them.
func (c *WSClient) readPump(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.connected = false
			c.conn = nil
		}
		c.mu.Unlock()
		select {
		case <-c.done:
		default:
			c.send(DisconnectedMsg{})
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[WSClient] read error: %v", err)
			}
			return
		}

		if msg := translate(data); msg != nil {
			c.send(msg)
		}
	}
}

// translate converts one gateway frame into a tea.Msg. Malformed frames
// and frames the TUI does not render return nil.
func translate(data []byte) tea.Msg {
	parsed, err := protocol.ParseMessage(data)
	if err != nil {
		log.Printf("[WSClient] dropping frame: %v", err)
		return nil
	}

	switch msg := parsed.(type) {
	case *protocol.StreamStart:
		return StreamStartMsg{SessionKey: msg.SessionKey, RequestID: msg.RequestID}

	case *protocol.StreamDelta:
		return StreamDeltaMsg{SessionKey: msg.SessionKey, RequestID: msg.RequestID, Delta: msg.Delta}

	case *protocol.StreamEnd:
		return StreamEndMsg{
			SessionKey:  msg.SessionKey,
			RequestID:   msg.RequestID,
			Content:     msg.Content,
			Aborted:     msg.Aborted,
			Model:       msg.Model,
			SessionCost: msg.SessionCost,
		}

	case *protocol.AgentActivity:
		ev, err := msg.ToEvent()
		if err != nil {
			log.Printf("[WSClient] dropping activity: %v", err)
			return nil
		}
		return ActivityMsg{SessionKey: msg.SessionKey, RequestID: msg.RequestID, Event: ev}

	case *protocol.ErrorResponse:
		return ErrorMsg{
			SessionKey: msg.SessionKey,
			RequestID:  msg.RequestID,
			Code:       msg.Code,
			Message:    msg.Message,
		}

	case *protocol.GatewayInfo:
		return GatewayInfoMsg{AssistantName: msg.AssistantName, Version: msg.Version}
	}
	return nil
}
