package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agentdeck/internal/activity"
)

// MessageType defines the type of protocol message
type MessageType string

const (
	// Client -> gateway
	TypeChatMessage    MessageType = "chat_message"    // user sends chat, starts a run
	TypeCommandMessage MessageType = "command_message" // user sends slash command

	// Gateway -> client
	TypeStreamStart   MessageType = "stream_start"   // run begins
	TypeStreamDelta   MessageType = "stream_delta"   // reply text chunk
	TypeStreamEnd     MessageType = "stream_end"     // run complete
	TypeAgentActivity MessageType = "agent_activity" // pipeline agent lifecycle
	TypeErrorResponse MessageType = "error_response" // error notification
	TypeGatewayInfo   MessageType = "gateway_info"   // server metadata on connect

	// Bidirectional
	TypeHealthCheck MessageType = "health_check"
)

// AuthSubprotocol is the first WebSocket subprotocol a client offers;
// the second carries its token.
const AuthSubprotocol = "agentdeck-auth"

// ErrInvalidActivity is returned when an agent_activity frame names an
// unknown agent or status.
var ErrInvalidActivity = errors.New("invalid agent activity")

// BaseMessage contains common fields for all protocol messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
}

// ChatMessage represents a chat message from a client
type ChatMessage struct {
	BaseMessage
	SessionKey string `json:"session_key"`
	UserID     string `json:"user_id,omitempty"`
	RequestID  string `json:"request_id,omitempty"` // correlates the whole run
	Text       string `json:"text"`
}

// CommandMessage represents a slash command from a client
type CommandMessage struct {
	BaseMessage
	SessionKey string `json:"session_key"`
	RequestID  string `json:"request_id,omitempty"`
	Command    string `json:"command"`
	Args       string `json:"args,omitempty"`
}

// StreamStart signals the beginning of a run
type StreamStart struct {
	BaseMessage
	SessionKey string `json:"session_key"`
	RequestID  string `json:"request_id"`
}

// StreamDelta delivers a reply text chunk during streaming
type StreamDelta struct {
	BaseMessage
	SessionKey string `json:"session_key"`
	RequestID  string `json:"request_id"`
	Delta      string `json:"delta"`
}

// StreamEnd signals the end of a run. Usage and cost are computed by the
// gateway and only displayed here.
type StreamEnd struct {
	BaseMessage
	SessionKey       string  `json:"session_key"`
	RequestID        string  `json:"request_id"`
	Content          string  `json:"content"`
	Aborted          bool    `json:"aborted,omitempty"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	TotalTokens      int     `json:"total_tokens,omitempty"`
	Model            string  `json:"model,omitempty"`
	RequestCost      float64 `json:"request_cost,omitempty"`
	SessionCost      float64 `json:"session_cost,omitempty"`
}

// AgentActivity reports a lifecycle transition of one pipeline agent
type AgentActivity struct {
	BaseMessage
	SessionKey string `json:"session_key"`
	RequestID  string `json:"request_id"`
	Agent      string `json:"agent"`
	Status     string `json:"status"` // "running", "completed"
	Message    string `json:"message,omitempty"`
}

// ToEvent validates the frame and converts it to an activity event.
func (a *AgentActivity) ToEvent() (activity.Event, error) {
	agent, err := activity.ParseAgent(a.Agent)
	if err != nil {
		return activity.Event{}, fmt.Errorf("%w: %v", ErrInvalidActivity, err)
	}
	status, err := activity.ParseStatus(a.Status)
	if err != nil {
		return activity.Event{}, fmt.Errorf("%w: %v", ErrInvalidActivity, err)
	}
	at := a.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	return activity.Event{
		Agent:   agent,
		Status:  status,
		Message: a.Message,
		At:      at,
	}, nil
}

// Validate reports whether the frame can be converted to an event.
func (a *AgentActivity) Validate() error {
	_, err := a.ToEvent()
	return err
}

// ErrorResponse delivers an error notification to the client
type ErrorResponse struct {
	BaseMessage
	SessionKey string `json:"session_key,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// GatewayInfo delivers server metadata to the client on connect
type GatewayInfo struct {
	BaseMessage
	AssistantName string   `json:"assistant_name"`
	Version       string   `json:"version,omitempty"`
	Agents        []string `json:"agents,omitempty"`
}

// HealthCheck represents a health check request/response
type HealthCheck struct {
	BaseMessage
	Status string `json:"status"`
}

// NewBase fills the envelope for an outgoing message.
func NewBase(t MessageType, id string) BaseMessage {
	return BaseMessage{
		Type:      t,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ParseMessage parses a JSON message into the appropriate struct
func ParseMessage(data []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, err
	}

	var msg interface{}
	switch base.Type {
	case TypeChatMessage:
		msg = &ChatMessage{}
	case TypeCommandMessage:
		msg = &CommandMessage{}
	case TypeStreamStart:
		msg = &StreamStart{}
	case TypeStreamDelta:
		msg = &StreamDelta{}
	case TypeStreamEnd:
		msg = &StreamEnd{}
	case TypeAgentActivity:
		msg = &AgentActivity{}
	case TypeErrorResponse:
		msg = &ErrorResponse{}
	case TypeGatewayInfo:
		msg = &GatewayInfo{}
	case TypeHealthCheck:
		msg = &HealthCheck{}
	default:
		// Unknown frames from newer gateways are passed through untyped.
		return &base, nil
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	if a, ok := msg.(*AgentActivity); ok {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}
	return msg, nil
}
