package tui

import "agentdeck/internal/activity"

// BubbleTea message types produced by the gateway read pump

// ConnectedMsg signals successful WebSocket connection
type ConnectedMsg struct{}

// DisconnectedMsg signals WebSocket disconnection
type DisconnectedMsg struct {
	Err error
}

// StreamStartMsg signals the beginning of a run on the gateway
type StreamStartMsg struct {
	SessionKey string
	RequestID  string
}

// StreamDeltaMsg delivers a reply text chunk during streaming
type StreamDeltaMsg struct {
	SessionKey string
	RequestID  string
	Delta      string
}

// StreamEndMsg signals completion (or abort) of a run
type StreamEndMsg struct {
	SessionKey  string
	RequestID   string
	Content     string
	Aborted     bool
	Model       string
	SessionCost float64
}

// ActivityMsg carries one validated agent lifecycle event
type ActivityMsg struct {
	SessionKey string
	RequestID  string
	Event      activity.Event
}

// GatewayInfoMsg delivers server metadata from the gateway
type GatewayInfoMsg struct {
	AssistantName string
	Version       string
}

// ThinkingTickMsg drives the scanner animation in the chat view.
type ThinkingTickMsg struct{}

// ErrorMsg signals an error from the gateway
type ErrorMsg struct {
	SessionKey string
	RequestID  string
	Code       string
	Message    string
}
