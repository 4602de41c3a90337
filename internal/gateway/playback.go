package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"agentdeck/pkg/protocol"
)

// startRun answers a chat message by playing the configured scenario.
// A run already in flight on the same session is cancelled first.
func (g *Gateway) startRun(ctx context.Context, client *Client, msg *protocol.ChatMessage) {
	sessionKey := msg.SessionKey
	if sessionKey == "" {
		sessionKey = client.ID
	}
	requestID := msg.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	if client.UserID == "" {
		client.UserID = msg.UserID
	}

	log.Printf("[Gateway] chat from %s: %d chars (session: %s, run: %s)", client.ID, len(msg.Text), sessionKey, requestID)

	if allowed, _, retryAfter := g.limiter.Allow(sessionKey); !allowed {
		g.sendErrorToClient(client, sessionKey, requestID, "rate_limited",
			fmt.Sprintf("Too many runs; try again in %s", retryAfter.Round(time.Second)))
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{requestID: requestID, client: client, cancel: cancel, done: make(chan struct{})}

	g.activeRunsMu.Lock()
	prev := g.activeRuns[sessionKey]
	if prev != nil {
		log.Printf("[Gateway] superseding run %s on session %s", prev.requestID, sessionKey)
		prev.cancel()
	}
	g.activeRuns[sessionKey] = r
	g.activeRunsMu.Unlock()

	go func() {
		// The previous run's aborted stream_end goes out before this
		// run's stream_start.
		if prev != nil {
			<-prev.done
		}
		g.play(runCtx, client, sessionKey, r)
	}()
}

// play streams one scenario run to the client. Frames are sent in script
// order from this goroutine only, so the client sees them in that order.
func (g *Gateway) play(ctx context.Context, client *Client, sessionKey string, r *run) {
	defer func() {
		r.cancel()
		close(r.done)
		g.activeRunsMu.Lock()
		if g.activeRuns[sessionKey] == r {
			delete(g.activeRuns, sessionKey)
		}
		g.activeRunsMu.Unlock()
	}()

	sc := g.config.Scenario
	var streamed strings.Builder

	aborted := func() {
		log.Printf("[Gateway] run %s aborted", r.requestID)
		g.sendToClient(client, &protocol.StreamEnd{
			BaseMessage: protocol.NewBase(protocol.TypeStreamEnd, uuid.NewString()),
			SessionKey:  sessionKey,
			RequestID:   r.requestID,
			Content:     streamed.String(),
			Aborted:     true,
			Model:       sc.Model,
		})
	}

	if !g.sendToClient(client, &protocol.StreamStart{
		BaseMessage: protocol.NewBase(protocol.TypeStreamStart, uuid.NewString()),
		SessionKey:  sessionKey,
		RequestID:   r.requestID,
	}) {
		return
	}

	for _, step := range sc.Steps {
		if !wait(ctx, step.Delay) {
			aborted()
			return
		}
		if !g.sendToClient(client, &protocol.AgentActivity{
			BaseMessage: protocol.NewBase(protocol.TypeAgentActivity, uuid.NewString()),
			SessionKey:  sessionKey,
			RequestID:   r.requestID,
			Agent:       step.Agent,
			Status:      step.Status,
			Message:     step.Message,
		}) {
			return
		}
	}

	for i, word := range strings.Fields(sc.Reply) {
		if !wait(ctx, g.config.WordDelay) {
			aborted()
			return
		}
		delta := word
		if i > 0 {
			delta = " " + word
		}
		streamed.WriteString(delta)
		if !g.sendToClient(client, &protocol.StreamDelta{
			BaseMessage: protocol.NewBase(protocol.TypeStreamDelta, uuid.NewString()),
			SessionKey:  sessionKey,
			RequestID:   r.requestID,
			Delta:       delta,
		}) {
			return
		}
	}

	if ctx.Err() != nil {
		aborted()
		return
	}

	words := len(strings.Fields(sc.Reply))
	g.sendToClient(client, &protocol.StreamEnd{
		BaseMessage:      protocol.NewBase(protocol.TypeStreamEnd, uuid.NewString()),
		SessionKey:       sessionKey,
		RequestID:        r.requestID,
		Content:          streamed.String(),
		Model:            sc.Model,
		CompletionTokens: words,
		TotalTokens:      words,
	})
	log.Printf("[Gateway] run %s complete (%d steps)", r.requestID, len(sc.Steps))
}

// handleCommand processes a slash command. Only /stop is understood.
func (g *Gateway) handleCommand(client *Client, msg *protocol.CommandMessage) {
	sessionKey := msg.SessionKey
	if sessionKey == "" {
		sessionKey = client.ID
	}

	switch strings.TrimSpace(msg.Command) {
	case "/stop":
		if !g.stopRun(sessionKey, msg.RequestID) {
			log.Printf("[Gateway] /stop with no active run on session %s", sessionKey)
		}
	default:
		g.sendErrorToClient(client, sessionKey, msg.RequestID, "unknown_command",
			fmt.Sprintf("Unknown command %q", msg.Command))
	}
}

// stopRun cancels the session's active run. A non-empty requestID must
// match the active run.
func (g *Gateway) stopRun(sessionKey, requestID string) bool {
	g.activeRunsMu.Lock()
	defer g.activeRunsMu.Unlock()

	r, ok := g.activeRuns[sessionKey]
	if !ok || (requestID != "" && r.requestID != requestID) {
		return false
	}
	r.cancel()
	log.Printf("[Gateway] cancelled run %s on session %s", r.requestID, sessionKey)
	return true
}

// cancelClientRuns cancels every run streaming to client.
func (g *Gateway) cancelClientRuns(client *Client) {
	g.activeRunsMu.Lock()
	defer g.activeRunsMu.Unlock()

	for _, r := range g.activeRuns {
		if r.client == client {
			r.cancel()
		}
	}
}

// wait sleeps for d unless ctx ends first. It reports whether the run
// should continue.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
