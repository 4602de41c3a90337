// Package gateway implements the demo gateway: a WebSocket server that
// answers every chat with a scripted pipeline run.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"agentdeck/internal/activity"
	"agentdeck/internal/ratelimit"
	"agentdeck/internal/scenario"
	"agentdeck/internal/version"
	"agentdeck/pkg/protocol"
	"agentdeck/pkg/tokens"
)

// DefaultPort matches tui.DefaultGatewayURL.
const DefaultPort = 18790

// Config holds demo gateway settings
type Config struct {
	Port          int
	Token         string
	AssistantName string
	Scenario      *scenario.Scenario
	// RunsPerMinute caps runs per session. Zero uses the default, negative disables.
	RunsPerMinute int
	// WordDelay is the pause between streamed reply words.
	WordDelay time.Duration
}

// Gateway serves scripted runs over WebSocket
type Gateway struct {
	config   Config
	upgrader websocket.Upgrader
	limiter  *ratelimit.Limiter
	started  time.Time

	clients  map[string]*Client
	clientMu sync.RWMutex

	// Active runs for /stop, keyed by session
	activeRuns   map[string]*run
	activeRunsMu sync.Mutex

	ctx    context.Context // gateway lifecycle context
	cancel context.CancelFunc
}

// Client represents a WebSocket client connection
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// run is one in-flight scenario playback
type run struct {
	requestID string
	client    *Client
	cancel    context.CancelFunc
	done      chan struct{} // closed when playback returns
}

// New creates a demo gateway. It serves nothing until Start or Handler is used.
func New(config Config) (*Gateway, error) {
	if config.Token == "" {
		return nil, errors.New("gateway token is required")
	}
	if config.Scenario == nil {
		config.Scenario = scenario.Default()
	}
	if err := config.Scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.AssistantName == "" {
		config.AssistantName = "Agentdeck"
	}
	if config.WordDelay == 0 {
		config.WordDelay = 40 * time.Millisecond
	}

	limit := config.RunsPerMinute
	if limit == 0 {
		limit = ratelimit.DefaultRunsPerMinute
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Gateway{
		config:  config,
		limiter: ratelimit.New(time.Minute, limit),
		started: time.Now(),
		upgrader: websocket.Upgrader{
			// Clients are terminals, not browsers.
			CheckOrigin:  func(r *http.Request) bool { return true },
			Subprotocols: []string{protocol.AuthSubprotocol},
		},
		clients:    make(map[string]*Client),
		activeRuns: make(map[string]*run),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Handler returns the HTTP handler serving /ws and /health.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.handleWebSocket)
	mux.HandleFunc("/health", g.handleHealth)
	return mux
}

// Start listens on the configured port until ctx is cancelled.
func (g *Gateway) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", g.config.Port),
		Handler: g.Handler(),
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := g.limiter.Prune(); n > 0 {
					log.Printf("[Gateway] pruned %d idle rate limit windows", n)
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Gateway] demo gateway listening on :%d (scenario %q)", g.config.Port, g.config.Scenario.Name)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		g.Close()
		if ok {
			return fmt.Errorf("gateway server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("[Gateway] shutting down...")
	g.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Gateway] server shutdown error: %v", err)
	}
	return nil
}

// Close cancels every active run and disconnects all clients.
func (g *Gateway) Close() {
	g.cancel()

	g.clientMu.Lock()
	for _, client := range g.clients {
		client.close()
	}
	g.clientMu.Unlock()
}

// ClientCount returns the number of connected clients
func (g *Gateway) ClientCount() int {
	g.clientMu.RLock()
	defer g.clientMu.RUnlock()
	return len(g.clients)
}

// authorized reports whether the upgrade request carries the gateway token
// as the second offered subprotocol.
func (g *Gateway) authorized(r *http.Request) bool {
	protocols := websocket.Subprotocols(r)
	if len(protocols) < 2 || protocols[0] != protocol.AuthSubprotocol {
		return false
	}
	return tokens.Equal(protocols[1], g.config.Token)
}

// handleWebSocket handles WebSocket connections with authentication
func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !g.authorized(r) {
		log.Printf("[Gateway] rejected unauthenticated upgrade from %s", r.RemoteAddr)
		w.Header().Set("WWW-Authenticate", `Bearer realm="agentdeck"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:   "client_" + uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, 256),
		done: make(chan struct{}),
	}

	g.clientMu.Lock()
	g.clients[client.ID] = client
	g.clientMu.Unlock()

	log.Printf("[Gateway] client connected: %s (%s)", client.ID, r.UserAgent())

	agents := make([]string, 0, len(activity.AllAgents()))
	for _, a := range activity.AllAgents() {
		agents = append(agents, a.String())
	}
	g.sendToClient(client, &protocol.GatewayInfo{
		BaseMessage:   protocol.NewBase(protocol.TypeGatewayInfo, uuid.NewString()),
		AssistantName: g.config.AssistantName,
		Version:       version.Info(),
		Agents:        agents,
	})

	// The request context ends when this handler returns, so client
	// goroutines run under the gateway lifecycle context.
	go g.handleClientWrite(client)
	go g.handleClientRead(g.ctx, client)
}

// handleClientRead handles incoming messages from a WebSocket client
func (g *Gateway) handleClientRead(ctx context.Context, client *Client) {
	defer func() {
		g.clientMu.Lock()
		delete(g.clients, client.ID)
		g.clientMu.Unlock()

		g.cancelClientRuns(client)
		client.close()
		client.Conn.Close()
		log.Printf("[Gateway] client disconnected: %s", client.ID)
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Gateway] client %s closed connection normally", client.ID)
			} else {
				log.Printf("[Gateway] read error from %s: %v", client.ID, err)
			}
			return
		}

		parsed, err := protocol.ParseMessage(message)
		if err != nil {
			log.Printf("[Gateway] failed to parse message from %s: %v", client.ID, err)
			continue
		}

		switch msg := parsed.(type) {
		case *protocol.ChatMessage:
			g.startRun(ctx, client, msg)
		case *protocol.CommandMessage:
			g.handleCommand(client, msg)
		case *protocol.HealthCheck:
			g.sendToClient(client, &protocol.HealthCheck{
				BaseMessage: protocol.NewBase(protocol.TypeHealthCheck, uuid.NewString()),
				Status:      "ok",
			})
		default:
			log.Printf("[Gateway] unhandled message type from %s: %T", client.ID, msg)
		}
	}
}

// handleClientWrite handles outgoing messages to a WebSocket client
func (g *Gateway) handleClientWrite(client *Client) {
	defer client.Conn.Close()

	for {
		select {
		case message := <-client.Send:
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Gateway] write error to %s: %v", client.ID, err)
				client.close()
				return
			}
		case <-client.done:
			client.Conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			)
			return
		}
	}
}

// sendToClient queues a protocol message for a client. It blocks while the
// send buffer is full so run frames are never dropped or reordered, and
// gives up once the client is gone.
func (g *Gateway) sendToClient(client *Client, msg interface{}) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Gateway] failed to marshal message for client %s: %v", client.ID, err)
		return false
	}

	select {
	case client.Send <- data:
		return true
	case <-client.done:
		return false
	}
}

// sendErrorToClient sends an error response to a WebSocket client
func (g *Gateway) sendErrorToClient(client *Client, sessionKey, requestID, code, message string) {
	g.sendToClient(client, &protocol.ErrorResponse{
		BaseMessage: protocol.NewBase(protocol.TypeErrorResponse, uuid.NewString()),
		SessionKey:  sessionKey,
		RequestID:   requestID,
		Code:        code,
		Message:     message,
	})
}

// handleHealth reports liveness as JSON
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":         "ok",
		"version":        version.Info(),
		"uptime_seconds": int64(time.Since(g.started).Seconds()),
		"clients":        g.ClientCount(),
		"scenario":       g.config.Scenario.Name,
	})
}
