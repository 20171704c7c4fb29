package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/realghost120/ghostgaurd-becakd/internal/infrastructure"
	"github.com/realghost120/ghostgaurd-becakd/internal/license"
	"github.com/realghost120/ghostgaurd-becakd/pkg/contracts/events"
)

// Hub maintains the set of connected console clients and fans fleet
// events out to them. License keys are masked before anything leaves
// the hub; consoles never see full keys on the feed.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages to every client
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger instance
	logger *slog.Logger

	// Instrumentation, optional
	metrics *Metrics

	// Counters for periodic reporting
	totalConnections int64
	messagesSent     int64
	messagesDropped  int64

	// Control
	quit        chan struct{}
	running     bool
	metricsQuit chan struct{}
}

// NewHub creates a new Hub instance with dependency injection
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	return &Hub{
		broadcast:   make(chan []byte, 64),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		logger:      logger,
		quit:        make(chan struct{}),
		metricsQuit: make(chan struct{}),
	}
}

// SetMetrics attaches the hub instrument set. Safe to leave unset.
func (h *Hub) SetMetrics(m *Metrics) {
	h.metrics = m
}

// Start starts the hub's goroutines
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
	go h.reportMetrics()
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			h.mu.Unlock()

			ctx := context.Background()
			if client.traceID != "" {
				ctx = infrastructure.WithTraceID(ctx, client.traceID)
			}

			h.logger.InfoContext(ctx, "Console client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			if h.metrics != nil {
				h.metrics.ConnectionsTotal.Add(ctx, 1)
				h.metrics.ActiveClients.Add(ctx, 1)
			}

			// Greet the new client so the console can confirm the feed
			connMsg := events.Message{
				BaseMessage: events.BaseMessage{
					Type:      events.MessageTypeConnect,
					Timestamp: time.Now().UTC(),
					TraceID:   client.traceID,
				},
				Data: map[string]string{
					"status":    "connected",
					"message":   "Connected to GhostGuard console feed",
					"client_id": client.id,
				},
			}

			jsonData, err := json.Marshal(connMsg)
			if err == nil {
				select {
				case client.send <- jsonData:
					h.logger.DebugContext(ctx, "Sent connect message to client",
						slog.String("client_id", client.id))
				default:
					h.logger.WarnContext(ctx, "Failed to send connect message - client buffer full",
						slog.String("client_id", client.id))
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				ctx := context.Background()
				if client.traceID != "" {
					ctx = infrastructure.WithTraceID(ctx, client.traceID)
				}

				h.logger.InfoContext(ctx, "Console client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))

				if h.metrics != nil {
					h.metrics.ActiveClients.Add(ctx, -1)
				}
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			// Copy clients so the lock is not held while sending
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			successCount := 0
			failCount := 0

			for _, client := range clients {
				select {
				case client.send <- message:
					successCount++
				default:
					failCount++
					// Client's send channel is full, drop the client
					h.mu.Lock()
					close(client.send)
					delete(h.clients, client)
					h.mu.Unlock()

					ctx := context.Background()
					if client.traceID != "" {
						ctx = infrastructure.WithTraceID(ctx, client.traceID)
					}
					h.logger.WarnContext(ctx, "Client send buffer full, disconnecting",
						slog.String("client_id", client.id))

					if h.metrics != nil {
						h.metrics.ActiveClients.Add(ctx, -1)
						h.metrics.MessagesDropped.Add(ctx, 1)
					}
				}
			}

			h.mu.Lock()
			h.messagesSent += int64(successCount)
			h.messagesDropped += int64(failCount)
			h.mu.Unlock()

			h.logger.Debug("Broadcast delivered",
				slog.Int("client_count", len(clients)),
				slog.Int("message_size", len(message)),
				slog.Int("fail_count", failCount))

			if h.metrics != nil {
				ctx := context.Background()
				h.metrics.Broadcasts.Add(ctx, 1)
				h.metrics.MessagesSent.Add(ctx, int64(successCount))
			}
		}
	}
}

// publish wraps data in the event envelope and queues it for broadcast.
// The trace ID is lifted from ctx so console events correlate with the
// request that caused them.
func (h *Hub) publish(ctx context.Context, msgType events.MessageType, data interface{}) {
	msg := events.Message{
		BaseMessage: events.BaseMessage{
			Type:      msgType,
			Timestamp: time.Now().UTC(),
			TraceID:   infrastructure.GetTraceID(ctx),
		},
		Data: data,
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error marshaling event",
			slog.String("error", err.Error()),
			slog.String("message_type", string(msgType)))
		return
	}

	select {
	case h.broadcast <- jsonData:
	case <-h.quit:
		// Hub stopped, drop the event
	}
}

// BroadcastHeartbeat announces a processed heartbeat to all consoles.
func (h *Hub) BroadcastHeartbeat(ctx context.Context, licenseKey string, players int, version string, uptime int64) {
	h.publish(ctx, events.MessageTypeHeartbeat, events.HeartbeatEvent{
		LicenseKey: license.MaskKey(licenseKey),
		Players:    players,
		Version:    version,
		Uptime:     uptime,
	})
}

// BroadcastBan announces a recorded player ban.
func (h *Hub) BroadcastBan(ctx context.Context, licenseKey, player string, when time.Time) {
	h.publish(ctx, events.MessageTypeBan, events.BanEvent{
		LicenseKey: license.MaskKey(licenseKey),
		Player:     player,
		Time:       when,
	})
}

// BroadcastActionQueued announces an action waiting for an agent.
func (h *Hub) BroadcastActionQueued(ctx context.Context, licenseKey, actionID, actionType string) {
	h.publish(ctx, events.MessageTypeActionQueued, events.ActionEvent{
		LicenseKey: license.MaskKey(licenseKey),
		ActionID:   actionID,
		ActionType: actionType,
	})
}

// BroadcastActionsDrained announces that an agent collected its mailbox.
func (h *Hub) BroadcastActionsDrained(ctx context.Context, licenseKey string, count int) {
	h.publish(ctx, events.MessageTypeActionsDrained, events.ActionEvent{
		LicenseKey: license.MaskKey(licenseKey),
		Count:      count,
	})
}

// BroadcastLog announces a pushed server log line.
func (h *Hub) BroadcastLog(ctx context.Context, licenseKey, kind, message string) {
	h.publish(ctx, events.MessageTypeLog, events.LogEvent{
		LicenseKey: license.MaskKey(licenseKey),
		Kind:       kind,
		Message:    message,
	})
}

// BroadcastStatus reports overall service health to connected consoles.
func (h *Hub) BroadcastStatus(ctx context.Context, status, version, uptime string) {
	h.publish(ctx, events.MessageTypeSystemStatus, events.StatusEvent{
		Status:  status,
		Version: version,
		Uptime:  uptime,
		Clients: h.ClientCount(),
	})
}

// BroadcastError carries a feed-level error to all consoles.
func (h *Hub) BroadcastError(ctx context.Context, code, message string, fatal bool) {
	h.publish(ctx, events.MessageTypeError, events.ErrorEvent{
		Code:    code,
		Message: message,
		Fatal:   fatal,
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop gracefully stops the hub
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	close(h.metricsQuit)

	// Close all client connections
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// reportMetrics periodically reports hub metrics
func (h *Hub) reportMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.metricsQuit:
			h.logger.Info("Metrics reporting shutting down")
			return

		case <-ticker.C:
			h.mu.RLock()
			activeClients := len(h.clients)
			totalConnections := h.totalConnections
			messagesSent := h.messagesSent
			messagesDropped := h.messagesDropped
			h.mu.RUnlock()

			h.logger.Info("WebSocket hub metrics",
				slog.Int("active_clients", activeClients),
				slog.Int64("total_connections", totalConnections),
				slog.Int64("messages_sent", messagesSent),
				slog.Int64("messages_dropped", messagesDropped),
				slog.Int("broadcast_queue", len(h.broadcast)),
			)
		}
	}
}

// GetHubMetrics returns current hub metrics
func (h *Hub) GetHubMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_dropped":  h.messagesDropped,
	}
}
