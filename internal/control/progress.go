package control

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/analysis"
)

// ProgressEvent is one batch progress update pushed to subscribers
type ProgressEvent struct {
	Type        string `json:"type"`
	Completed   int    `json:"completed"`
	Total       int    `json:"total"`
	MatchID     string `json:"match_id,omitempty"`
	Predicted   bool   `json:"predicted"`
	SkipReason  string `json:"skip_reason,omitempty"`
	BreakerInfo string `json:"breaker_info,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// ProgressHub broadcasts batch progress to websocket subscribers. Slow
// subscribers are dropped rather than backing up the batch.
type ProgressHub struct {
	upgrader websocket.Upgrader
	logger   *logrus.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan ProgressEvent
	closed  bool
}

// NewProgressHub creates a progress hub
func NewProgressHub(logger *logrus.Logger) *ProgressHub {
	return &ProgressHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Operator tooling connects from anywhere on the internal network
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]chan ProgressEvent),
	}
}

// HandleWebSocket upgrades the connection and streams progress events
func (h *ProgressHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	events := make(chan ProgressEvent, 64)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = events
	h.mu.Unlock()

	go h.writeLoop(conn, events)
	go h.readLoop(conn)
}

// Broadcast pushes an event to every subscriber, dropping any whose
// buffer is full.
func (h *ProgressHub) Broadcast(event ProgressEvent) {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, events := range h.clients {
		select {
		case events <- event:
		default:
			h.logger.Warn("Dropping slow progress subscriber")
			delete(h.clients, conn)
			close(events)
			conn.Close()
		}
	}
}

// ProgressFunc adapts the hub to the batch runner's progress callback
func (h *ProgressHub) ProgressFunc(completed, total int, outcome analysis.Outcome) {
	event := ProgressEvent{
		Type:      "match_completed",
		Completed: completed,
		Total:     total,
		Predicted: outcome.Prediction != nil,
	}
	if outcome.Match != nil {
		event.MatchID = outcome.Match.ID
	}
	if outcome.Skip != nil {
		event.SkipReason = string(outcome.Skip.Reason)
	}
	h.Broadcast(event)
}

// BroadcastBreakerPause notifies subscribers that the batch is paused
func (h *ProgressHub) BroadcastBreakerPause(consecutiveFailures int, lastErr error) {
	info := ""
	if lastErr != nil {
		info = lastErr.Error()
	}
	h.Broadcast(ProgressEvent{Type: "breaker_paused", BreakerInfo: info})
}

// BroadcastBreakerResume notifies subscribers that the batch resumed
func (h *ProgressHub) BroadcastBreakerResume(pausedFor time.Duration, resumedBy string) {
	h.Broadcast(ProgressEvent{Type: "breaker_resumed", BreakerInfo: resumedBy})
}

// Close disconnects every subscriber
func (h *ProgressHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for conn, events := range h.clients {
		close(events)
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]chan ProgressEvent)
}

// writeLoop serializes events to one connection
func (h *ProgressHub) writeLoop(conn *websocket.Conn, events chan ProgressEvent) {
	for event := range events {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			h.remove(conn)
			return
		}
	}
}

// readLoop drains client frames so pings and close messages are handled
func (h *ProgressHub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			return
		}
	}
}

func (h *ProgressHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if events, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(events)
	}
	conn.Close()
}
