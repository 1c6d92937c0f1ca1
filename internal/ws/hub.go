package ws

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"voltcity/internal/models"
)

// StationEvent is pushed to subscribed dashboards on every status change.
type StationEvent struct {
	StationID int64                `json:"station_id"`
	Name      string               `json:"name"`
	Status    models.StationStatus `json:"status"`
	At        time.Time            `json:"at"`
}

// eventConn is the subset of *websocket.Conn the hub needs.
type eventConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub tracks dashboard subscribers and fans out station events. A failed
// write drops the subscriber.
type Hub struct {
	mu      sync.Mutex
	clients map[eventConn]struct{}
	logger  *zap.Logger
}

// NewHub builds hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[eventConn]struct{}),
		logger:  logger,
	}
}

// Add registers a subscriber.
func (h *Hub) Add(conn eventConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

// Remove drops a subscriber.
func (h *Hub) Remove(conn eventConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// Broadcast sends the event to every subscriber.
func (h *Hub) Broadcast(event StationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Warn("dropping feed subscriber", zap.Error(err))
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}

// StationChanged implements the coordinator's event sink.
func (h *Hub) StationChanged(stationID int64, name string, status models.StationStatus) {
	h.Broadcast(StationEvent{
		StationID: stationID,
		Name:      name,
		Status:    status,
		At:        time.Now().UTC(),
	})
}

// Count returns the current subscriber count.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
