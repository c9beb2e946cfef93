package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"socialhub/internal/metrics"
	"socialhub/internal/model"
)

// Broadcaster fans an event out to connected clients.
type Broadcaster interface {
	Broadcast(ev model.BroadcastEvent) int
}

// Registry tracks the open connections of the process.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn

	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(m *metrics.Metrics, log *slog.Logger) *Registry {
	return &Registry{
		conns:   make(map[string]*Conn),
		metrics: m,
		log:     log,
	}
}

// Register adds c and moves it to StateOpen.
func (r *Registry) Register(c *Conn) {
	r.mu.Lock()
	r.conns[c.ID] = c
	r.metrics.WSConnections.Set(float64(len(r.conns)))
	r.mu.Unlock()

	c.open()
}

// Unregister removes c. Removing an unknown connection is a no-op.
func (r *Registry) Unregister(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c.ID]; !ok {
		return
	}
	delete(r.conns, c.ID)
	r.metrics.WSConnections.Set(float64(len(r.conns)))
}

// CloseAll sends a going-away close frame to every registered connection,
// closes it and empties the registry. It returns how many were closed.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	snapshot := make([]*Conn, 0, len(r.conns))
	for id, c := range r.conns {
		snapshot = append(snapshot, c)
		delete(r.conns, id)
	}
	r.metrics.WSConnections.Set(0)
	r.mu.Unlock()

	for _, c := range snapshot {
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
	}
	if len(snapshot) > 0 {
		r.log.Info("ws.close_all", slog.Int("count", len(snapshot)))
	}
	return len(snapshot)
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Broadcast queues ev on every registered connection and returns how many
// accepted it. Connections with a full queue or a closed transport are skipped.
func (r *Registry) Broadcast(ev model.BroadcastEvent) int {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.log.Error("ws.broadcast.encode.fail", slog.String("error", err.Error()))
		return 0
	}

	// snapshot so a slow Enqueue never holds the lock against Register / Unregister
	r.mu.RLock()
	snapshot := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		snapshot = append(snapshot, c)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, c := range snapshot {
		if c.Enqueue(payload) {
			delivered++
			continue
		}
		r.metrics.BroadcastSkipped.Inc()
		r.log.Debug("ws.broadcast.skip", slog.String("conn_id", c.ID), slog.String("state", c.State().String()))
	}
	return delivered
}
