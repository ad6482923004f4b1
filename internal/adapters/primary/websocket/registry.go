package websocket

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk-backend/internal/core/ports"
	"github.com/opsdesk/opsdesk-backend/internal/infrastructure/metrics"
)

// Registry tracks the set of live client connections. Membership reflects
// exactly the currently-open connections: a connection is added on register
// and removed on the first observed failure or explicit unregister.
//
// All mutation and the snapshot read happen under one mutex, but sends to
// individual connections never do - a slow client cannot stall registration
// or delivery to other clients.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]ports.Connection

	logger *slog.Logger
}

var _ ports.ConnectionRegistry = (*Registry)(nil)

// NewRegistry creates an empty connection registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		conns:  make(map[uuid.UUID]ports.Connection),
		logger: logger.With("component", "connection_registry"),
	}
}

// Register adds a newly-opened connection and returns its id. Registering a
// connection whose id is already present replaces the stale entry; the
// previous holder is closed so it cannot linger unreachable.
func (r *Registry) Register(conn ports.Connection) uuid.UUID {
	id := conn.ID()

	r.mu.Lock()
	prev, existed := r.conns[id]
	r.conns[id] = conn
	total := len(r.conns)
	r.mu.Unlock()

	if existed && prev != conn {
		_ = prev.Close()
		r.logger.Warn("replaced stale connection with same id", "connection_id", id)
	}

	metrics.ConnectionsActive.Set(float64(total))
	r.logger.Info("connection registered",
		"connection_id", id,
		"total_connections", total,
	)
	return id
}

// Unregister removes a connection and closes it. It is idempotent:
// unregistering an absent id is a no-op, since connections may close
// concurrently from multiple triggers (explicit close, send failure,
// client disconnect).
func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	conn, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	total := len(r.conns)
	r.mu.Unlock()

	if !ok {
		return
	}

	// Close outside the lock; a blocked transport must not stall the registry.
	_ = conn.Close()

	metrics.ConnectionsActive.Set(float64(total))
	r.logger.Info("connection unregistered",
		"connection_id", id,
		"total_connections", total,
	)
}

// Snapshot returns a consistent point-in-time copy of the membership for
// iteration by the broadcaster. Concurrent register/unregister after the
// snapshot is taken does not affect the returned slice.
func (r *Registry) Snapshot() []ports.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]ports.Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}

// Len returns the current number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
