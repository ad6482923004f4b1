package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	"github.com/opsdesk/opsdesk-backend/internal/core/ports"
	"github.com/opsdesk/opsdesk-backend/internal/infrastructure/metrics"
)

// Hub fans ticket update events out to every registered connection. Delivery
// to one connection is independent of the others: a failed send unregisters
// that connection and the loop continues, so membership is self-healing.
type Hub struct {
	registry ports.ConnectionRegistry
	logger   *slog.Logger
}

var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a broadcaster over the given registry.
func NewHub(registry ports.ConnectionRegistry, logger *slog.Logger) *Hub {
	return &Hub{
		registry: registry,
		logger:   logger.With("component", "fanout_hub"),
	}
}

// Broadcast serializes the event once and attempts delivery to every
// connection in the registry's current snapshot. Each connection's send
// queue preserves the order Broadcast was invoked; no ordering is guaranteed
// across different connections.
func (h *Hub) Broadcast(event domain.TicketUpdateEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to serialize ticket update event",
			"ticket_id", event.TicketID,
			"error", err,
		)
		return
	}

	timer := prometheus.NewTimer(metrics.BroadcastDuration)
	defer timer.ObserveDuration()

	conns := h.registry.Snapshot()
	for _, conn := range conns {
		if err := conn.Send(payload); err != nil {
			metrics.EventsBroadcast.WithLabelValues("failed").Inc()
			h.logger.Warn("send failed, dropping connection",
				"connection_id", conn.ID(),
				"ticket_id", event.TicketID,
				"error", err,
			)
			h.registry.Unregister(conn.ID())
			continue
		}
		metrics.EventsBroadcast.WithLabelValues("delivered").Inc()
	}

	h.logger.Debug("event broadcast",
		"ticket_id", event.TicketID,
		"status", event.Status,
		"connection_count", len(conns),
	)
}

// OnConnect performs the handshake for a newly-attached client: the welcome
// payload is queued first, then the connection joins the fanout set. A
// connection is never broadcast to before its welcome is in the queue.
func (h *Hub) OnConnect(conn ports.Connection) error {
	welcome := domain.WelcomePayload{
		Type:         domain.MessageWelcome,
		ConnectionID: conn.ID().String(),
		ServerTime:   time.Now().UTC(),
	}

	payload, err := json.Marshal(welcome)
	if err != nil {
		return err
	}

	if err := conn.Send(payload); err != nil {
		_ = conn.Close()
		return err
	}

	h.registry.Register(conn)
	return nil
}
