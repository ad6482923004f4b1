package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/opsdesk/opsdesk-backend/internal/config"
	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
	"github.com/opsdesk/opsdesk-backend/internal/core/ports"
)

// Maximum message size allowed from peer.
const maxMessageSize = 1024

// Client is a middleman between one websocket connection and the registry.
// It implements ports.Connection: Send enqueues into a buffered channel that
// the write pump drains, so a broadcast never blocks on a slow peer.
type Client struct {
	id       uuid.UUID
	conn     *websocket.Conn
	registry ports.ConnectionRegistry

	// Buffered channel of outbound payloads.
	send chan []byte

	// closed is signalled exactly once; Send fails fast afterwards.
	closed    chan struct{}
	closeOnce sync.Once

	writeWait    time.Duration
	pongWait     time.Duration
	pingInterval time.Duration

	logger *slog.Logger
}

var _ ports.Connection = (*Client)(nil)

// NewClient wraps an upgraded websocket connection.
func NewClient(conn *websocket.Conn, registry ports.ConnectionRegistry, cfg config.WebSocketConfig, logger *slog.Logger) *Client {
	id := uuid.New()
	return &Client{
		id:           id,
		conn:         conn,
		registry:     registry,
		send:         make(chan []byte, cfg.SendBufferSize),
		closed:       make(chan struct{}),
		writeWait:    cfg.WriteWait,
		pongWait:     cfg.PongWait,
		pingInterval: cfg.PingInterval,
		logger:       logger.With("connection_id", id.String()),
	}
}

// ID returns the unique connection id.
func (c *Client) ID() uuid.UUID {
	return c.id
}

// Send queues a payload for delivery. It never blocks: a closed connection
// returns ErrConnectionClosed and a full buffer returns
// ErrConnectionSendFailure, both of which the broadcaster treats as a
// disconnect.
func (c *Client) Send(payload []byte) error {
	select {
	case <-c.closed:
		return apperrors.ErrConnectionClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	default:
		return apperrors.ErrConnectionSendFailure
	}
}

// Close tears the connection down exactly once. Safe to call from any
// goroutine, any number of times.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

// ReadPump pumps inbound frames from the peer. Inbound client messages carry
// no business meaning; they are logged and ignored, except the keep-alive
// PING which gets a PONG back. Runs in its own goroutine; on exit the
// connection is unregistered.
func (c *Client) ReadPump() {
	defer func() {
		c.registry.Unregister(c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.pongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump drains the send queue to the peer and keeps the connection alive
// with periodic pings. Runs in its own goroutine; on exit the connection is
// unregistered.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.registry.Unregister(c.id)
	}()

	for {
		select {
		case <-c.closed:
			return

		case payload := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// ClientMessage is the structure for messages sent from the client.
type ClientMessage struct {
	Type string `json:"type"`
}

func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case "PING":
		// Client-side keep-alive, respond with pong
		c.sendPong()

	default:
		c.logger.Debug("ignoring client message", "type", msg.Type)
	}
}

func (c *Client) sendPong() {
	payload, err := json.Marshal(map[string]domain.MessageType{"type": domain.MessagePong})
	if err != nil {
		return
	}
	if err := c.Send(payload); err != nil {
		c.logger.Debug("failed to queue pong", "error", err)
	}
}
