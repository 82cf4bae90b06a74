package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Tyrowin/bugtracker/internal/config"
	"github.com/Tyrowin/bugtracker/internal/domain"
)

const (
	sendBufferSize = 256
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	writeWait      = 10 * time.Second
)

// Client is one authenticated WebSocket connection bound to a room.
type Client struct {
	id             string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	consumer       Consumer
	user           domain.User
	group          string
	addr           string
	closed         bool
	maxMessageSize int64
	rateLimiter    *rate.Limiter
	rateLimit      config.RateLimitConfig
}

// NewClient creates a client for an upgraded connection. The client joins
// the consumer's group once registered with the hub.
func NewClient(conn *websocket.Conn, hub *Hub, consumer Consumer, user domain.User, addr string, cfg config.ServerConfig) *Client {
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Client{
		id:             uuid.NewString(),
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		hub:            hub,
		consumer:       consumer,
		user:           user,
		group:          consumer.Group(),
		addr:           addr,
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		rateLimit:      cfg.RateLimit,
	}
}

// ID returns the connection id used in logs.
func (c *Client) ID() string {
	return c.id
}

// User returns the authenticated user behind the connection.
func (c *Client) User() domain.User {
	return c.user
}

// Group returns the group the client belongs to, or "" for the general room.
func (c *Client) Group() string {
	return c.group
}

// GetSendChan returns the client's outgoing message queue.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// Reply queues a frame for this client only. It reports false when the
// client is gone or its buffer is full.
func (c *Client) Reply(v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode websocket frame", "client_id", c.id, "error", err)
		return false
	}
	return c.hub.safeSend(c, payload)
}

// greet queues the consumer's welcome frame ahead of registration.
func (c *Client) greet() error {
	payload, err := json.Marshal(c.consumer.Welcome(c.user))
	if err != nil {
		return err
	}
	c.send <- payload
	return nil
}

func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Error("error setting initial read deadline", "client_id", c.id, "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			slog.Error("error setting read deadline in pong handler", "client_id", c.id, "error", err)
		}
		return nil
	})
}

// handleReadError logs the read error; every read error ends the read loop.
func (c *Client) handleReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		slog.Warn("message exceeded maximum size", "client_id", c.id, "max_bytes", c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		slog.Info("client disconnected", "client_id", c.id, "user", c.user.Username, "reason", err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		slog.Info("client connection closed", "client_id", c.id, "reason", err)
	default:
		slog.Warn("websocket read error", "client_id", c.id, "error", err)
	}
}

func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.Allow() {
		slog.Warn("rate limit exceeded; discarding message",
			"client_id", c.id,
			"burst", c.rateLimit.Burst,
			"interval", c.rateLimit.RefillInterval)
		return false
	}
	return true
}

// processMessage validates a raw frame and dispatches it to the consumer.
// Problems are reported to the client as error frames.
func (c *Client) processMessage(raw []byte) bool {
	msg, problem := parseInbound(raw)
	if problem == "" && !c.consumer.Accepts(msg.Type) {
		problem = "Invalid message type: " + msg.Type
	}
	if problem != "" {
		slog.Debug("rejected websocket message", "client_id", c.id, "reason", problem)
		c.Reply(errorEvent{Type: TypeError, Message: problem})
		return false
	}

	if err := c.consumer.Handle(c.hub.ctx, c, msg); err != nil {
		slog.Error("error handling websocket message", "client_id", c.id, "type", msg.Type, "error", err)
		c.Reply(errorEvent{Type: TypeError, Message: errInternalServer})
		return false
	}
	return true
}

// parseInbound decodes a frame into an InboundMessage. A non-empty second
// result is the error text to send back.
func parseInbound(raw []byte) (InboundMessage, string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		if json.Valid(raw) {
			return InboundMessage{}, errNotAnObject
		}
		return InboundMessage{}, errInvalidJSON
	}
	if fields == nil {
		return InboundMessage{}, errNotAnObject
	}

	rawType, ok := fields["type"]
	if !ok {
		return InboundMessage{}, errMissingType
	}

	var msg InboundMessage
	if err := json.Unmarshal(rawType, &msg.Type); err != nil {
		return InboundMessage{}, "Invalid message type: " + string(rawType)
	}
	if rawMessage, ok := fields["message"]; ok {
		if err := json.Unmarshal(rawMessage, &msg.Message); err != nil {
			msg.Message = string(rawMessage)
		}
	}
	return msg, ""
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			slog.Error("error closing connection in readPump", "client_id", c.id, "error", err)
		}
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		if !c.checkRateLimit() {
			continue
		}

		c.processMessage(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	case <-c.hub.ctx.Done():
		return false
	}
}

func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		slog.Error("error closing connection in writePump", "client_id", c.id, "error", err)
	}
}

// handleMessage writes an outgoing frame and returns false if the connection
// should be closed.
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		slog.Error("error setting write deadline", "client_id", c.id, "error", err)
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
			slog.Error("error writing close message", "client_id", c.id, "error", err)
		}
		return false
	}

	// Every frame is a standalone JSON document, so queued frames are not
	// coalesced into one websocket message.
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			slog.Error("error writing message", "client_id", c.id, "error", err)
		}
		return false
	}
	return true
}

func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		slog.Error("error setting write deadline for ping", "client_id", c.id, "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		slog.Error("error writing ping message", "client_id", c.id, "error", err)
		return false
	}
	return true
}
