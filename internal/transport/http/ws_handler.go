package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"studysync-service/internal/app"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 1 << 20
	sendBufferSize = 64
)

// Dispatcher is the part of app.Dispatcher the websocket handler drives.
type Dispatcher interface {
	Connect(ctx context.Context, conn app.Sender) error
	Submit(ctx context.Context, connID string, ev app.Event) error
}

type WSHandler struct {
	dispatcher Dispatcher
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

func NewWSHandler(dispatcher Dispatcher, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// client is one websocket connection. A single writer goroutine owns all writes.
type client struct {
	id     string
	conn   *websocket.Conn
	send   chan app.Outbound
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func (c *client) ID() string { return c.id }

// Send queues msg without blocking; a client that cannot keep up loses messages.
func (c *client) Send(msg app.Outbound) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		c.logger.Warn("ws message dropped - client buffer full", slog.String("type", msg.MessageType()))
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// ServeWS upgrades HTTP requests to websockets and feeds their events to the dispatcher.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	c := &client{
		id:     id,
		conn:   conn,
		send:   make(chan app.Outbound, sendBufferSize),
		done:   make(chan struct{}),
		logger: h.logger.With(slog.String("conn_id", id)),
	}

	ctx := context.Background()
	if err := h.dispatcher.Connect(ctx, c); err != nil {
		c.logger.Warn("ws connect rejected", slog.String("error", err.Error()))
		return
	}
	c.logger.Info("ws client connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()

	c.readPump(ctx, h.dispatcher)

	if err := h.dispatcher.Submit(ctx, c.id, app.Disconnect{}); err != nil {
		c.logger.Debug("disconnect not delivered", slog.String("error", err.Error()))
	}
	c.close()
	<-writerDone
	c.logger.Info("ws client disconnected")
}

func (c *client) readPump(ctx context.Context, dispatcher Dispatcher) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warn("ws read error", slog.String("error", err.Error()))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.Send(app.RoomError{Message: "invalid message"})
			continue
		}
		ev, err := decodeEvent(msg)
		if err != nil {
			c.Send(errorReply(msg.Type, err))
			continue
		}
		if err := dispatcher.Submit(ctx, c.id, ev); err != nil {
			c.logger.Warn("event not delivered", slog.String("type", msg.Type), slog.String("error", err.Error()))
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(outboundMessage{Type: msg.MessageType(), Payload: msg}); err != nil {
				c.logger.Warn("ws write error", slog.String("error", err.Error()))
				c.close()
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				_ = c.conn.Close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
