package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
)

// HandlerOptions tunes connection handling.
type HandlerOptions struct {
	SendQueueSize  int
	MaxMessageSize int64
	// PingPeriod must be positive; the pong deadline is derived from it.
	PingPeriod time.Duration
}

// Handler upgrades HTTP requests and pumps messages between sockets and the hub.
type Handler struct {
	hub      *Hub
	opts     HandlerOptions
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a handler attached to hub.
func NewHandler(hub *Hub, opts HandlerOptions, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:  hub,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers on any origin may join the relay.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

func (h *Handler) pongWait() time.Duration {
	return h.opts.PingPeriod * 10 / 9
}

// HandleConnection upgrades the request and starts the pumps.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(h.hub, conn, r.RemoteAddr, h.opts.SendQueueSize)
	h.hub.Register(client)

	go h.writePump(client)
	go h.readPump(client)
	return nil
}

// Attach handles GET /ws.
func (h *Handler) Attach(c *gin.Context) {
	if err := h.HandleConnection(c.Writer, c.Request); err != nil {
		// The upgrader has already written an HTTP error response.
		h.logger.Warn().Err(err).Str("remote", c.Request.RemoteAddr).Msg("WebSocket upgrade failed")
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws", h.Attach)
}

// readPump relays every text message from the connection to the hub.
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn().Close()
	}()

	conn := client.Conn()
	conn.SetReadLimit(h.opts.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.pongWait()))
		return nil
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Str("remote", client.Addr()).Msg("WebSocket error")
			}
			return
		}

		if messageType != websocket.TextMessage {
			h.logger.Debug().Str("remote", client.Addr()).Msg("Ignoring non-text message")
			continue
		}

		h.hub.Broadcast(message)
	}
}

// writePump drains the client queue to the connection and keeps it alive
// with pings.
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(h.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn().Close()
	}()

	conn := client.Conn()
	for {
		select {
		case message, ok := <-client.SendChan():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the queue.
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One frame per message so each one parses on its own.
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
