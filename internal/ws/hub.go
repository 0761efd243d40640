package ws

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/remote-agent-terminal/patternrelay/internal/buffer"
)

// Client represents one WebSocket connection attached to the hub.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	addr   string
	send   chan []byte
	mu     sync.Mutex
	closed bool
}

// NewClient creates a client with a send queue of the given size.
func NewClient(hub *Hub, conn *websocket.Conn, addr string, queueSize int) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		addr: addr,
		send: make(chan []byte, queueSize),
	}
}

// Send queues a message. It reports false if the client is closed or its
// queue is full, in which case the client is closed.
func (c *Client) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		// Slow consumer
		c.closeLocked()
		return false
	}
}

// Close closes the send queue.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsClosed returns true if the client is closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Addr returns the remote address of the client.
func (c *Client) Addr() string {
	return c.addr
}

// Conn returns the underlying WebSocket connection.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// SendChan returns the send queue.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}

// Observer receives hub lifecycle notifications. Methods are called outside
// the hub lock.
type Observer interface {
	ClientJoined(c *Client)
	ClientLeft(c *Client)
	ClientDropped(c *Client)
	MessageRelayed(data []byte)
}

// Hub tracks connected clients and broadcasts messages to all of them.
type Hub struct {
	clients  map[*Client]bool
	backlog  *buffer.MessageRing
	observer Observer
	mu       sync.RWMutex
}

// NewHub creates a hub. A positive backlog keeps that many recent messages
// and replays them to clients that register later.
func NewHub(backlog int, observer Observer) *Hub {
	h := &Hub{
		clients:  make(map[*Client]bool),
		observer: observer,
	}
	if backlog > 0 {
		h.backlog = buffer.NewMessageRing(backlog)
	}
	return h
}

// Register adds a client and queues the backlog for it. The backlog is
// queued under the lock so it always precedes later broadcasts. A client
// whose queue cannot hold the backlog is dropped at once.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	dropped := false
	if h.backlog != nil {
		for _, msg := range h.backlog.Snapshot() {
			if !client.Send(msg) {
				delete(h.clients, client)
				dropped = true
				break
			}
		}
	}
	h.mu.Unlock()

	if h.observer == nil {
		return
	}
	h.observer.ClientJoined(client)
	if dropped {
		h.observer.ClientDropped(client)
	}
}

// Unregister removes a client and closes it.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	client.Close()

	if ok && h.observer != nil {
		h.observer.ClientLeft(client)
	}
}

// Broadcast sends data to every registered client, including the sender.
// Clients whose queue is full are removed.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	if h.backlog != nil {
		h.backlog.Push(data)
	}

	var dropped []*Client
	for client := range h.clients {
		if !client.Send(data) {
			delete(h.clients, client)
			dropped = append(dropped, client)
		}
	}
	h.mu.Unlock()

	if h.observer == nil {
		return
	}
	h.observer.MessageRelayed(data)
	for _, client := range dropped {
		h.observer.ClientDropped(client)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]bool)
	h.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}
