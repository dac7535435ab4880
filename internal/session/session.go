package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClientNotFound is returned when a client is not registered.
var ErrClientNotFound = errors.New("client not found")

// ErrNotConnected is returned when writing to a closed connection.
var ErrNotConnected = errors.New("client not connected")

// EventCallback writes one SSE event frame to the client's connection.
type EventCallback func(event string, data []byte) error

// Client is a live SSE connection handle. It carries transport-level state
// only; the protocol itself is stateless per message.
type Client struct {
	ID            string
	CreatedAt     time.Time
	EventCallback EventCallback

	mu        sync.Mutex
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// Registry holds the live SSE connections, keyed by generated client ID.
// Entries are added on connect and removed on disconnect; no core logic
// depends on its contents.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty client registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// Add registers a new client bound to the request's lifetime.
func (r *Registry) Add(req *http.Request) *Client {
	ctx, cancel := context.WithCancel(req.Context())
	client := &Client{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		connected: true,
		ctx:       ctx,
		cancel:    cancel,
	}

	r.mu.Lock()
	r.clients[client.ID] = client
	r.mu.Unlock()

	return client
}

// Get returns a registered client by ID.
func (r *Registry) Get(id string) (*Client, error) {
	r.mu.RLock()
	client, ok := r.clients[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrClientNotFound
	}
	return client, nil
}

// Remove disconnects and deregisters a client.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	client, ok := r.clients[id]
	if ok {
		delete(r.clients, id)
	}
	r.mu.Unlock()

	if ok {
		client.Disconnect()
	}
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// SendEvent pushes one event to the client. It fails rather than writing to
// a closed connection.
func (c *Client) SendEvent(event string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.EventCallback == nil {
		return ErrNotConnected
	}
	return c.EventCallback(event, data)
}

// Context is done when the client disconnects.
func (c *Client) Context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// Disconnect marks the client closed and cancels its context.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connected = false
	c.EventCallback = nil
	if c.cancel != nil {
		c.cancel()
	}
}

// Connected reports whether the connection is still open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
