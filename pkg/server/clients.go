package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/vango-dev/folio"
	"github.com/vango-dev/folio/pkg/dom"
	"github.com/vango-dev/folio/pkg/middleware"
)

// =============================================================================
// Client
// =============================================================================

// Client is one browser's App and its open WebSocket connections. Every
// connection of a client receives the same updates.
type Client struct {
	ID  string
	App *folio.App

	mu         sync.Mutex
	conns      map[*wsConn]struct{}
	lastActive time.Time

	// flushMu keeps state frames in the order they were taken.
	flushMu sync.Mutex

	// attempts limits login and password reset calls.
	attempts *rate.Limiter

	unsubscribe func()
	now         func() time.Time
	logger      *slog.Logger
}

func newClient(id string, app *folio.App, attempts *rate.Limiter, now func() time.Time, logger *slog.Logger) *Client {
	c := &Client{
		ID:         id,
		App:        app,
		attempts:   attempts,
		conns:      make(map[*wsConn]struct{}),
		lastActive: now(),
		now:        now,
		logger:     logger,
	}
	c.unsubscribe = app.Subscribe(c.flush)
	return c
}

// Touch records activity.
func (c *Client) Touch() {
	c.mu.Lock()
	c.lastActive = c.now()
	c.mu.Unlock()
}

// AllowAttempt reports whether a login or password reset may proceed now.
func (c *Client) AllowAttempt() bool {
	return c.attempts.Allow()
}

// Connections returns the number of attached WebSocket connections.
func (c *Client) Connections() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.conns)
}

func (c *Client) attach(conn *wsConn) {
	c.mu.Lock()
	c.conns[conn] = struct{}{}
	c.lastActive = c.now()
	c.mu.Unlock()

	middleware.RecordClientConnect()
	c.flush()
}

func (c *Client) detach(conn *wsConn) {
	c.mu.Lock()
	_, ok := c.conns[conn]
	delete(c.conns, conn)
	c.lastActive = c.now()
	c.mu.Unlock()

	if ok {
		middleware.RecordClientDisconnect()
	}
}

func (c *Client) idle(now time.Time, timeout time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.conns) == 0 && now.Sub(c.lastActive) >= timeout
}

// flush drains the document and pushes pending commands plus the current
// state to every connection. Commands recorded while no connection is open
// are dropped; the state message carries the resulting root classes.
func (c *Client) flush() {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	commands := c.App.Document.Drain()

	c.mu.Lock()
	conns := make([]*wsConn, 0, len(c.conns))
	for conn := range c.conns {
		conns = append(conns, conn)
	}
	c.mu.Unlock()

	if len(conns) == 0 {
		return
	}

	var frames [][]byte
	if len(commands) > 0 {
		frame, err := json.Marshal(outbound{Type: msgDOM, Commands: commands})
		if err != nil {
			c.logger.Error("encode commands", "error", err)
		} else {
			frames = append(frames, frame)
		}
	}
	state := c.App.State()
	frame, err := json.Marshal(outbound{Type: msgState, State: &state})
	if err != nil {
		c.logger.Error("encode state", "error", err)
	} else {
		frames = append(frames, frame)
	}

	for _, conn := range conns {
		for _, f := range frames {
			conn.enqueue(f)
		}
	}
	middleware.RecordCommands(len(commands) * len(conns))
}

func (c *Client) close() {
	c.mu.Lock()
	conns := make([]*wsConn, 0, len(c.conns))
	for conn := range c.conns {
		conns = append(conns, conn)
	}
	c.mu.Unlock()

	for _, conn := range conns {
		conn.close()
	}
	c.unsubscribe()
	c.App.Close()
}

// =============================================================================
// Client Manager
// =============================================================================

// ClientManager owns every live Client. Clients with no connections are
// closed once they have been idle for the configured timeout.
type ClientManager struct {
	mu      sync.Mutex
	clients map[string]*Client
	closed  bool

	// creating dedupes concurrent first requests of one client id; Apps
	// are built outside mu.
	creating singleflight.Group

	factory     func(id string) *folio.App
	idleTimeout time.Duration
	limit       rate.Limit
	burst       int
	hosts       *hostLimiter
	now         func() time.Time
	logger      *slog.Logger

	started     bool
	done        chan struct{}
	cleanupDone chan struct{}
	closeOnce   sync.Once
}

// NewClientManager creates a manager that builds Apps with factory.
func NewClientManager(factory func(id string) *folio.App, idleTimeout time.Duration, logger *slog.Logger) *ClientManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientManager{
		clients:     make(map[string]*Client),
		factory:     factory,
		idleTimeout: idleTimeout,
		limit:       rate.Inf,
		hosts:       newHostLimiter(rate.Inf, 0),
		now:         time.Now,
		logger:      logger.With("component", "client_manager"),
		done:        make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// SetAttemptLimit sets the login attempt limit for clients created later.
func (m *ClientManager) SetAttemptLimit(limit rate.Limit, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limit = limit
	m.burst = burst
}

// SetHostLimit sets the login attempt limit shared by all clients of one
// remote host.
func (m *ClientManager) SetHostLimit(limit rate.Limit, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hosts = newHostLimiter(limit, burst)
}

// AllowHost reports whether a login or password reset from host may
// proceed now.
func (m *ClientManager) AllowHost(host string) bool {
	m.mu.Lock()
	hosts := m.hosts
	m.mu.Unlock()
	return hosts.Allow(host, m.now())
}

// Get returns the client with id, or nil.
func (m *ClientManager) Get(id string) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clients[id]
}

// GetOrCreate returns the client with id, creating and initializing its
// App on first use. Initialization of one client does not hold up
// requests of others. The boolean reports whether this call created it.
func (m *ClientManager) GetOrCreate(id string) (*Client, bool) {
	if c := m.Get(id); c != nil {
		c.Touch()
		return c, false
	}

	created := false
	v, _, _ := m.creating.Do(id, func() (any, error) {
		if c := m.Get(id); c != nil {
			return c, nil
		}

		app := m.factory(id)

		m.mu.Lock()
		c := newClient(id, app, rate.NewLimiter(m.limit, m.burst), m.now, m.logger.With("client", id))
		closed := m.closed
		if !closed {
			m.clients[id] = c
		}
		count := len(m.clients)
		m.mu.Unlock()

		if closed {
			// Shut down while the App was being built.
			c.close()
			return c, nil
		}
		created = true
		m.logger.Debug("client created", "client", id, "clients", count)
		return c, nil
	})
	return v.(*Client), created
}

// Count returns the number of live clients.
func (m *ClientManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// Remove closes and forgets the client with id.
func (m *ClientManager) Remove(id string) {
	m.mu.Lock()
	c, ok := m.clients[id]
	delete(m.clients, id)
	m.mu.Unlock()

	if ok {
		c.close()
	}
}

// Sweep closes idle clients and returns how many were removed.
func (m *ClientManager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	var idle []*Client
	for id, c := range m.clients {
		if c.idle(now, m.idleTimeout) {
			idle = append(idle, c)
			delete(m.clients, id)
		}
	}
	hosts := m.hosts
	m.mu.Unlock()

	hosts.Sweep(now, m.idleTimeout)

	for _, c := range idle {
		c.close()
	}
	if len(idle) > 0 {
		m.logger.Debug("idle clients removed", "count", len(idle))
	}
	return len(idle)
}

// StartCleanup sweeps idle clients every interval until Shutdown.
func (m *ClientManager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go func() {
		defer close(m.cleanupDone)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Sweep()
			case <-m.done:
				return
			}
		}
	}()
}

// Shutdown stops the cleanup loop and closes every client.
func (m *ClientManager) Shutdown() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()

		close(m.done)
		if started {
			<-m.cleanupDone
		}

		m.mu.Lock()
		m.closed = true
		clients := m.clients
		m.clients = make(map[string]*Client)
		m.mu.Unlock()

		for _, c := range clients {
			c.close()
		}
		m.logger.Info("clients closed", "count", len(clients))
	})
}

// =============================================================================
// Wire messages
// =============================================================================

// Message types exchanged over the WebSocket.
const (
	msgViewport = "viewport"
	msgScheme   = "scheme"
	msgPing     = "ping"
	msgPong     = "pong"
	msgDOM      = "dom"
	msgState    = "state"
	msgError    = "error"
)

type inbound struct {
	Type  string `json:"type"`
	Width int    `json:"width,omitempty"`
	Dark  bool   `json:"dark,omitempty"`
}

type outbound struct {
	Type     string        `json:"type"`
	Commands []dom.Command `json:"commands,omitempty"`
	State    *folio.State  `json:"state,omitempty"`
	Error    string        `json:"error,omitempty"`
}
