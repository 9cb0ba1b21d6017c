package ws

import (
	"context"
	"sync"
	"time"

	"github.com/frankieli/players_bet/pkg/logger"
	"github.com/gorilla/websocket"
)

type CloseReason string

const (
	ReasonWriteError CloseReason = "write_error"
	ReasonPingError  CloseReason = "ping_error"
	ReasonReadError  CloseReason = "read_error"
	ReasonReplaced   CloseReason = "replaced_by_new_connection"
	ReasonShutdown   CloseReason = "server_shutdown"
	ReasonBufferFull CloseReason = "buffer_full"
	ReasonTimeout    CloseReason = "timeout"
	ReasonUnregister CloseReason = "unregistered"
)

const slowClientTimeout = 5 * time.Second

// Options tunes connection timing and buffering
type Options struct {
	PingInterval   time.Duration
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultOptions returns the timings used when none are configured
func DefaultOptions() Options {
	return Options{
		PingInterval:   54 * time.Second,
		WriteWait:      30 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     256,
	}
}

// Connection is one player's websocket
type Connection struct {
	PlayerID  int64
	Conn      *websocket.Conn
	Send      chan []byte
	manager   *Manager
	closeOnce sync.Once
}

// Manager tracks at most one connection per player
type Manager struct {
	clients    map[int64]*Connection
	unregister chan *Connection
	done       chan struct{}
	opts       Options
	mu         sync.RWMutex
}

// NewManager creates a new connection manager
func NewManager(opts Options) *Manager {
	defaults := DefaultOptions()
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaults.PingInterval
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = defaults.WriteWait
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaults.PongWait
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = defaults.MaxMessageSize
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaults.SendBuffer
	}
	return &Manager{
		clients:    make(map[int64]*Connection),
		unregister: make(chan *Connection),
		done:       make(chan struct{}),
		opts:       opts,
	}
}

// Register adds a connection, replacing any older socket of the same player.
// It returns nil once the manager has stopped.
func (m *Manager) Register(conn *websocket.Conn, playerID int64) *Connection {
	select {
	case <-m.done:
		return nil
	default:
	}

	c := &Connection{
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, m.opts.SendBuffer),
		manager:  m,
	}

	m.mu.Lock()
	old, replaced := m.clients[playerID]
	m.clients[playerID] = c
	m.mu.Unlock()

	if replaced {
		old.CloseWithReason(ReasonReplaced, nil)
	}
	return c
}

// Run processes unregistrations until ctx is cancelled
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-m.unregister:
			m.mu.Lock()
			// Only drop the entry if it still belongs to this socket
			if current, ok := m.clients[client.PlayerID]; ok && current == client {
				delete(m.clients, client.PlayerID)
			}
			m.mu.Unlock()
			client.CloseWithReason(ReasonUnregister, nil)
		}
	}
}

// Count returns the number of live connections
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// IsOnline reports whether the player has a live connection
func (m *Manager) IsOnline(playerID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[playerID]
	return ok
}

// Broadcast sends a message to every connected player
func (m *Manager) Broadcast(message []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		select {
		case client.Send <- message:
		default:
			// Slow reader; ReadPump unregisters it once the socket closes
			client.CloseWithReason(ReasonBufferFull, nil)
		}
	}
}

// SendToUser sends a message to one player. Messages to offline players are dropped.
func (m *Manager) SendToUser(playerID int64, message []byte) {
	m.mu.RLock()
	client, ok := m.clients[playerID]
	m.mu.RUnlock()

	if !ok {
		return
	}

	select {
	case client.Send <- message:
		return
	default:
	}

	select {
	case client.Send <- message:
	case <-time.After(slowClientTimeout):
		client.CloseWithReason(ReasonTimeout, nil)
	}
}

// Shutdown closes all connections
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		client.CloseWithReason(ReasonShutdown, nil)
	}
}

// CloseWithReason closes the connection once
func (c *Connection) CloseWithReason(r CloseReason, err error) {
	c.closeOnce.Do(func() {
		event := logger.Info(context.Background())
		if err != nil {
			event = logger.Warn(context.Background()).Err(err)
		}
		event.
			Int64("player_id", c.PlayerID).
			Str("reason", string(r)).
			Msg("ws connection closed")
		c.Conn.Close()
	})
}

// WritePump pumps messages from the manager to the websocket connection
func (c *Connection) WritePump() {
	opts := c.manager.opts
	ticker := time.NewTicker(opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			// Deadline guards against peers that never read
			c.Conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				c.CloseWithReason(ReasonWriteError, err)
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				c.CloseWithReason(ReasonWriteError, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.CloseWithReason(ReasonPingError, err)
				return
			}
		}
	}
}

// ReadPump pumps messages from the websocket connection to handleMessage
func (c *Connection) ReadPump(handleMessage func(playerID int64, message []byte)) {
	opts := c.manager.opts
	var readErr error
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.done:
		}
		c.CloseWithReason(ReasonReadError, readErr)
	}()

	c.Conn.SetReadLimit(opts.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(opts.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				readErr = err
			}
			break
		}

		handleMessage(c.PlayerID, message)
	}
}
