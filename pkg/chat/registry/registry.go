// Package registry tracks live websocket connections by session id and
// serializes all outbound writes for a given session through a single
// writer goroutine.
package registry

import (
	"log/slog"
	"sync"
	"time"
)

// WireConn is the subset of *websocket.Conn the registry writes through.
type WireConn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Registry struct {
	mu     sync.Mutex
	conns  map[string]*Conn
	logger *slog.Logger

	queueSize    int
	writeTimeout time.Duration
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func WithQueueSize(n int) Option {
	return func(r *Registry) { r.queueSize = n }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(r *Registry) { r.writeTimeout = d }
}

func New(opts ...Option) *Registry {
	r := &Registry{
		conns:        make(map[string]*Conn),
		logger:       slog.Default(),
		queueSize:    128,
		writeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register tracks ws under id and starts its writer. If the id is already
// registered the previous connection is torn down first.
func (r *Registry) Register(id string, ws WireConn) *Conn {
	conn := &Conn{
		id:           id,
		ws:           ws,
		queue:        make(chan []byte, r.queueSize),
		done:         make(chan struct{}),
		writeTimeout: r.writeTimeout,
		logger:       r.logger,
	}

	r.mu.Lock()
	old := r.conns[id]
	r.conns[id] = conn
	r.mu.Unlock()

	if old != nil {
		old.shutdown()
	}

	go conn.writeLoop()
	return conn
}

// Unregister removes the session and stops its writer. Safe to call for
// unknown ids and safe to call more than once.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	conn := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()

	if conn != nil {
		conn.shutdown()
	}
}

// Send enqueues one outbound frame for the session. It returns false if the
// id is unknown or the connection has closed. Frames are written in
// submission order while the connection lives; anything still queued when
// it closes is dropped.
func (r *Registry) Send(id string, frame []byte) bool {
	r.mu.Lock()
	conn := r.conns[id]
	r.mu.Unlock()

	if conn == nil {
		return false
	}
	return conn.send(frame)
}

// IsOpen reports whether the session is registered and its connection is
// still writable.
func (r *Registry) IsOpen(id string) bool {
	r.mu.Lock()
	conn := r.conns[id]
	r.mu.Unlock()
	return conn != nil && conn.open()
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
