package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"list-manager/internal/domain"
)

// Conn is a live database handle that can be probed and released.
type Conn interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Dialer opens a new handle. It must not return a handle it has not finished
// initialising.
type Dialer[C Conn] func(ctx context.Context) (C, error)

// State describes where the manager is in its connection lifecycle.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateConnecting    State = "connecting"
	StateReady         State = "ready"
)

// ConnectionError reports a failed dial or liveness probe.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{domain.ErrConnection, e.Err}
}

// Manager caches a single handle for the lifetime of the process. Acquire
// reuses the cached handle while it answers pings and dials a fresh one
// otherwise.
type Manager[C Conn] struct {
	dial   Dialer[C]
	logger logrus.FieldLogger

	mu    sync.Mutex
	conn  C
	state State
	gen   uint64
}

func NewManager[C Conn](dial Dialer[C], logger logrus.FieldLogger) *Manager[C] {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager[C]{
		dial:   dial,
		logger: logger,
		state:  StateUninitialized,
	}
}

// Acquire returns the cached handle when it is alive, or a freshly dialed and
// probed one. On failure the cache is cleared and a *ConnectionError returned.
func (m *Manager[C]) Acquire(ctx context.Context) (C, error) {
	var zero C

	m.mu.Lock()
	cached, gen, ready := m.conn, m.gen, m.state == StateReady
	if !ready {
		m.state = StateConnecting
	}
	m.mu.Unlock()

	if ready {
		err := cached.Ping(ctx)
		if err == nil {
			return cached, nil
		}
		m.logger.WithError(err).Warn("cached database connection failed liveness check")
		m.discard(ctx, gen)
	}

	conn, err := m.dial(ctx)
	if err != nil {
		m.markFailed()
		return zero, &ConnectionError{Op: "dial", Err: err}
	}
	if err := conn.Ping(ctx); err != nil {
		m.markFailed()
		m.closeQuietly(ctx, conn)
		return zero, &ConnectionError{Op: "ping", Err: err}
	}

	m.mu.Lock()
	if m.state == StateReady {
		// Another caller finished dialing first; keep theirs.
		winner := m.conn
		m.mu.Unlock()
		m.closeQuietly(ctx, conn)
		return winner, nil
	}
	m.conn = conn
	m.state = StateReady
	m.gen++
	m.mu.Unlock()

	m.logger.Info("database connection established")
	return conn, nil
}

// State reports the current lifecycle state.
func (m *Manager[C]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close releases the cached handle and returns the manager to the
// uninitialized state.
func (m *Manager[C]) Close(ctx context.Context) error {
	var zero C

	m.mu.Lock()
	conn, ready := m.conn, m.state == StateReady
	m.conn = zero
	m.state = StateUninitialized
	m.gen++
	m.mu.Unlock()

	if !ready {
		return nil
	}
	if err := conn.Close(ctx); err != nil {
		return fmt.Errorf("close database connection: %w", err)
	}
	return nil
}

// discard drops the cached handle if it is still the one observed at gen.
func (m *Manager[C]) discard(ctx context.Context, gen uint64) {
	var zero C

	m.mu.Lock()
	if m.gen != gen || m.state != StateReady {
		m.mu.Unlock()
		return
	}
	stale := m.conn
	m.conn = zero
	m.state = StateConnecting
	m.gen++
	m.mu.Unlock()

	m.closeQuietly(ctx, stale)
}

func (m *Manager[C]) markFailed() {
	m.mu.Lock()
	if m.state != StateReady {
		m.state = StateUninitialized
	}
	m.mu.Unlock()
}

func (m *Manager[C]) closeQuietly(ctx context.Context, conn C) {
	if err := conn.Close(ctx); err != nil {
		m.logger.WithError(err).Debug("close database connection")
	}
}
