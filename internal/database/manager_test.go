package database

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"list-manager/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeConn struct {
	id      int
	pingErr atomic.Value
	pings   atomic.Int32
	closed  atomic.Bool
}

func (c *fakeConn) Ping(context.Context) error {
	c.pings.Add(1)
	if err, ok := c.pingErr.Load().(error); ok && err != nil {
		return err
	}
	return nil
}

func (c *fakeConn) Close(context.Context) error {
	c.closed.Store(true)
	return nil
}

func (c *fakeConn) failPings(err error) { c.pingErr.Store(err) }

type fakeDialer struct {
	mu      sync.Mutex
	dials   int
	conns   []*fakeConn
	dialErr error
	// pingErrOnDial makes freshly dialed connections fail their first probe.
	pingErrOnDial error
}

func (d *fakeDialer) dial(context.Context) (*fakeConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	c := &fakeConn{id: d.dials}
	if d.pingErrOnDial != nil {
		c.failPings(d.pingErrOnDial)
	}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestManager_AcquireReusesLiveConnection(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager[*fakeConn](d.dial, quietLogger())
	ctx := context.Background()

	first, err := m.Acquire(ctx)
	require.NoError(t, err)
	second, err := m.Acquire(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, d.count())
	// one probe after dialing, one before reuse
	assert.Equal(t, int32(2), first.pings.Load())
	assert.Equal(t, StateReady, m.State())
}

func TestManager_AcquireRedialsWhenPingFails(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager[*fakeConn](d.dial, quietLogger())
	ctx := context.Background()

	first, err := m.Acquire(ctx)
	require.NoError(t, err)
	first.failPings(errors.New("connection reset"))

	second, err := m.Acquire(ctx)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.True(t, first.closed.Load(), "stale handle should be released")
	assert.Equal(t, 2, d.count())
	assert.Equal(t, StateReady, m.State())
}

func TestManager_DialFailureClearsState(t *testing.T) {
	d := &fakeDialer{dialErr: errors.New("no reachable servers")}
	m := NewManager[*fakeConn](d.dial, quietLogger())
	ctx := context.Background()

	conn, err := m.Acquire(ctx)
	require.Error(t, err)
	assert.Nil(t, conn)
	assert.ErrorIs(t, err, domain.ErrConnection)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "dial", connErr.Op)
	assert.Equal(t, StateUninitialized, m.State())

	d.mu.Lock()
	d.dialErr = nil
	d.mu.Unlock()

	conn, err = m.Acquire(ctx)
	require.NoError(t, err)
	assert.NotNil(t, conn)
	assert.Equal(t, 2, d.count())
}

func TestManager_ProbeFailureNeverCachesHandle(t *testing.T) {
	d := &fakeDialer{pingErrOnDial: errors.New("server selection timeout")}
	m := NewManager[*fakeConn](d.dial, quietLogger())
	ctx := context.Background()

	conn, err := m.Acquire(ctx)
	require.Error(t, err)
	assert.Nil(t, conn)
	assert.ErrorIs(t, err, domain.ErrConnection)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "ping", connErr.Op)

	require.Len(t, d.conns, 1)
	assert.True(t, d.conns[0].closed.Load(), "half-initialised handle must be closed")
	assert.Equal(t, StateUninitialized, m.State())
}

func TestManager_ConcurrentAcquireSettlesOnOneHandle(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager[*fakeConn](d.dial, quietLogger())
	ctx := context.Background()

	const workers = 16
	results := make([]*fakeConn, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := m.Acquire(ctx)
			assert.NoError(t, err)
			results[i] = c
		}(i)
	}
	wg.Wait()

	cached, err := m.Acquire(ctx)
	require.NoError(t, err)
	for _, c := range results {
		assert.Same(t, cached, c)
	}
	for _, c := range d.conns {
		if c != cached {
			assert.True(t, c.closed.Load(), "duplicate handle %d should be closed", c.id)
		}
	}
}

func TestManager_Close(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager[*fakeConn](d.dial, quietLogger())
	ctx := context.Background()

	require.NoError(t, m.Close(ctx), "closing an idle manager is a no-op")

	conn, err := m.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Close(ctx))

	assert.True(t, conn.closed.Load())
	assert.Equal(t, StateUninitialized, m.State())

	_, err = m.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, d.count())
}
