package invalidate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"list-manager/internal/domain"
)

const (
	// IndexPath is the rendered list index.
	IndexPath = "/dashboard"
	// DefaultChannel is the Redis channel events are published on.
	DefaultChannel = "list-manager:invalidate"
)

// ListPath returns the detail view path of a list.
func ListPath(id domain.ListID) string {
	return IndexPath + "/lists/" + id.String()
}

// Invalidator marks rendered views stale after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, paths ...string) error
}

// Event is the payload published for each invalidation call.
type Event struct {
	Paths []string  `json:"paths"`
	At    time.Time `json:"at"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher publishes invalidation events over Redis pub/sub.
type RedisPublisher struct {
	client  publisher
	channel string
	now     func() time.Time
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return newRedisPublisher(client, channel)
}

func newRedisPublisher(client publisher, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel, now: time.Now}
}

func (p *RedisPublisher) Invalidate(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	payload, err := json.Marshal(Event{Paths: paths, At: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode invalidation: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Logger only records invalidations in the log. It is used when no transport
// is configured.
type Logger struct {
	log logrus.FieldLogger
}

func NewLogger(log logrus.FieldLogger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) Invalidate(_ context.Context, paths ...string) error {
	for _, path := range paths {
		l.log.WithField("path", path).Debug("view invalidated")
	}
	return nil
}

// Recorder keeps every invalidated path in memory.
type Recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *Recorder) Invalidate(_ context.Context, paths ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, paths...)
	return nil
}

// Paths returns a copy of the recorded paths in call order.
func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.paths = nil
	r.mu.Unlock()
}

// Multi fans out to every invalidator and joins their errors.
type Multi []Invalidator

func (m Multi) Invalidate(ctx context.Context, paths ...string) error {
	var errs []error
	for _, inv := range m {
		if err := inv.Invalidate(ctx, paths...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
