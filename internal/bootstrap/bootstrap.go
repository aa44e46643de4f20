// Package bootstrap builds the runtime components shared by the server and
// the provisioning CLI from a loaded config.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"list-manager/internal/config"
	"list-manager/internal/database"
	"list-manager/internal/invalidate"
	"list-manager/internal/repository"
	"list-manager/internal/repository/mongo"
	"list-manager/internal/repository/sqlite"
	"list-manager/internal/storage"
)

func NewLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// Store bundles the repositories of one backend with its connection manager.
type Store struct {
	Lists repository.ListRepository
	Items repository.ItemRepository
	Users repository.UserRepository

	health func(ctx context.Context) error
	close  func(ctx context.Context) error
}

// Health acquires a connection, dialing if needed.
func (s *Store) Health(ctx context.Context) error { return s.health(ctx) }

func (s *Store) Close(ctx context.Context) error { return s.close(ctx) }

// OpenStore builds the configured backend. No connection is made until the
// first repository call or Health.
func OpenStore(cfg config.Config, logger logrus.FieldLogger) (*Store, error) {
	log := logger.WithField("driver", cfg.Database.Driver)

	switch cfg.Database.Driver {
	case config.DriverMongo:
		retryWrites, retryReads := cfg.Database.RetryWrites, cfg.Database.RetryReads
		dial, err := mongo.Dialer(mongo.Options{
			URI:                    cfg.Database.URI,
			Database:               cfg.Database.Name,
			MaxPoolSize:            cfg.Database.MaxPoolSize,
			MinPoolSize:            cfg.Database.MinPoolSize,
			MaxIdleTime:            cfg.MaxIdleTime(),
			ConnectTimeout:         cfg.ConnectTimeout(),
			SocketTimeout:          cfg.SocketTimeout(),
			ServerSelectionTimeout: cfg.ServerSelectionTimeout(),
			RetryWrites:            &retryWrites,
			RetryReads:             &retryReads,
		})
		if err != nil {
			return nil, err
		}
		conns := database.NewManager(dial, log)
		return &Store{
			Lists:  mongo.NewListRepository(conns),
			Items:  mongo.NewItemRepository(conns),
			Users:  mongo.NewUserRepository(conns),
			health: healthOf(conns),
			close:  conns.Close,
		}, nil

	case config.DriverSQLite:
		conns := database.NewManager(sqlite.Dialer(cfg.Database.Path), log)
		return &Store{
			Lists:  sqlite.NewListRepository(conns),
			Items:  sqlite.NewItemRepository(conns),
			Users:  sqlite.NewUserRepository(conns),
			health: healthOf(conns),
			close:  conns.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func healthOf[C database.Conn](m *database.Manager[C]) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := m.Acquire(ctx)
		return err
	}
}

// NewInvalidator publishes over Redis when redis.addr is set and always logs.
// The returned func releases the Redis client.
func NewInvalidator(ctx context.Context, cfg config.Config, logger *logrus.Logger) (invalidate.Invalidator, func()) {
	logInv := invalidate.NewLogger(logger)
	if cfg.Redis.Addr == "" {
		return logInv, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis not reachable; invalidation events will fail until it is")
	} else {
		logger.Infof("publishing invalidations on redis channel %s", cfg.Redis.Channel)
	}

	return invalidate.Multi{logInv, invalidate.NewRedisPublisher(client, cfg.Redis.Channel)}, func() {
		if err := client.Close(); err != nil {
			logger.WithError(err).Debug("close redis client")
		}
	}
}

// NewSnapshotStore returns nil when export.bucket is unset.
func NewSnapshotStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Export.Bucket == "" {
		logger.Info("snapshot export disabled (export.bucket not set)")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Export.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Export.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Export.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("exporting snapshots to s3 bucket %s (region %s)", cfg.Export.Bucket, cfg.Export.Region)
	return storage.NewS3Service(client, cfg.Export.Bucket, cfg.Export.KeyPrefix), nil
}
