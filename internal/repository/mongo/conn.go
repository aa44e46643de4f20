package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"list-manager/internal/database"
)

const (
	listsCollection = "lists"
	itemsCollection = "items"
	usersCollection = "users"
)

// Options configures the client built by Dialer. Zero values leave the
// driver default in place.
type Options struct {
	URI      string
	Database string

	MaxPoolSize            uint64
	MinPoolSize            uint64
	MaxIdleTime            time.Duration
	ConnectTimeout         time.Duration
	SocketTimeout          time.Duration
	ServerSelectionTimeout time.Duration
	RetryWrites            *bool
	RetryReads             *bool
}

// DefaultDatabase is used when Options.Database is empty.
const DefaultDatabase = "list-manager"

// Conn is a connected client bound to the application database.
type Conn struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func (c *Conn) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx, readpref.Primary())
}

func (c *Conn) Close(ctx context.Context) error {
	return c.Client.Disconnect(ctx)
}

func (c *Conn) lists() *mongo.Collection { return c.DB.Collection(listsCollection) }
func (c *Conn) items() *mongo.Collection { return c.DB.Collection(itemsCollection) }
func (c *Conn) users() *mongo.Collection { return c.DB.Collection(usersCollection) }

// Manager is the connection manager specialised for MongoDB.
type Manager = database.Manager[*Conn]

// Dialer validates opts once and returns a database.Dialer that connects a new
// client on every call.
func Dialer(opts Options) (database.Dialer[*Conn], error) {
	if opts.URI == "" {
		return nil, errors.New("mongo: connection string is required")
	}
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}

	clientOpts := clientOptions(opts)
	return func(ctx context.Context) (*Conn, error) {
		client, err := mongo.Connect(ctx, clientOpts)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		db := client.Database(opts.Database)
		if err := ensureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &Conn{Client: client, DB: db}, nil
	}, nil
}

func clientOptions(opts Options) *options.ClientOptions {
	co := options.Client().ApplyURI(opts.URI)
	if opts.MaxPoolSize > 0 {
		co.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		co.SetMinPoolSize(opts.MinPoolSize)
	}
	if opts.MaxIdleTime > 0 {
		co.SetMaxConnIdleTime(opts.MaxIdleTime)
	}
	if opts.ConnectTimeout > 0 {
		co.SetConnectTimeout(opts.ConnectTimeout)
	}
	if opts.SocketTimeout > 0 {
		co.SetSocketTimeout(opts.SocketTimeout)
	}
	if opts.ServerSelectionTimeout > 0 {
		co.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}
	if opts.RetryWrites != nil {
		co.SetRetryWrites(*opts.RetryWrites)
	}
	if opts.RetryReads != nil {
		co.SetRetryReads(*opts.RetryReads)
	}
	return co
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		listsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		itemsCollection: {
			{Keys: bson.D{{Key: "listId", Value: 1}, {Key: "dateAdded", Value: -1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}
