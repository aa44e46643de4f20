package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"list-manager/internal/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS lists (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	user_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lists_user_id ON lists(user_id);
CREATE TABLE IF NOT EXISTS items (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	date_added TEXT NOT NULL,
	list_id TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY(list_id) REFERENCES lists(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_items_list_id ON items(list_id, date_added);
`

// Conn wraps a sqlite handle so it can be cached by database.Manager.
type Conn struct {
	DB *sql.DB
}

func (c *Conn) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Conn) Close(context.Context) error {
	return c.DB.Close()
}

// Manager is the connection manager specialised for sqlite.
type Manager = database.Manager[*Conn]

// Open opens (or creates) a sqlite database at the given path and ensures directories exist.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// a single connection keeps PRAGMAs in effect and serialises writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return db, nil
}

// Dialer returns a database.Dialer that opens path and applies the schema.
func Dialer(path string) database.Dialer[*Conn] {
	return func(ctx context.Context) (*Conn, error) {
		db, err := Open(path)
		if err != nil {
			return nil, err
		}
		if _, err := db.ExecContext(ctx, schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
		return &Conn{DB: db}, nil
	}
}

func acquire(ctx context.Context, m *Manager) (*sql.DB, error) {
	conn, err := m.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn.DB, nil
}
