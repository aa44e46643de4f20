package storage

import (
	"context"
	"time"
)

type ObjectInfo struct {
	Key          string     `json:"key"`
	Size         int64      `json:"size"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	// URL is a time-limited download link, when one could be signed.
	URL string `json:"url,omitempty"`
}

// Snapshot is the exported document: every list of one user with its items.
type Snapshot struct {
	UserID     string         `json:"user_id"`
	ExportedAt time.Time      `json:"exported_at"`
	Lists      []SnapshotList `json:"lists"`
}

type SnapshotList struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Items []SnapshotItem `json:"items"`
}

type SnapshotItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Detail    string    `json:"detail"`
	DateAdded time.Time `json:"date_added"`
	Completed bool      `json:"completed"`
}

// Service stores snapshots in remote object storage, one prefix per user.
type Service interface {
	PutSnapshot(ctx context.Context, snap *Snapshot) (string, error)
	ListSnapshots(ctx context.Context, userID string) ([]ObjectInfo, error)
	DeleteSnapshots(ctx context.Context, userID string) error
	GetSnapshotURL(ctx context.Context, key string, expires time.Duration) (string, error)
}
