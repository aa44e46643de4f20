package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"list-manager/internal/auth"
	"list-manager/internal/repository"
	"list-manager/internal/storage"
)

// ErrExportDisabled is returned when no snapshot storage is configured.
var ErrExportDisabled = errors.New("export is not configured")

// SnapshotURLTTL bounds the lifetime of download links handed out by
// ListExports.
const SnapshotURLTTL = 15 * time.Minute

// ExportResult describes a written snapshot.
type ExportResult struct {
	Location string `json:"location"`
	Lists    int    `json:"lists"`
	Items    int    `json:"items"`
}

// ExportService writes JSON snapshots of the acting user's lists.
type ExportService interface {
	Export(ctx context.Context, sess *auth.Session) (*ExportResult, error)
	ListExports(ctx context.Context, sess *auth.Session) ([]storage.ObjectInfo, error)
	DeleteExports(ctx context.Context, sess *auth.Session) (*Result, error)
}

type exportService struct {
	lists repository.ListRepository
	items repository.ItemRepository
	store storage.Service
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewExportService returns a service backed by store. A nil store yields a
// service whose every call fails with ErrExportDisabled.
func NewExportService(lists repository.ListRepository, items repository.ItemRepository, store storage.Service, log logrus.FieldLogger) ExportService {
	return &exportService{
		lists: lists,
		items: items,
		store: store,
		log:   log,
		now:   time.Now,
	}
}

func (s *exportService) Export(ctx context.Context, sess *auth.Session) (*ExportResult, error) {
	userID, err := auth.RequireActingUser(sess)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrExportDisabled
	}

	lists, err := s.lists.FindByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap := &storage.Snapshot{
		UserID:     userID.String(),
		ExportedAt: s.now().UTC(),
		Lists:      make([]storage.SnapshotList, 0, len(lists)),
	}
	total := 0
	for _, l := range lists {
		items, err := s.items.FindByList(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		entry := storage.SnapshotList{
			ID:    l.ID.String(),
			Name:  l.Name,
			Items: make([]storage.SnapshotItem, 0, len(items)),
		}
		for _, it := range items {
			entry.Items = append(entry.Items, storage.SnapshotItem{
				ID:        it.ID.String(),
				Title:     it.Title,
				Detail:    it.Detail,
				DateAdded: it.DateAdded,
				Completed: it.Completed,
			})
		}
		total += len(items)
		snap.Lists = append(snap.Lists, entry)
	}

	loc, err := s.store.PutSnapshot(ctx, snap)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "location": loc}).Info("snapshot exported")
	return &ExportResult{Location: loc, Lists: len(snap.Lists), Items: total}, nil
}

func (s *exportService) ListExports(ctx context.Context, sess *auth.Session) ([]storage.ObjectInfo, error) {
	userID, err := auth.RequireActingUser(sess)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrExportDisabled
	}

	objects, err := s.store.ListSnapshots(ctx, userID.String())
	if err != nil {
		return nil, err
	}
	for i := range objects {
		url, err := s.store.GetSnapshotURL(ctx, objects[i].Key, SnapshotURLTTL)
		if err != nil {
			s.log.WithError(err).WithField("key", objects[i].Key).Warn("snapshot url not signed")
			continue
		}
		objects[i].URL = url
	}
	return objects, nil
}

func (s *exportService) DeleteExports(ctx context.Context, sess *auth.Session) (*Result, error) {
	userID, err := auth.RequireActingUser(sess)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrExportDisabled
	}
	if err := s.store.DeleteSnapshots(ctx, userID.String()); err != nil {
		return nil, err
	}
	return &Result{Success: true}, nil
}
