package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"list-manager/internal/auth"
	"list-manager/internal/domain"
	"list-manager/internal/invalidate"
	"list-manager/internal/repository"
)

// CreateResult is returned by operations that insert a record.
type CreateResult struct {
	ID string `json:"id"`
}

// Result is returned by updates, deletes and toggles.
type Result struct {
	Success bool `json:"success"`
}

// ListService exposes list mutations for an authenticated session together
// with the owner scoped read queries.
type ListService interface {
	CreateList(ctx context.Context, sess *auth.Session, name string) (*CreateResult, error)
	UpdateList(ctx context.Context, sess *auth.Session, id domain.ListID, name string) (*Result, error)
	DeleteList(ctx context.Context, sess *auth.Session, id domain.ListID) (*Result, error)
	GetLists(ctx context.Context, userID domain.UserID) ([]domain.List, error)
	GetListByID(ctx context.Context, id domain.ListID, userID domain.UserID) (*domain.List, error)
}

type listService struct {
	lists      repository.ListRepository
	invalidate invalidate.Invalidator
	log        logrus.FieldLogger
}

func NewListService(lists repository.ListRepository, inv invalidate.Invalidator, log logrus.FieldLogger) ListService {
	return &listService{
		lists:      lists,
		invalidate: inv,
		log:        log,
	}
}

func (s *listService) CreateList(ctx context.Context, sess *auth.Session, name string) (*CreateResult, error) {
	userID, err := auth.RequireActingUser(sess)
	if err != nil {
		return nil, err
	}
	in := domain.ListInput{Name: strings.TrimSpace(name)}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	id, err := s.lists.Insert(ctx, in.Name, userID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"list_id": id, "user_id": userID}).Info("list created")
	signal(ctx, s.invalidate, s.log, invalidate.IndexPath)
	return &CreateResult{ID: id.String()}, nil
}

func (s *listService) UpdateList(ctx context.Context, sess *auth.Session, id domain.ListID, name string) (*Result, error) {
	userID, err := auth.RequireActingUser(sess)
	if err != nil {
		return nil, err
	}
	in := domain.ListInput{Name: strings.TrimSpace(name)}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	matched, err := s.lists.UpdateName(ctx, id, userID, in.Name)
	if err != nil {
		return nil, err
	}
	if matched == 0 {
		return nil, domain.ErrListNotFound
	}

	signal(ctx, s.invalidate, s.log, invalidate.ListPath(id), invalidate.IndexPath)
	return &Result{Success: true}, nil
}

func (s *listService) DeleteList(ctx context.Context, sess *auth.Session, id domain.ListID) (*Result, error) {
	userID, err := auth.RequireActingUser(sess)
	if err != nil {
		return nil, err
	}

	deleted, err := s.lists.DeleteCascade(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if deleted == 0 {
		return nil, domain.ErrListNotFound
	}

	s.log.WithFields(logrus.Fields{"list_id": id, "user_id": userID}).Info("list deleted")
	signal(ctx, s.invalidate, s.log, invalidate.IndexPath, invalidate.ListPath(id))
	return &Result{Success: true}, nil
}

func (s *listService) GetLists(ctx context.Context, userID domain.UserID) ([]domain.List, error) {
	return s.lists.FindByOwner(ctx, userID)
}

func (s *listService) GetListByID(ctx context.Context, id domain.ListID, userID domain.UserID) (*domain.List, error) {
	return s.lists.FindByID(ctx, id, userID)
}

// signal marks paths stale. A failed invalidation never fails a committed
// mutation; it is logged instead.
func signal(ctx context.Context, inv invalidate.Invalidator, log logrus.FieldLogger, paths ...string) {
	if inv == nil {
		return
	}
	if err := inv.Invalidate(ctx, paths...); err != nil {
		log.WithError(err).WithField("paths", paths).Warn("invalidate views")
	}
}
