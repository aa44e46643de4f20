package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"list-manager/internal/auth"
	"list-manager/internal/domain"
	"list-manager/internal/invalidate"
	"list-manager/internal/repository"
)

// ItemService exposes item mutations. Every mutation authorizes through the
// parent list's owner.
type ItemService interface {
	CreateItem(ctx context.Context, sess *auth.Session, listID domain.ListID, in domain.ItemInput) (*CreateResult, error)
	UpdateItem(ctx context.Context, sess *auth.Session, id domain.ItemID, in domain.ItemInput) (*Result, error)
	DeleteItem(ctx context.Context, sess *auth.Session, id domain.ItemID) (*Result, error)
	ToggleItemCompletion(ctx context.Context, sess *auth.Session, id domain.ItemID) (*Result, error)
	GetItemsByListID(ctx context.Context, listID domain.ListID) ([]domain.Item, error)
	GetItemByID(ctx context.Context, id domain.ItemID) (*domain.Item, error)
}

type itemService struct {
	lists      repository.ListRepository
	items      repository.ItemRepository
	invalidate invalidate.Invalidator
	log        logrus.FieldLogger
}

func NewItemService(lists repository.ListRepository, items repository.ItemRepository, inv invalidate.Invalidator, log logrus.FieldLogger) ItemService {
	return &itemService{
		lists:      lists,
		items:      items,
		invalidate: inv,
		log:        log,
	}
}

func (s *itemService) CreateItem(ctx context.Context, sess *auth.Session, listID domain.ListID, in domain.ItemInput) (*CreateResult, error) {
	userID, err := auth.RequireActingUser(sess)
	if err != nil {
		return nil, err
	}
	in = normalizeItem(in)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if _, err := s.lists.FindByID(ctx, listID, userID); err != nil {
		return nil, err
	}

	id, err := s.items.Insert(ctx, listID, in.Title, in.Detail)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"item_id": id, "list_id": listID, "user_id": userID}).Info("item created")
	signal(ctx, s.invalidate, s.log, invalidate.ListPath(listID), invalidate.IndexPath)
	return &CreateResult{ID: id.String()}, nil
}

func (s *itemService) UpdateItem(ctx context.Context, sess *auth.Session, id domain.ItemID, in domain.ItemInput) (*Result, error) {
	userID, err := auth.RequireActingUser(sess)
	if err != nil {
		return nil, err
	}
	in = normalizeItem(in)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	item, err := s.authorize(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := s.items.UpdateFields(ctx, id, in.Title, in.Detail); err != nil {
		return nil, err
	}

	// the index shows names and counts only
	signal(ctx, s.invalidate, s.log, invalidate.ListPath(item.ListID))
	return &Result{Success: true}, nil
}

func (s *itemService) DeleteItem(ctx context.Context, sess *auth.Session, id domain.ItemID) (*Result, error) {
	userID, err := auth.RequireActingUser(sess)
	if err != nil {
		return nil, err
	}
	item, err := s.authorize(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := s.items.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"item_id": id, "list_id": item.ListID, "user_id": userID}).Info("item deleted")
	signal(ctx, s.invalidate, s.log, invalidate.ListPath(item.ListID), invalidate.IndexPath)
	return &Result{Success: true}, nil
}

func (s *itemService) ToggleItemCompletion(ctx context.Context, sess *auth.Session, id domain.ItemID) (*Result, error) {
	userID, err := auth.RequireActingUser(sess)
	if err != nil {
		return nil, err
	}
	item, err := s.authorize(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := s.items.ToggleCompletion(ctx, id); err != nil {
		return nil, err
	}

	// the index shows names and counts only
	signal(ctx, s.invalidate, s.log, invalidate.ListPath(item.ListID))
	return &Result{Success: true}, nil
}

func (s *itemService) GetItemsByListID(ctx context.Context, listID domain.ListID) ([]domain.Item, error) {
	return s.items.FindByList(ctx, listID)
}

func (s *itemService) GetItemByID(ctx context.Context, id domain.ItemID) (*domain.Item, error) {
	return s.items.FindByID(ctx, id)
}

// authorize loads the item and confirms its list belongs to userID.
func (s *itemService) authorize(ctx context.Context, id domain.ItemID, userID domain.UserID) (*domain.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lists.FindByID(ctx, item.ListID, userID); err != nil {
		if errors.Is(err, domain.ErrListNotFound) {
			s.log.WithFields(logrus.Fields{"item_id": id, "user_id": userID}).Warn("item access denied")
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return item, nil
}

func normalizeItem(in domain.ItemInput) domain.ItemInput {
	return domain.ItemInput{
		Title:  strings.TrimSpace(in.Title),
		Detail: strings.TrimSpace(in.Detail),
	}
}
