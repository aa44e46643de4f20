package repository

import (
	"context"

	"list-manager/internal/domain"
)

// ListRepository persists lists. Every method is scoped by the owning user.
type ListRepository interface {
	Insert(ctx context.Context, name string, owner domain.UserID) (domain.ListID, error)
	// FindByOwner returns the owner's lists with ItemCount populated.
	FindByOwner(ctx context.Context, owner domain.UserID) ([]domain.List, error)
	// FindByID matches on id and owner together; a malformed id or another
	// user's list both yield domain.ErrListNotFound.
	FindByID(ctx context.Context, id domain.ListID, owner domain.UserID) (*domain.List, error)
	// UpdateName reports how many lists matched (0 or 1).
	UpdateName(ctx context.Context, id domain.ListID, owner domain.UserID, name string) (int64, error)
	// DeleteCascade removes the list and, only if it was removed, its items.
	// It reports how many lists were deleted (0 or 1).
	DeleteCascade(ctx context.Context, id domain.ListID, owner domain.UserID) (int64, error)
}
