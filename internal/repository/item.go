package repository

import (
	"context"

	"list-manager/internal/domain"
)

// ItemRepository persists items. It performs no ownership checks; callers
// authorize through the parent list.
type ItemRepository interface {
	Insert(ctx context.Context, listID domain.ListID, title, detail string) (domain.ItemID, error)
	// FindByList returns items newest first.
	FindByList(ctx context.Context, listID domain.ListID) ([]domain.Item, error)
	FindByID(ctx context.Context, id domain.ItemID) (*domain.Item, error)
	// UpdateFields overwrites title and detail only.
	UpdateFields(ctx context.Context, id domain.ItemID, title, detail string) error
	Delete(ctx context.Context, id domain.ItemID) error
	// ToggleCompletion negates the completed flag in a single write.
	ToggleCompletion(ctx context.Context, id domain.ItemID) error
}
