package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"list-manager/internal/domain"
	"list-manager/internal/repository"
)

type ItemRepository struct {
	conns *Manager
	now   func() time.Time
}

func NewItemRepository(conns *Manager) repository.ItemRepository {
	return &ItemRepository{conns: conns, now: time.Now}
}

func (r *ItemRepository) Insert(ctx context.Context, listID domain.ListID, title, detail string) (domain.ItemID, error) {
	db, err := acquire(ctx, r.conns)
	if err != nil {
		return "", err
	}

	id := domain.ItemID(uuid.NewString())
	if _, err := db.ExecContext(ctx, `
INSERT INTO items (id, title, detail, date_added, list_id, completed)
VALUES (?, ?, ?, ?, ?, 0)`,
		id,
		title,
		detail,
		domain.FormatDate(r.now()),
		listID,
	); err != nil {
		return "", fmt.Errorf("insert item: %w", err)
	}
	return id, nil
}

func (r *ItemRepository) FindByList(ctx context.Context, listID domain.ListID) ([]domain.Item, error) {
	items := make([]domain.Item, 0)
	if !validID(string(listID)) {
		return items, nil
	}
	db, err := acquire(ctx, r.conns)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
SELECT id, title, detail, date_added, list_id, completed
FROM items
WHERE list_id=?
ORDER BY date_added DESC, rowid DESC`, listID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

func (r *ItemRepository) FindByID(ctx context.Context, id domain.ItemID) (*domain.Item, error) {
	if !validID(string(id)) {
		return nil, domain.ErrItemNotFound
	}
	db, err := acquire(ctx, r.conns)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `
SELECT id, title, detail, date_added, list_id, completed
FROM items
WHERE id=?`, id)
	return scanItem(row)
}

func (r *ItemRepository) UpdateFields(ctx context.Context, id domain.ItemID, title, detail string) error {
	return r.exec(ctx, id, "update item", `UPDATE items SET title=?, detail=? WHERE id=?`, title, detail, id)
}

func (r *ItemRepository) Delete(ctx context.Context, id domain.ItemID) error {
	return r.exec(ctx, id, "delete item", `DELETE FROM items WHERE id=?`, id)
}

func (r *ItemRepository) ToggleCompletion(ctx context.Context, id domain.ItemID) error {
	return r.exec(ctx, id, "toggle item", `UPDATE items SET completed = NOT completed WHERE id=?`, id)
}

// exec runs a single-row statement against item id and maps zero affected
// rows to domain.ErrItemNotFound.
func (r *ItemRepository) exec(ctx context.Context, id domain.ItemID, op, query string, args ...any) error {
	if !validID(string(id)) {
		return domain.ErrItemNotFound
	}
	db, err := acquire(ctx, r.conns)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if aff == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func scanItem(scanner interface {
	Scan(dest ...any) error
}) (*domain.Item, error) {
	var (
		item              domain.Item
		id, listID, added string
	)
	if err := scanner.Scan(
		&id,
		&item.Title,
		&item.Detail,
		&added,
		&listID,
		&item.Completed,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}

	dateAdded, err := domain.ParseDate(added)
	if err != nil {
		return nil, fmt.Errorf("parse item date: %w", err)
	}
	item.ID = domain.ItemID(id)
	item.ListID = domain.ListID(listID)
	item.DateAdded = dateAdded
	return &item, nil
}
