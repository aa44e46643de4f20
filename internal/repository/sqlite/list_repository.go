package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"list-manager/internal/domain"
	"list-manager/internal/repository"
)

type ListRepository struct {
	conns *Manager
}

func NewListRepository(conns *Manager) repository.ListRepository {
	return &ListRepository{conns: conns}
}

func (r *ListRepository) Insert(ctx context.Context, name string, owner domain.UserID) (domain.ListID, error) {
	db, err := acquire(ctx, r.conns)
	if err != nil {
		return "", err
	}

	id := domain.ListID(uuid.NewString())
	if _, err := db.ExecContext(ctx, `
INSERT INTO lists (id, name, user_id)
VALUES (?, ?, ?)`,
		id,
		name,
		owner,
	); err != nil {
		return "", fmt.Errorf("insert list: %w", err)
	}
	return id, nil
}

func (r *ListRepository) FindByOwner(ctx context.Context, owner domain.UserID) ([]domain.List, error) {
	db, err := acquire(ctx, r.conns)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
SELECT l.id, l.name, l.user_id, COUNT(i.id)
FROM lists l
LEFT JOIN items i ON i.list_id = l.id
WHERE l.user_id = ?
GROUP BY l.id
ORDER BY l.rowid ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	defer rows.Close()

	lists := make([]domain.List, 0)
	for rows.Next() {
		var (
			list      domain.List
			id, owner string
		)
		if err := rows.Scan(&id, &list.Name, &owner, &list.ItemCount); err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		list.ID = domain.ListID(id)
		list.Owner = domain.UserID(owner)
		lists = append(lists, list)
	}

	return lists, rows.Err()
}

func (r *ListRepository) FindByID(ctx context.Context, id domain.ListID, owner domain.UserID) (*domain.List, error) {
	if !validID(string(id)) {
		return nil, domain.ErrListNotFound
	}
	db, err := acquire(ctx, r.conns)
	if err != nil {
		return nil, err
	}

	var (
		list          domain.List
		listID, owned string
	)
	err = db.QueryRowContext(ctx, `
SELECT id, name, user_id
FROM lists
WHERE id = ? AND user_id = ?`,
		id,
		owner,
	).Scan(&listID, &list.Name, &owned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan list: %w", err)
	}
	list.ID = domain.ListID(listID)
	list.Owner = domain.UserID(owned)
	return &list, nil
}

func (r *ListRepository) UpdateName(ctx context.Context, id domain.ListID, owner domain.UserID, name string) (int64, error) {
	if !validID(string(id)) {
		return 0, nil
	}
	db, err := acquire(ctx, r.conns)
	if err != nil {
		return 0, err
	}

	res, err := db.ExecContext(ctx, `
UPDATE lists
SET name=?
WHERE id=? AND user_id=?`,
		name,
		id,
		owner,
	)
	if err != nil {
		return 0, fmt.Errorf("update list: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("list update rows affected: %w", err)
	}
	return aff, nil
}

func (r *ListRepository) DeleteCascade(ctx context.Context, id domain.ListID, owner domain.UserID) (int64, error) {
	if !validID(string(id)) {
		return 0, nil
	}
	db, err := acquire(ctx, r.conns)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM lists WHERE id=? AND user_id=?`, id, owner)
	if err != nil {
		return 0, fmt.Errorf("delete list: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("list delete rows affected: %w", err)
	}
	if aff != 1 {
		return aff, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE list_id=?`, id); err != nil {
		return 0, fmt.Errorf("delete list items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit list delete: %w", err)
	}
	return aff, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
