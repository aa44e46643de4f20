package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"list-manager/internal/domain"
	"list-manager/internal/repository"
)

type UserRepository struct {
	conns *Manager
}

func NewUserRepository(conns *Manager) repository.UserRepository {
	return &UserRepository{conns: conns}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (domain.UserID, error) {
	db, err := acquire(ctx, r.conns)
	if err != nil {
		return "", err
	}

	id := domain.UserID(uuid.NewString())
	_, err = db.ExecContext(ctx, `
INSERT INTO users (id, username, password_hash, email)
VALUES (?, ?, ?, ?)`,
		id,
		user.Username,
		user.PasswordHash,
		user.Email,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return "", fmt.Errorf("insert user %q: %w", user.Username, domain.ErrUserExists)
		}
		return "", fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db, err := acquire(ctx, r.conns)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `
SELECT id, username, password_hash, email
FROM users
WHERE username = ?`,
		username,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	db, err := acquire(ctx, r.conns)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `
SELECT id, username, password_hash, email
FROM users
WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user domain.User
		id   string
	)
	if err := row.Scan(
		&id,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.ID = domain.UserID(id)
	return &user, nil
}
