package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when no acting user is present or the acting
	// user does not own the target list or item.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is the parent of every lookup miss.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when a required field is missing.
	ErrValidation = errors.New("validation failed")
	// ErrConnection is returned when the database cannot be reached.
	ErrConnection = errors.New("database connection failed")

	ErrListNotFound = fmt.Errorf("list %w", ErrNotFound)
	ErrItemNotFound = fmt.Errorf("item %w", ErrNotFound)
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrUserExists is returned when provisioning a username that is taken.
	ErrUserExists = errors.New("user already exists")
)
