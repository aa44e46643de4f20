package domain

// UserID identifies a provisioned user.
type UserID string

func (id UserID) String() string { return string(id) }

// User represents an account allowed to sign in and own lists.
type User struct {
	ID           UserID
	Username     string
	PasswordHash string
	Email        string
}
