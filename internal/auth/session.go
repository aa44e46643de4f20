package auth

import (
	"strings"

	"list-manager/internal/domain"
)

// Session is the resolved identity of the caller of a mutation.
type Session struct {
	UserID   domain.UserID
	Username string
}

// RequireActingUser extracts the acting user from sess. It fails closed: a
// nil session or one without a user id is rejected with domain.ErrUnauthorized.
func RequireActingUser(sess *Session) (domain.UserID, error) {
	if sess == nil {
		return "", domain.ErrUnauthorized
	}
	id := domain.UserID(strings.TrimSpace(string(sess.UserID)))
	if id == "" {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}
