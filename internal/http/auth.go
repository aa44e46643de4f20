package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"list-manager/internal/auth"
)

const sessionKey = "session"

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, exp, err := h.tokens.Issue(user)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.log.WithField("user_id", user.ID).Info("user signed in")
	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: exp.UTC().Format(time.RFC3339),
		User:      userToResponse(*user),
	})
}

// me returns the account behind the bearer token.
func (h *Handler) me(c *gin.Context) {
	userID, err := auth.RequireActingUser(sessionFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

// requireSession resolves the bearer token into an *auth.Session and stores
// it on the context. Requests without a valid token stop here with 401.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		sess, err := h.tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// sessionFrom returns the session stored by requireSession, or nil. A nil
// session is rejected by the service layer.
func sessionFrom(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*auth.Session)
	return sess
}
