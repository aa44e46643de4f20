package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"list-manager/internal/auth"
	"list-manager/internal/domain"
	"list-manager/internal/service"
	"list-manager/internal/storage"
)

type ListResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UserID    string `json:"user_id"`
	ItemCount int    `json:"item_count"`
}

type ItemResponse struct {
	ID        string `json:"id"`
	ListID    string `json:"list_id"`
	Title     string `json:"title"`
	Detail    string `json:"detail"`
	DateAdded string `json:"date_added"`
	Completed bool   `json:"completed"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
	URL          string  `json:"url,omitempty"`
}

func listToResponse(list domain.List) ListResponse {
	return ListResponse{
		ID:        list.ID.String(),
		Name:      list.Name,
		UserID:    list.Owner.String(),
		ItemCount: list.ItemCount,
	}
}

func itemToResponse(item domain.Item) ItemResponse {
	return ItemResponse{
		ID:        item.ID.String(),
		ListID:    item.ListID.String(),
		Title:     item.Title,
		Detail:    item.Detail,
		DateAdded: domain.FormatDate(item.DateAdded),
		Completed: item.Completed,
	}
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
	}
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
		URL:  obj.URL,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}

// fail maps err onto a status code. Unexpected errors are logged and reported
// without detail.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrValidation.Error(), "fields": verr.Fields})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrExportDisabled):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConnection):
		h.log.WithError(err).WithField("request_id", c.GetString("request_id")).Error("database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
	default:
		h.log.WithError(err).WithField("request_id", c.GetString("request_id")).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
