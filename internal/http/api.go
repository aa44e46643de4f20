package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"list-manager/internal/auth"
	"list-manager/internal/domain"
	"list-manager/internal/service"
)

// HealthFunc reports whether the backing database is reachable.
type HealthFunc func(ctx context.Context) error

// Options carries the collaborators of a Handler.
type Options struct {
	Lists   service.ListService
	Items   service.ItemService
	Users   service.UserService
	Exports service.ExportService
	Tokens  *auth.TokenManager
	Health  HealthFunc
	Logger  logrus.FieldLogger
	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	lists   service.ListService
	items   service.ItemService
	users   service.UserService
	exports service.ExportService
	tokens  *auth.TokenManager
	health  HealthFunc
	log     logrus.FieldLogger
	origins []string
}

func NewHandler(opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		lists:   opts.Lists,
		items:   opts.Items,
		users:   opts.Users,
		exports: opts.Exports,
		tokens:  opts.Tokens,
		health:  opts.Health,
		log:     log,
		origins: opts.CORSOrigins,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestID(), accessLog(h.log), corsMiddleware(h.origins))

	api := router.Group("/api")
	{
		api.GET("/health", h.healthCheck)
		api.POST("/auth/login", h.login)

		secured := api.Group("")
		secured.Use(h.requireSession())
		{
			secured.GET("/auth/me", h.me)

			secured.GET("/lists", h.getLists)
			secured.POST("/lists", h.createList)
			secured.GET("/lists/:id", h.getList)
			secured.PUT("/lists/:id", h.updateList)
			secured.DELETE("/lists/:id", h.deleteList)
			secured.GET("/lists/:id/items", h.getListItems)
			secured.POST("/lists/:id/items", h.createItem)

			secured.GET("/items/:id", h.getItem)
			secured.PUT("/items/:id", h.updateItem)
			secured.DELETE("/items/:id", h.deleteItem)
			secured.POST("/items/:id/toggle", h.toggleItem)

			secured.POST("/exports", h.createExport)
			secured.GET("/exports", h.listExports)
			secured.DELETE("/exports", h.deleteExports)
		}
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			h.log.WithError(err).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getLists(c *gin.Context) {
	sess := sessionFrom(c)
	lists, err := h.lists.GetLists(c.Request.Context(), sess.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]ListResponse, len(lists))
	for i := range lists {
		resp[i] = listToResponse(lists[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getList(c *gin.Context) {
	sess := sessionFrom(c)
	list, err := h.lists.GetListByID(c.Request.Context(), domain.ListID(c.Param("id")), sess.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listToResponse(*list))
}

func (h *Handler) createList(c *gin.Context) {
	var req domain.ListInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.lists.CreateList(c.Request.Context(), sessionFrom(c), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) updateList(c *gin.Context) {
	var req domain.ListInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.lists.UpdateList(c.Request.Context(), sessionFrom(c), domain.ListID(c.Param("id")), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) deleteList(c *gin.Context) {
	res, err := h.lists.DeleteList(c.Request.Context(), sessionFrom(c), domain.ListID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) getListItems(c *gin.Context) {
	sess := sessionFrom(c)
	listID := domain.ListID(c.Param("id"))
	if _, err := h.lists.GetListByID(c.Request.Context(), listID, sess.UserID); err != nil {
		h.fail(c, err)
		return
	}

	items, err := h.items.GetItemsByListID(c.Request.Context(), listID)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]ItemResponse, len(items))
	for i := range items {
		resp[i] = itemToResponse(items[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createItem(c *gin.Context) {
	var req domain.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.items.CreateItem(c.Request.Context(), sessionFrom(c), domain.ListID(c.Param("id")), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) getItem(c *gin.Context) {
	sess := sessionFrom(c)
	item, err := h.items.GetItemByID(c.Request.Context(), domain.ItemID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	// someone else's item reads as missing
	if _, err := h.lists.GetListByID(c.Request.Context(), item.ListID, sess.UserID); err != nil {
		h.fail(c, domain.ErrItemNotFound)
		return
	}
	c.JSON(http.StatusOK, itemToResponse(*item))
}

func (h *Handler) updateItem(c *gin.Context) {
	var req domain.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.items.UpdateItem(c.Request.Context(), sessionFrom(c), domain.ItemID(c.Param("id")), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) deleteItem(c *gin.Context) {
	res, err := h.items.DeleteItem(c.Request.Context(), sessionFrom(c), domain.ItemID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) toggleItem(c *gin.Context) {
	res, err := h.items.ToggleItemCompletion(c.Request.Context(), sessionFrom(c), domain.ItemID(c.Param("id")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) createExport(c *gin.Context) {
	if h.exports == nil {
		h.fail(c, service.ErrExportDisabled)
		return
	}
	res, err := h.exports.Export(c.Request.Context(), sessionFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) listExports(c *gin.Context) {
	if h.exports == nil {
		h.fail(c, service.ErrExportDisabled)
		return
	}
	objects, err := h.exports.ListExports(c.Request.Context(), sessionFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) deleteExports(c *gin.Context) {
	if h.exports == nil {
		h.fail(c, service.ErrExportDisabled)
		return
	}
	res, err := h.exports.DeleteExports(c.Request.Context(), sessionFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
