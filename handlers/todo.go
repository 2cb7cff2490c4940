package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"minibackends/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TodoHandler struct {
	db     *gorm.DB
	logger *slog.Logger
	todos  *services.TodoService
}

func NewTodoHandler(db *gorm.DB, logger *slog.Logger, todos *services.TodoService) *TodoHandler {
	return &TodoHandler{db: db, logger: logger, todos: todos}
}

func (h *TodoHandler) ListItems(c *gin.Context) {
	items, err := h.todos.ListItems(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *TodoHandler) GetItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.todos.GetItem(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *TodoHandler) CreateItem(c *gin.Context) {
	var req services.TodoCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	item, err := h.todos.CreateItem(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *TodoHandler) UpdateItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.TodoUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	item, err := h.todos.UpdateItem(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *TodoHandler) DeleteItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.todos.DeleteItem(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

func (h *TodoHandler) ListNotifications(c *gin.Context) {
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	notifications, err := h.todos.ListNotifications(c.Request.Context(), itemID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *TodoHandler) GetNotification(c *gin.Context) {
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	id, ok := pathID(c, "notification_id")
	if !ok {
		return
	}
	notification, err := h.todos.GetNotification(c.Request.Context(), itemID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}

func (h *TodoHandler) CreateNotification(c *gin.Context) {
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.NotificationCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	notification, err := h.todos.CreateNotification(c.Request.Context(), itemID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}

func (h *TodoHandler) DeleteNotifications(c *gin.Context) {
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.todos.DeleteNotifications(c.Request.Context(), itemID)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logger.Debug("notifications deleted", "item_id", itemID, "count", deleted)
	c.JSON(http.StatusOK, gin.H{"message": "Notifications deleted successfully"})
}

func (h *TodoHandler) DeleteNotification(c *gin.Context) {
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	id, ok := pathID(c, "notification_id")
	if !ok {
		return
	}
	if err := h.todos.DeleteNotification(c.Request.Context(), itemID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted successfully"})
}

func (h *TodoHandler) Health(c *gin.Context) {
	health(c, h.db)
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		validationError(c, errors.New("invalid "+name))
		return 0, false
	}
	return uint(id), true
}
