package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

func newEngine(logger *slog.Logger, origins []string) (*gin.Engine, error) {
	corsMiddleware, err := CORS(origins)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger), corsMiddleware)
	return router, nil
}

func NewShortURLRouter(h *LinkHandler, origins []string) (*gin.Engine, error) {
	router, err := newEngine(h.logger, origins)
	if err != nil {
		return nil, err
	}

	router.GET("/healthz", h.Health)
	router.POST("/shorten", h.Shorten)
	router.GET("/stats/:short_id", h.Stats)
	router.GET("/:short_id", h.Redirect)

	return router, nil
}

func NewTodoRouter(h *TodoHandler, origins []string) (*gin.Engine, error) {
	router, err := newEngine(h.logger, origins)
	if err != nil {
		return nil, err
	}

	router.GET("/healthz", h.Health)

	items := router.Group("/items")
	{
		items.GET("", h.ListItems)
		items.POST("", h.CreateItem)
		items.GET("/:id", h.GetItem)
		items.PUT("/:id", h.UpdateItem)
		items.PATCH("/:id", h.UpdateItem)
		items.DELETE("/:id", h.DeleteItem)

		items.GET("/:id/notifications", h.ListNotifications)
		items.POST("/:id/notifications", h.CreateNotification)
		items.DELETE("/:id/notifications", h.DeleteNotifications)
		items.GET("/:id/notifications/:notification_id", h.GetNotification)
		items.DELETE("/:id/notifications/:notification_id", h.DeleteNotification)
	}

	return router, nil
}
