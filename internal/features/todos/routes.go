package todos

import (
	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/todoshare/internal/middleware"
	"github.com/xyz-asif/todoshare/internal/pkg/token"
)

func RegisterRoutes(router *gin.RouterGroup, service *Service, tokens *token.Manager) {
	handler := NewHandler(service)

	todos := router.Group("/todos")
	todos.Use(middleware.Auth(tokens)) // All todo routes require authentication
	{
		todos.GET("", handler.List)
		todos.POST("", handler.Create)
		todos.GET("/search", handler.Search)
		todos.GET("/completed", handler.ListByCompleted)
		todos.GET("/:id", handler.Get)
		todos.PUT("/:id", handler.Update)
		todos.PUT("/:id/complete", handler.ToggleComplete)
		todos.DELETE("/:id", handler.Delete)
	}
}
