package shares

import "github.com/gin-gonic/gin"

// RegisterRoutes nests under the authenticated /groups router.
func RegisterRoutes(groups *gin.RouterGroup, service *Service) {
	handler := NewHandler(service)

	groups.GET("/:id/shared-todos", handler.List)
	groups.POST("/:id/shared-todos", handler.Share)
	groups.DELETE("/:id/shared-todos/:todoId", handler.Unshare)
}
