package groups

import (
	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/todoshare/internal/middleware"
	"github.com/xyz-asif/todoshare/internal/pkg/ratelimit"
	"github.com/xyz-asif/todoshare/internal/pkg/token"
)

// RegisterRoutes mounts /groups and returns the authenticated group so
// other features can nest under /groups/:id.
func RegisterRoutes(router *gin.RouterGroup, service *Service, tokens *token.Manager, joinLimiter *ratelimit.RateLimiter) *gin.RouterGroup {
	handler := NewHandler(service)

	groups := router.Group("/groups")
	groups.Use(middleware.Auth(tokens))
	{
		groups.GET("", handler.List)
		groups.POST("", handler.Create)
		// Per user, so join codes cannot be guessed quickly
		groups.POST("/join", ratelimit.UserBasedMiddleware(joinLimiter), handler.Join)
		groups.GET("/:id", handler.Get)
		groups.DELETE("/:id", handler.Delete)
		groups.GET("/:id/members", handler.ListMembers)
		groups.POST("/:id/members", handler.AddMember)
		groups.DELETE("/:id/members/:userId", handler.RemoveMember)
	}
	return groups
}
