package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/todoshare/internal/middleware"
	"github.com/xyz-asif/todoshare/internal/pkg/ratelimit"
	"github.com/xyz-asif/todoshare/internal/pkg/token"
)

// RegisterRoutes mounts /auth. Credential endpoints are rate limited per IP.
func RegisterRoutes(router *gin.RouterGroup, service *Service, tokens *token.Manager, limiter *ratelimit.RateLimiter) {
	handler := NewHandler(service)

	auth := router.Group("/auth")
	{
		auth.POST("/register", ratelimit.Middleware(limiter), handler.Register)
		auth.POST("/login", ratelimit.Middleware(limiter), handler.Login)
		auth.GET("/me", middleware.Auth(tokens), handler.Me)
	}
}
