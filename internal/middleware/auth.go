package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/todoshare/internal/pkg/response"
	"github.com/xyz-asif/todoshare/internal/pkg/token"
)

const (
	userIDKey  = "userID"
	emailKey   = "email"
	actorIDKey = "actorID"
)

// Auth validates the bearer token and stores the caller's identity on the context.
// Handlers read it with ActorID and pass it explicitly to services.
func Auth(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header required", "AUTH_REQUIRED")
			c.Abort()
			return
		}

		// Support both "Bearer <token>" (case-insensitive) and raw token in header
		fields := strings.Fields(authHeader)
		var tokenString string
		if len(fields) == 2 && strings.EqualFold(fields[0], "Bearer") {
			tokenString = fields[1]
		} else {
			tokenString = authHeader
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token", "INVALID_TOKEN")
			c.Abort()
			return
		}

		actorID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token", "INVALID_TOKEN")
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(emailKey, claims.Email)
		c.Set(actorIDKey, actorID)
		c.Next()
	}
}

// ActorID returns the authenticated user set by Auth.
func ActorID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(actorIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok && !id.IsZero()
}

// RequireActor is ActorID for handlers behind Auth. It writes a 401 and
// returns false when no actor is present.
func RequireActor(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := ActorID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required", "AUTH_REQUIRED")
		return primitive.NilObjectID, false
	}
	return id, true
}
