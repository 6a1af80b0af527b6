package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/todoshare/internal/pkg/token"
)

func newProtectedRouter(tokens *token.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(tokens))
	r.GET("/protected", func(c *gin.Context) {
		actor, ok := RequireActor(c)
		if !ok {
			return
		}
		c.JSON(200, gin.H{"actor": actor.Hex()})
	})
	return r
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	r := newProtectedRouter(token.NewManager("secret", time.Hour))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, 401, w.Code)
	var body map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &body)
	require.NoError(t, err)
	require.Equal(t, false, body["success"])
	require.Equal(t, float64(401), body["statusCode"])
	require.Equal(t, "Authorization header required", body["message"])
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokens := token.NewManager("secret", time.Hour)
	r := newProtectedRouter(tokens)
	actor := primitive.NewObjectID()

	signed, err := tokens.GenerateToken(actor.Hex(), "a@example.com")
	require.NoError(t, err)

	for _, header := range []string{"Bearer " + signed, "bearer " + signed, signed} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", header)
		r.ServeHTTP(w, req)

		require.Equal(t, 200, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, actor.Hex(), body["actor"])
	}
}

func TestAuthMiddleware_RejectsNonObjectIDSubject(t *testing.T) {
	tokens := token.NewManager("secret", time.Hour)
	r := newProtectedRouter(tokens)

	signed, err := tokens.GenerateToken("not-an-object-id", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)

	require.Equal(t, 401, w.Code)
}

func TestRequireActorWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", func(c *gin.Context) {
		if _, ok := RequireActor(c); !ok {
			return
		}
		c.Status(200)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/open", nil))
	require.Equal(t, 401, w.Code)
}
