package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/todoshare/internal/config"
	"github.com/xyz-asif/todoshare/internal/database"
	"github.com/xyz-asif/todoshare/internal/features/auth"
	"github.com/xyz-asif/todoshare/internal/features/groups"
	"github.com/xyz-asif/todoshare/internal/features/shares"
	"github.com/xyz-asif/todoshare/internal/features/todos"
	"github.com/xyz-asif/todoshare/internal/pkg/ratelimit"
	"github.com/xyz-asif/todoshare/internal/pkg/token"
	"github.com/xyz-asif/todoshare/internal/store/memory"
)

// Stores is the persistence every feature runs on.
type Stores struct {
	Users  auth.Store
	Todos  todos.Store
	Groups groups.Store
	Shares shares.Store
	Tx     database.Transactor
}

// MongoStores builds the repositories and their indexes on db.
func MongoStores(db *database.MongoDB) Stores {
	return Stores{
		Users:  auth.NewRepository(db.Database),
		Todos:  todos.NewRepository(db.Database),
		Groups: groups.NewRepository(db.Database),
		Shares: shares.NewRepository(db.Database),
		Tx:     db,
	}
}

func MemoryStores(m *memory.Store) Stores {
	return Stores{
		Users:  m.Users,
		Todos:  m.Todos,
		Groups: m.Groups,
		Shares: m.Shares,
		Tx:     m.Tx,
	}
}

// SetupRoutes mounts every feature under /api/v1. Rate limiter buckets are
// swept until ctx is done.
func SetupRoutes(ctx context.Context, router *gin.Engine, stores Stores, cfg *config.Config) {
	tokens := token.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTExpireHours)*time.Hour)

	authLimiter := ratelimit.New(cfg.AuthRateLimit, cfg.AuthRateWindow)
	joinLimiter := ratelimit.New(cfg.JoinRateLimit, cfg.AuthRateWindow)
	authLimiter.StartCleanup(ctx, cfg.AuthRateWindow)
	joinLimiter.StartCleanup(ctx, cfg.AuthRateWindow)

	authService := auth.NewService(stores.Users, tokens)
	todoService := todos.NewService(stores.Todos, stores.Shares, stores.Tx)
	groupService := groups.NewService(stores.Groups, authService, stores.Shares, stores.Tx)
	shareService := shares.NewService(stores.Shares, stores.Groups, stores.Todos, stores.Tx)

	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authService, tokens, authLimiter)
		todos.RegisterRoutes(api, todoService, tokens)
		groupRoutes := groups.RegisterRoutes(api, groupService, tokens, joinLimiter)
		shares.RegisterRoutes(groupRoutes, shareService)
	}
}
