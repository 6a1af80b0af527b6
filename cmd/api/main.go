// ================== cmd/api/main.go ==================
//
// @title TodoShare API
// @version 1.0
// @description Personal todos with group sharing and JWT authentication
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer <token>"
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	docs "github.com/xyz-asif/todoshare/docs"
	"github.com/xyz-asif/todoshare/internal/config"
	"github.com/xyz-asif/todoshare/internal/database"
	"github.com/xyz-asif/todoshare/internal/middleware"
	"github.com/xyz-asif/todoshare/internal/pkg/logger"
	"github.com/xyz-asif/todoshare/internal/pkg/response"
	"github.com/xyz-asif/todoshare/internal/routes"
	"github.com/xyz-asif/todoshare/internal/store/memory"
)

//go:generate swag init -d ../.. -g cmd/api/main.go -o ../../docs

func main() {
	cfg := config.Load()

	log := logger.New(logger.ParseLevel(cfg.LogLevel), os.Stdout, cfg.IsProduction())
	logger.SetDefault(log)

	docs.SwaggerInfo.Host = "localhost:" + cfg.Port
	docs.SwaggerInfo.Schemes = []string{"http"}

	// Pick the persistence backend
	var (
		stores routes.Stores
		health func(ctx context.Context) error
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn("using in-memory store, data is lost on restart")
		stores = routes.MemoryStores(memory.New())
	default:
		db, err := database.Connect(cfg.MongoURI, cfg.MongoDB, cfg.MongoTransactions)
		if err != nil {
			log.Fatal("failed to connect to MongoDB", "error", err)
		}
		defer db.Disconnect(context.Background())
		stores = routes.MongoStores(db)
		health = db.HealthCheck
		log.Info("connected to MongoDB", "database", cfg.MongoDB)
		if !cfg.MongoTransactions {
			log.Warn("MongoDB transactions disabled, cascades run without a session")
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg.FrontendURL))

	router.GET("/health", func(c *gin.Context) {
		if health != nil {
			if err := health(c.Request.Context()); err != nil {
				log.Error("health check failed", "error", err)
				response.Error(c, http.StatusServiceUnavailable, "Database unavailable", "DB_UNAVAILABLE")
				return
			}
		}
		response.Success(c, map[string]interface{}{
			"status": "ok",
			"store":  cfg.StoreDriver,
			"time":   time.Now().Unix(),
		})
	})

	router.GET(
		"/swagger/*any",
		ginSwagger.WrapHandler(
			swaggerFiles.Handler,
			ginSwagger.URL("/swagger/doc.json"),
			ginSwagger.DeepLinking(true),
			ginSwagger.DefaultModelsExpandDepth(-1),
			ginSwagger.DocExpansion("none"),
			ginSwagger.PersistAuthorization(true),
		),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	routes.SetupRoutes(ctx, router, stores, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
