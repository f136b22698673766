package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"wpm/internal/api/handlers"
	"wpm/internal/api/middleware"
	"wpm/internal/config"
	"wpm/internal/crypto"
	"wpm/internal/database"
	"wpm/internal/logger"
	"wpm/internal/sync"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database, vault *crypto.Vault, queue *sync.Queue) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// Initialize handlers
	shopHandler := handlers.NewShopHandler(db.DB, logger, vault)
	productHandler := handlers.NewProductHandler(db.DB, logger)
	categoryHandler := handlers.NewCategoryHandler(db.DB, logger)
	brandHandler := handlers.NewBrandHandler(db.DB, logger)
	syncHandler := handlers.NewSyncHandler(db.DB, logger, queue)
	statsHandler := handlers.NewStatsHandler(db.DB, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Shops
		shops := v1.Group("/shops")
		{
			shops.GET("", shopHandler.List)
			shops.GET("/:id", shopHandler.Get)
			shops.POST("", shopHandler.Create)
			shops.PUT("/:id", shopHandler.Update)
			shops.DELETE("/:id", shopHandler.Delete)
			shops.POST("/:id/test", shopHandler.TestConnection)
		}

		// Products
		products := v1.Group("/products")
		{
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
			products.PUT("/:id", productHandler.Update)
			products.DELETE("/:id", productHandler.Delete)
			products.GET("/:id/variants", productHandler.Variants)
		}

		// Categories
		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.List)
			categories.GET("/:id", categoryHandler.Get)
			categories.POST("", categoryHandler.Create)
			categories.PUT("/:id", categoryHandler.Update)
			categories.DELETE("/:id", categoryHandler.Delete)
			categories.POST("/:id/merge", categoryHandler.Merge)
		}

		// Brands
		brands := v1.Group("/brands")
		{
			brands.GET("", brandHandler.List)
			brands.GET("/:id", brandHandler.Get)
			brands.POST("", brandHandler.Create)
			brands.PUT("/:id", brandHandler.Update)
			brands.DELETE("/:id", brandHandler.Delete)
			brands.POST("/:id/merge", brandHandler.Merge)
		}

		// Sync
		syncGroup := v1.Group("/sync")
		{
			syncGroup.POST("/shops/:id", syncHandler.Enqueue)
			syncGroup.GET("/jobs", syncHandler.ListJobs)
			syncGroup.GET("/jobs/:jobId", syncHandler.GetJob)
		}

		// Stats
		v1.GET("/stats", statsHandler.Overview)
	}

	return &Server{
		config: cfg,
		logger: logger,
		db:     db,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
