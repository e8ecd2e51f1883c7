package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"uploader/internal/api/handlers"
	"uploader/internal/api/middleware"
	"uploader/internal/config"
	"uploader/internal/database"
	"uploader/internal/events"
	"uploader/internal/keywords"
	"uploader/internal/logger"
	"uploader/internal/worker/processors/validation"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the handlers need.
type Deps struct {
	DB        *database.Database
	Keywords  *keywords.Store
	Validator *validation.Validator
	Publisher events.Publisher
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, deps Deps) *Server {
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
	repo := database.NewRepository(deps.DB.DB)
	runHandler := handlers.NewRunHandler(repo, deps.Publisher, logger)
	issueHandler := handlers.NewIssueHandler(deps.DB.DB, logger)
	classifyHandler := handlers.NewClassifyHandler(deps.Validator, logger)
	keywordHandler := handlers.NewKeywordHandler(deps.Keywords, logger)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/classify", classifyHandler.Classify)

		// Runs
		runs := v1.Group("/runs")
		{
			runs.GET("", runHandler.List)
			runs.POST("", runHandler.Create)
			runs.GET("/:id", runHandler.Get)
			runs.GET("/:id/results", runHandler.Results)
		}

		// Issues
		issues := v1.Group("/issues")
		{
			issues.GET("", issueHandler.List)
			issues.GET("/:id", issueHandler.Get)
			issues.POST("/:id/resolve", issueHandler.Resolve)
		}

		// Keyword and rule lists
		kw := v1.Group("/keywords")
		{
			kw.GET("", keywordHandler.Get)
			kw.PUT("", keywordHandler.Update)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on %s", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
