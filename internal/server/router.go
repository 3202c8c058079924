package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sakshampandey1901/Cite/internal/handlers"
	"github.com/sakshampandey1901/Cite/internal/middleware"
	"github.com/sakshampandey1901/Cite/internal/platform/envutil"
)

type RouterConfig struct {
	AuthMiddleware  *middleware.AuthMiddleware
	RateLimiter     *middleware.RateLimiter
	DocumentHandler *handlers.DocumentHandler
	LabelHandler    *handlers.LabelHandler
	AssistHandler   *handlers.AssistHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := strings.Split(envutil.String("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter.Limit())
	}

	// Documents
	api.POST("/documents", cfg.DocumentHandler.Ingest)
	api.DELETE("/documents/:id", cfg.DocumentHandler.Delete)
	// Labels
	api.GET("/labels/unverified", cfg.LabelHandler.ListUnverified)
	api.POST("/labels/:chunk_id/verify", cfg.LabelHandler.Verify)
	// Guidance
	api.POST("/assist", cfg.AssistHandler.Assist)

	return router
}
