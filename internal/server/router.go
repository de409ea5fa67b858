package server

import (
	"context"
	"time"

	"github.com/abduss/storeit/internal/auth"
	"github.com/abduss/storeit/internal/config"
	"github.com/abduss/storeit/internal/file"
	"github.com/abduss/storeit/internal/logger"
	"github.com/abduss/storeit/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Pinger is anything whose reachability the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config      config.Config
	DB          Pinger
	Bucket      Pinger
	AuthService *auth.Service
	Files       *file.Handler
	Query       *file.QueryService
	Accounting  *file.AccountingService
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", logger.CorrelationIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", logger.CorrelationIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if deps.Config.Server.RateLimitRPS > 0 {
		router.Use(newRateLimiter(deps.Config.Server.RateLimitRPS, deps.Config.Server.RateLimitBurst).middleware())
	}

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.AuthService != nil {
		api.Use(auth.AuthMiddleware(deps.AuthService))
	}
	if deps.Files != nil {
		file.RegisterRoutes(api, deps.Files)
	}
	if deps.Query != nil && deps.Accounting != nil {
		api.GET("/dashboard", dashboardHandler(deps.Query, deps.Accounting))
	}

	return router
}
