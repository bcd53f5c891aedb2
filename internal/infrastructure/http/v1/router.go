// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockbalance/internal/infrastructure/http/v1/handlers"
	"stockbalance/internal/infrastructure/http/v1/middleware"
	"stockbalance/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Database backs the readiness probe
	Database handlers.DatabaseChecker

	// Reports computes the stock balance report
	Reports handlers.StockBalanceService

	// Closing creates closing snapshots; nil disables the endpoint
	Closing handlers.ClosingService

	// Development enables gin debug mode
	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!). Recovery runs inside ErrorHandler
	// so recovered panics are rendered.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	RegisterHealthRoutes(router.Group("/health"), handlers.NewHealthHandler(cfg.Database))

	base := handlers.NewBaseHandler()
	mounts := []Mount{
		{Path: "/reports", Handler: handlers.NewReportsHandler(base, cfg.Reports)},
	}
	if cfg.Closing != nil {
		mounts = append(mounts, Mount{Path: "/closing-balances", Handler: handlers.NewClosingHandler(base, cfg.Closing)})
	}
	RegisterMounts(router.Group("/api/v1"), mounts)

	return router
}
