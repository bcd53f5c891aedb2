package v1

import (
	"github.com/gin-gonic/gin"

	"stockbalance/internal/infrastructure/http/v1/handlers"
)

// RouteRegistrar is implemented by handlers that mount their own routes.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Mount is one handler mounted under a path prefix.
type Mount struct {
	Path    string
	Handler RouteRegistrar
}

// RegisterMounts registers every handler under its prefix of group.
//
// Usage:
//
//	RegisterMounts(api, []Mount{
//		{Path: "/reports", Handler: handlers.NewReportsHandler(base, service)},
//	})
func RegisterMounts(group *gin.RouterGroup, mounts []Mount) {
	for _, m := range mounts {
		if m.Handler == nil {
			continue
		}
		m.Handler.RegisterRoutes(group.Group(m.Path))
	}
}

// RegisterHealthRoutes registers liveness and readiness probes.
func RegisterHealthRoutes(group *gin.RouterGroup, handler *handlers.HealthHandler) {
	group.GET("/live", handler.Live)
	group.GET("/ready", handler.Ready)
}
