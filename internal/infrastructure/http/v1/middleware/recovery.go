// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"stockbalance/internal/core/apperror"
	"stockbalance/pkg/logger"
)

// Recovery turns a handler panic into an internal error rendered by
// ErrorHandler. The request logger carries trace and request ids, the
// entry adds the matched route and query.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			ctx := c.Request.Context()
			route := c.FullPath()
			if route == "" {
				route = c.Request.URL.Path
			}

			logger.FromContext(ctx).WithComponent("http").Errorw("panic recovered",
				"route", route,
				"method", c.Request.Method,
				"query", c.Request.URL.RawQuery,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)

			_ = c.Error(apperror.NewInternal(fmt.Errorf("panic in %s %s: %v", c.Request.Method, route, r)).
				WithDetail("request_id", c.GetString("request_id")).
				WithDetail("trace_id", c.GetString("trace_id")))
			c.Abort()
		}()
		c.Next()
	}
}
