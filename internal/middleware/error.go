package middleware

import (
	"runtime/debug"

	"abserver/pkg/logger"
	"abserver/pkg/response"

	"github.com/gin-gonic/gin"
)

// ErrorHandler 错误处理中间件，主要处理panic
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.GetLogger().WithField("path", c.Request.URL.Path).
					Errorf("Panic recovered: %v\n%s", err, debug.Stack())
				response.ServerError(c, "panic recovered")
			}
		}()

		c.Next()
	}
}
