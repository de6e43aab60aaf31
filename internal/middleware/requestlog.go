package middleware

import (
	"time"

	"abserver/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HeaderRequestID 请求标识头，客户端带了就沿用
const HeaderRequestID = "X-Request-ID"

// RequestLogger 为每个请求生成带 request_id 的日志条目放进请求上下文，结束时写访问日志
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		entry := logger.GetLogger().WithFields(logrus.Fields{
			"request_id": requestID,
			"client_ip":  c.ClientIP(),
		})
		c.Request = c.Request.WithContext(logger.NewContext(c.Request.Context(), entry))

		c.Next()

		// RequireLogin 会补充 user_id
		entry = logger.WithContext(c.Request.Context()).WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    path,
			"latency": time.Since(start).String(),
		})
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request completed")
		case status >= 400:
			entry.Warn("request completed")
		default:
			entry.Debug("request completed")
		}
	}
}
