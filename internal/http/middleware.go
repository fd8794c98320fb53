package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"the-escrow-ledger/internal/domain"
)

const (
	headerRequestID = "X-Request-Id"
	headerCaller    = "X-Caller-Id"
	keyRequestID    = "request_id"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(keyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zap.L().Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(keyRequestID)),
		)
	}
}

// caller returns the identity asserted by the upstream gateway. Authentication
// happens before requests reach this service.
func caller(c *gin.Context) domain.Identity {
	return domain.Identity(c.GetHeader(headerCaller))
}
