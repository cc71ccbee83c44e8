package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/logger"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/response"
)

// Recovery turns a handler panic into a 500 envelope. The panic value and
// stack go to the log only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			logger.WithModule("http").Error("handler panicked",
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.Any("panic", recovered),
				zap.StackSkip("stack", 2),
			)
			if !c.Writer.Written() {
				response.Error(c, errors.ErrInternalServer)
			}
			c.Abort()
		}()
		c.Next()
	}
}

// NotFoundHandler answers unknown routes with the standard NOT_FOUND envelope.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, errors.NewNotFound("route "+c.Request.URL.Path+" not found"))
}
