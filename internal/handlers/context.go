package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/middleware"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/logger"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// actorID returns the authenticated user id placed on the context by the auth middleware.
func actorID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(middleware.CtxUserIDKey))
}

// respond writes either the service error or the payload with the given status.
func respond(c *gin.Context, status int, data any, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, status, data)
}

// respondError maps err onto the response envelope. Unexpected failures are logged
// with their internal cause and reported to the client as a generic 500.
func respondError(c *gin.Context, err error) {
	appErr := errors.FromError(err)
	if appErr.StatusCode >= 500 {
		logger.WithModule("http").Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	response.Error(c, appErr)
}
