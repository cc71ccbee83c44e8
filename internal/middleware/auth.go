package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/auditctx"
	iauth "github.com/Natan-Asrat/digital-attendance-backend/internal/auth"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
)

// Auth admits requests carrying a valid bearer access token. Every failure,
// including expiry and bad signatures, is reported as a plain 401.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			rejectUnauthenticated(c)
			return
		}
		claims, err := jwt.ValidateAccessToken(raw)
		if err != nil {
			rejectUnauthenticated(c)
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)

		ctx := withClientDetails(c)
		c.Request = c.Request.WithContext(auditctx.Authenticate(ctx, claims.UserID, claims.Method))
		c.Next()
	}
}

// RequestMetadata records client address and agent so audit entries written for
// anonymous callers (registration, login) still carry them.
func RequestMetadata() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(withClientDetails(c))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func rejectUnauthenticated(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	response.Error(c, errors.ErrUnauthorized)
	c.Abort()
}

func withClientDetails(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if _, ok := auditctx.FromContext(ctx); ok {
		return ctx
	}
	return auditctx.WithActor(ctx, auditctx.Actor{
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
}
