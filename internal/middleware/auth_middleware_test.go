package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/auditctx"
	iauth "github.com/Natan-Asrat/digital-attendance-backend/internal/auth"
)

func TestAuthRejectsMissingOrBadTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "secret", Issuer: "test-suite", AccessTokenTTL: time.Minute})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/secure", Auth(jwtSvc), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for name, header := range map[string]string{
		"missing":      "",
		"wrong scheme": "Basic dXNlcjpwYXNz",
		"blank token":  "Bearer   ",
		"garbage":      "Bearer not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			r.ServeHTTP(w, req)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			require.Contains(t, w.Body.String(), `"UNAUTHORIZED"`)
		})
	}
}

func TestAuthAttachesActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "secret", AccessTokenTTL: time.Minute})
	require.NoError(t, err)
	token, err := jwtSvc.GenerateAccessToken(iauth.AccessTokenInput{UserID: "user-123", Method: iauth.MethodSignatureEmail})
	require.NoError(t, err)

	var seen auditctx.Actor
	r := gin.New()
	r.Use(RequestMetadata())
	r.GET("/secure", Auth(jwtSvc), func(c *gin.Context) {
		require.Equal(t, "user-123", c.GetString(CtxUserIDKey))
		seen, _ = auditctx.FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "bearer "+token)
	req.Header.Set("User-Agent", "scanner/1.0")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "user-123", seen.UserID)
	require.Equal(t, iauth.MethodSignatureEmail, seen.AuthMethod)
	require.Equal(t, "scanner/1.0", seen.UserAgent)
	require.NotEmpty(t, seen.ClientIP)
}

func TestRequestMetadataOnPublicRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestMetadata())
	r.GET("/public", func(c *gin.Context) {
		actor, ok := auditctx.FromContext(c.Request.Context())
		require.True(t, ok)
		require.True(t, actor.Anonymous())
		c.String(http.StatusOK, actor.UserAgent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("User-Agent", "scanner/1.0")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "scanner/1.0", w.Body.String())
}
