package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func corsRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins))
	r.GET("/programs", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORS(t *testing.T) {
	cases := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		wantStatus  int
		allowOrigin string
	}{
		{"default allows any origin", nil, http.MethodGet, "https://client.example.com", http.StatusOK, "*"},
		{"wildcard entry wins", []string{" ", "*", "https://a.example.com"}, http.MethodGet, "https://b.example.com", http.StatusOK, "*"},
		{"preflight", nil, http.MethodOptions, "https://client.example.com", http.StatusNoContent, "*"},
		{"listed origin echoed", []string{"https://app.example.com"}, http.MethodGet, "https://app.example.com", http.StatusOK, "https://app.example.com"},
		{"unlisted origin rejected", []string{"https://app.example.com"}, http.MethodGet, "https://evil.example.com", http.StatusForbidden, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/programs", nil)
			req.Header.Set("Origin", tc.origin)
			if tc.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			}
			w := httptest.NewRecorder()
			corsRouter(tc.origins).ServeHTTP(w, req)

			require.Equal(t, tc.wantStatus, w.Code)
			require.Equal(t, tc.allowOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSCredentialsOnlyForListedOrigins(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/programs", nil)
	req.Header.Set("Origin", "https://app.example.com")

	w := httptest.NewRecorder()
	corsRouter([]string{"https://app.example.com"}).ServeHTTP(w, req)
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = httptest.NewRecorder()
	corsRouter(nil).ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}
