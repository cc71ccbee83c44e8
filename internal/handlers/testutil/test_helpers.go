package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/api"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/app"
	iauth "github.com/Natan-Asrat/digital-attendance-backend/internal/auth"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/cache"
	sharedtestutil "github.com/Natan-Asrat/digital-attendance-backend/internal/database/testutil"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/crypto"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/response"
)

// SignatureHello and SignatureWorld are distinct signature data URIs accepted by registration.
const (
	SignatureHello = "data:image/png;base64,aGVsbG8="
	SignatureWorld = "data:image/png;base64,d29ybGQ="
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	JWT    *iauth.JWTService
	Sealer *crypto.Sealer
	Config *app.Config
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "test-suite-super-secret-key-32-bytes!!",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	sealer, err := crypto.NewSealer("test-suite-signature-key", crypto.Argon2Parameters{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLength: 32})
	require.NoError(t, err)

	cfg := &app.Config{
		Server: app.ServerConfig{CORSOrigins: []string{"*"}},
		Cache: app.CacheConfig{
			Redis: app.RedisCacheConfig{TTL: time.Minute},
		},
		Attendance: app.AttendanceConfig{
			SignatureThreshold:         0.5,
			SingleMembershipPerProgram: true,
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		},
	}

	store := cache.NewDatabaseStore(db)

	router, err := api.NewRouter(db, jwtSvc, api.Deps{
		Config: cfg,
		Cache:  store,
		Sealer: sealer,
	})
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		JWT:    jwtSvc,
		Sealer: sealer,
		Config: cfg,
	}
}

// UserPayload captures the subset of user fields returned by the API.
type UserPayload struct {
	ID                     string `json:"id"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone"`
	Name                   string `json:"name"`
	IsActive               bool   `json:"is_active"`
	IsStaff                bool   `json:"is_staff"`
	IsSuperuser            bool   `json:"is_superuser"`
	CanCreateOrganizations bool   `json:"can_create_organizations"`
}

// LoginResult bundles the JSON response from the login endpoints.
type LoginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        UserPayload `json:"user"`
}

// Register creates a user through the public registration endpoint with SignatureHello.
func (e *Env) Register(mutate func(*models.User)) UserPayload {
	e.T.Helper()

	suffix := uuid.NewString()[:8]
	payload := map[string]any{
		"email":     suffix + "@example.com",
		"phone":     nextPhone(),
		"name":      "User " + suffix,
		"signature": SignatureHello,
	}

	w := e.Request(http.MethodPost, "/api/v1/auth/register", payload, "")
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	var user UserPayload
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &user)
	require.NotEmpty(e.T, user.ID)

	if mutate != nil {
		var record models.User
		require.NoError(e.T, e.DB.First(&record, "id = ?", user.ID).Error)
		mutate(&record)
		require.NoError(e.T, e.DB.Save(&record).Error)
	}
	return user
}

// Token issues an access token for userID without going through signature login.
func (e *Env) Token(userID string) string {
	e.T.Helper()
	token, err := e.JWT.GenerateAccessToken(iauth.AccessTokenInput{UserID: userID, Method: iauth.MethodSignatureEmail})
	require.NoError(e.T, err)
	return token
}

// LoginByEmail authenticates via the email signature login endpoint.
func (e *Env) LoginByEmail(email, signature string) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.Request(http.MethodPost, "/api/v1/auth/login/email", map[string]string{
		"email":     email,
		"signature": signature,
	}, "")
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

var phoneSeq atomic.Int64

func nextPhone() string {
	return fmt.Sprintf("+251 9%08d", phoneSeq.Add(1))
}
