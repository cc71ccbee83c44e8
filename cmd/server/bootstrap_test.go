package main

import (
	"context"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/app"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/cache"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/database"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/database/testutil"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
)

func TestPersistGeneratedSecrets(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithModels(&models.SystemSetting{}))
	ctx := context.Background()

	first := &app.Config{}
	generated, err := app.ApplyRuntimeDefaults(first)
	require.NoError(t, err)
	require.NoError(t, persistGeneratedSecrets(ctx, db, first, generated))

	stored, err := database.GetSystemSetting(ctx, db, database.SignatureKeySetting)
	require.NoError(t, err)
	require.Equal(t, first.Attendance.SignatureKey, stored)

	// A second start generates fresh values but must reuse the stored ones.
	second := &app.Config{}
	generated, err = app.ApplyRuntimeDefaults(second)
	require.NoError(t, err)
	require.NotEqual(t, first.Auth.JWT.Secret, second.Auth.JWT.Secret)
	require.NoError(t, persistGeneratedSecrets(ctx, db, second, generated))
	require.Equal(t, first.Auth.JWT.Secret, second.Auth.JWT.Secret)
	require.Equal(t, first.Attendance.SignatureKey, second.Attendance.SignatureKey)
}

func TestPersistGeneratedSecrets_ConfiguredValuesUntouched(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithModels(&models.SystemSetting{}))

	cfg := &app.Config{}
	cfg.Auth.JWT.Secret = "configured-secret"
	cfg.Attendance.SignatureKey = "configured-key"
	generated, err := app.ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Empty(t, generated)

	require.NoError(t, persistGeneratedSecrets(context.Background(), db, cfg, generated))
	require.Equal(t, "configured-secret", cfg.Auth.JWT.Secret)

	value, err := database.GetSystemSetting(context.Background(), db, database.JWTSecretSetting)
	require.NoError(t, err)
	require.Empty(t, value)
}

func TestBootstrapRuntime_DatabaseCacheFallback(t *testing.T) {
	cfg := &app.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = database.MemoryDSN("bootstrap_" + uuid.NewString()[:8])
	cfg.Database.MaxOpenConns = 1
	cfg.Maintenance.AuditRetentionDays = 30
	cfg.Maintenance.AuditSchedule = "@daily"
	cfg.Maintenance.CacheSchedule = "@every 15m"
	generated, err := app.ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)

	stack, err := bootstrapRuntime(context.Background(), cfg, generated, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, stack.Shutdown(context.Background()))
	})

	require.Nil(t, stack.Redis)
	require.IsType(t, &cache.DatabaseStore{}, stack.Cache)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	stack.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBootstrapRuntime_RejectsBadSchedule(t *testing.T) {
	cfg := &app.Config{}
	cfg.Database.DSN = database.MemoryDSN("bootstrap_" + uuid.NewString()[:8])
	cfg.Maintenance.AuditRetentionDays = 30
	cfg.Maintenance.AuditSchedule = "not a schedule"
	generated, err := app.ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)

	_, err = bootstrapRuntime(context.Background(), cfg, generated, zap.NewNop())
	require.Error(t, err)
}

func TestLoadApplicationConfig_MissingPath(t *testing.T) {
	_, err := loadApplicationConfig("/definitely/not/here")
	require.Error(t, err)
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-config", "deploy", "-migrate"}, io.Discard)
	require.NoError(t, err)
	require.Equal(t, options{configPath: "deploy", migrateOnly: true}, opts)

	_, err = parseFlags([]string{"-h"}, io.Discard)
	require.ErrorIs(t, err, flag.ErrHelp)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, zap.NewNop()) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}
