package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/auth"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, []string{"https://attendance.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
	require.Equal(t, "debug", cfg.Log.Level)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Host)
	require.Equal(t, 5433, cfg.Database.Port)
	require.Equal(t, "attendance", cfg.Database.Name)
	require.Equal(t, "require", cfg.Database.Options["sslmode"])
	require.Equal(t, 20, cfg.Database.MaxOpenConns)
	require.Equal(t, "root@example.com", cfg.Database.SuperuserEmail)

	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis.example.com:6380", cfg.Cache.Redis.Address)
	require.Equal(t, 2, cfg.Cache.Redis.DB)
	require.Equal(t, "att", cfg.Cache.Redis.KeyPrefix)
	require.Equal(t, 30*time.Minute, cfg.Cache.Redis.TTL)
	require.Equal(t, 5*time.Second, cfg.Cache.Redis.Timeout)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "attendance-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 2*time.Hour, cfg.Auth.JWT.TTL)

	require.InDelta(t, 0.75, cfg.Attendance.SignatureThreshold, 1e-9)
	require.False(t, cfg.Attendance.SingleMembershipPerProgram)
	require.Equal(t, "sealed-key", cfg.Attendance.SignatureKey)

	require.Equal(t, 30, cfg.Maintenance.AuditRetentionDays)
	require.Equal(t, "@weekly", cfg.Maintenance.AuditSchedule)
	require.Equal(t, "@every 15m", cfg.Maintenance.CacheSchedule)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.TTL)
	require.InDelta(t, 0.5, cfg.Attendance.SignatureThreshold, 1e-9)
	require.True(t, cfg.Attendance.SingleMembershipPerProgram)
	require.Equal(t, 90, cfg.Maintenance.AuditRetentionDays)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("ATTENDANCE_SERVER_PORT", "7070")
	t.Setenv("ATTENDANCE_ATTENDANCE_SINGLE_MEMBERSHIP_PER_PROGRAM", "false")
	t.Setenv("ATTENDANCE_AUTH_JWT_ACCESS_TOKEN_TTL", "45m")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.False(t, cfg.Attendance.SingleMembershipPerProgram)
	require.Equal(t, 45*time.Minute, cfg.Auth.JWT.TTL)
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ATTENDANCE_LOG_LEVEL=warn\n"), 0o600))
	t.Setenv("ATTENDANCE_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("ATTENDANCE_LOG_LEVEL"))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{JWT: JWTSettings{Secret: " secret ", Issuer: "issuer"}}

	jwtCfg := cfg.JWTServiceConfig()
	require.Equal(t, "secret", jwtCfg.Secret)
	require.Equal(t, "issuer", jwtCfg.Issuer)
	require.Zero(t, jwtCfg.AccessTokenTTL)

	svc, err := auth.NewJWTService(jwtCfg)
	require.NoError(t, err)
	require.Equal(t, auth.DefaultAccessTokenTTL, svc.TTL())
}

func TestCacheConfigAdapter(t *testing.T) {
	cfg := CacheConfig{Redis: RedisCacheConfig{Address: " localhost:6379 ", KeyPrefix: " att ", DB: 3}}

	redisCfg := cfg.RedisClientConfig()
	require.Equal(t, "localhost:6379", redisCfg.Address)
	require.Equal(t, "att", redisCfg.KeyPrefix)
	require.Equal(t, 3, redisCfg.DB)
}

func TestDatabaseConfigAdapter(t *testing.T) {
	require.Empty(t, DatabaseConfig{}.DatabaseClientConfig().Driver)
	require.Equal(t, "postgresql", DatabaseConfig{Driver: " PostgreSQL "}.DatabaseClientConfig().Driver)

	dbCfg := DatabaseConfig{Driver: "mysql", Host: " db ", Port: 3307, Name: "att"}.DatabaseClientConfig()
	require.Equal(t, "mysql", dbCfg.Driver)
	require.Equal(t, "db", dbCfg.Host)
	require.Equal(t, 3307, dbCfg.Port)
}

func TestAttendanceConfigAdapters(t *testing.T) {
	require.Equal(t, services.InvitePolicy{SingleMembershipPerProgram: true},
		AttendanceConfig{SingleMembershipPerProgram: true}.InvitePolicy())

	require.InDelta(t, services.DefaultSignatureThreshold, AttendanceConfig{}.Threshold(), 1e-9)
	require.InDelta(t, services.DefaultSignatureThreshold, AttendanceConfig{SignatureThreshold: 1.5}.Threshold(), 1e-9)
	require.InDelta(t, 0.8, AttendanceConfig{SignatureThreshold: 0.8}.Threshold(), 1e-9)
}
