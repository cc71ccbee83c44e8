package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/api"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/app"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/app/maintenance"
	iauth "github.com/Natan-Asrat/digital-attendance-backend/internal/auth"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/cache"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/database"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/crypto"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Redis   *cache.RedisStore
	Cache   cache.Store
	Cleaner *maintenance.Cleaner
	Router  *gin.Engine
}

// bootstrapRuntime opens the database, picks a cache backend, schedules
// maintenance and builds the router. Secrets listed in generated are replaced by
// the values a previous run stored, if any. On error everything opened so far
// is released.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, generated map[string]bool, log *zap.Logger) (_ *runtimeStack, err error) {
	stack := &runtimeStack{}
	defer func() {
		if err != nil {
			_ = stack.Shutdown(context.Background())
		}
	}()

	if !strings.EqualFold(cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	if stack.DB, err = initialiseDatabase(cfg); err != nil {
		return nil, err
	}
	if err = persistGeneratedSecrets(ctx, stack.DB, cfg, generated); err != nil {
		return nil, err
	}

	dbStore := cache.NewDatabaseStore(stack.DB)
	stack.Cache = selectCache(ctx, cfg, dbStore, stack, log)

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("jwt service: %w", err)
	}
	sealer, err := crypto.NewSealer(cfg.Attendance.SignatureKey, crypto.DefaultArgon2Params())
	if err != nil {
		return nil, fmt.Errorf("signature sealer: %w", err)
	}
	auditSvc, err := services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("audit service: %w", err)
	}

	stack.Cleaner = maintenance.NewCleaner(maintenance.Schedule{
		AuditRetentionDays: cfg.Maintenance.AuditRetentionDays,
		Audit:              cfg.Maintenance.AuditSchedule,
		Cache:              cfg.Maintenance.CacheSchedule,
	}, maintenance.Sources{Audit: auditSvc, Cache: dbStore})
	if err = stack.Cleaner.Start(); err != nil {
		return nil, err
	}

	stack.Router, err = api.NewRouter(stack.DB, jwtSvc, api.Deps{Config: cfg, Cache: stack.Cache, Sealer: sealer})
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	return stack, nil
}

// selectCache prefers Redis when enabled and reachable. An unreachable Redis is
// logged and the database store is used instead.
func selectCache(ctx context.Context, cfg *app.Config, fallback cache.Store, stack *runtimeStack, log *zap.Logger) cache.Store {
	if !cfg.Cache.Redis.Enabled {
		return fallback
	}
	redisStore, err := cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig())
	if err != nil {
		log.Warn("redis unavailable, using database cache", zap.Error(err))
		return fallback
	}
	log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
	stack.Redis = redisStore
	return redisStore
}

// Shutdown stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs error
	if s.Cleaner != nil {
		<-s.Cleaner.Stop().Done()
		errs = multierr.Append(errs, s.Cleaner.RunOnce(ctx))
	}

	if s.Redis != nil {
		errs = multierr.Append(errs, s.Redis.Close())
	}

	if s.DB != nil {
		errs = multierr.Append(errs, closeDatabase(s.DB))
	}
	return errs
}

var secretSettings = map[string]string{
	app.GeneratedJWTSecret:    database.JWTSecretSetting,
	app.GeneratedSignatureKey: database.SignatureKeySetting,
}

// persistGeneratedSecrets swaps freshly generated secrets for the values stored by
// an earlier run, storing them on first start so tokens and sealed signatures
// survive restarts.
func persistGeneratedSecrets(ctx context.Context, db *gorm.DB, cfg *app.Config, generated map[string]bool) error {
	for key := range generated {
		setting, ok := secretSettings[key]
		target := cfg.SecretField(key)
		if !ok || target == nil {
			continue
		}
		stored, err := database.LoadOrStoreSetting(ctx, db, setting, *target)
		if err != nil {
			return fmt.Errorf("persist %s: %w", key, err)
		}
		*target = stored
	}
	return nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseClientConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndPromote(db, cfg.Database.SuperuserEmail); err != nil {
		_ = closeDatabase(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func closeDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("obtain sql db: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
