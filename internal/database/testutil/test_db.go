// Package testutil opens throwaway sqlite databases for package tests.
package testutil

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/database"
)

// Option adjusts how MustOpenTestDB prepares the schema.
type Option func(*options)

type options struct {
	fullSchema bool
	models     []any
}

// WithAutoMigrate applies the complete application schema.
func WithAutoMigrate() Option {
	return func(o *options) { o.fullSchema = true }
}

// WithModels migrates only the listed models.
func WithModels(models ...any) Option {
	return func(o *options) { o.models = append(o.models, models...) }
}

// MustOpenTestDB returns a private in-memory database limited to one connection,
// so concurrent writers queue the way they would against a single sqlite file.
// The handle is closed when the test ends.
func MustOpenTestDB(t *testing.T, opts ...Option) *gorm.DB {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := database.Open(database.Config{
		Driver:       "sqlite",
		DSN:          database.MemoryDSN("t" + strings.ReplaceAll(uuid.NewString(), "-", "")),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	switch {
	case o.fullSchema:
		require.NoError(t, database.AutoMigrate(db))
	case len(o.models) > 0:
		require.NoError(t, db.AutoMigrate(o.models...))
	}
	return db
}
