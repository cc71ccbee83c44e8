package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
)

func TestSystemSettingsBeforeMigration(t *testing.T) {
	db := openTestDB(t, "settings_unmigrated")

	value, err := GetSystemSetting(context.Background(), db, JWTSecretSetting)
	require.NoError(t, err)
	require.Empty(t, value)
}

func TestUpsertSystemSettingOverwrites(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, "settings_upsert")
	require.NoError(t, db.AutoMigrate(&models.SystemSetting{}))

	require.NoError(t, UpsertSystemSetting(ctx, db, JWTSecretSetting, "from-operator"))
	require.NoError(t, UpsertSystemSetting(ctx, db, JWTSecretSetting, "rotated"))

	value, err := GetSystemSetting(ctx, db, JWTSecretSetting)
	require.NoError(t, err)
	require.Equal(t, "rotated", value)

	require.Error(t, UpsertSystemSetting(ctx, db, "  ", "x"))
}

func TestLoadOrStoreSettingKeepsFirstGeneratedValue(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, "settings_load_or_store")
	require.NoError(t, db.AutoMigrate(&models.SystemSetting{}))

	first, err := LoadOrStoreSetting(ctx, db, SignatureKeySetting, "generated-1")
	require.NoError(t, err)
	require.Equal(t, "generated-1", first)

	second, err := LoadOrStoreSetting(ctx, db, SignatureKeySetting, "generated-2")
	require.NoError(t, err)
	require.Equal(t, "generated-1", second)

	var stored models.SystemSetting
	require.NoError(t, db.Take(&stored, "key = ?", SignatureKeySetting).Error)
	require.True(t, stored.Generated)

	_, err = LoadOrStoreSetting(ctx, db, JWTSecretSetting, "  ")
	require.Error(t, err)
}
