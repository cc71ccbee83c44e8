package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
)

// Keys of the installation secrets persisted in system_settings.
const (
	SignatureKeySetting = "attendance.signature_key"
	JWTSecretSetting    = "auth.jwt_secret"
)

var errNilDB = errors.New("system settings: db is nil")

// GetSystemSetting returns the stored value for key, or "" when the key or the
// settings table does not exist yet.
func GetSystemSetting(ctx context.Context, db *gorm.DB, key string) (string, error) {
	if db == nil {
		return "", errNilDB
	}
	tx := db.WithContext(ctx)
	if !tx.Migrator().HasTable(&models.SystemSetting{}) {
		return "", nil
	}

	var setting models.SystemSetting
	switch err := tx.Take(&setting, "key = ?", key).Error; {
	case err == nil:
		return setting.Value, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", nil
	default:
		return "", fmt.Errorf("system settings: get %q: %w", key, err)
	}
}

// UpsertSystemSetting writes an operator supplied value for key.
func UpsertSystemSetting(ctx context.Context, db *gorm.DB, key, value string) error {
	return writeSetting(ctx, db, models.SystemSetting{Key: key, Value: value})
}

// LoadOrStoreSetting returns the stored value for key. When nothing is stored yet the
// generated candidate is persisted and returned instead.
func LoadOrStoreSetting(ctx context.Context, db *gorm.DB, key, candidate string) (string, error) {
	current, err := GetSystemSetting(ctx, db, key)
	if err != nil {
		return "", err
	}
	if current = strings.TrimSpace(current); current != "" {
		return current, nil
	}

	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", fmt.Errorf("system settings: %q has no value to store", key)
	}
	if err := writeSetting(ctx, db, models.SystemSetting{Key: key, Value: candidate, Generated: true}); err != nil {
		return "", err
	}
	return candidate, nil
}

func writeSetting(ctx context.Context, db *gorm.DB, setting models.SystemSetting) error {
	if db == nil {
		return errNilDB
	}
	setting.Key = strings.TrimSpace(setting.Key)
	if setting.Key == "" {
		return errors.New("system settings: key is required")
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "generated", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("system settings: write %q: %w", setting.Key, err)
	}
	return nil
}
