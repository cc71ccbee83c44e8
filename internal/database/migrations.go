package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
)

// ErrSuperuserNotFound is returned when the promoted account has not registered yet.
var ErrSuperuserNotFound = errors.New("database: superuser account not registered")

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationAdmin{},
		&models.Program{},
		&models.ProgramEventAdmin{},
		&models.ProgramSubscriber{},
		&models.ProgramInvite{},
		&models.InvitedOrganizationProgram{},
		&models.Event{},
		&models.Attendance{},
		&models.AuditLog{},
		&models.CacheEntry{},
		&models.SystemSetting{},
	)
}

// PromoteSuperuser marks an already registered account as platform superuser and staff.
func PromoteSuperuser(db *gorm.DB, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("database: superuser email is required")
	}

	result := db.Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]any{
			"is_superuser":             true,
			"is_staff":                 true,
			"can_create_organizations": true,
			"can_add_staff":            true,
			"can_revoke_staff":         true,
			"version":                  gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSuperuserNotFound
	}
	return nil
}
