package checks

import (
	"context"

	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/monitoring"
)

// Database returns a critical probe that pings the database handle.
func Database(db *gorm.DB) monitoring.Check {
	return monitoring.Check{
		Name:     "database",
		Critical: true,
		Run: func(ctx context.Context) error {
			if db == nil {
				return gorm.ErrInvalidDB
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}
