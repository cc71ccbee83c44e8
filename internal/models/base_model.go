package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is embedded by every versioned entity. Version starts at 1 and is
// bumped by each guarded update; a stale Version means a lost race.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Version   int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *BaseModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Version = max(m.Version, 1)
	return nil
}

func (m BaseModel) RowVersion() int64 { return m.Version }
