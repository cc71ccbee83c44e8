package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit outcomes.
const (
	AuditSuccess  = "success"
	AuditFailure  = "failure"
	AuditMismatch = "mismatch"
)

// AuditLog is an append-only record of one engine operation. Action is a dotted
// verb such as "event.conclude"; Resource is the id of the row acted upon.
type AuditLog struct {
	ID         string         `gorm:"primaryKey;type:uuid" json:"id"`
	ActorID    *string        `gorm:"type:uuid;index" json:"actor_id"`
	AuthMethod string         `gorm:"size:32" json:"auth_method,omitempty"`
	Action     string         `gorm:"not null;index" json:"action"`
	Resource   string         `gorm:"index" json:"resource"`
	Result     string         `gorm:"not null;size:16" json:"result"`
	ClientIP   string         `gorm:"size:64" json:"client_ip"`
	UserAgent  string         `json:"user_agent"`
	Metadata   datatypes.JSON `json:"metadata"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
