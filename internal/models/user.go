package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is an attendee identity. Users are never hard-deleted; banning flips IsActive.
type User struct {
	BaseModel

	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone string `gorm:"uniqueIndex;size:20;not null" json:"phone"`
	Name  string `gorm:"size:255" json:"name"`

	// Signature holds the sealed reference signature image (base64 data URI).
	Signature        string         `gorm:"type:text" json:"-"`
	SignatureStrokes datatypes.JSON `json:"-"`

	IsActive               bool `json:"is_active"`
	IsStaff                bool `json:"is_staff"`
	IsSuperuser            bool `json:"is_superuser"`
	CanCreateOrganizations bool `json:"can_create_organizations"`
	CanAddStaff            bool `json:"can_add_staff"`
	CanRevokeStaff         bool `json:"can_revoke_staff"`

	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`

	Banned   ActorStamp `gorm:"embedded;embeddedPrefix:banned_" json:"banned"`
	Unbanned ActorStamp `gorm:"embedded;embeddedPrefix:unbanned_" json:"unbanned"`

	StaffGranted ActorStamp `gorm:"embedded;embeddedPrefix:staff_granted_" json:"staff_granted"`
	StaffRevoked ActorStamp `gorm:"embedded;embeddedPrefix:staff_revoked_" json:"staff_revoked"`

	OrganizationCreatorGranted ActorStamp `gorm:"embedded;embeddedPrefix:org_creator_granted_" json:"organization_creator_granted"`
	OrganizationCreatorRevoked ActorStamp `gorm:"embedded;embeddedPrefix:org_creator_revoked_" json:"organization_creator_revoked"`
}

// HasSignature reports whether a reference signature is on file.
func (u *User) HasSignature() bool {
	return u != nil && u.Signature != ""
}
