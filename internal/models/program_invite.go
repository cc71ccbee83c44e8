package models

import "time"

// ProgramInvite invites an organization into another organization's program. Accepted,
// rejected and removed are mutually exclusive outcomes layered on top of IsActive.
type ProgramInvite struct {
	BaseModel

	OrganizationID string        `gorm:"type:uuid;not null;index:idx_invite_org_program" json:"organization_id"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	ProgramID      string        `gorm:"type:uuid;not null;index:idx_invite_org_program" json:"program_id"`
	Program        *Program      `gorm:"foreignKey:ProgramID" json:"program,omitempty"`

	IsActive    bool      `gorm:"index" json:"is_active"`
	InvitedByID string    `gorm:"type:uuid;not null" json:"invited_by_id"`
	InvitedAt   time.Time `json:"invited_at"`

	Accepted ActorStamp `gorm:"embedded;embeddedPrefix:accepted_" json:"accepted"`
	Rejected ActorStamp `gorm:"embedded;embeddedPrefix:rejected_" json:"rejected"`
	Removed  ActorStamp `gorm:"embedded;embeddedPrefix:removed_" json:"removed"`
}

// InvitedOrganizationProgram is the membership materialised when an invite is accepted.
type InvitedOrganizationProgram struct {
	BaseModel

	OrganizationID string         `gorm:"type:uuid;not null;index" json:"organization_id"`
	Organization   *Organization  `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	ProgramID      string         `gorm:"type:uuid;not null;index" json:"program_id"`
	Program        *Program       `gorm:"foreignKey:ProgramID" json:"program,omitempty"`
	InviteID       string         `gorm:"type:uuid;not null;index" json:"invite_id"`
	Invite         *ProgramInvite `gorm:"foreignKey:InviteID" json:"invite,omitempty"`

	IsActive bool `gorm:"index" json:"is_active"`

	Accepted ActorStamp `gorm:"embedded;embeddedPrefix:accepted_" json:"accepted"`
	Rejected ActorStamp `gorm:"embedded;embeddedPrefix:rejected_" json:"rejected"`
	Removed  ActorStamp `gorm:"embedded;embeddedPrefix:removed_" json:"removed"`
}
