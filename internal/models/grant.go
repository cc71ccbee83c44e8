package models

import "time"

// GrantStatus is the lifecycle state of a delegated role grant.
type GrantStatus string

const (
	GrantActive  GrantStatus = "active"
	GrantRevoked GrantStatus = "revoked"
)

// OrganizationCapabilities are the independent flags carried by an organization admin grant.
type OrganizationCapabilities struct {
	CanAddAnotherAdmin          bool `json:"can_add_another_admin"`
	CanArchiveOrganization      bool `json:"can_archive_organization"`
	CanChangeAttendanceValidity bool `json:"can_change_attendance_validity"`
	CanCreatePrograms           bool `json:"can_create_programs"`
}

// OrganizationAdmin grants one user delegated authority over one organization.
type OrganizationAdmin struct {
	BaseModel

	UserID         string        `gorm:"type:uuid;not null;uniqueIndex:idx_org_admin_user_org" json:"user_id"`
	User           *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrganizationID string        `gorm:"type:uuid;not null;uniqueIndex:idx_org_admin_user_org;index" json:"organization_id"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`

	Role   string      `gorm:"size:255" json:"role"`
	Status GrantStatus `gorm:"size:16;not null;index" json:"status"`

	OrganizationCapabilities `gorm:"embedded"`

	Added      ActorStamp `gorm:"embedded;embeddedPrefix:added_" json:"added"`
	Removed    ActorStamp `gorm:"embedded;embeddedPrefix:removed_" json:"removed"`
	Reinstated ActorStamp `gorm:"embedded;embeddedPrefix:reinstated_" json:"reinstated"`
}

// IsActive reports whether the grant currently confers authority.
func (g *OrganizationAdmin) IsActive() bool {
	return g != nil && g.Status == GrantActive
}

// ProgramCapabilities are the independent flags carried by a program event admin grant.
type ProgramCapabilities struct {
	CanAddAnotherAdmin                 bool `json:"can_add_another_admin"`
	CanArchiveProgram                  bool `json:"can_archive_program"`
	CanArchiveEvent                    bool `json:"can_archive_event"`
	CanAddEventOrganizer               bool `json:"can_add_event_organizer"`
	CanRemoveEventOrganizerFromProgram bool `json:"can_remove_event_organizer_from_program"`
	CanChangeAttendanceValidity        bool `json:"can_change_attendance_validity"`
	CanCreateEvents                    bool `json:"can_create_events"`
	CanConcludeEvents                  bool `json:"can_conclude_events"`
}

// DefaultProgramCapabilities returns the flags a new program event admin starts with.
func DefaultProgramCapabilities() ProgramCapabilities {
	return ProgramCapabilities{
		CanAddEventOrganizer: true,
		CanCreateEvents:      true,
		CanConcludeEvents:    true,
	}
}

// ProgramEventAdmin grants one user delegated authority over one program and its events.
type ProgramEventAdmin struct {
	BaseModel

	UserID    string   `gorm:"type:uuid;not null;uniqueIndex:idx_program_admin_user_program" json:"user_id"`
	User      *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProgramID string   `gorm:"type:uuid;not null;uniqueIndex:idx_program_admin_user_program;index" json:"program_id"`
	Program   *Program `gorm:"foreignKey:ProgramID" json:"program,omitempty"`

	Role   string      `gorm:"size:255" json:"role"`
	Status GrantStatus `gorm:"size:16;not null;index" json:"status"`

	ProgramCapabilities `gorm:"embedded"`

	Added      ActorStamp `gorm:"embedded;embeddedPrefix:added_" json:"added"`
	Removed    ActorStamp `gorm:"embedded;embeddedPrefix:removed_" json:"removed"`
	Reinstated ActorStamp `gorm:"embedded;embeddedPrefix:reinstated_" json:"reinstated"`
	LeftAt     *time.Time `json:"left_at,omitempty"`
}

// IsActive reports whether the grant currently confers authority.
func (g *ProgramEventAdmin) IsActive() bool {
	return g != nil && g.Status == GrantActive
}
