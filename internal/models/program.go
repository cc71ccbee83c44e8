package models

import "time"

// Program is owned by exactly one organization and runs events.
type Program struct {
	BaseModel

	OrganizationID string        `gorm:"type:uuid;not null;index" json:"organization_id"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`

	Name     string `gorm:"size:255;not null" json:"name"`
	IsActive bool   `gorm:"index" json:"is_active"`

	CreatedByID string `gorm:"type:uuid;index;not null" json:"created_by_id"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	Archived    ActorStamp `gorm:"embedded;embeddedPrefix:archived_" json:"archived"`
	Reactivated ActorStamp `gorm:"embedded;embeddedPrefix:reactivated_" json:"reactivated"`
}

// ProgramSubscriber links a user to a program. Unlike grants, the same row flips back to
// active on resubscription.
type ProgramSubscriber struct {
	BaseModel

	ProgramID    string   `gorm:"type:uuid;not null;uniqueIndex:idx_program_subscriber" json:"program_id"`
	Program      *Program `gorm:"foreignKey:ProgramID" json:"program,omitempty"`
	SubscriberID string   `gorm:"type:uuid;not null;uniqueIndex:idx_program_subscriber;index" json:"subscriber_id"`
	Subscriber   *User    `gorm:"foreignKey:SubscriberID" json:"subscriber,omitempty"`

	IsActive       bool       `gorm:"index" json:"is_active"`
	SubscribedAt   time.Time  `json:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
}
