package models

// Organization is the top-level tenant. CreatedBy is the immutable owner.
type Organization struct {
	BaseModel

	Code     string `gorm:"uniqueIndex;size:255;not null" json:"code"`
	Name     string `gorm:"size:512;not null" json:"name"`
	IsActive bool   `gorm:"index" json:"is_active"`

	CreatedByID string `gorm:"type:uuid;index;not null" json:"created_by_id"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	Archived    ActorStamp `gorm:"embedded;embeddedPrefix:archived_" json:"archived"`
	Reactivated ActorStamp `gorm:"embedded;embeddedPrefix:reactivated_" json:"reactivated"`
}
