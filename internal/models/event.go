package models

// ShortCodeLength is the number of lowercase letters in an event short code.
const ShortCodeLength = 8

// Event is owned by one program. Archived and concluded are independent flags.
type Event struct {
	BaseModel

	ProgramID string   `gorm:"type:uuid;not null;index" json:"program_id"`
	Program   *Program `gorm:"foreignKey:ProgramID" json:"program,omitempty"`

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	ShortCode   string `gorm:"uniqueIndex;size:8;not null" json:"short_code"`

	IsArchived  bool `json:"is_archived"`
	IsConcluded bool `json:"is_concluded"`

	CreatedByID string `gorm:"type:uuid;index;not null" json:"created_by_id"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	Archived    ActorStamp `gorm:"embedded;embeddedPrefix:archived_" json:"archived"`
	Concluded   ActorStamp `gorm:"embedded;embeddedPrefix:concluded_" json:"concluded"`
	Reactivated ActorStamp `gorm:"embedded;embeddedPrefix:reactivated_" json:"reactivated"`
}

// Attendance records one user's check-in to one event.
type Attendance struct {
	BaseModel

	EventID    string `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_event_attendee" json:"event_id"`
	Event      *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
	AttendeeID string `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_event_attendee;index" json:"attendee_id"`
	Attendee   *User  `gorm:"foreignKey:AttendeeID" json:"attendee,omitempty"`

	DisplayName *string `gorm:"size:255" json:"display_name,omitempty"`
	Valid       bool    `gorm:"index" json:"valid"`

	Validated   ActorStamp `gorm:"embedded;embeddedPrefix:validated_" json:"validated"`
	Invalidated ActorStamp `gorm:"embedded;embeddedPrefix:invalidated_" json:"invalidated"`
}
