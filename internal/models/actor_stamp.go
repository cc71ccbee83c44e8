package models

import "time"

// ActorStamp records who performed a transition and when. Rows embed one stamp per
// transition direction so that setting one never clears another.
type ActorStamp struct {
	By *string    `gorm:"type:uuid" json:"by,omitempty"`
	At *time.Time `json:"at,omitempty"`
}

// NewActorStamp builds a populated stamp.
func NewActorStamp(actorID string, at time.Time) ActorStamp {
	by := actorID
	ts := at
	return ActorStamp{By: &by, At: &ts}
}

// IsSet reports whether the transition has happened.
func (s ActorStamp) IsSet() bool {
	return s.At != nil
}

// Columns returns the column assignments for a stamp embedded with the given prefix.
func (s ActorStamp) Columns(prefix string) map[string]any {
	return map[string]any{
		prefix + "by": s.By,
		prefix + "at": s.At,
	}
}

// ClearedColumns returns assignments that reset the stamp embedded with the given prefix.
func ClearedColumns(prefix string) map[string]any {
	return map[string]any{
		prefix + "by": nil,
		prefix + "at": nil,
	}
}
