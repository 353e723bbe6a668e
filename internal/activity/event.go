package activity

import "time"

// SessionEvent is one row of the session activity log. Rows are written by
// the worker from events the controllers publish.
type SessionEvent struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	Type       string `gorm:"type:varchar(32);index;not null"`
	Identity   string `gorm:"type:varchar(128);index;not null"`
	SessionID  string `gorm:"size:26;index"`
	MessageID  string `gorm:"size:26"`
	Difficulty string `gorm:"type:varchar(16)"`

	// Filled for mentor_failed
	Detail *string `gorm:"type:text"`

	OccurredAt time.Time `gorm:"index"`
	CreatedAt  time.Time
}

func (SessionEvent) TableName() string { return "session_events" }
