package entities

import "time"

// Notification records that a deadline threshold was reached for a
// (user, concorso) pair. At most one record should exist per
// (user, concorso, days_left) triple; that is enforced by an existence
// check before insert, not by a database constraint.
type Notification struct {
	ID              int
	UserID          string `gorm:"index"`
	ConcorsoID      string
	DaysLeft        int
	Scadenza        time.Time // closing-date snapshot at creation time
	PublicationDate string
	SavedAt         *time.Time
	Timestamp       time.Time
	IsRead          bool
}
