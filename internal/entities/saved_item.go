package entities

import "time"

// SavedItem is a user's bookmark of a concorso. Created by the web app,
// read-only here.
type SavedItem struct {
	ID         int
	UserID     string `gorm:"index"`
	ConcorsoID string
	SavedAt    *time.Time
	CreatedAt  time.Time
}
