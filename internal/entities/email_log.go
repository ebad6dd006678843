package entities

import "time"

const EmailLogTypeNotification = "notification"

// EmailLogEntry is the audit record of a sent digest email. It is only ever
// read to compute "hours since last send" for the cooldown.
type EmailLogEntry struct {
	ID                int
	UserID            string `gorm:"index"`
	Type              string
	SentAt            time.Time
	NotificationCount int
	UrgentCount       int
}
