package services

import (
	"math"
	"time"

	"github.com/concoro/notifier/internal/dates"
	"github.com/concoro/notifier/internal/entities"
	log "github.com/sirupsen/logrus"
)

// DeadlineThresholds are the day-counts at which a saved concorso fires a
// notification. Only exact matches fire: a concorso saved at, say, 5 days
// left produces nothing until the batch happens to run on day 3.
var DeadlineThresholds = []int{7, 3, 1, 0}

// DaysUntil computes whole calendar days between today and the closing
// date. Both sides are normalized to midnight first so the time of day the
// batch runs at never shifts the result.
func DaysUntil(closing time.Time, today time.Time) int {
	diff := dates.Midnight(closing).Sub(dates.Midnight(today))
	return int(math.Ceil(diff.Hours() / 24))
}

// EvaluateDeadline decides which notifications a saved concorso produces on
// the given day. An absent or unparsable closing date yields none; an
// already-expired concorso yields none. Deduplication across runs is the
// caller's job via the notification store's existence check.
func EvaluateDeadline(concorso entities.Concorso, item entities.SavedItem, today time.Time) []entities.Notification {

	closing, ok := dates.TryParse(concorso.DataChiusura)
	if !ok {
		log.Warnf("concorso %v has no parsable closing date (%q), no notification possible", concorso.ID, concorso.DataChiusura)
		return nil
	}

	daysLeft := DaysUntil(closing, today)
	if daysLeft < 0 {
		return nil
	}

	var notifications []entities.Notification
	for _, threshold := range DeadlineThresholds {
		if daysLeft == threshold {
			notifications = append(notifications, entities.Notification{
				UserID:          item.UserID,
				ConcorsoID:      concorso.ID,
				DaysLeft:        daysLeft,
				Scadenza:        closing,
				PublicationDate: concorso.PublicationDate,
				SavedAt:         item.SavedAt,
				Timestamp:       time.Now(),
				IsRead:          false,
			})
		}
	}

	return notifications
}
