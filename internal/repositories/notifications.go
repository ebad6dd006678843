package repositories

import (
	"context"
	"errors"

	"github.com/concoro/notifier/internal/entities"
	"gorm.io/gorm"
)

type Notifications struct {
	db *gorm.DB
}

func NewNotificationsRepository(db *gorm.DB) *Notifications {
	return &Notifications{db: db}
}

// Exists reports whether a notification was already recorded for the
// (user, concorso, daysLeft) triple. Called before every Add; the check and
// the insert are not atomic across concurrent runs.
func (repo *Notifications) Exists(ctx context.Context, userID string, concorsoID string, daysLeft int) (bool, error) {
	var notification entities.Notification
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND concorso_id = ? AND days_left = ?", userID, concorsoID, daysLeft).
		First(&notification).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (repo *Notifications) Add(ctx context.Context, notification entities.Notification) error {
	return repo.db.WithContext(ctx).Create(&notification).Error
}

// ListActionable returns the unread notifications a digest may include:
// days_left within the emailable threshold set, newest first, capped at
// limit. Notifications outside the set stay stored but are never emailed.
func (repo *Notifications) ListActionable(ctx context.Context, userID string, thresholds []int, limit int) ([]entities.Notification, error) {

	var notifications []entities.Notification
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ? AND days_left IN ?", userID, false, thresholds).
		Order("timestamp DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}
