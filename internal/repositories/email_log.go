package repositories

import (
	"context"

	"github.com/concoro/notifier/internal/entities"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type EmailLog struct {
	db *gorm.DB
}

func NewEmailLogRepository(db *gorm.DB) *EmailLog {
	return &EmailLog{db: db}
}

// LastNotificationEntry returns the most recent digest log entry for the
// user, or (nil, nil) when none was ever written.
func (repo *EmailLog) LastNotificationEntry(ctx context.Context, userID string) (*entities.EmailLogEntry, error) {
	entry := &entities.EmailLogEntry{}
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, entities.EmailLogTypeNotification).
		Order("sent_at DESC").
		First(entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

func (repo *EmailLog) Add(ctx context.Context, entry entities.EmailLogEntry) error {
	return repo.db.WithContext(ctx).Create(&entry).Error
}
