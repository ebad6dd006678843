package repositories

import (
	"context"

	"github.com/concoro/notifier/internal/entities"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Users struct {
	db *gorm.DB
}

func NewUsersRepository(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (repo *Users) GetByID(ctx context.Context, userID string) (*entities.UserProfile, error) {
	profile := &entities.UserProfile{}
	err := repo.db.WithContext(ctx).First(profile, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}
