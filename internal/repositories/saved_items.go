package repositories

import (
	"context"

	"github.com/concoro/notifier/internal/entities"
	"gorm.io/gorm"
)

type SavedItems struct {
	db *gorm.DB
}

func NewSavedItemsRepository(db *gorm.DB) *SavedItems {
	return &SavedItems{db: db}
}

func (repo *SavedItems) Add(ctx context.Context, item entities.SavedItem) error {
	return repo.db.WithContext(ctx).Create(&item).Error
}

func (repo *SavedItems) GetAll(ctx context.Context) ([]entities.SavedItem, error) {

	var items []entities.SavedItem
	if err := repo.db.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (repo *SavedItems) GetByUser(ctx context.Context, userID string) ([]entities.SavedItem, error) {

	var items []entities.SavedItem
	if err := repo.db.WithContext(ctx).Find(&items, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return items, nil
}
