package repositories

import (
	"context"

	"github.com/concoro/notifier/internal/entities"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Concorsi struct {
	db *gorm.DB
}

func NewConcorsiRepository(db *gorm.DB) *Concorsi {
	return &Concorsi{db: db}
}

// GetByID returns (nil, nil) when no concorso exists with the given id, so
// callers can treat a deleted posting as a skip rather than a failure.
func (repo *Concorsi) GetByID(ctx context.Context, id string) (*entities.Concorso, error) {
	concorso := &entities.Concorso{}
	err := repo.db.WithContext(ctx).First(concorso, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return concorso, nil
}

func (repo *Concorsi) Add(ctx context.Context, concorso entities.Concorso) error {
	return repo.db.WithContext(ctx).Create(&concorso).Error
}
