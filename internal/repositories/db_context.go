package repositories

import (
	"fmt"

	"github.com/concoro/notifier/internal/entities"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {
	err := c.DB.AutoMigrate(entities.SavedItem{})
	if err != nil {
		return fmt.Errorf("failed to migrate SavedItem entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.Concorso{})
	if err != nil {
		return fmt.Errorf("failed to migrate Concorso entity: %w", err)
	}

	// No unique (user_id, concorso_id, days_left) index on notifications:
	// duplicates are prevented by an existence check before insert, and
	// overlapping runs can race past it. Accepted limitation.
	err = c.DB.AutoMigrate(entities.Notification{})
	if err != nil {
		return fmt.Errorf("failed to migrate Notification entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.EmailLogEntry{})
	if err != nil {
		return fmt.Errorf("failed to migrate EmailLogEntry entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.UserProfile{})
	if err != nil {
		return fmt.Errorf("failed to migrate UserProfile entity: %w", err)
	}

	return nil
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
