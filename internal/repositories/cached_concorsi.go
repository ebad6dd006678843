package repositories

import (
	"context"
	"time"

	"github.com/concoro/notifier/internal/entities"
	gocache "github.com/patrickmn/go-cache"
)

type concorsoRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Concorso, error)
}

// CachedConcorsi memoizes lookups for the duration of a batch: many users
// save the same popular concorsi, and each digest re-reads them.
type CachedConcorsi struct {
	repo  concorsoRepository
	cache *gocache.Cache
}

func NewCachedConcorsi(repo concorsoRepository) *CachedConcorsi {
	return &CachedConcorsi{repo: repo, cache: gocache.New(10*time.Minute, 20*time.Minute)}
}

func (c *CachedConcorsi) GetByID(ctx context.Context, id string) (*entities.Concorso, error) {
	if value, found := c.cache.Get(id); found {
		concorso := value.(entities.Concorso)
		return &concorso, nil
	}

	concorso, err := c.repo.GetByID(ctx, id)
	if concorso != nil && err == nil {
		if err = c.cache.Add(id, *concorso, gocache.DefaultExpiration); err != nil {
			return concorso, err
		}
	}

	return concorso, err
}
