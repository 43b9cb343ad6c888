package cachedrepo

import (
	"context"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

type Cache interface {
	// GetTrending reports false on a miss or when the cache is unreachable.
	GetTrending(ctx context.Context, viewerId string, limit int) ([]models.Post, bool)
	SetTrending(ctx context.Context, viewerId string, limit int, posts []models.Post) error
	Close() error
}
