package cachedRepo

import (
	"context"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

type CachedRepo interface {
	// Only single posts and their counters are cached for now
	CachePost(ctx context.Context, post models.Post) error
	GetPost(ctx context.Context, id, viewerId string) (models.Post, error)
	DeletePost(ctx context.Context, id string) error
	UpdateLikesCounter(ctx context.Context, id string, delta int64)
	UpdateCommentsCounter(ctx context.Context, id string, delta int64)
	Close()
}
