package cachedRepo

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
	"github.com/roweshkalloe/qualogy-ai-connect/post_service/postRepo"
)

type stubRepo struct {
	postRepo.PersistenceDB
	post  models.Post
	calls int
}

func (s *stubRepo) GetPost(_ context.Context, id, _ string) (models.Post, error) {
	s.calls++
	if id != s.post.Id {
		return models.Post{}, postRepo.ErrNotFound
	}
	return s.post, nil
}

// deadClient points at a port nothing listens on.
func deadClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
}

func TestGetPostFallsBackWhenRedisIsDown(t *testing.T) {
	repo := &stubRepo{post: models.Post{Id: "p1", Title: "hello", LikesCount: 3}}
	cache := NewRedisRepo(repo, deadClient())
	defer cache.Close()

	got, err := cache.GetPost(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Title)
	assert.Equal(t, int64(3), got.LikesCount)

	got, err = cache.GetPost(context.Background(), "p1", "viewer")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Title)
	assert.Equal(t, 2, repo.calls)

	_, err = cache.GetPost(context.Background(), "missing", "")
	assert.ErrorIs(t, err, postRepo.ErrNotFound)
}

func TestCounterUpdatesSurviveRedisOutage(t *testing.T) {
	cache := NewRedisRepo(&stubRepo{}, deadClient())
	defer cache.Close()
	// failures are logged, never returned
	cache.UpdateLikesCounter(context.Background(), "p1", 1)
	cache.UpdateCommentsCounter(context.Background(), "p1", -2)
	assert.Error(t, cache.DeletePost(context.Background(), "p1"))
}

func TestApplyCounters(t *testing.T) {
	var p models.Post
	assert.False(t, applyCounters(&p, map[string]string{}))
	assert.False(t, applyCounters(&p, map[string]string{"likes": "4"}))

	assert.True(t, applyCounters(&p, map[string]string{"likes": "4", "comments": "-1"}))
	assert.Equal(t, int64(4), p.LikesCount)
	assert.Equal(t, int64(0), p.CommentsCount)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "post:01ABC", postKey("01ABC"))
	assert.Equal(t, "post:01ABC:counters", countersKey("01ABC"))
}
