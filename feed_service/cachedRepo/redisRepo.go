package cachedrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roweshkalloe/qualogy-ai-connect/feed_service/models"
	core "github.com/roweshkalloe/qualogy-ai-connect/models"
)

const DefaultTrendingTTL = 60 * time.Second

type redisRepo struct {
	r   redis.UniversalClient
	ttl time.Duration
}

func NewRedisRepo(ctx context.Context, config models.RedisConfig) (*redisRepo, error) {
	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    config.ClusterAddr,
		Password: config.Password,
	})
	ttl := config.TrendingTTL
	if ttl <= 0 {
		ttl = DefaultTrendingTTL
	}
	rs := &redisRepo{r: r, ttl: ttl}
	if err := r.Ping(ctx).Err(); err != nil {
		return rs, err
	}
	return rs, nil
}

// Trending depends on the viewer only through the liked and favorited
// flags, so entries are kept per viewer and limit for a short time.
func trendingKey(viewerId string, limit int) string {
	if viewerId == "" {
		viewerId = "anonymous"
	}
	return fmt.Sprintf("trending:%v:%d", viewerId, limit)
}

func (rs *redisRepo) GetTrending(ctx context.Context, viewerId string, limit int) ([]core.Post, bool) {
	data, err := rs.r.Get(ctx, trendingKey(viewerId, limit)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Println("Error fetching trending from cache: ", err.Error())
		}
		return nil, false
	}
	var posts []core.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		log.Println("Error in UnMarshal trending: ", err.Error())
		return nil, false
	}
	return posts, true
}

func (rs *redisRepo) SetTrending(ctx context.Context, viewerId string, limit int, posts []core.Post) error {
	data, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	err = rs.r.Set(ctx, trendingKey(viewerId, limit), data, rs.ttl).Err()
	if err != nil {
		log.Printf("Error in Inserting trending for user{%v} --> %v\n", viewerId, err.Error())
		return err
	}
	return nil
}

func (rs *redisRepo) Close() error {
	return rs.r.Close()
}
