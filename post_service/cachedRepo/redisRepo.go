package cachedRepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
	svc "github.com/roweshkalloe/qualogy-ai-connect/post_service/models"
	"github.com/roweshkalloe/qualogy-ai-connect/post_service/postRepo"
)

const (
	postTTL    = 24 * time.Hour
	counterTTL = 5 * time.Minute
)

// counters are only moved when the hash is there, otherwise a lone field
// would look like a complete entry on the next read
var hincrIfExists = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return redis.call('HINCRBY', KEYS[1], ARGV[1], ARGV[2])
end
return false
`)

func postKey(id string) string {
	return fmt.Sprintf("post:%v", id)
}

func countersKey(id string) string {
	return fmt.Sprintf("post:%v:counters", id)
}

type redisRepo struct {
	repo        postRepo.PersistenceDB // presistance db
	redisClient *redis.Client
}

func NewRedisRepo(repo postRepo.PersistenceDB, client *redis.Client) *redisRepo {
	return &redisRepo{
		repo:        repo,
		redisClient: client,
	}
}

func NewRedisClient(ctx context.Context, addr, pass string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return client, err
	}
	return client, nil
}

func toCached(p models.Post) svc.CachedPost {
	return svc.CachedPost{
		Id:        p.Id,
		ChannelId: p.ChannelId,
		UserId:    p.UserId,
		Title:     p.Title,
		Content:   p.Content,
		ImageUrl:  p.ImageUrl,
		Tags:      p.Tags,
		CreatedAt: p.CreatedAt,
	}
}

func fromCached(c svc.CachedPost) models.Post {
	return models.Post{
		Id:        c.Id,
		ChannelId: c.ChannelId,
		UserId:    c.UserId,
		Title:     c.Title,
		Content:   c.Content,
		ImageUrl:  c.ImageUrl,
		Tags:      c.Tags,
		CreatedAt: c.CreatedAt,
	}
}

// applyCounters copies a counters hash into p. It reports false when the
// hash is missing or incomplete.
func applyCounters(p *models.Post, cnt map[string]string) bool {
	likes, err1 := strconv.ParseInt(cnt["likes"], 10, 64)
	comments, err2 := strconv.ParseInt(cnt["comments"], 10, 64)
	if err1 != nil || err2 != nil {
		return false
	}
	p.LikesCount, p.CommentsCount = max(likes, 0), max(comments, 0)
	return true
}

func (rs *redisRepo) CachePost(ctx context.Context, post models.Post) error {
	data, err := json.Marshal(toCached(post))
	if err != nil {
		return err
	}
	pipe := rs.redisClient.Pipeline()
	pipe.Set(ctx, postKey(post.Id), data, postTTL)
	pipe.HSet(ctx, countersKey(post.Id), map[string]interface{}{
		"likes":    post.LikesCount,
		"comments": post.CommentsCount,
	})
	pipe.Expire(ctx, countersKey(post.Id), counterTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// GetPost serves anonymous reads from the cache. Viewer dependent flags are
// not cached, so a known viewer always reads through to the database.
func (rs *redisRepo) GetPost(ctx context.Context, id, viewerId string) (models.Post, error) {
	if viewerId != "" {
		return rs.loadAndCache(ctx, id, viewerId)
	}

	pipe := rs.redisClient.Pipeline()
	postCmd := pipe.Get(ctx, postKey(id))
	cntCmd := pipe.HGetAll(ctx, countersKey(id))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		log.Println("Error in Loading data from redis caches:", err.Error())
		return rs.repo.GetPost(ctx, id, viewerId)
	}

	data, err := postCmd.Bytes()
	if err != nil {
		return rs.loadAndCache(ctx, id, viewerId)
	}
	var cached svc.CachedPost
	if err := json.Unmarshal(data, &cached); err != nil {
		log.Println("Error in UnMarshal post: ", err.Error())
		return rs.loadAndCache(ctx, id, viewerId)
	}
	post := fromCached(cached)
	if applyCounters(&post, cntCmd.Val()) {
		return post, nil
	}

	// post hit, counters expired
	cnts, err := rs.repo.GetCounters(ctx, []string{id})
	if err != nil || len(cnts) == 0 {
		return rs.loadAndCache(ctx, id, viewerId)
	}
	post.LikesCount, post.CommentsCount = cnts[0].Likes, cnts[0].Comments
	pipe = rs.redisClient.Pipeline()
	pipe.HSet(ctx, countersKey(id), map[string]interface{}{
		"likes":    post.LikesCount,
		"comments": post.CommentsCount,
	})
	pipe.Expire(ctx, countersKey(id), counterTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Println("Error while putting data in counters cache: ", err.Error())
	}
	return post, nil
}

func (rs *redisRepo) loadAndCache(ctx context.Context, id, viewerId string) (models.Post, error) {
	post, err := rs.repo.GetPost(ctx, id, viewerId)
	if err != nil {
		return models.Post{}, err
	}
	if err := rs.CachePost(ctx, post); err != nil {
		log.Printf("Error while putting post{%v} in cache: %v", id, err.Error())
	}
	return post, nil
}

func (rs *redisRepo) DeletePost(ctx context.Context, id string) error {
	return rs.redisClient.Del(ctx, postKey(id), countersKey(id)).Err()
}

func (rs *redisRepo) UpdateLikesCounter(ctx context.Context, id string, delta int64) {
	rs.incr(ctx, id, "likes", delta)
}

func (rs *redisRepo) UpdateCommentsCounter(ctx context.Context, id string, delta int64) {
	rs.incr(ctx, id, "comments", delta)
}

func (rs *redisRepo) incr(ctx context.Context, id, field string, delta int64) {
	if delta == 0 {
		return
	}
	err := hincrIfExists.Run(ctx, rs.redisClient, []string{countersKey(id)}, field, delta).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		// the hash expires within counterTTL and is rebuilt from the database
		log.Printf("Error in updating %v counter of post:%v: %v", field, id, err.Error())
	}
}

func (rs *redisRepo) Close() {
	if err := rs.redisClient.Close(); err != nil {
		log.Println("Error Closing redis client: ", err.Error())
	}
}
