package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roweshkalloe/qualogy-ai-connect/api_gateway/models"
)

// tokenBucket refills ARGV[1] tokens per second up to ARGV[2] and takes one
// token if there is one. Returns 1 when the request may pass.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local bucket = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(bucket[1])
local ts = tonumber(bucket[2])
if tokens == nil then
  tokens = capacity
  ts = now
end

tokens = math.min(capacity, tokens + (now - ts) * rate)
local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "ts", now)
redis.call("EXPIRE", key, math.ceil(capacity / math.max(rate, 1)) + 1)
return allowed
`)

// limiter decides whether a request may pass. Errors mean the decision
// could not be made; callers let the request through.
type limiter interface {
	AllowIP(ctx context.Context, ip string) (bool, error)
	AllowUser(ctx context.Context, userId string) (bool, error)
}

type RateLimiter struct {
	rules map[string]models.Rule
	redis redis.UniversalClient
	now   func() time.Time
}

func NewRateLimiter(config models.RateLimitingConfig) (*RateLimiter, error) {
	if len(config.Addrs) == 0 {
		return nil, errors.New("rate limiting needs at least one redis address")
	}
	c := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    config.Addrs,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		// the limiter fails open, so a late redis is not fatal
		log.Println("Error in Connection to redis Cluster: ", err)
	}
	return newRateLimiter(c, config.Rules), nil
}

func newRateLimiter(c redis.UniversalClient, rules map[string]models.Rule) *RateLimiter {
	return &RateLimiter{rules: rules, redis: c, now: time.Now}
}

func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (bool, error) {
	return rl.allow(ctx, "rl:ip:"+ip, "ip")
}

func (rl *RateLimiter) AllowUser(ctx context.Context, userId string) (bool, error) {
	return rl.allow(ctx, "rl:user:"+userId, "user")
}

func (rl *RateLimiter) allow(ctx context.Context, key, ruleName string) (bool, error) {
	rule, ok := rl.rules[ruleName]
	if !ok || rule.Limit <= 0 {
		return true, nil
	}
	res, err := tokenBucket.Run(ctx, rl.redis, []string{key}, rule.RefillRate, rule.Limit, rl.now().Unix()).Int64()
	if err != nil {
		log.Printf("There is error in redis connection: %v", err.Error())
		return true, err
	}
	return res == 1, nil
}

func (rl *RateLimiter) close() {
	if err := rl.redis.Close(); err != nil {
		log.Println("Closing rateLimiter Error: ", err.Error())
	}
}
