package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/roweshkalloe/qualogy-ai-connect/api_gateway/models"
	"github.com/roweshkalloe/qualogy-ai-connect/commentTree"
)

func TestRoundRobin(t *testing.T) {
	lb := NewStaticLoadBalancer(map[string][]string{
		"post_service": {"passthrough:///a:1", "passthrough:///b:1"},
	})
	t.Cleanup(lb.close)

	first, err := lb.ServiceConn("post_service")
	require.NoError(t, err)
	second, err := lb.ServiceConn("post_service")
	require.NoError(t, err)
	third, err := lb.ServiceConn("post_service")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Same(t, first, third)

	_, err = lb.ServiceConn("feed_service")
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestRoundRobinUpdateAndDelete(t *testing.T) {
	lb := newLoadBalancer()
	t.Cleanup(lb.close)

	rr := lb.balancer("feed_service")
	rr.update("passthrough:///a:1", "id-a")
	rr.update("passthrough:///b:1", "id-b")
	rr.update("passthrough:///b:2", "id-b")
	assert.Equal(t, 2, rr.size())

	rr.delete("id-a")
	rr.delete("id-b")
	rr.delete("unknown")
	assert.Zero(t, rr.size())

	_, err := lb.ServiceConn("feed_service")
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestRateLimiterFailsOpen(t *testing.T) {
	dead := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	rl := newRateLimiter(dead, map[string]models.Rule{"ip": {Limit: 1, RefillRate: 1}})
	t.Cleanup(rl.close)

	ok, err := rl.AllowIP(context.Background(), "10.0.0.1")
	assert.Error(t, err)
	assert.True(t, ok)

	// no rule for users, redis is never asked
	ok, err = rl.AllowUser(context.Background(), "u1")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}

func TestParseSettings(t *testing.T) {
	config := &models.AppConfig{
		Server:         models.ServerConfig{PublicKey: "MCowBQYDK2VwAyEA"},
		CommentNesting: "nested",
	}
	_, err := parseSettings(config)
	assert.Error(t, err)

	config.Server.PublicKey = "11qYAYKxCrfVS/7TyWQHOg7hcvPapiMlrwIaaPcHURo="
	config.Server.MaxBody = "2 MB"
	config.Server.CallTimeout = "750ms"
	s, err := parseSettings(config)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), s.maxBody)
	assert.Equal(t, 750*time.Millisecond, s.callTimeout)
	assert.Equal(t, commentTree.Nested, s.nesting)

	config.CommentNesting = "deep"
	_, err = parseSettings(config)
	assert.Error(t, err)
}
