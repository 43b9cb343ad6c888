package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/roweshkalloe/qualogy-ai-connect/api_gateway/models"
	"github.com/roweshkalloe/qualogy-ai-connect/auth"
	svcmodels "github.com/roweshkalloe/qualogy-ai-connect/models"
)

type ctxKey int

const principalKey ctxKey = iota

// principal is the caller of an authenticated request.
type principal struct {
	claims auth.Claims
	token  string
}

func (p *principal) id() string {
	if p == nil {
		return ""
	}
	return p.claims.Subject
}

func (p *principal) roles() []svcmodels.Role {
	if p == nil {
		return nil
	}
	return p.claims.Roles
}

func principalFrom(ctx context.Context) *principal {
	p, _ := ctx.Value(principalKey).(*principal)
	return p
}

// revoker remembers token ids that were logged out before they expired.
type revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	Revoked(ctx context.Context, jti string) (bool, error)
}

type RedisRevoker struct {
	redis redis.UniversalClient
	now   func() time.Time
}

func NewRedisRevoker(config models.RedisConfig) *RedisRevoker {
	c := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    config.Addrs,
		Password: config.Password,
		PoolSize: config.PoolSize,
	})
	return &RedisRevoker{redis: c, now: time.Now}
}

func revokedKey(jti string) string {
	return "revoked:" + jti
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.redis.Set(ctx, revokedKey(jti), 1, ttl).Err()
}

func (r *RedisRevoker) Revoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.redis.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisRevoker) close() {
	if err := r.redis.Close(); err != nil {
		log.Println("Closing revoker Error: ", err.Error())
	}
}

var errNoToken = errors.New("authorization token required")

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", errNoToken
	}
	return strings.TrimSpace(token), nil
}

// authenticate validates the bearer token of r. A revocation lookup that
// fails is logged and the token accepted.
func authenticate(ctx context.Context, key ed25519.PublicKey, rev revoker, r *http.Request) (*principal, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, err
	}
	claims, err := auth.Parse(key, token)
	if err != nil {
		return nil, err
	}
	if rev != nil {
		revoked, err := rev.Revoked(ctx, claims.ID)
		if err != nil {
			log.Println("Error in checking token revocation: ", err.Error())
		} else if revoked {
			return nil, auth.ErrInvalidToken
		}
	}
	return &principal{claims: claims, token: token}, nil
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("Request: %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func corsMiddleware(config models.CORSConfig, next http.Handler) http.Handler {
	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           config.MaxAge,
	}).Handler(next)
}
