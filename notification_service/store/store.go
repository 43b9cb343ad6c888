package store

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrNotFound = errors.New("notification not found")

type Store interface {
	// Insert reports false when the notification was already stored.
	Insert(ctx context.Context, n models.Notification) (bool, error)
	List(ctx context.Context, userId string, unreadOnly bool, limit int) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, userId, id string) (int64, error)
	MarkAllRead(ctx context.Context, userId string) (int64, error)
	Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS notifications (
    notification_id UUID PRIMARY KEY,
    user_id         TEXT NOT NULL,
    actor_id        TEXT NOT NULL DEFAULT '',
    type            TEXT NOT NULL,
    post_id         TEXT NOT NULL DEFAULT '',
    comment_id      TEXT NOT NULL DEFAULT '',
    message         TEXT NOT NULL,
    is_read         BOOLEAN NOT NULL DEFAULT false,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS notifications_user_created_idx ON notifications (user_id, created_at DESC);`

type pgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(ctx context.Context, url string) (*pgStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Println("Failed to create notifications table: ", err.Error())
		pool.Close()
		return nil, err
	}
	return &pgStore{pool: pool}, nil
}

func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

func (s *pgStore) Insert(ctx context.Context, n models.Notification) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (notification_id, user_id, actor_id, type, post_id, comment_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (notification_id) DO NOTHING`,
		n.Id, n.UserId, n.ActorId, string(n.Type), n.PostId, n.CommentId, n.Message, n.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *pgStore) List(ctx context.Context, userId string, unreadOnly bool, limit int) ([]models.Notification, int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT notification_id::text, user_id, actor_id, type, post_id, comment_id, message, is_read, created_at
		FROM notifications WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC LIMIT $3`, userId, unreadOnly, ClampLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Notification, error) {
		var n models.Notification
		var typ string
		err := row.Scan(&n.Id, &n.UserId, &n.ActorId, &typ, &n.PostId, &n.CommentId, &n.Message, &n.Read, &n.CreatedAt)
		n.Type = models.NotificationType(typ)
		return n, err
	})
	if err != nil {
		return nil, 0, err
	}

	var unread int64
	err = s.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userId).Scan(&unread)
	if err != nil {
		return nil, 0, err
	}
	return list, unread, nil
}

func (s *pgStore) MarkRead(ctx context.Context, userId, id string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE notification_id::text = $1 AND user_id = $2`, id, userId)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrNotFound
	}
	return tag.RowsAffected(), nil
}

func (s *pgStore) MarkAllRead(ctx context.Context, userId string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND NOT is_read`, userId)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *pgStore) Close() {
	s.pool.Close()
}
