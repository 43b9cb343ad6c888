package postRepo

import (
	"context"
	"errors"
	"time"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
	svc "github.com/roweshkalloe/qualogy-ai-connect/post_service/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrForbidden     = errors.New("not allowed for this user")
	ErrInvalidParent = errors.New("parent comment does not belong to the post")
	ErrConflict      = errors.New("record already exists")
)

// PersistenceDB is the single repository the post service is built on.
// List calls return posts newest first; viewerId only fills the viewer
// dependent flags and may be empty.
type PersistenceDB interface {
	CreatePost(ctx context.Context, post models.Post) (models.Post, error)
	GetPost(ctx context.Context, id, viewerId string) (models.Post, error)
	DeletePost(ctx context.Context, id, userId string) error
	GetPosts(ctx context.Context, ids []string) ([]models.Post, error)
	ListPostsByWindow(ctx context.Context, viewerId string, start, end time.Time) ([]models.Post, error)
	ListPostsByChannels(ctx context.Context, viewerId string, channelIds []string) ([]models.Post, error)
	ListPostsByUser(ctx context.Context, userId, viewerId string) ([]models.Post, error)
	ListFavoritePosts(ctx context.Context, userId string) ([]models.Post, error)

	// GetComments returns the flat comment list of a post in ascending
	// creation order.
	GetComments(ctx context.Context, postId string) ([]models.Comment, error)
	CreateComment(ctx context.Context, comment models.Comment) (models.Comment, error)
	// DeleteComment removes the comment and every reply below it and returns
	// the post id together with the number of removed rows.
	DeleteComment(ctx context.Context, id, userId string) (string, int64, error)

	// Marker writes are idempotent. changed reports whether a row was
	// inserted or deleted, count is the counter after the call.
	CreateLike(ctx context.Context, postId, userId string) (changed bool, count int64, err error)
	DeleteLike(ctx context.Context, postId, userId string) (changed bool, count int64, err error)
	CreateFavorite(ctx context.Context, postId, userId string) (bool, error)
	DeleteFavorite(ctx context.Context, postId, userId string) (bool, error)

	ListChannels(ctx context.Context, viewerId string) ([]models.Channel, error)
	GetChannel(ctx context.Context, id, viewerId string) (models.Channel, error)
	GetChannelBySlug(ctx context.Context, slug, viewerId string) (models.Channel, error)
	CreateChannel(ctx context.Context, channel models.Channel, creatorId string) (models.Channel, error)
	UpdateChannel(ctx context.Context, channel models.Channel) (models.Channel, error)
	DeleteChannel(ctx context.Context, id string) error
	IsChannelAdmin(ctx context.Context, channelId, userId string) (bool, error)
	JoinChannel(ctx context.Context, channelId, userId string) (changed bool, members int64, err error)
	LeaveChannel(ctx context.Context, channelId, userId string) (changed bool, members int64, err error)
	JoinedChannelIds(ctx context.Context, userId string) ([]string, error)

	GetUserStats(ctx context.Context, userId string) (models.UserStats, error)
	GetCounters(ctx context.Context, ids []string) ([]svc.CachedCounter, error)

	PendingOutbox(ctx context.Context, limit int) ([]svc.OutboxRow, error)
	MarkOutboxSent(ctx context.Context, ids []int64) error

	Close()
}
