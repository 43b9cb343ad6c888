package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
	"github.com/roweshkalloe/qualogy-ai-connect/models"
	svc "github.com/roweshkalloe/qualogy-ai-connect/post_service/models"
	"github.com/roweshkalloe/qualogy-ai-connect/post_service/postRepo"
)

// fakeRepo implements the calls the tests exercise; anything else panics on
// the nil embedded interface.
type fakeRepo struct {
	postRepo.PersistenceDB
	posts    map[string]models.Post
	comments map[string]models.Comment
	likes    map[string]bool
	admins   map[string]string // channel -> admin
	created  []models.Channel
	outbox   []svc.OutboxRow
	sent     []int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		posts:    map[string]models.Post{},
		comments: map[string]models.Comment{},
		likes:    map[string]bool{},
		admins:   map[string]string{},
	}
}

func (f *fakeRepo) CreatePost(_ context.Context, p models.Post) (models.Post, error) {
	p.Id = "p" + string(rune('0'+len(f.posts)+1))
	p.CreatedAt = time.Now()
	f.posts[p.Id] = p
	return p, nil
}

func (f *fakeRepo) GetPost(_ context.Context, id, _ string) (models.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return models.Post{}, postRepo.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) DeletePost(_ context.Context, id, userId string) error {
	p, ok := f.posts[id]
	if !ok {
		return postRepo.ErrNotFound
	}
	if p.UserId != userId {
		return postRepo.ErrForbidden
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeRepo) CreateComment(_ context.Context, c models.Comment) (models.Comment, error) {
	if _, ok := f.posts[c.PostId]; !ok {
		return models.Comment{}, postRepo.ErrNotFound
	}
	if c.ParentId != "" {
		parent, ok := f.comments[c.ParentId]
		if !ok || parent.PostId != c.PostId {
			return models.Comment{}, postRepo.ErrInvalidParent
		}
	}
	c.Id = "c" + string(rune('0'+len(f.comments)+1))
	f.comments[c.Id] = c
	return c, nil
}

func (f *fakeRepo) DeleteComment(_ context.Context, id, _ string) (string, int64, error) {
	c, ok := f.comments[id]
	if !ok {
		return "", 0, postRepo.ErrNotFound
	}
	removed := int64(1)
	for k, other := range f.comments {
		if other.ParentId == id {
			delete(f.comments, k)
			removed++
		}
	}
	delete(f.comments, id)
	return c.PostId, removed, nil
}

func (f *fakeRepo) CreateLike(_ context.Context, postId, userId string) (bool, int64, error) {
	key := postId + "/" + userId
	changed := !f.likes[key]
	f.likes[key] = true
	return changed, int64(len(f.likes)), nil
}

func (f *fakeRepo) ListPostsByChannels(_ context.Context, _ string, ids []string) ([]models.Post, error) {
	out := []models.Post{}
	for _, p := range f.posts {
		for _, id := range ids {
			if p.ChannelId == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateChannel(_ context.Context, ch models.Channel, creator string) (models.Channel, error) {
	ch.Id = "ch-" + ch.Slug
	ch.Admins = []string{creator}
	f.created = append(f.created, ch)
	f.admins[ch.Id] = creator
	return ch, nil
}

func (f *fakeRepo) UpdateChannel(_ context.Context, ch models.Channel) (models.Channel, error) {
	return ch, nil
}

func (f *fakeRepo) IsChannelAdmin(_ context.Context, channelId, userId string) (bool, error) {
	return f.admins[channelId] == userId, nil
}

func (f *fakeRepo) PendingOutbox(_ context.Context, limit int) ([]svc.OutboxRow, error) {
	return f.outbox[:min(limit, len(f.outbox))], nil
}

func (f *fakeRepo) MarkOutboxSent(_ context.Context, ids []int64) error {
	f.sent = append(f.sent, ids...)
	return nil
}

func (f *fakeRepo) Close() {}

// fakeCache goes straight to the repo and records counter moves.
type fakeCache struct {
	repo     *fakeRepo
	cached   []string
	deleted  []string
	likes    map[string]int64
	comments map[string]int64
}

func newFakeCache(repo *fakeRepo) *fakeCache {
	return &fakeCache{repo: repo, likes: map[string]int64{}, comments: map[string]int64{}}
}

func (c *fakeCache) CachePost(_ context.Context, p models.Post) error {
	c.cached = append(c.cached, p.Id)
	return nil
}

func (c *fakeCache) GetPost(ctx context.Context, id, viewerId string) (models.Post, error) {
	return c.repo.GetPost(ctx, id, viewerId)
}

func (c *fakeCache) DeletePost(_ context.Context, id string) error {
	c.deleted = append(c.deleted, id)
	return nil
}

func (c *fakeCache) UpdateLikesCounter(_ context.Context, id string, delta int64) {
	c.likes[id] += delta
}

func (c *fakeCache) UpdateCommentsCounter(_ context.Context, id string, delta int64) {
	c.comments[id] += delta
}

func (c *fakeCache) Close() {}

func newTestService(t *testing.T) (pb.PostServiceClient, *fakeRepo, *fakeCache, *grpc.ClientConn) {
	t.Helper()
	repo := newFakeRepo()
	cache := newFakeCache(repo)
	ps := NewPostService(repo, cache, svc.Config{})

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	ps.register(s)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return pb.NewPostServiceClient(conn), repo, cache, conn
}

func code(err error) codes.Code {
	return status.Code(err)
}

func TestCreatePostValidation(t *testing.T) {
	client, repo, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := client.CreatePost(ctx, &pb.CreatePostRequest{UserId: "u1", ChannelId: "ch", Title: "  ", Content: "body"})
	assert.Equal(t, codes.InvalidArgument, code(err))

	_, err = client.CreatePost(ctx, &pb.CreatePostRequest{UserId: "u1", ChannelId: "ch", Title: "t", Content: "\n\t"})
	assert.Equal(t, codes.InvalidArgument, code(err))

	_, err = client.CreatePost(ctx, &pb.CreatePostRequest{UserId: "u1", ChannelId: "ch", Title: "t", Content: "b", ImageUrl: "not a url"})
	assert.Equal(t, codes.InvalidArgument, code(err))

	assert.Empty(t, repo.posts)
}

func TestCreateAndGetPost(t *testing.T) {
	client, _, cache, _ := newTestService(t)
	ctx := context.Background()

	res, err := client.CreatePost(ctx, &pb.CreatePostRequest{
		UserId: "u1", ChannelId: "ch", Title: " Hello ", Content: "World", Tags: []string{"#Go", "go", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Post.Title)
	assert.Equal(t, []string{"go"}, res.Post.Tags)
	assert.Equal(t, []string{res.Post.Id}, cache.cached)

	got, err := client.GetPost(ctx, &pb.GetPostRequest{PostId: res.Post.Id})
	require.NoError(t, err)
	assert.Equal(t, "World", got.Post.Content)

	_, err = client.GetPost(ctx, &pb.GetPostRequest{PostId: "missing"})
	assert.Equal(t, codes.NotFound, code(err))
}

func TestDeletePostOwnerOnly(t *testing.T) {
	client, _, cache, _ := newTestService(t)
	ctx := context.Background()

	res, err := client.CreatePost(ctx, &pb.CreatePostRequest{UserId: "u1", ChannelId: "ch", Title: "t", Content: "b"})
	require.NoError(t, err)

	_, err = client.DeletePost(ctx, &pb.DeletePostRequest{PostId: res.Post.Id, UserId: "u2"})
	assert.Equal(t, codes.PermissionDenied, code(err))

	_, err = client.DeletePost(ctx, &pb.DeletePostRequest{PostId: res.Post.Id, UserId: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{res.Post.Id}, cache.deleted)
}

func TestCommentsMoveCounters(t *testing.T) {
	client, _, cache, _ := newTestService(t)
	ctx := context.Background()

	post, err := client.CreatePost(ctx, &pb.CreatePostRequest{UserId: "u1", ChannelId: "ch", Title: "t", Content: "b"})
	require.NoError(t, err)
	pid := post.Post.Id

	_, err = client.CreateComment(ctx, &pb.CreateCommentRequest{PostId: pid, UserId: "u2", Content: "   "})
	assert.Equal(t, codes.InvalidArgument, code(err))

	root, err := client.CreateComment(ctx, &pb.CreateCommentRequest{PostId: pid, UserId: "u2", Content: "first"})
	require.NoError(t, err)
	_, err = client.CreateComment(ctx, &pb.CreateCommentRequest{PostId: pid, UserId: "u3", Content: "reply", ParentId: root.Comment.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(2), cache.comments[pid])

	_, err = client.CreateComment(ctx, &pb.CreateCommentRequest{PostId: pid, UserId: "u3", Content: "x", ParentId: "nope"})
	assert.Equal(t, codes.InvalidArgument, code(err))

	del, err := client.DeleteComment(ctx, &pb.DeleteCommentRequest{CommentId: root.Comment.Id, UserId: "u2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), del.Removed)
	assert.Equal(t, pid, del.PostId)
	assert.Equal(t, int64(0), cache.comments[pid])

	_, err = client.DeleteComment(ctx, &pb.DeleteCommentRequest{CommentId: root.Comment.Id, UserId: "u2"})
	assert.Equal(t, codes.NotFound, code(err))
}

func TestLikeIsIdempotent(t *testing.T) {
	client, _, cache, _ := newTestService(t)
	ctx := context.Background()

	first, err := client.CreateLike(ctx, &pb.MarkerRequest{PostId: "p1", UserId: "u1"})
	require.NoError(t, err)
	assert.True(t, first.Changed)

	again, err := client.CreateLike(ctx, &pb.MarkerRequest{PostId: "p1", UserId: "u1"})
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Equal(t, first.Count, again.Count)
	assert.Equal(t, int64(1), cache.likes["p1"])
}

func TestListPostsByChannelsEmptySet(t *testing.T) {
	client, _, _, _ := newTestService(t)
	res, err := client.ListPostsByChannels(context.Background(), &pb.ChannelPostsRequest{ViewerId: "u1"})
	require.NoError(t, err)
	assert.NotNil(t, res.Posts)
	assert.Empty(t, res.Posts)
}

func TestChannelAuthorization(t *testing.T) {
	client, repo, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := client.CreateChannel(ctx, &pb.ChannelRequest{
		UserId: "u1", Roles: []models.Role{models.RoleUser}, Channel: models.Channel{Name: "Go Gophers"},
	})
	assert.Equal(t, codes.PermissionDenied, code(err))

	res, err := client.CreateChannel(ctx, &pb.ChannelRequest{
		UserId: "boss", Roles: []models.Role{models.RoleAdmin}, Channel: models.Channel{Name: "Go Gophers!", Color: "bg-sky-100"},
	})
	require.NoError(t, err)
	assert.Equal(t, "go-gophers", res.Channel.Slug)
	require.Len(t, repo.created, 1)

	upd := res.Channel
	upd.Description = "all things go"

	_, err = client.UpdateChannel(ctx, &pb.ChannelRequest{UserId: "other", Roles: []models.Role{models.RoleChannelAdmin}, Channel: upd})
	assert.Equal(t, codes.PermissionDenied, code(err))

	repo.admins[upd.Id] = "mod"
	out, err := client.UpdateChannel(ctx, &pb.ChannelRequest{UserId: "mod", Roles: []models.Role{models.RoleChannelAdmin}, Channel: upd})
	require.NoError(t, err)
	assert.Equal(t, "all things go", out.Channel.Description)

	_, err = client.DeleteChannel(ctx, &pb.DeleteChannelRequest{UserId: "mod", Roles: []models.Role{models.RoleChannelAdmin}, ChannelId: upd.Id})
	assert.Equal(t, codes.PermissionDenied, code(err))
}

func TestHealthService(t *testing.T) {
	_, _, _, conn := newTestService(t)
	res, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: pb.PostServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, res.Status)
}

func TestToStatus(t *testing.T) {
	assert.Equal(t, codes.NotFound, code(toStatus(postRepo.ErrNotFound, "")))
	assert.Equal(t, codes.PermissionDenied, code(toStatus(postRepo.ErrForbidden, "")))
	assert.Equal(t, codes.InvalidArgument, code(toStatus(postRepo.ErrInvalidParent, "")))
	assert.Equal(t, codes.AlreadyExists, code(toStatus(postRepo.ErrConflict, "")))
	assert.Equal(t, codes.DeadlineExceeded, code(toStatus(context.DeadlineExceeded, "")))
	assert.Equal(t, codes.Internal, code(toStatus(assert.AnError, "boom")))
}
