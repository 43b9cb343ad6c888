package main

import (
	"context"
	"net"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
	"github.com/roweshkalloe/qualogy-ai-connect/models"
	svc "github.com/roweshkalloe/qualogy-ai-connect/notification_service/models"
	"github.com/roweshkalloe/qualogy-ai-connect/notification_service/store"
)

type memStore struct {
	rows map[string]models.Notification
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]models.Notification{}}
}

func (m *memStore) Insert(_ context.Context, n models.Notification) (bool, error) {
	if _, ok := m.rows[n.Id]; ok {
		return false, nil
	}
	m.rows[n.Id] = n
	return true, nil
}

func (m *memStore) List(_ context.Context, userId string, unreadOnly bool, limit int) ([]models.Notification, int64, error) {
	var out []models.Notification
	var unread int64
	for _, n := range m.rows {
		if n.UserId != userId {
			continue
		}
		if !n.Read {
			unread++
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if l := store.ClampLimit(limit); len(out) > l {
		out = out[:l]
	}
	return out, unread, nil
}

func (m *memStore) MarkRead(_ context.Context, userId, id string) (int64, error) {
	n, ok := m.rows[id]
	if !ok || n.UserId != userId {
		return 0, store.ErrNotFound
	}
	n.Read = true
	m.rows[id] = n
	return 1, nil
}

func (m *memStore) MarkAllRead(_ context.Context, userId string) (int64, error) {
	var count int64
	for id, n := range m.rows {
		if n.UserId == userId && !n.Read {
			n.Read = true
			m.rows[id] = n
			count++
		}
	}
	return count, nil
}

func (m *memStore) Close() {}

func newTestServer(t *testing.T, st store.Store) pb.NotificationServiceClient {
	t.Helper()
	srv := NewNotificationServer(st, svc.Config{})
	lis := bufconn.Listen(1 << 20)
	g := grpc.NewServer()
	srv.register(g)
	go g.Serve(lis)
	t.Cleanup(g.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return pb.NewNotificationServiceClient(conn)
}

func reply() models.Event {
	return models.Event{
		Topic:          models.TopicCommentCreated,
		PostId:         "p1",
		PostAuthorId:   "alice",
		CommentId:      "c2",
		ParentId:       "c1",
		ParentAuthorId: "bob",
		ActorId:        "carol",
		Content:        "agreed",
		CreatedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).UnixMilli(),
	}
}

func TestNotificationsForReply(t *testing.T) {
	got := notificationsFor(reply())
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[0].UserId)
	assert.Equal(t, models.NotifyReply, got[0].Type)
	assert.Equal(t, "alice", got[1].UserId)
	assert.Equal(t, models.NotifyComment, got[1].Type)
	assert.NotEqual(t, got[0].Id, got[1].Id)

	again := notificationsFor(reply())
	assert.Equal(t, got[0].Id, again[0].Id)
}

func TestNotificationsForSkipsSelfAndDuplicates(t *testing.T) {
	evt := reply()
	evt.ParentAuthorId = "alice"
	got := notificationsFor(evt)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotifyReply, got[0].Type)

	evt = reply()
	evt.ActorId = "alice"
	evt.ParentAuthorId = "alice"
	assert.Empty(t, notificationsFor(evt))

	like := models.Event{Topic: models.TopicLikeCreated, PostId: "p1", PostAuthorId: "alice", ActorId: "bob"}
	got = notificationsFor(like)
	require.Len(t, got, 1)
	assert.Equal(t, models.NotifyLike, got[0].Type)

	like.ActorId = "alice"
	assert.Empty(t, notificationsFor(like))

	assert.Empty(t, notificationsFor(models.Event{Topic: models.TopicPostCreated, PostAuthorId: "alice", ActorId: "alice"}))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short"))
	long := strings.Repeat("é", 100)
	got := []rune(snippet(long))
	assert.Len(t, got, snippetLen)
	assert.Equal(t, '…', got[len(got)-1])
}

func TestProcessMessageIsIdempotent(t *testing.T) {
	st := newMemStore()
	data, err := reply().Marshal()
	require.NoError(t, err)

	require.NoError(t, ProcessMessage(context.Background(), st, data))
	require.NoError(t, ProcessMessage(context.Background(), st, data))
	assert.Len(t, st.rows, 2)

	unknown, err := models.Event{Topic: "posts.archived"}.Marshal()
	require.NoError(t, err)
	assert.NoError(t, ProcessMessage(context.Background(), st, unknown))

	assert.Error(t, ProcessMessage(context.Background(), st, []byte{0xff, 0xff}))
}

func TestListAndMarkRead(t *testing.T) {
	st := newMemStore()
	data, err := reply().Marshal()
	require.NoError(t, err)
	require.NoError(t, ProcessMessage(context.Background(), st, data))
	client := newTestServer(t, st)
	ctx := context.Background()

	list, err := client.ListNotifications(ctx, &pb.ListNotificationsRequest{UserId: "bob"})
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, int64(1), list.Unread)
	id := list.Notifications[0].Id

	_, err = client.MarkRead(ctx, &pb.MarkReadRequest{UserId: "alice", NotificationId: id})
	assert.Equal(t, codes.NotFound, status.Code(err))

	res, err := client.MarkRead(ctx, &pb.MarkReadRequest{UserId: "bob", NotificationId: id})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Updated)

	list, err = client.ListNotifications(ctx, &pb.ListNotificationsRequest{UserId: "bob", UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, list.Notifications)
	assert.Zero(t, list.Unread)

	res, err = client.MarkAllRead(ctx, &pb.MarkReadRequest{UserId: "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Updated)

	_, err = client.ListNotifications(ctx, &pb.ListNotificationsRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, store.DefaultLimit, store.ClampLimit(0))
	assert.Equal(t, 5, store.ClampLimit(5))
	assert.Equal(t, store.MaxLimit, store.ClampLimit(1000))
}
