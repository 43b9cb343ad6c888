package bindings

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
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

type stubPostServer struct {
	UnimplementedPostServiceServer
	lastWindow *WindowRequest
}

func (s *stubPostServer) ListPostsByWindow(ctx context.Context, in *WindowRequest) (*PostsResponse, error) {
	s.lastWindow = in
	return &PostsResponse{Posts: []models.Post{
		{Id: "p1", ChannelId: "c1", Title: "hello", LikesCount: 3, Tags: []string{"go"}},
	}}, nil
}

func (s *stubPostServer) GetPost(ctx context.Context, in *GetPostRequest) (*PostResponse, error) {
	return nil, status.Error(codes.NotFound, "post not found")
}

func dial(t *testing.T, register func(*grpc.Server), opts ...grpc.ServerOption) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(opts...)
	register(srv)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestPostServiceRoundTrip(t *testing.T) {
	stub := &stubPostServer{}
	conn := dial(t, func(s *grpc.Server) { RegisterPostServiceServer(s, stub) })
	client := NewPostServiceClient(conn)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	res, err := client.ListPostsByWindow(context.Background(), &WindowRequest{
		ViewerId: "u1",
		Start:    start,
		End:      start.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, res.Posts, 1)
	assert.Equal(t, "hello", res.Posts[0].Title)
	assert.Equal(t, []string{"go"}, res.Posts[0].Tags)
	assert.Equal(t, "u1", stub.lastWindow.ViewerId)
	assert.True(t, stub.lastWindow.Start.Equal(start))
}

func TestStatusErrorsPassThrough(t *testing.T) {
	conn := dial(t, func(s *grpc.Server) { RegisterPostServiceServer(s, &stubPostServer{}) })
	client := NewPostServiceClient(conn)

	_, err := client.GetPost(context.Background(), &GetPostRequest{PostId: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.CreateLike(context.Background(), &MarkerRequest{PostId: "p1", UserId: "u1"})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

type stubFeedServer struct{}

func (stubFeedServer) GetHome(ctx context.Context, in *GetHomeRequest) (*HomeResponse, error) {
	return &HomeResponse{ExploreChannels: true, Notice: in.UserId}, nil
}

func TestInterceptorSeesFullMethod(t *testing.T) {
	var seen string
	interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod
		return handler(ctx, req)
	}
	conn := dial(t, func(s *grpc.Server) { RegisterFeedServiceServer(s, stubFeedServer{}) }, grpc.UnaryInterceptor(interceptor))

	res, err := NewFeedServiceClient(conn).GetHome(context.Background(), &GetHomeRequest{UserId: "u9"})
	require.NoError(t, err)
	assert.True(t, res.ExploreChannels)
	assert.Equal(t, "u9", res.Notice)
	assert.Equal(t, "/community.FeedService/GetHome", seen)
}

func TestCodecEmptyPayload(t *testing.T) {
	var res Response
	require.NoError(t, jsonCodec{}.Unmarshal(nil, &res))
	assert.Empty(t, res.Message)
	assert.Error(t, jsonCodec{}.Unmarshal([]byte("{"), &res))
}
