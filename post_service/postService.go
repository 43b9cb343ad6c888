package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	etcd "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
	"github.com/roweshkalloe/qualogy-ai-connect/models"
	"github.com/roweshkalloe/qualogy-ai-connect/post_service/cachedRepo"
	svc "github.com/roweshkalloe/qualogy-ai-connect/post_service/models"
	"github.com/roweshkalloe/qualogy-ai-connect/post_service/postRepo"
	"github.com/roweshkalloe/qualogy-ai-connect/registry"
)

type postService struct {
	pb.UnimplementedPostServiceServer
	ctx           context.Context
	cancel        context.CancelFunc
	presistanceDB postRepo.PersistenceDB
	cache         cachedRepo.CachedRepo
	config        svc.Config
	httpServer    *http.Server
	grpcServer    *grpc.Server
	health        *health.Server
	serviceOFF    atomic.Bool
	etcdClient    *etcd.Client
	registration  *registry.Registration
	relay         *outboxRelay
}

func NewPostService(presistance postRepo.PersistenceDB, cache cachedRepo.CachedRepo, config svc.Config) *postService {
	ctx, cancel := context.WithCancel(context.Background())
	return &postService{
		ctx:           ctx,
		cancel:        cancel,
		presistanceDB: presistance,
		cache:         cache,
		config:        config,
		health:        health.NewServer(),
	}
}

func (ps *postService) register(s *grpc.Server) {
	pb.RegisterPostServiceServer(s, ps)
	healthpb.RegisterHealthServer(s, ps.health)
	ps.health.SetServingStatus(pb.PostServiceName, healthpb.HealthCheckResponse_SERVING)
}

func (ps *postService) start() error {
	log.Printf("Starting gRPC server on %s:%s", ps.config.ServerHost, ps.config.ServerPort)
	listener, err := net.Listen("tcp", net.JoinHostPort(ps.config.ServerHost, ps.config.ServerPort))
	if err != nil {
		return err
	}
	grpcserver := grpc.NewServer()
	ps.grpcServer = grpcserver
	ps.register(grpcserver)

	if ps.config.EtcdEndpoints != "" {
		etcdClient, err := registry.NewClient(ps.config.EtcdEndpoints)
		if err != nil {
			log.Printf("Error in Register instance of PostService: %v", err)
			return err
		}
		ps.etcdClient = etcdClient
		ps.registration, err = registry.Register(ps.ctx, etcdClient, "post_service",
			net.JoinHostPort(ps.config.HostName, ps.config.ServerPort))
		if err != nil {
			return err
		}
	}
	return grpcserver.Serve(listener)
}

// toStatus turns repository errors into the codes the gateway maps to HTTP.
func toStatus(err error, msg string) error {
	switch {
	case errors.Is(err, postRepo.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, postRepo.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, postRepo.ErrInvalidParent):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, postRepo.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, msg)
}

func required(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

func (ps *postService) CreatePost(ctx context.Context, req *pb.CreatePostRequest) (*pb.PostResponse, error) {
	post := models.Post{
		UserId:    req.UserId,
		ChannelId: req.ChannelId,
		Title:     strings.TrimSpace(req.Title),
		Content:   strings.TrimSpace(req.Content),
		ImageUrl:  strings.TrimSpace(req.ImageUrl),
		Tags:      normalizeTags(req.Tags),
	}
	if err := validatePost(post); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	post, err := ps.presistanceDB.CreatePost(ctx, post)
	if err != nil {
		log.Printf("Failed to create post for user{%v}: {%v}\n", req.UserId, err.Error())
		return nil, toStatus(err, "Post Can`t be Created Due to internal Issues")
	}
	if err := ps.cache.CachePost(ctx, post); err != nil {
		log.Printf("Failed to cache post{%v} for user{%v}\n : {%v}", post.Id, post.UserId, err.Error())
	}
	return &pb.PostResponse{Post: post}, nil
}

func (ps *postService) GetPost(ctx context.Context, req *pb.GetPostRequest) (*pb.PostResponse, error) {
	if !required(req.PostId) {
		return nil, status.Error(codes.InvalidArgument, "post id is required")
	}
	post, err := ps.cache.GetPost(ctx, req.PostId, req.ViewerId)
	if err != nil {
		log.Printf("Error in GetPost{%v}: %v", req.PostId, err.Error())
		return nil, toStatus(err, "Failed to Get Post Due to Internal Issues")
	}
	return &pb.PostResponse{Post: post}, nil
}

func (ps *postService) DeletePost(ctx context.Context, req *pb.DeletePostRequest) (*pb.Response, error) {
	id := req.PostId
	if err := ps.presistanceDB.DeletePost(ctx, id, req.UserId); err != nil {
		log.Printf("Failed to delete post{%v}: %v\n", id, err.Error())
		return nil, toStatus(err, "Failed to Delete Post Due to Internal Issues")
	}
	if err := ps.cache.DeletePost(ctx, id); err != nil {
		// readers may still see the post until its cache entry expires
		log.Printf("Failed to Delete post {%v} from the cache: {%v}\n", id, err.Error())
	}
	return &pb.Response{Message: "Post Deleted Successfully"}, nil
}

func (ps *postService) ListPostsByWindow(ctx context.Context, req *pb.WindowRequest) (*pb.PostsResponse, error) {
	if req.End.Before(req.Start) {
		return nil, status.Error(codes.InvalidArgument, "window end is before its start")
	}
	posts, err := ps.presistanceDB.ListPostsByWindow(ctx, req.ViewerId, req.Start, req.End)
	if err != nil {
		return nil, toStatus(err, "Failed to List Posts Due to Internal Issues")
	}
	return &pb.PostsResponse{Posts: posts}, nil
}

func (ps *postService) ListPostsByChannels(ctx context.Context, req *pb.ChannelPostsRequest) (*pb.PostsResponse, error) {
	if len(req.ChannelIds) == 0 {
		return &pb.PostsResponse{Posts: []models.Post{}}, nil
	}
	posts, err := ps.presistanceDB.ListPostsByChannels(ctx, req.ViewerId, req.ChannelIds)
	if err != nil {
		return nil, toStatus(err, "Failed to List Posts Due to Internal Issues")
	}
	return &pb.PostsResponse{Posts: posts}, nil
}

func (ps *postService) ListPostsByUser(ctx context.Context, req *pb.UserPostsRequest) (*pb.PostsResponse, error) {
	posts, err := ps.presistanceDB.ListPostsByUser(ctx, req.UserId, req.ViewerId)
	if err != nil {
		return nil, toStatus(err, "Failed to List Posts Due to Internal Issues")
	}
	return &pb.PostsResponse{Posts: posts}, nil
}

func (ps *postService) ListFavoritePosts(ctx context.Context, req *pb.UserPostsRequest) (*pb.PostsResponse, error) {
	posts, err := ps.presistanceDB.ListFavoritePosts(ctx, req.UserId)
	if err != nil {
		return nil, toStatus(err, "Failed to List Favorites Due to Internal Issues")
	}
	return &pb.PostsResponse{Posts: posts}, nil
}

func (ps *postService) GetComments(ctx context.Context, req *pb.GetCommentsRequest) (*pb.CommentsResponse, error) {
	comments, err := ps.presistanceDB.GetComments(ctx, req.PostId)
	if err != nil {
		log.Printf("Error in GetComments of post{%v}: %v", req.PostId, err.Error())
		return nil, toStatus(err, "Failed to Get Comments Due to Internal Issues")
	}
	return &pb.CommentsResponse{Comments: comments}, nil
}

func (ps *postService) CreateComment(ctx context.Context, req *pb.CreateCommentRequest) (*pb.CommentResponse, error) {
	comment := models.Comment{
		PostId:   req.PostId,
		UserId:   req.UserId,
		Content:  strings.TrimSpace(req.Content),
		ParentId: req.ParentId,
	}
	if !required(comment.PostId, comment.UserId) {
		return nil, status.Error(codes.InvalidArgument, "post id and user id are required")
	}
	if comment.Content == "" {
		return nil, status.Error(codes.InvalidArgument, "comment body is empty")
	}
	comment, err := ps.presistanceDB.CreateComment(ctx, comment)
	if err != nil {
		log.Printf("Failed to create comment on post{%v} by user{%v}: %v", req.PostId, req.UserId, err.Error())
		return nil, toStatus(err, "Failed to create comment Due to internal Issues")
	}
	ps.cache.UpdateCommentsCounter(ctx, comment.PostId, 1)
	return &pb.CommentResponse{Comment: comment}, nil
}

func (ps *postService) DeleteComment(ctx context.Context, req *pb.DeleteCommentRequest) (*pb.DeleteCommentResponse, error) {
	id := req.CommentId
	postId, removed, err := ps.presistanceDB.DeleteComment(ctx, id, req.UserId)
	if err != nil {
		log.Printf("Failed to delete Comment{%v}: %v\n", id, err.Error())
		return nil, toStatus(err, "Failed to Delete Comment Due to Internal Issues")
	}
	ps.cache.UpdateCommentsCounter(ctx, postId, -removed)
	return &pb.DeleteCommentResponse{PostId: postId, Removed: removed}, nil
}

func (ps *postService) CreateLike(ctx context.Context, req *pb.MarkerRequest) (*pb.MarkerResponse, error) {
	changed, count, err := ps.presistanceDB.CreateLike(ctx, req.PostId, req.UserId)
	if err != nil {
		log.Printf("Failed to create Like on post{%v} by user{%v} : %v", req.PostId, req.UserId, err.Error())
		return nil, toStatus(err, "Failed to create like Due to internal Issues")
	}
	if changed {
		ps.cache.UpdateLikesCounter(ctx, req.PostId, 1)
	}
	return &pb.MarkerResponse{Changed: changed, Count: count}, nil
}

func (ps *postService) DeleteLike(ctx context.Context, req *pb.MarkerRequest) (*pb.MarkerResponse, error) {
	changed, count, err := ps.presistanceDB.DeleteLike(ctx, req.PostId, req.UserId)
	if err != nil {
		log.Printf("Failed to delete Like{%v} for user{%v}: %v\n", req.PostId, req.UserId, err.Error())
		return nil, toStatus(err, "Failed to Delete Like Due to Internal Issues")
	}
	if changed {
		ps.cache.UpdateLikesCounter(ctx, req.PostId, -1)
	}
	return &pb.MarkerResponse{Changed: changed, Count: count}, nil
}

func (ps *postService) CreateFavorite(ctx context.Context, req *pb.MarkerRequest) (*pb.MarkerResponse, error) {
	changed, err := ps.presistanceDB.CreateFavorite(ctx, req.PostId, req.UserId)
	if err != nil {
		log.Printf("Failed to create Favorite on post{%v} by user{%v} : %v", req.PostId, req.UserId, err.Error())
		return nil, toStatus(err, "Failed to create favorite Due to internal Issues")
	}
	return &pb.MarkerResponse{Changed: changed}, nil
}

func (ps *postService) DeleteFavorite(ctx context.Context, req *pb.MarkerRequest) (*pb.MarkerResponse, error) {
	changed, err := ps.presistanceDB.DeleteFavorite(ctx, req.PostId, req.UserId)
	if err != nil {
		log.Printf("Failed to delete Favorite{%v} for user{%v}: %v\n", req.PostId, req.UserId, err.Error())
		return nil, toStatus(err, "Failed to Delete Favorite Due to Internal Issues")
	}
	return &pb.MarkerResponse{Changed: changed}, nil
}

func (ps *postService) ListChannels(ctx context.Context, req *pb.ListChannelsRequest) (*pb.ChannelsResponse, error) {
	channels, err := ps.presistanceDB.ListChannels(ctx, req.ViewerId)
	if err != nil {
		return nil, toStatus(err, "Failed to List Channels Due to Internal Issues")
	}
	return &pb.ChannelsResponse{Channels: channels}, nil
}

func (ps *postService) GetChannel(ctx context.Context, req *pb.GetChannelRequest) (*pb.ChannelResponse, error) {
	var ch models.Channel
	var err error
	switch {
	case req.ChannelId != "":
		ch, err = ps.presistanceDB.GetChannel(ctx, req.ChannelId, req.ViewerId)
	case req.Slug != "":
		ch, err = ps.presistanceDB.GetChannelBySlug(ctx, req.Slug, req.ViewerId)
	default:
		return nil, status.Error(codes.InvalidArgument, "channel id or slug is required")
	}
	if err != nil {
		return nil, toStatus(err, "Failed to Get Channel Due to Internal Issues")
	}
	return &pb.ChannelResponse{Channel: ch}, nil
}

func (ps *postService) CreateChannel(ctx context.Context, req *pb.ChannelRequest) (*pb.ChannelResponse, error) {
	if !slices.Contains(req.Roles, models.RoleAdmin) {
		return nil, status.Error(codes.PermissionDenied, "only admins can create channels")
	}
	ch := normalizeChannel(req.Channel)
	if err := validateChannel(ch); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	ch, err := ps.presistanceDB.CreateChannel(ctx, ch, req.UserId)
	if err != nil {
		return nil, toStatus(err, "Failed to Create Channel Due to Internal Issues")
	}
	log.Printf("Channel{%v} created by user{%v}", ch.Slug, req.UserId)
	return &pb.ChannelResponse{Channel: ch}, nil
}

func (ps *postService) UpdateChannel(ctx context.Context, req *pb.ChannelRequest) (*pb.ChannelResponse, error) {
	ch := normalizeChannel(req.Channel)
	if !required(ch.Id) {
		return nil, status.Error(codes.InvalidArgument, "channel id is required")
	}
	if err := ps.canManage(ctx, req.UserId, req.Roles, ch.Id); err != nil {
		return nil, err
	}
	if err := validateChannel(ch); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	ch, err := ps.presistanceDB.UpdateChannel(ctx, ch)
	if err != nil {
		return nil, toStatus(err, "Failed to Update Channel Due to Internal Issues")
	}
	return &pb.ChannelResponse{Channel: ch}, nil
}

func (ps *postService) DeleteChannel(ctx context.Context, req *pb.DeleteChannelRequest) (*pb.Response, error) {
	if !slices.Contains(req.Roles, models.RoleAdmin) {
		return nil, status.Error(codes.PermissionDenied, "only admins can delete channels")
	}
	if err := ps.presistanceDB.DeleteChannel(ctx, req.ChannelId); err != nil {
		return nil, toStatus(err, "Failed to Delete Channel Due to Internal Issues")
	}
	log.Printf("Channel{%v} deleted by user{%v}", req.ChannelId, req.UserId)
	return &pb.Response{Message: "Channel Deleted Successfully"}, nil
}

// canManage allows admins everywhere and channel admins on their own channels.
func (ps *postService) canManage(ctx context.Context, userId string, roles []models.Role, channelId string) error {
	if slices.Contains(roles, models.RoleAdmin) {
		return nil
	}
	if !slices.Contains(roles, models.RoleChannelAdmin) {
		return status.Error(codes.PermissionDenied, "channel admin role required")
	}
	ok, err := ps.presistanceDB.IsChannelAdmin(ctx, channelId, userId)
	if err != nil {
		return toStatus(err, "Failed to Check Channel Admins Due to Internal Issues")
	}
	if !ok {
		return status.Error(codes.PermissionDenied, "user does not administer this channel")
	}
	return nil
}

func (ps *postService) JoinChannel(ctx context.Context, req *pb.MembershipRequest) (*pb.MarkerResponse, error) {
	changed, members, err := ps.presistanceDB.JoinChannel(ctx, req.ChannelId, req.UserId)
	if err != nil {
		return nil, toStatus(err, "Failed to Join Channel Due to Internal Issues")
	}
	return &pb.MarkerResponse{Changed: changed, Count: members}, nil
}

func (ps *postService) LeaveChannel(ctx context.Context, req *pb.MembershipRequest) (*pb.MarkerResponse, error) {
	changed, members, err := ps.presistanceDB.LeaveChannel(ctx, req.ChannelId, req.UserId)
	if err != nil {
		return nil, toStatus(err, "Failed to Leave Channel Due to Internal Issues")
	}
	return &pb.MarkerResponse{Changed: changed, Count: members}, nil
}

func (ps *postService) JoinedChannels(ctx context.Context, req *pb.JoinedChannelsRequest) (*pb.JoinedChannelsResponse, error) {
	ids, err := ps.presistanceDB.JoinedChannelIds(ctx, req.UserId)
	if err != nil {
		return nil, toStatus(err, "Failed to List Joined Channels Due to Internal Issues")
	}
	return &pb.JoinedChannelsResponse{ChannelIds: ids}, nil
}

func (ps *postService) GetUserStats(ctx context.Context, req *pb.UserStatsRequest) (*pb.UserStatsResponse, error) {
	stats, err := ps.presistanceDB.GetUserStats(ctx, req.UserId)
	if err != nil {
		return nil, toStatus(err, "Failed to Get Stats Due to Internal Issues")
	}
	return &pb.UserStatsResponse{Stats: stats}, nil
}

func (ps *postService) StartHealthServer() error {
	router := http.NewServeMux()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ps.serviceOFF.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "down", "service": "post_service"}`))
		} else {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status": "ok", "service": "post_service"}`))
		}
	})

	server := &http.Server{
		Addr:    net.JoinHostPort(ps.config.ServerHost, ps.config.ServerHttpPort),
		Handler: router,
	}
	log.Printf("PostServer HTTP starting on %s:%s\n", ps.config.ServerHost, ps.config.ServerHttpPort)
	ps.httpServer = server
	return server.ListenAndServe()
}

func (ps *postService) close() {
	// mark service as OFF
	ps.serviceOFF.Store(true)
	ps.health.Shutdown()

	if ps.registration != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := ps.registration.Close(ctx); err != nil {
			log.Println("Error in Deregister PostService: ", err.Error())
		}
		cancel()
	}
	ps.cancel()
	if ps.etcdClient != nil {
		ps.etcdClient.Close()
	}

	// wait until state reflected in api_gateway
	time.Sleep(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ps.httpServer != nil {
		if err := ps.httpServer.Shutdown(ctx); err != nil {
			log.Println("Error in Closing httpServer: ", err.Error())
		}
		log.Println("HTTP Server Closed Successfully")
	}

	if ps.grpcServer != nil {
		ps.grpcServer.GracefulStop()
	}
	if ps.relay != nil {
		ps.relay.Close()
	}
	if ps.cache != nil {
		ps.cache.Close()
	}
	if ps.presistanceDB != nil {
		ps.presistanceDB.Close()
	}
}
