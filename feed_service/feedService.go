package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	etcd "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
	"github.com/roweshkalloe/qualogy-ai-connect/feed"
	cachedrepo "github.com/roweshkalloe/qualogy-ai-connect/feed_service/cachedRepo"
	svc "github.com/roweshkalloe/qualogy-ai-connect/feed_service/models"
	"github.com/roweshkalloe/qualogy-ai-connect/models"
	"github.com/roweshkalloe/qualogy-ai-connect/registry"
)

const degradedNotice = "Some posts could not be loaded right now."

type postSource interface {
	feed.Source
	JoinedChannels(ctx context.Context, userId string) ([]string, error)
}

type authorSource interface {
	GetUsersData(ctx context.Context, ids []string) (map[string]models.Author, error)
}

// trackedSource remembers whether any read failed, the composer itself only
// logs and degrades to empty lists.
type trackedSource struct {
	feed.Source
	failed *atomic.Bool
}

func (t trackedSource) ListPostsByWindow(ctx context.Context, viewerId string, start, end time.Time) ([]models.Post, error) {
	posts, err := t.Source.ListPostsByWindow(ctx, viewerId, start, end)
	if err != nil {
		t.failed.Store(true)
	}
	return posts, err
}

func (t trackedSource) ListPostsByChannels(ctx context.Context, viewerId string, channelIds []string) ([]models.Post, error) {
	posts, err := t.Source.ListPostsByChannels(ctx, viewerId, channelIds)
	if err != nil {
		t.failed.Store(true)
	}
	return posts, err
}

type FeedService struct {
	ctx          context.Context
	cancel       context.CancelFunc
	config       svc.ServerConfig
	cache        cachedrepo.Cache
	posts        postSource
	users        authorSource
	composerOpts []feed.Option
	health       *health.Server
	httpServer   *http.Server
	grpcServer   *grpc.Server
	serviceOFF   atomic.Bool
	etcdClient   *etcd.Client
	registration *registry.Registration
	closers      []func() error
}

func NewFeedService(config svc.ServerConfig, cache cachedrepo.Cache, posts postSource, users authorSource, opts ...feed.Option) *FeedService {
	ctx, cancel := context.WithCancel(context.Background())
	if config.CallTimeout <= 0 {
		config.CallTimeout = 5 * time.Second
	}
	if config.TrendingWindow > 0 {
		opts = append([]feed.Option{feed.WithWindow(config.TrendingWindow)}, opts...)
	}
	return &FeedService{
		ctx:          ctx,
		cancel:       cancel,
		config:       config,
		cache:        cache,
		posts:        posts,
		users:        users,
		composerOpts: opts,
		health:       health.NewServer(),
	}
}

func (fs *FeedService) register(s *grpc.Server) {
	pb.RegisterFeedServiceServer(s, fs)
	healthpb.RegisterHealthServer(s, fs.health)
	fs.health.SetServingStatus(pb.FeedServiceName, healthpb.HealthCheckResponse_SERVING)
}

func (fs *FeedService) Start() error {
	log.Printf("Starting gRPC server on %s:%s", fs.config.ServerHost, fs.config.ServerPort)
	listener, err := net.Listen("tcp", net.JoinHostPort(fs.config.ServerHost, fs.config.ServerPort))
	if err != nil {
		return err
	}
	fs.grpcServer = grpc.NewServer()
	fs.register(fs.grpcServer)

	if fs.config.EtcdEndpoints != "" {
		fs.etcdClient, err = registry.NewClient(fs.config.EtcdEndpoints)
		if err != nil {
			return err
		}
		fs.registration, err = registry.Register(fs.ctx, fs.etcdClient, "feed_service",
			net.JoinHostPort(fs.config.HostName, fs.config.ServerPort))
		if err != nil {
			return err
		}
	}
	return fs.grpcServer.Serve(listener)
}

// GetHome composes the trending and for you lists. Failing backends never
// fail the call, the lists come back empty with a notice instead.
func (fs *FeedService) GetHome(ctx context.Context, req *pb.GetHomeRequest) (*pb.HomeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, fs.config.CallTimeout)
	defer cancel()

	var failed atomic.Bool
	composer := feed.NewComposer(trackedSource{Source: fs.posts, failed: &failed}, fs.composerOpts...)

	trendingLimit := int(req.TrendingLimit)
	if trendingLimit <= 0 {
		trendingLimit = feed.DefaultTrendingLimit
	}
	trending, hit := fs.cache.GetTrending(ctx, req.UserId, trendingLimit)
	if !hit {
		trending = composer.Trending(ctx, req.UserId, trendingLimit)
		fs.attachAuthors(ctx, trending)
		if !failed.Load() {
			if err := fs.cache.SetTrending(ctx, req.UserId, trendingLimit, trending); err != nil {
				log.Println("Error in caching trending: ", err.Error())
			}
		}
	}

	var joined []string
	joinedFailed := false
	if req.UserId != "" {
		var err error
		joined, err = fs.posts.JoinedChannels(ctx, req.UserId)
		if err != nil {
			log.Printf("Error in Loading joined channels of user{%v}: %v", req.UserId, err.Error())
			joinedFailed = true
		}
	}
	forYou := feed.FilterChannel(composer.ForYou(ctx, req.UserId, joined, int(req.ForYouLimit)), req.ChannelId)
	fs.attachAuthors(ctx, forYou)

	res := &pb.HomeResponse{
		Trending:        trending,
		ForYou:          forYou,
		ExploreChannels: !joinedFailed && len(joined) == 0,
	}
	if failed.Load() || joinedFailed {
		res.Notice = degradedNotice
	}
	return res, nil
}

// attachAuthors fills post authors in place. Missing user data leaves the
// author empty, it never drops posts.
func (fs *FeedService) attachAuthors(ctx context.Context, posts []models.Post) {
	if fs.users == nil || len(posts) == 0 {
		return
	}
	ids := make([]string, 0, len(posts))
	seen := make(map[string]bool, len(posts))
	for _, p := range posts {
		if !seen[p.UserId] {
			seen[p.UserId] = true
			ids = append(ids, p.UserId)
		}
	}
	users, err := fs.users.GetUsersData(ctx, ids)
	if err != nil {
		log.Println("Failed To get Users Metadata. Error in Users Service connection or internals", err.Error())
		return
	}
	for i := range posts {
		if a, ok := users[posts[i].UserId]; ok {
			posts[i].Author = &a
		}
	}
}

func (fs *FeedService) StartHealthServer() error {
	router := http.NewServeMux()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if fs.serviceOFF.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "down", "service": "feed_service"}`))
			return
		}
		w.Write([]byte(`{"status": "ok", "service": "feed_service"}`))
	})
	fs.httpServer = &http.Server{
		Addr:    net.JoinHostPort(fs.config.ServerHost, fs.config.ServerHTTPPort),
		Handler: router,
	}
	log.Printf("FeedServer HTTP starting on %s:%s\n", fs.config.ServerHost, fs.config.ServerHTTPPort)
	return fs.httpServer.ListenAndServe()
}

func (fs *FeedService) close() {
	fs.serviceOFF.Store(true)
	fs.health.Shutdown()
	if fs.registration != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := fs.registration.Close(ctx); err != nil {
			log.Println("Error in Deregister FeedService: ", err.Error())
		}
		cancel()
	}
	fs.cancel()
	if fs.etcdClient != nil {
		fs.etcdClient.Close()
	}

	// wait until state reflected in api_gateway
	time.Sleep(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if fs.httpServer != nil {
		if err := fs.httpServer.Shutdown(ctx); err != nil {
			log.Println("Error in Closing httpServer: ", err.Error())
		}
	}
	if fs.grpcServer != nil {
		fs.grpcServer.GracefulStop()
	}
	for _, c := range fs.closers {
		if err := c(); err != nil {
			log.Println("Error in Closing connection: ", err.Error())
		}
	}
	if err := fs.cache.Close(); err != nil {
		log.Println("Error in Closing cache: ", err.Error())
	}
}
