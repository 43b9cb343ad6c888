package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	etcd "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
	svc "github.com/roweshkalloe/qualogy-ai-connect/notification_service/models"
	"github.com/roweshkalloe/qualogy-ai-connect/notification_service/store"
	"github.com/roweshkalloe/qualogy-ai-connect/registry"
)

type NotificationServer struct {
	ctx          context.Context
	cancel       context.CancelFunc
	store        store.Store
	writer       *NotificationWriter
	config       svc.Config
	health       *health.Server
	httpServer   *http.Server
	grpcServer   *grpc.Server
	serviceOFF   atomic.Bool
	etcdClient   *etcd.Client
	registration *registry.Registration
}

func NewNotificationServer(st store.Store, config svc.Config) *NotificationServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationServer{
		ctx:    ctx,
		cancel: cancel,
		store:  st,
		config: config,
		health: health.NewServer(),
	}
}

func (s *NotificationServer) register(g *grpc.Server) {
	pb.RegisterNotificationServiceServer(g, s)
	healthpb.RegisterHealthServer(g, s.health)
	s.health.SetServingStatus(pb.NotificationServiceName, healthpb.HealthCheckResponse_SERVING)
}

func (s *NotificationServer) start() error {
	log.Printf("Starting gRPC server on %s:%s", s.config.ServerHost, s.config.ServerPort)
	listener, err := net.Listen("tcp", net.JoinHostPort(s.config.ServerHost, s.config.ServerPort))
	if err != nil {
		return err
	}
	s.grpcServer = grpc.NewServer()
	s.register(s.grpcServer)

	if s.config.EtcdEndpoints != "" {
		s.etcdClient, err = registry.NewClient(s.config.EtcdEndpoints)
		if err != nil {
			return err
		}
		s.registration, err = registry.Register(s.ctx, s.etcdClient, "notification_service",
			net.JoinHostPort(s.config.HostName, s.config.ServerPort))
		if err != nil {
			return err
		}
	}
	return s.grpcServer.Serve(listener)
}

func storeStatus(err error, msg string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	log.Println(msg, err.Error())
	return status.Error(codes.Internal, msg)
}

func (s *NotificationServer) ListNotifications(ctx context.Context, req *pb.ListNotificationsRequest) (*pb.NotificationsResponse, error) {
	if req.UserId == "" {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}
	list, unread, err := s.store.List(ctx, req.UserId, req.UnreadOnly, int(req.Limit))
	if err != nil {
		return nil, storeStatus(err, "Error in Listing Notifications: ")
	}
	return &pb.NotificationsResponse{Notifications: list, Unread: unread}, nil
}

func (s *NotificationServer) MarkRead(ctx context.Context, req *pb.MarkReadRequest) (*pb.MarkReadResponse, error) {
	if req.UserId == "" || req.NotificationId == "" {
		return nil, status.Error(codes.InvalidArgument, "user id and notification id are required")
	}
	n, err := s.store.MarkRead(ctx, req.UserId, req.NotificationId)
	if err != nil {
		return nil, storeStatus(err, "Error in Marking Notification: ")
	}
	return &pb.MarkReadResponse{Updated: n}, nil
}

func (s *NotificationServer) MarkAllRead(ctx context.Context, req *pb.MarkReadRequest) (*pb.MarkReadResponse, error) {
	if req.UserId == "" {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}
	n, err := s.store.MarkAllRead(ctx, req.UserId)
	if err != nil {
		return nil, storeStatus(err, "Error in Marking Notifications: ")
	}
	return &pb.MarkReadResponse{Updated: n}, nil
}

func (s *NotificationServer) StartHealthServer() error {
	router := http.NewServeMux()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if s.serviceOFF.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "down", "service": "notification_service"}`))
			return
		}
		w.Write([]byte(`{"status": "ok", "service": "notification_service"}`))
	})
	s.httpServer = &http.Server{
		Addr:    net.JoinHostPort(s.config.ServerHost, s.config.ServerHttpPort),
		Handler: router,
	}
	return s.httpServer.ListenAndServe()
}

func (s *NotificationServer) close() {
	s.serviceOFF.Store(true)
	s.health.Shutdown()
	if s.registration != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.registration.Close(ctx); err != nil {
			log.Println("Error in Deregister NotificationService: ", err.Error())
		}
		cancel()
	}
	s.cancel()
	if s.etcdClient != nil {
		s.etcdClient.Close()
	}
	if s.writer != nil {
		if err := s.writer.close(); err != nil {
			log.Println("Error in Closing Kafka Consumer: ", err.Error())
		}
	}
	time.Sleep(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Println("Error in Closing httpServer: ", err.Error())
		}
	}
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
	s.store.Close()
}
