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
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/roweshkalloe/qualogy-ai-connect/auth"
	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
	"github.com/roweshkalloe/qualogy-ai-connect/models"
	"github.com/roweshkalloe/qualogy-ai-connect/registry"
)

const maxUsersData = 100

type UserServer struct {
	ctx          context.Context
	cancel       context.CancelFunc
	repo         userStore
	config       Config
	now          func() time.Time
	health       *health.Server
	httpServer   *http.Server
	grpcServer   *grpc.Server
	serviceOFF   atomic.Bool
	etcdClient   *etcd.Client
	registration *registry.Registration
}

func NewUserServer(repo userStore, config Config) *UserServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &UserServer{
		ctx:    ctx,
		cancel: cancel,
		repo:   repo,
		config: config,
		now:    time.Now,
		health: health.NewServer(),
	}
}

func (s *UserServer) register(g *grpc.Server) {
	pb.RegisterUserServiceServer(g, s)
	healthpb.RegisterHealthServer(g, s.health)
	s.health.SetServingStatus(pb.UserServiceName, healthpb.HealthCheckResponse_SERVING)
}

func (s *UserServer) start() error {
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
		s.registration, err = registry.Register(s.ctx, s.etcdClient, "users_service",
			net.JoinHostPort(s.config.HostName, s.config.ServerPort))
		if err != nil {
			return err
		}
	}
	return s.grpcServer.Serve(listener)
}

func toProfile(u User, roles []models.Role) models.User {
	return models.User{
		Id:         u.Id,
		Email:      u.Email,
		FullName:   u.FullName,
		Profession: u.Profession,
		AvatarUrl:  u.AvatarUrl,
		Roles:      roles,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func repoStatus(err error, msg string) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return status.Error(codes.NotFound, "User does not exists")
	case errors.Is(err, ErrUserExists):
		return status.Error(codes.AlreadyExists, "User Already Exists")
	}
	return status.Error(codes.Internal, msg)
}

func (s *UserServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {
	log.Printf("Register called for email: %s", req.Email)
	user := User{
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:   strings.TrimSpace(req.FullName),
		Profession: strings.TrimSpace(req.Profession),
	}
	if err := check(user, req.Password); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, status.Error(codes.Internal, "Failed to Register Due to Internal Issues")
	}
	user.PasswordHash = string(hashed)

	roles := []models.Role{models.RoleUser}
	if slices.Contains(s.config.AdminEmails, user.Email) {
		roles = append(roles, models.RoleAdmin)
	}
	user, err = s.repo.CreateUser(ctx, user, roles)
	if err != nil {
		log.Printf("Failed to create user{%v}: %v", req.Email, err.Error())
		return nil, repoStatus(err, "Failed to Register Due to Internal Issues")
	}
	return &pb.RegisterResponse{
		UserId:  user.Id,
		Message: "User Created Successfully",
	}, nil
}

func (s *UserServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {
	log.Printf("Login called for email: %s", req.Email)
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, status.Error(codes.Unauthenticated, "Invalid Credintionals")
		}
		return nil, repoStatus(err, "Failed to Login Due to Internal Issues")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, status.Error(codes.Unauthenticated, "Invalid Credintionals")
	}
	roles, err := s.repo.GetRoles(ctx, user.Id)
	if err != nil {
		return nil, repoStatus(err, "Failed to Login Due to Internal Issues")
	}

	token, claims, err := auth.Sign(s.config.JWTKey, user.Id, roles, s.now(), s.config.TokenTTL)
	if err != nil {
		log.Println("Error in Signing token: ", err.Error())
		return nil, status.Error(codes.Internal, "Failed to Login Due to Internal Issues")
	}
	return &pb.LoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Unix(),
		User:      toProfile(user, roles),
	}, nil
}

func (s *UserServer) GetProfile(ctx context.Context, req *pb.ProfileRequest) (*pb.ProfileResponse, error) {
	user, err := s.repo.GetUserByID(ctx, req.UserId)
	if err != nil {
		return nil, repoStatus(err, "Failed to Get Profile Due to Internal Issues")
	}
	roles, err := s.repo.GetRoles(ctx, user.Id)
	if err != nil {
		return nil, repoStatus(err, "Failed to Get Profile Due to Internal Issues")
	}
	return &pb.ProfileResponse{User: toProfile(user, roles)}, nil
}

func (s *UserServer) UpdateProfile(ctx context.Context, req *pb.UpdateProfileRequest) (*pb.ProfileResponse, error) {
	user := User{
		Id:         req.UserId,
		FullName:   strings.TrimSpace(req.FullName),
		Profession: strings.TrimSpace(req.Profession),
		AvatarUrl:  strings.TrimSpace(req.AvatarUrl),
	}
	if err := checkProfile(user); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	user, err := s.repo.UpdateProfile(ctx, user)
	if err != nil {
		return nil, repoStatus(err, "Failed to Update Profile Due to Internal Issues")
	}
	roles, err := s.repo.GetRoles(ctx, user.Id)
	if err != nil {
		return nil, repoStatus(err, "Failed to Update Profile Due to Internal Issues")
	}
	return &pb.ProfileResponse{User: toProfile(user, roles)}, nil
}

func (s *UserServer) GetRoles(ctx context.Context, req *pb.ProfileRequest) (*pb.RolesResponse, error) {
	roles, err := s.repo.GetRoles(ctx, req.UserId)
	if err != nil {
		return nil, repoStatus(err, "Failed to Get Roles Due to Internal Issues")
	}
	return &pb.RolesResponse{Roles: roles}, nil
}

// GrantRole trusts its caller, the gateway only routes admins here.
func (s *UserServer) GrantRole(ctx context.Context, req *pb.GrantRoleRequest) (*pb.RolesResponse, error) {
	if !req.Role.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown role %q", req.Role)
	}
	if err := s.repo.AddRole(ctx, req.UserId, req.Role); err != nil {
		return nil, repoStatus(err, "Failed to Grant Role Due to Internal Issues")
	}
	log.Printf("Role %v granted to user{%v}", req.Role, req.UserId)
	return s.GetRoles(ctx, &pb.ProfileRequest{UserId: req.UserId})
}

// GetUsersData returns the public author data of the known ids.
func (s *UserServer) GetUsersData(ctx context.Context, req *pb.UsersDataRequest) (*pb.UsersDataResponse, error) {
	if len(req.UserIds) > maxUsersData {
		return nil, status.Errorf(codes.InvalidArgument, "at most %d users per call", maxUsersData)
	}
	users, err := s.repo.GetUsers(ctx, req.UserIds)
	if err != nil {
		return nil, repoStatus(err, "Failed to Get Users Due to Internal Issues")
	}
	out := make(map[string]models.Author, len(users))
	for _, u := range users {
		out[u.Id] = models.Author{
			Id:         u.Id,
			FullName:   u.FullName,
			Profession: u.Profession,
			AvatarUrl:  u.AvatarUrl,
		}
	}
	return &pb.UsersDataResponse{Users: out}, nil
}

func (s *UserServer) StartHealthServer() error {
	router := http.NewServeMux()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if s.serviceOFF.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "down", "service": "users_service"}`))
			return
		}
		w.Write([]byte(`{"status": "ok", "service": "users_service"}`))
	})
	s.httpServer = &http.Server{
		Addr:    net.JoinHostPort(s.config.ServerHost, s.config.ServerHttpPort),
		Handler: router,
	}
	return s.httpServer.ListenAndServe()
}

func (s *UserServer) close() {
	s.serviceOFF.Store(true)
	s.health.Shutdown()
	if s.registration != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.registration.Close(ctx); err != nil {
			log.Println("Error in Deregister UserService: ", err.Error())
		}
		cancel()
	}
	s.cancel()
	if s.etcdClient != nil {
		s.etcdClient.Close()
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
}
