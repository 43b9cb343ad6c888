package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/roweshkalloe/qualogy-ai-connect/api_gateway/models"
)

type Server struct {
	config     *models.AppConfig
	router     *http.ServeMux
	handler    *Handler
	httpServer *http.Server
	serviceOFF atomic.Bool
}

type route struct {
	pattern string
	handler http.HandlerFunc
	// used when config.yaml has no route_options entry for the pattern
	defaults models.RouteOption
}

var (
	public   = models.RouteOption{RateLimitEnabled: true}
	user     = models.RouteOption{RequireAuth: true, RateLimitEnabled: true}
	admin    = models.RouteOption{RequireAuth: true, RequireRole: "admin", RateLimitEnabled: true}
	openRead = models.RouteOption{}
)

func NewServer(handler *Handler, config *models.AppConfig) *Server {
	server := &Server{
		router:  http.NewServeMux(),
		handler: handler,
		config:  config,
	}
	server.addRoutes()
	return server
}

func (s *Server) routes() []route {
	h := s.handler
	return []route{
		{"POST /api/v1/auth/register", h.register, public},
		{"POST /api/v1/auth/login", h.login, public},
		{"POST /api/v1/auth/logout", h.logout, user},

		{"GET /api/v1/me", h.me, user},
		{"PUT /api/v1/me", h.updateMe, user},
		{"GET /api/v1/me/favorites", h.favorites, user},
		{"GET /api/v1/users/{userId}/posts", h.userPosts, openRead},
		{"GET /api/v1/users/{userId}/stats", h.userStats, openRead},
		{"POST /api/v1/admin/users/{userId}/roles", h.grantRole, admin},

		{"GET /api/v1/feed", h.home, openRead},
		{"POST /api/v1/posts", h.createPost, user},
		{"GET /api/v1/posts/{postId}", h.getPost, openRead},
		{"DELETE /api/v1/posts/{postId}", h.deletePost, user},

		{"GET /api/v1/posts/{postId}/comments", h.comments, openRead},
		{"POST /api/v1/posts/{postId}/comments", h.createComment, user},
		{"DELETE /api/v1/comments/{commentId}", h.deleteComment, user},

		{"PUT /api/v1/posts/{postId}/like", h.marker(like), user},
		{"DELETE /api/v1/posts/{postId}/like", h.marker(unlike), user},
		{"PUT /api/v1/posts/{postId}/favorite", h.marker(favorite), user},
		{"DELETE /api/v1/posts/{postId}/favorite", h.marker(unfavorite), user},

		{"GET /api/v1/channels", h.channels, openRead},
		{"GET /api/v1/channels/{slug}", h.channel, openRead},
		{"POST /api/v1/channels", h.saveChannel(true), admin},
		{"PUT /api/v1/channels/{channelId}", h.saveChannel(false), user},
		{"DELETE /api/v1/channels/{channelId}", h.deleteChannel, admin},
		{"PUT /api/v1/channels/{channelId}/membership", h.membership(true), user},
		{"DELETE /api/v1/channels/{channelId}/membership", h.membership(false), user},

		{"GET /api/v1/notifications", h.listNotifications, user},
		{"POST /api/v1/notifications/read", h.markRead(true), user},
		{"POST /api/v1/notifications/{notificationId}/read", h.markRead(false), user},
	}
}

// addRoutes registers every route with its options from config.yaml.
func (s *Server) addRoutes() {
	for _, rt := range s.routes() {
		opt := rt.defaults
		if o, ok := s.config.RouteOptions[rt.pattern]; ok && o != nil {
			opt = *o
		}
		s.router.HandleFunc(rt.pattern, s.handler.guard(opt, rt.handler))
		log.Printf("Registered route: %s auth=%v role=%q ratelimit=%v",
			rt.pattern, opt.RequireAuth, opt.RequireRole, opt.RateLimitEnabled)
	}
	s.router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if s.serviceOFF.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "down", "service": "api_gateway"}`))
			return
		}
		w.Write([]byte(`{"status": "ok", "service": "api_gateway"}`))
	})
}

func (s *Server) Handler() http.Handler {
	return loggingMiddleware(corsMiddleware(s.config.CORS, s.router))
}

func (s *Server) start() error {
	s.httpServer = &http.Server{
		Addr:    net.JoinHostPort(s.config.Server.Host, s.config.Server.Port),
		Handler: s.Handler(),
	}
	log.Printf("API Gateway starting on %s:%s", s.config.Server.Host, s.config.Server.Port)
	return s.httpServer.ListenAndServe()
}

func (s *Server) close(ctx context.Context) {
	s.serviceOFF.Store(true)
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Println("Error in Closing httpServer: ", err.Error())
		}
	}
}
