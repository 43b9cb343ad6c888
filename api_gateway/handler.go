package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/roweshkalloe/qualogy-ai-connect/api_gateway/models"
	"github.com/roweshkalloe/qualogy-ai-connect/auth"
	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
	"github.com/roweshkalloe/qualogy-ai-connect/commentTree"
	svcmodels "github.com/roweshkalloe/qualogy-ai-connect/models"
)

const (
	postService         = "post_service"
	feedService         = "feed_service"
	usersService        = "users_service"
	notificationService = "notification_service"

	degradedNotice = "Some content could not be loaded right now."
)

type Handler struct {
	conns    connSource
	limiter  limiter
	revoker  revoker
	settings settings
}

func NewHandler(conns connSource, lim limiter, rev revoker, s settings) *Handler {
	return &Handler{conns: conns, limiter: lim, revoker: rev, settings: s}
}

// guard applies the per route options before next runs: body limit, rate
// limiting per ip and per user, authentication and the role check. Routes
// without require_auth still pick up the caller when a token is sent.
func (h *Handler) guard(opt models.RouteOption, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, h.settings.maxBody)
		}
		if opt.RateLimitEnabled && h.limiter != nil {
			if ok, _ := h.limiter.AllowIP(r.Context(), clientIP(r)); !ok {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		p, err := authenticate(r.Context(), h.settings.publicKey, h.revoker, r)
		switch {
		case err == nil:
			r = r.WithContext(context.WithValue(r.Context(), principalKey, p))
		case errors.Is(err, errNoToken) && !opt.RequireAuth:
		case errors.Is(err, auth.ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "token expired")
			return
		default:
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}

		if opt.RequireRole != "" && (p == nil || !p.claims.HasRole(svcmodels.Role(opt.RequireRole))) {
			writeError(w, http.StatusForbidden, "missing role "+opt.RequireRole)
			return
		}
		if opt.RateLimitEnabled && h.limiter != nil && p != nil {
			if ok, _ := h.limiter.AllowUser(r.Context(), p.id()); !ok {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next(w, r)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("Error in Encoding response: ", err.Error())
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// httpStatus maps a service error to the status the caller sees.
func httpStatus(err error) int {
	switch status.Code(err) {
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.Unavailable, codes.DeadlineExceeded:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func fail(w http.ResponseWriter, err error) {
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		log.Println("Error in service call: ", err.Error())
	}
	msg := status.Convert(err).Message()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, code, msg)
}

// degraded reports whether a list endpoint should answer with an empty list
// and a notice instead of an error.
func degraded(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		log.Println("Serving empty list: ", err.Error())
		return true
	}
	return false
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) int32 {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return int32(n)
}

func (h *Handler) call(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.settings.callTimeout)
}

func (h *Handler) posts() (pb.PostServiceClient, error) {
	conn, err := h.conns.ServiceConn(postService)
	if err != nil {
		return nil, err
	}
	return pb.NewPostServiceClient(conn), nil
}

func (h *Handler) feed() (pb.FeedServiceClient, error) {
	conn, err := h.conns.ServiceConn(feedService)
	if err != nil {
		return nil, err
	}
	return pb.NewFeedServiceClient(conn), nil
}

func (h *Handler) users() (pb.UserServiceClient, error) {
	conn, err := h.conns.ServiceConn(usersService)
	if err != nil {
		return nil, err
	}
	return pb.NewUserServiceClient(conn), nil
}

func (h *Handler) notifications() (pb.NotificationServiceClient, error) {
	conn, err := h.conns.ServiceConn(notificationService)
	if err != nil {
		return nil, err
	}
	return pb.NewNotificationServiceClient(conn), nil
}

// --- accounts ---

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req pb.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	users, err := h.users()
	if err != nil {
		fail(w, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := users.Register(ctx, &req)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req pb.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	users, err := h.users()
	if err != nil {
		fail(w, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := users.Login(ctx, &req)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	if h.revoker != nil && p != nil {
		if err := h.revoker.Revoke(r.Context(), p.claims.ID, p.claims.ExpiresAt.Time); err != nil {
			log.Println("Error in revoking token: ", err.Error())
			writeError(w, http.StatusServiceUnavailable, "logout failed, try again")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	users, err := h.users()
	if err != nil {
		fail(w, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := users.GetProfile(ctx, &pb.ProfileRequest{UserId: principalFrom(r.Context()).id()})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	var req pb.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	req.UserId = principalFrom(r.Context()).id()
	users, err := h.users()
	if err != nil {
		fail(w, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := users.UpdateProfile(ctx, &req)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) grantRole(w http.ResponseWriter, r *http.Request) {
	var req pb.GrantRoleRequest
	if !decode(w, r, &req) {
		return
	}
	req.UserId = r.PathValue("userId")
	users, err := h.users()
	if err != nil {
		fail(w, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := users.GrantRole(ctx, &req)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) userStats(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts()
	if err != nil {
		fail(w, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := posts.GetUserStats(ctx, &pb.UserStatsRequest{UserId: r.PathValue("userId")})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- posts and feed ---

type postsBody struct {
	Posts  []svcmodels.Post `json:"posts"`
	Notice string           `json:"notice,omitempty"`
}

func (h *Handler) writePosts(w http.ResponseWriter, res *pb.PostsResponse, err error) {
	if err != nil {
		if degraded(err) {
			writeJSON(w, http.StatusOK, postsBody{Posts: []svcmodels.Post{}, Notice: degradedNotice})
			return
		}
		fail(w, err)
		return
	}
	if res.Posts == nil {
		res.Posts = []svcmodels.Post{}
	}
	writeJSON(w, http.StatusOK, postsBody{Posts: res.Posts})
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	empty := &pb.HomeResponse{Trending: []svcmodels.Post{}, ForYou: []svcmodels.Post{}, Notice: degradedNotice}
	feed, err := h.feed()
	if err != nil {
		log.Println("Serving empty list: ", err.Error())
		writeJSON(w, http.StatusOK, empty)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := feed.GetHome(ctx, &pb.GetHomeRequest{
		UserId:        principalFrom(r.Context()).id(),
		TrendingLimit: queryInt(r, "trending_limit"),
		ForYouLimit:   queryInt(r, "for_you_limit"),
		ChannelId:     r.URL.Query().Get("channel"),
	})
	if err != nil {
		if degraded(err) {
			writeJSON(w, http.StatusOK, empty)
			return
		}
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) userPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts()
	if err != nil {
		h.writePosts(w, nil, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := posts.ListPostsByUser(ctx, &pb.UserPostsRequest{
		UserId:   r.PathValue("userId"),
		ViewerId: principalFrom(r.Context()).id(),
	})
	h.writePosts(w, res, err)
}

func (h *Handler) favorites(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts()
	if err != nil {
		h.writePosts(w, nil, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	id := principalFrom(r.Context()).id()
	res, err := posts.ListFavoritePosts(ctx, &pb.UserPostsRequest{UserId: id, ViewerId: id})
	h.writePosts(w, res, err)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req pb.CreatePostRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}
	req.UserId = principalFrom(r.Context()).id()
	posts, err := h.posts()
	if err != nil {
		fail(w, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := posts.CreatePost(ctx, &req)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts()
	if err != nil {
		fail(w, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := posts.GetPost(ctx, &pb.GetPostRequest{
		PostId:   r.PathValue("postId"),
		ViewerId: principalFrom(r.Context()).id(),
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts()
	if err != nil {
		fail(w, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	_, err = posts.DeletePost(ctx, &pb.DeletePostRequest{
		PostId: r.PathValue("postId"),
		UserId: principalFrom(r.Context()).id(),
	})
	if err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- comments ---

type commentsBody struct {
	Comments []*commentTree.Node `json:"comments"`
	Count    int                 `json:"count"`
	Nesting  commentTree.Policy  `json:"nesting"`
	Notice   string              `json:"notice,omitempty"`
}

func (h *Handler) comments(w http.ResponseWriter, r *http.Request) {
	empty := commentsBody{Comments: []*commentTree.Node{}, Nesting: h.settings.nesting, Notice: degradedNotice}
	posts, err := h.posts()
	if err != nil {
		log.Println("Serving empty list: ", err.Error())
		writeJSON(w, http.StatusOK, empty)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := posts.GetComments(ctx, &pb.GetCommentsRequest{PostId: r.PathValue("postId")})
	if err != nil {
		if degraded(err) {
			writeJSON(w, http.StatusOK, empty)
			return
		}
		fail(w, err)
		return
	}
	tree := commentTree.Build(res.Comments, h.settings.nesting)
	writeJSON(w, http.StatusOK, commentsBody{Comments: tree.Roots, Count: tree.Count, Nesting: tree.Policy})
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	var req pb.CreateCommentRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "comment cannot be empty")
		return
	}
	req.PostId = r.PathValue("postId")
	req.UserId = principalFrom(r.Context()).id()
	posts, err := h.posts()
	if err != nil {
		fail(w, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := posts.CreateComment(ctx, &req)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts()
	if err != nil {
		fail(w, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := posts.DeleteComment(ctx, &pb.DeleteCommentRequest{
		CommentId: r.PathValue("commentId"),
		UserId:    principalFrom(r.Context()).id(),
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- likes and favorites ---

type markerCall func(pb.PostServiceClient, context.Context, *pb.MarkerRequest) (*pb.MarkerResponse, error)

func (h *Handler) marker(call markerCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := h.posts()
		if err != nil {
			fail(w, err)
			return
		}
		ctx, cancel := h.call(r)
		defer cancel()
		res, err := call(posts, ctx, &pb.MarkerRequest{
			PostId: r.PathValue("postId"),
			UserId: principalFrom(r.Context()).id(),
		})
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func like(c pb.PostServiceClient, ctx context.Context, req *pb.MarkerRequest) (*pb.MarkerResponse, error) {
	return c.CreateLike(ctx, req)
}

func unlike(c pb.PostServiceClient, ctx context.Context, req *pb.MarkerRequest) (*pb.MarkerResponse, error) {
	return c.DeleteLike(ctx, req)
}

func favorite(c pb.PostServiceClient, ctx context.Context, req *pb.MarkerRequest) (*pb.MarkerResponse, error) {
	return c.CreateFavorite(ctx, req)
}

func unfavorite(c pb.PostServiceClient, ctx context.Context, req *pb.MarkerRequest) (*pb.MarkerResponse, error) {
	return c.DeleteFavorite(ctx, req)
}

// --- channels ---

type channelsBody struct {
	Channels []svcmodels.Channel `json:"channels"`
	Notice   string              `json:"notice,omitempty"`
}

func (h *Handler) channels(w http.ResponseWriter, r *http.Request) {
	empty := channelsBody{Channels: []svcmodels.Channel{}, Notice: degradedNotice}
	posts, err := h.posts()
	if err != nil {
		log.Println("Serving empty list: ", err.Error())
		writeJSON(w, http.StatusOK, empty)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := posts.ListChannels(ctx, &pb.ListChannelsRequest{ViewerId: principalFrom(r.Context()).id()})
	if err != nil {
		if degraded(err) {
			writeJSON(w, http.StatusOK, empty)
			return
		}
		fail(w, err)
		return
	}
	if res.Channels == nil {
		res.Channels = []svcmodels.Channel{}
	}
	writeJSON(w, http.StatusOK, channelsBody{Channels: res.Channels})
}

func (h *Handler) channel(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts()
	if err != nil {
		fail(w, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := posts.GetChannel(ctx, &pb.GetChannelRequest{
		Slug:     r.PathValue("slug"),
		ViewerId: principalFrom(r.Context()).id(),
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) saveChannel(create bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ch svcmodels.Channel
		if !decode(w, r, &ch) {
			return
		}
		if !create {
			ch.Id = r.PathValue("channelId")
		}
		if create && strings.TrimSpace(ch.Name) == "" {
			writeError(w, http.StatusBadRequest, "channel name is required")
			return
		}
		p := principalFrom(r.Context())
		req := &pb.ChannelRequest{UserId: p.id(), Roles: p.roles(), Channel: ch}
		posts, err := h.posts()
		if err != nil {
			fail(w, err)
			return
		}
		ctx, cancel := h.call(r)
		defer cancel()
		var res *pb.ChannelResponse
		code := http.StatusOK
		if create {
			res, err = posts.CreateChannel(ctx, req)
			code = http.StatusCreated
		} else {
			res, err = posts.UpdateChannel(ctx, req)
		}
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, code, res)
	}
}

func (h *Handler) deleteChannel(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	posts, err := h.posts()
	if err != nil {
		fail(w, err)
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	_, err = posts.DeleteChannel(ctx, &pb.DeleteChannelRequest{
		UserId: p.id(), Roles: p.roles(), ChannelId: r.PathValue("channelId"),
	})
	if err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) membership(join bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := h.posts()
		if err != nil {
			fail(w, err)
			return
		}
		ctx, cancel := h.call(r)
		defer cancel()
		req := &pb.MembershipRequest{UserId: principalFrom(r.Context()).id(), ChannelId: r.PathValue("channelId")}
		var res *pb.MarkerResponse
		if join {
			res, err = posts.JoinChannel(ctx, req)
		} else {
			res, err = posts.LeaveChannel(ctx, req)
		}
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// --- notifications ---

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	empty := &pb.NotificationsResponse{Notifications: []svcmodels.Notification{}}
	type body struct {
		*pb.NotificationsResponse
		Notice string `json:"notice,omitempty"`
	}
	nc, err := h.notifications()
	if err != nil {
		log.Println("Serving empty list: ", err.Error())
		writeJSON(w, http.StatusOK, body{empty, degradedNotice})
		return
	}
	ctx, cancel := h.call(r)
	defer cancel()
	res, err := nc.ListNotifications(ctx, &pb.ListNotificationsRequest{
		UserId:     principalFrom(r.Context()).id(),
		UnreadOnly: r.URL.Query().Get("unread_only") == "true",
		Limit:      queryInt(r, "limit"),
	})
	if err != nil {
		if degraded(err) {
			writeJSON(w, http.StatusOK, body{empty, degradedNotice})
			return
		}
		fail(w, err)
		return
	}
	if res.Notifications == nil {
		res.Notifications = []svcmodels.Notification{}
	}
	writeJSON(w, http.StatusOK, body{NotificationsResponse: res})
}

func (h *Handler) markRead(all bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nc, err := h.notifications()
		if err != nil {
			fail(w, err)
			return
		}
		ctx, cancel := h.call(r)
		defer cancel()
		req := &pb.MarkReadRequest{UserId: principalFrom(r.Context()).id(), NotificationId: r.PathValue("notificationId")}
		var res *pb.MarkReadResponse
		if all {
			res, err = nc.MarkAllRead(ctx, req)
		} else {
			res, err = nc.MarkRead(ctx, req)
		}
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
