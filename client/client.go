// Package client talks to the api gateway over HTTP and carries the client
// side state of the app: the comment thread being viewed or composed, and
// the optimistic like and favorite markers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
	"github.com/roweshkalloe/qualogy-ai-connect/commentTree"
	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid request")
	ErrUnavailable  = errors.New("service unavailable")
)

// APIError is a non 2xx answer of the gateway.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrInvalid:
		return e.Status == http.StatusBadRequest
	case ErrUnavailable:
		return e.Status == http.StatusServiceUnavailable
	}
	return false
}

type Client struct {
	base  string
	http  *http.Client
	token string
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Token() string {
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		return &APIError{Status: res.StatusCode, Message: e.Error}
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *Client) Register(ctx context.Context, req pb.RegisterRequest) (string, error) {
	var res pb.RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", req, &res); err != nil {
		return "", err
	}
	return res.UserId, nil
}

// Login keeps the returned token for the following calls.
func (c *Client) Login(ctx context.Context, email, password string) (*pb.LoginResponse, error) {
	var res pb.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", pb.LoginRequest{Email: email, Password: password}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *Client) Me(ctx context.Context) (models.User, error) {
	var res pb.ProfileResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &res)
	return res.User, err
}

func (c *Client) UpdateMe(ctx context.Context, req pb.UpdateProfileRequest) (models.User, error) {
	var res pb.ProfileResponse
	err := c.do(ctx, http.MethodPut, "/api/v1/me", req, &res)
	return res.User, err
}

func (c *Client) UserStats(ctx context.Context, userId string) (models.UserStats, error) {
	var res pb.UserStatsResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/users/"+url.PathEscape(userId)+"/stats", nil, &res)
	return res.Stats, err
}

func (c *Client) GrantRole(ctx context.Context, userId string, role models.Role) ([]models.Role, error) {
	var res pb.RolesResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/admin/users/"+url.PathEscape(userId)+"/roles", pb.GrantRoleRequest{Role: role}, &res)
	return res.Roles, err
}

type HomeOptions struct {
	TrendingLimit int
	ForYouLimit   int
	ChannelId     string
}

func (c *Client) Home(ctx context.Context, opts HomeOptions) (*pb.HomeResponse, error) {
	q := url.Values{}
	if opts.TrendingLimit > 0 {
		q.Set("trending_limit", strconv.Itoa(opts.TrendingLimit))
	}
	if opts.ForYouLimit > 0 {
		q.Set("for_you_limit", strconv.Itoa(opts.ForYouLimit))
	}
	if opts.ChannelId != "" {
		q.Set("channel", opts.ChannelId)
	}
	path := "/api/v1/feed"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var res pb.HomeResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PostList is a list answer; Notice is set when the list degraded to empty.
type PostList struct {
	Posts  []models.Post `json:"posts"`
	Notice string        `json:"notice,omitempty"`
}

func (c *Client) UserPosts(ctx context.Context, userId string) (PostList, error) {
	var res PostList
	err := c.do(ctx, http.MethodGet, "/api/v1/users/"+url.PathEscape(userId)+"/posts", nil, &res)
	return res, err
}

func (c *Client) Favorites(ctx context.Context) (PostList, error) {
	var res PostList
	err := c.do(ctx, http.MethodGet, "/api/v1/me/favorites", nil, &res)
	return res, err
}

func (c *Client) CreatePost(ctx context.Context, req pb.CreatePostRequest) (models.Post, error) {
	var res pb.PostResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/posts", req, &res)
	return res.Post, err
}

func (c *Client) Post(ctx context.Context, postId string) (models.Post, error) {
	var res pb.PostResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/posts/"+url.PathEscape(postId), nil, &res)
	return res.Post, err
}

func (c *Client) DeletePost(ctx context.Context, postId string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/posts/"+url.PathEscape(postId), nil, nil)
}

// Comments returns the rendered comment tree of a post and the notice the
// gateway sent when comments could not be loaded.
func (c *Client) Comments(ctx context.Context, postId string) (*commentTree.Tree, string, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/posts/"+url.PathEscape(postId)+"/comments", nil, &raw); err != nil {
		return nil, "", err
	}
	var tree commentTree.Tree
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, "", err
	}
	var extra struct {
		Notice string `json:"notice"`
	}
	_ = json.Unmarshal(raw, &extra)
	return &tree, extra.Notice, nil
}

func (c *Client) CreateComment(ctx context.Context, postId, parentId, content string) (models.Comment, error) {
	var res pb.CommentResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/posts/"+url.PathEscape(postId)+"/comments",
		pb.CreateCommentRequest{Content: content, ParentId: parentId}, &res)
	return res.Comment, err
}

func (c *Client) DeleteComment(ctx context.Context, commentId string) (*pb.DeleteCommentResponse, error) {
	var res pb.DeleteCommentResponse
	if err := c.do(ctx, http.MethodDelete, "/api/v1/comments/"+url.PathEscape(commentId), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) marker(ctx context.Context, method, postId, kind string) (*pb.MarkerResponse, error) {
	var res pb.MarkerResponse
	if err := c.do(ctx, method, "/api/v1/posts/"+url.PathEscape(postId)+"/"+kind, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Like(ctx context.Context, postId string) (*pb.MarkerResponse, error) {
	return c.marker(ctx, http.MethodPut, postId, "like")
}

func (c *Client) Unlike(ctx context.Context, postId string) (*pb.MarkerResponse, error) {
	return c.marker(ctx, http.MethodDelete, postId, "like")
}

func (c *Client) Favorite(ctx context.Context, postId string) (*pb.MarkerResponse, error) {
	return c.marker(ctx, http.MethodPut, postId, "favorite")
}

func (c *Client) Unfavorite(ctx context.Context, postId string) (*pb.MarkerResponse, error) {
	return c.marker(ctx, http.MethodDelete, postId, "favorite")
}

type ChannelList struct {
	Channels []models.Channel `json:"channels"`
	Notice   string           `json:"notice,omitempty"`
}

func (c *Client) Channels(ctx context.Context) (ChannelList, error) {
	var res ChannelList
	err := c.do(ctx, http.MethodGet, "/api/v1/channels", nil, &res)
	return res, err
}

func (c *Client) Channel(ctx context.Context, slug string) (models.Channel, error) {
	var res pb.ChannelResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/channels/"+url.PathEscape(slug), nil, &res)
	return res.Channel, err
}

func (c *Client) CreateChannel(ctx context.Context, ch models.Channel) (models.Channel, error) {
	var res pb.ChannelResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/channels", ch, &res)
	return res.Channel, err
}

func (c *Client) UpdateChannel(ctx context.Context, ch models.Channel) (models.Channel, error) {
	var res pb.ChannelResponse
	err := c.do(ctx, http.MethodPut, "/api/v1/channels/"+url.PathEscape(ch.Id), ch, &res)
	return res.Channel, err
}

func (c *Client) DeleteChannel(ctx context.Context, channelId string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/channels/"+url.PathEscape(channelId), nil, nil)
}

func (c *Client) JoinChannel(ctx context.Context, channelId string) (*pb.MarkerResponse, error) {
	var res pb.MarkerResponse
	if err := c.do(ctx, http.MethodPut, "/api/v1/channels/"+url.PathEscape(channelId)+"/membership", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) LeaveChannel(ctx context.Context, channelId string) (*pb.MarkerResponse, error) {
	var res pb.MarkerResponse
	if err := c.do(ctx, http.MethodDelete, "/api/v1/channels/"+url.PathEscape(channelId)+"/membership", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type NotificationList struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int64                 `json:"unread"`
	Notice        string                `json:"notice,omitempty"`
}

func (c *Client) Notifications(ctx context.Context, unreadOnly bool, limit int) (NotificationList, error) {
	q := url.Values{}
	if unreadOnly {
		q.Set("unread_only", "true")
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/notifications"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var res NotificationList
	err := c.do(ctx, http.MethodGet, path, nil, &res)
	return res, err
}

func (c *Client) MarkRead(ctx context.Context, notificationId string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/notifications/"+url.PathEscape(notificationId)+"/read", nil, nil)
}

func (c *Client) MarkAllRead(ctx context.Context) (int64, error) {
	var res pb.MarkReadResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/notifications/read", nil, &res)
	return res.Updated, err
}
