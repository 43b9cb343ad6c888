package bindings

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

const PostServiceName = "community.PostService"

type CreatePostRequest struct {
	UserId    string   `json:"user_id"`
	ChannelId string   `json:"channel_id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	ImageUrl  string   `json:"image_url"`
	Tags      []string `json:"tags"`
}

type GetPostRequest struct {
	PostId   string `json:"post_id"`
	ViewerId string `json:"viewer_id"`
}

type DeletePostRequest struct {
	PostId string `json:"post_id"`
	UserId string `json:"user_id"`
}

type PostResponse struct {
	Post models.Post `json:"post"`
}

type WindowRequest struct {
	ViewerId string    `json:"viewer_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type ChannelPostsRequest struct {
	ViewerId   string   `json:"viewer_id"`
	ChannelIds []string `json:"channel_ids"`
}

type UserPostsRequest struct {
	UserId   string `json:"user_id"`
	ViewerId string `json:"viewer_id"`
}

type PostsResponse struct {
	Posts []models.Post `json:"posts"`
}

type GetCommentsRequest struct {
	PostId string `json:"post_id"`
}

type CommentsResponse struct {
	Comments []models.Comment `json:"comments"`
}

type CreateCommentRequest struct {
	PostId   string `json:"post_id"`
	UserId   string `json:"user_id"`
	Content  string `json:"content"`
	ParentId string `json:"parent_id"`
}

type CommentResponse struct {
	Comment models.Comment `json:"comment"`
}

type DeleteCommentRequest struct {
	CommentId string `json:"comment_id"`
	UserId    string `json:"user_id"`
}

type DeleteCommentResponse struct {
	PostId  string `json:"post_id"`
	Removed int64  `json:"removed"`
}

type MarkerRequest struct {
	PostId string `json:"post_id"`
	UserId string `json:"user_id"`
}

// MarkerResponse reports whether the marker state changed and the counter
// after the call (likes of the post, members of the channel).
type MarkerResponse struct {
	Changed bool  `json:"changed"`
	Count   int64 `json:"count"`
}

type ListChannelsRequest struct {
	ViewerId string `json:"viewer_id"`
}

type ChannelsResponse struct {
	Channels []models.Channel `json:"channels"`
}

// GetChannelRequest looks a channel up by id, or by slug when id is empty.
type GetChannelRequest struct {
	ChannelId string `json:"channel_id"`
	Slug      string `json:"slug"`
	ViewerId  string `json:"viewer_id"`
}

type ChannelRequest struct {
	UserId  string         `json:"user_id"`
	Roles   []models.Role  `json:"roles"`
	Channel models.Channel `json:"channel"`
}

type DeleteChannelRequest struct {
	UserId    string        `json:"user_id"`
	Roles     []models.Role `json:"roles"`
	ChannelId string        `json:"channel_id"`
}

type ChannelResponse struct {
	Channel models.Channel `json:"channel"`
}

type MembershipRequest struct {
	UserId    string `json:"user_id"`
	ChannelId string `json:"channel_id"`
}

type JoinedChannelsRequest struct {
	UserId string `json:"user_id"`
}

type JoinedChannelsResponse struct {
	ChannelIds []string `json:"channel_ids"`
}

type UserStatsRequest struct {
	UserId string `json:"user_id"`
}

type UserStatsResponse struct {
	Stats models.UserStats `json:"stats"`
}

type PostServiceServer interface {
	CreatePost(context.Context, *CreatePostRequest) (*PostResponse, error)
	GetPost(context.Context, *GetPostRequest) (*PostResponse, error)
	DeletePost(context.Context, *DeletePostRequest) (*Response, error)
	ListPostsByWindow(context.Context, *WindowRequest) (*PostsResponse, error)
	ListPostsByChannels(context.Context, *ChannelPostsRequest) (*PostsResponse, error)
	ListPostsByUser(context.Context, *UserPostsRequest) (*PostsResponse, error)
	ListFavoritePosts(context.Context, *UserPostsRequest) (*PostsResponse, error)

	GetComments(context.Context, *GetCommentsRequest) (*CommentsResponse, error)
	CreateComment(context.Context, *CreateCommentRequest) (*CommentResponse, error)
	DeleteComment(context.Context, *DeleteCommentRequest) (*DeleteCommentResponse, error)

	CreateLike(context.Context, *MarkerRequest) (*MarkerResponse, error)
	DeleteLike(context.Context, *MarkerRequest) (*MarkerResponse, error)
	CreateFavorite(context.Context, *MarkerRequest) (*MarkerResponse, error)
	DeleteFavorite(context.Context, *MarkerRequest) (*MarkerResponse, error)

	ListChannels(context.Context, *ListChannelsRequest) (*ChannelsResponse, error)
	GetChannel(context.Context, *GetChannelRequest) (*ChannelResponse, error)
	CreateChannel(context.Context, *ChannelRequest) (*ChannelResponse, error)
	UpdateChannel(context.Context, *ChannelRequest) (*ChannelResponse, error)
	DeleteChannel(context.Context, *DeleteChannelRequest) (*Response, error)
	JoinChannel(context.Context, *MembershipRequest) (*MarkerResponse, error)
	LeaveChannel(context.Context, *MembershipRequest) (*MarkerResponse, error)
	JoinedChannels(context.Context, *JoinedChannelsRequest) (*JoinedChannelsResponse, error)

	GetUserStats(context.Context, *UserStatsRequest) (*UserStatsResponse, error)
}

var PostService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: PostServiceName,
	HandlerType: (*PostServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(PostServiceName, "CreatePost", PostServiceServer.CreatePost),
		method(PostServiceName, "GetPost", PostServiceServer.GetPost),
		method(PostServiceName, "DeletePost", PostServiceServer.DeletePost),
		method(PostServiceName, "ListPostsByWindow", PostServiceServer.ListPostsByWindow),
		method(PostServiceName, "ListPostsByChannels", PostServiceServer.ListPostsByChannels),
		method(PostServiceName, "ListPostsByUser", PostServiceServer.ListPostsByUser),
		method(PostServiceName, "ListFavoritePosts", PostServiceServer.ListFavoritePosts),
		method(PostServiceName, "GetComments", PostServiceServer.GetComments),
		method(PostServiceName, "CreateComment", PostServiceServer.CreateComment),
		method(PostServiceName, "DeleteComment", PostServiceServer.DeleteComment),
		method(PostServiceName, "CreateLike", PostServiceServer.CreateLike),
		method(PostServiceName, "DeleteLike", PostServiceServer.DeleteLike),
		method(PostServiceName, "CreateFavorite", PostServiceServer.CreateFavorite),
		method(PostServiceName, "DeleteFavorite", PostServiceServer.DeleteFavorite),
		method(PostServiceName, "ListChannels", PostServiceServer.ListChannels),
		method(PostServiceName, "GetChannel", PostServiceServer.GetChannel),
		method(PostServiceName, "CreateChannel", PostServiceServer.CreateChannel),
		method(PostServiceName, "UpdateChannel", PostServiceServer.UpdateChannel),
		method(PostServiceName, "DeleteChannel", PostServiceServer.DeleteChannel),
		method(PostServiceName, "JoinChannel", PostServiceServer.JoinChannel),
		method(PostServiceName, "LeaveChannel", PostServiceServer.LeaveChannel),
		method(PostServiceName, "JoinedChannels", PostServiceServer.JoinedChannels),
		method(PostServiceName, "GetUserStats", PostServiceServer.GetUserStats),
	},
	Metadata: "community/post_service",
}

func RegisterPostServiceServer(s grpc.ServiceRegistrar, srv PostServiceServer) {
	s.RegisterService(&PostService_ServiceDesc, srv)
}

type PostServiceClient interface {
	CreatePost(ctx context.Context, in *CreatePostRequest, opts ...grpc.CallOption) (*PostResponse, error)
	GetPost(ctx context.Context, in *GetPostRequest, opts ...grpc.CallOption) (*PostResponse, error)
	DeletePost(ctx context.Context, in *DeletePostRequest, opts ...grpc.CallOption) (*Response, error)
	ListPostsByWindow(ctx context.Context, in *WindowRequest, opts ...grpc.CallOption) (*PostsResponse, error)
	ListPostsByChannels(ctx context.Context, in *ChannelPostsRequest, opts ...grpc.CallOption) (*PostsResponse, error)
	ListPostsByUser(ctx context.Context, in *UserPostsRequest, opts ...grpc.CallOption) (*PostsResponse, error)
	ListFavoritePosts(ctx context.Context, in *UserPostsRequest, opts ...grpc.CallOption) (*PostsResponse, error)

	GetComments(ctx context.Context, in *GetCommentsRequest, opts ...grpc.CallOption) (*CommentsResponse, error)
	CreateComment(ctx context.Context, in *CreateCommentRequest, opts ...grpc.CallOption) (*CommentResponse, error)
	DeleteComment(ctx context.Context, in *DeleteCommentRequest, opts ...grpc.CallOption) (*DeleteCommentResponse, error)

	CreateLike(ctx context.Context, in *MarkerRequest, opts ...grpc.CallOption) (*MarkerResponse, error)
	DeleteLike(ctx context.Context, in *MarkerRequest, opts ...grpc.CallOption) (*MarkerResponse, error)
	CreateFavorite(ctx context.Context, in *MarkerRequest, opts ...grpc.CallOption) (*MarkerResponse, error)
	DeleteFavorite(ctx context.Context, in *MarkerRequest, opts ...grpc.CallOption) (*MarkerResponse, error)

	ListChannels(ctx context.Context, in *ListChannelsRequest, opts ...grpc.CallOption) (*ChannelsResponse, error)
	GetChannel(ctx context.Context, in *GetChannelRequest, opts ...grpc.CallOption) (*ChannelResponse, error)
	CreateChannel(ctx context.Context, in *ChannelRequest, opts ...grpc.CallOption) (*ChannelResponse, error)
	UpdateChannel(ctx context.Context, in *ChannelRequest, opts ...grpc.CallOption) (*ChannelResponse, error)
	DeleteChannel(ctx context.Context, in *DeleteChannelRequest, opts ...grpc.CallOption) (*Response, error)
	JoinChannel(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*MarkerResponse, error)
	LeaveChannel(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*MarkerResponse, error)
	JoinedChannels(ctx context.Context, in *JoinedChannelsRequest, opts ...grpc.CallOption) (*JoinedChannelsResponse, error)

	GetUserStats(ctx context.Context, in *UserStatsRequest, opts ...grpc.CallOption) (*UserStatsResponse, error)
}

type postServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPostServiceClient(cc grpc.ClientConnInterface) PostServiceClient {
	return &postServiceClient{cc: cc}
}

func (c *postServiceClient) CreatePost(ctx context.Context, in *CreatePostRequest, opts ...grpc.CallOption) (*PostResponse, error) {
	return invoke[PostResponse](ctx, c.cc, PostServiceName, "CreatePost", in, opts)
}

func (c *postServiceClient) GetPost(ctx context.Context, in *GetPostRequest, opts ...grpc.CallOption) (*PostResponse, error) {
	return invoke[PostResponse](ctx, c.cc, PostServiceName, "GetPost", in, opts)
}

func (c *postServiceClient) DeletePost(ctx context.Context, in *DeletePostRequest, opts ...grpc.CallOption) (*Response, error) {
	return invoke[Response](ctx, c.cc, PostServiceName, "DeletePost", in, opts)
}

func (c *postServiceClient) ListPostsByWindow(ctx context.Context, in *WindowRequest, opts ...grpc.CallOption) (*PostsResponse, error) {
	return invoke[PostsResponse](ctx, c.cc, PostServiceName, "ListPostsByWindow", in, opts)
}

func (c *postServiceClient) ListPostsByChannels(ctx context.Context, in *ChannelPostsRequest, opts ...grpc.CallOption) (*PostsResponse, error) {
	return invoke[PostsResponse](ctx, c.cc, PostServiceName, "ListPostsByChannels", in, opts)
}

func (c *postServiceClient) ListPostsByUser(ctx context.Context, in *UserPostsRequest, opts ...grpc.CallOption) (*PostsResponse, error) {
	return invoke[PostsResponse](ctx, c.cc, PostServiceName, "ListPostsByUser", in, opts)
}

func (c *postServiceClient) ListFavoritePosts(ctx context.Context, in *UserPostsRequest, opts ...grpc.CallOption) (*PostsResponse, error) {
	return invoke[PostsResponse](ctx, c.cc, PostServiceName, "ListFavoritePosts", in, opts)
}

func (c *postServiceClient) GetComments(ctx context.Context, in *GetCommentsRequest, opts ...grpc.CallOption) (*CommentsResponse, error) {
	return invoke[CommentsResponse](ctx, c.cc, PostServiceName, "GetComments", in, opts)
}

func (c *postServiceClient) CreateComment(ctx context.Context, in *CreateCommentRequest, opts ...grpc.CallOption) (*CommentResponse, error) {
	return invoke[CommentResponse](ctx, c.cc, PostServiceName, "CreateComment", in, opts)
}

func (c *postServiceClient) DeleteComment(ctx context.Context, in *DeleteCommentRequest, opts ...grpc.CallOption) (*DeleteCommentResponse, error) {
	return invoke[DeleteCommentResponse](ctx, c.cc, PostServiceName, "DeleteComment", in, opts)
}

func (c *postServiceClient) CreateLike(ctx context.Context, in *MarkerRequest, opts ...grpc.CallOption) (*MarkerResponse, error) {
	return invoke[MarkerResponse](ctx, c.cc, PostServiceName, "CreateLike", in, opts)
}

func (c *postServiceClient) DeleteLike(ctx context.Context, in *MarkerRequest, opts ...grpc.CallOption) (*MarkerResponse, error) {
	return invoke[MarkerResponse](ctx, c.cc, PostServiceName, "DeleteLike", in, opts)
}

func (c *postServiceClient) CreateFavorite(ctx context.Context, in *MarkerRequest, opts ...grpc.CallOption) (*MarkerResponse, error) {
	return invoke[MarkerResponse](ctx, c.cc, PostServiceName, "CreateFavorite", in, opts)
}

func (c *postServiceClient) DeleteFavorite(ctx context.Context, in *MarkerRequest, opts ...grpc.CallOption) (*MarkerResponse, error) {
	return invoke[MarkerResponse](ctx, c.cc, PostServiceName, "DeleteFavorite", in, opts)
}

func (c *postServiceClient) ListChannels(ctx context.Context, in *ListChannelsRequest, opts ...grpc.CallOption) (*ChannelsResponse, error) {
	return invoke[ChannelsResponse](ctx, c.cc, PostServiceName, "ListChannels", in, opts)
}

func (c *postServiceClient) GetChannel(ctx context.Context, in *GetChannelRequest, opts ...grpc.CallOption) (*ChannelResponse, error) {
	return invoke[ChannelResponse](ctx, c.cc, PostServiceName, "GetChannel", in, opts)
}

func (c *postServiceClient) CreateChannel(ctx context.Context, in *ChannelRequest, opts ...grpc.CallOption) (*ChannelResponse, error) {
	return invoke[ChannelResponse](ctx, c.cc, PostServiceName, "CreateChannel", in, opts)
}

func (c *postServiceClient) UpdateChannel(ctx context.Context, in *ChannelRequest, opts ...grpc.CallOption) (*ChannelResponse, error) {
	return invoke[ChannelResponse](ctx, c.cc, PostServiceName, "UpdateChannel", in, opts)
}

func (c *postServiceClient) DeleteChannel(ctx context.Context, in *DeleteChannelRequest, opts ...grpc.CallOption) (*Response, error) {
	return invoke[Response](ctx, c.cc, PostServiceName, "DeleteChannel", in, opts)
}

func (c *postServiceClient) JoinChannel(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*MarkerResponse, error) {
	return invoke[MarkerResponse](ctx, c.cc, PostServiceName, "JoinChannel", in, opts)
}

func (c *postServiceClient) LeaveChannel(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*MarkerResponse, error) {
	return invoke[MarkerResponse](ctx, c.cc, PostServiceName, "LeaveChannel", in, opts)
}

func (c *postServiceClient) JoinedChannels(ctx context.Context, in *JoinedChannelsRequest, opts ...grpc.CallOption) (*JoinedChannelsResponse, error) {
	return invoke[JoinedChannelsResponse](ctx, c.cc, PostServiceName, "JoinedChannels", in, opts)
}

func (c *postServiceClient) GetUserStats(ctx context.Context, in *UserStatsRequest, opts ...grpc.CallOption) (*UserStatsResponse, error) {
	return invoke[UserStatsResponse](ctx, c.cc, PostServiceName, "GetUserStats", in, opts)
}

// UnimplementedPostServiceServer can be embedded to keep servers compiling
// when calls are added.
type UnimplementedPostServiceServer struct{}

func unimplemented(name string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", name)
}

func (UnimplementedPostServiceServer) CreatePost(context.Context, *CreatePostRequest) (*PostResponse, error) {
	return nil, unimplemented("CreatePost")
}
func (UnimplementedPostServiceServer) GetPost(context.Context, *GetPostRequest) (*PostResponse, error) {
	return nil, unimplemented("GetPost")
}
func (UnimplementedPostServiceServer) DeletePost(context.Context, *DeletePostRequest) (*Response, error) {
	return nil, unimplemented("DeletePost")
}
func (UnimplementedPostServiceServer) ListPostsByWindow(context.Context, *WindowRequest) (*PostsResponse, error) {
	return nil, unimplemented("ListPostsByWindow")
}
func (UnimplementedPostServiceServer) ListPostsByChannels(context.Context, *ChannelPostsRequest) (*PostsResponse, error) {
	return nil, unimplemented("ListPostsByChannels")
}
func (UnimplementedPostServiceServer) ListPostsByUser(context.Context, *UserPostsRequest) (*PostsResponse, error) {
	return nil, unimplemented("ListPostsByUser")
}
func (UnimplementedPostServiceServer) ListFavoritePosts(context.Context, *UserPostsRequest) (*PostsResponse, error) {
	return nil, unimplemented("ListFavoritePosts")
}
func (UnimplementedPostServiceServer) GetComments(context.Context, *GetCommentsRequest) (*CommentsResponse, error) {
	return nil, unimplemented("GetComments")
}
func (UnimplementedPostServiceServer) CreateComment(context.Context, *CreateCommentRequest) (*CommentResponse, error) {
	return nil, unimplemented("CreateComment")
}
func (UnimplementedPostServiceServer) DeleteComment(context.Context, *DeleteCommentRequest) (*DeleteCommentResponse, error) {
	return nil, unimplemented("DeleteComment")
}
func (UnimplementedPostServiceServer) CreateLike(context.Context, *MarkerRequest) (*MarkerResponse, error) {
	return nil, unimplemented("CreateLike")
}
func (UnimplementedPostServiceServer) DeleteLike(context.Context, *MarkerRequest) (*MarkerResponse, error) {
	return nil, unimplemented("DeleteLike")
}
func (UnimplementedPostServiceServer) CreateFavorite(context.Context, *MarkerRequest) (*MarkerResponse, error) {
	return nil, unimplemented("CreateFavorite")
}
func (UnimplementedPostServiceServer) DeleteFavorite(context.Context, *MarkerRequest) (*MarkerResponse, error) {
	return nil, unimplemented("DeleteFavorite")
}
func (UnimplementedPostServiceServer) ListChannels(context.Context, *ListChannelsRequest) (*ChannelsResponse, error) {
	return nil, unimplemented("ListChannels")
}
func (UnimplementedPostServiceServer) GetChannel(context.Context, *GetChannelRequest) (*ChannelResponse, error) {
	return nil, unimplemented("GetChannel")
}
func (UnimplementedPostServiceServer) CreateChannel(context.Context, *ChannelRequest) (*ChannelResponse, error) {
	return nil, unimplemented("CreateChannel")
}
func (UnimplementedPostServiceServer) UpdateChannel(context.Context, *ChannelRequest) (*ChannelResponse, error) {
	return nil, unimplemented("UpdateChannel")
}
func (UnimplementedPostServiceServer) DeleteChannel(context.Context, *DeleteChannelRequest) (*Response, error) {
	return nil, unimplemented("DeleteChannel")
}
func (UnimplementedPostServiceServer) JoinChannel(context.Context, *MembershipRequest) (*MarkerResponse, error) {
	return nil, unimplemented("JoinChannel")
}
func (UnimplementedPostServiceServer) LeaveChannel(context.Context, *MembershipRequest) (*MarkerResponse, error) {
	return nil, unimplemented("LeaveChannel")
}
func (UnimplementedPostServiceServer) JoinedChannels(context.Context, *JoinedChannelsRequest) (*JoinedChannelsResponse, error) {
	return nil, unimplemented("JoinedChannels")
}
func (UnimplementedPostServiceServer) GetUserStats(context.Context, *UserStatsRequest) (*UserStatsResponse, error) {
	return nil, unimplemented("GetUserStats")
}
