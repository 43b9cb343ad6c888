package bindings

import (
	"context"

	"google.golang.org/grpc"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

const FeedServiceName = "community.FeedService"

type GetHomeRequest struct {
	UserId        string `json:"user_id"`
	TrendingLimit int32  `json:"trending_limit"`
	ForYouLimit   int32  `json:"for_you_limit"`
	ChannelId     string `json:"channel_id"`
}

type HomeResponse struct {
	Trending        []models.Post `json:"trending"`
	ForYou          []models.Post `json:"for_you"`
	ExploreChannels bool          `json:"explore_channels"`
	// transient message shown when a list degraded to empty
	Notice string `json:"notice,omitempty"`
}

type FeedServiceServer interface {
	GetHome(context.Context, *GetHomeRequest) (*HomeResponse, error)
}

var FeedService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: FeedServiceName,
	HandlerType: (*FeedServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(FeedServiceName, "GetHome", FeedServiceServer.GetHome),
	},
	Metadata: "community/feed_service",
}

func RegisterFeedServiceServer(s grpc.ServiceRegistrar, srv FeedServiceServer) {
	s.RegisterService(&FeedService_ServiceDesc, srv)
}

type FeedServiceClient interface {
	GetHome(ctx context.Context, in *GetHomeRequest, opts ...grpc.CallOption) (*HomeResponse, error)
}

type feedServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewFeedServiceClient(cc grpc.ClientConnInterface) FeedServiceClient {
	return &feedServiceClient{cc: cc}
}

func (c *feedServiceClient) GetHome(ctx context.Context, in *GetHomeRequest, opts ...grpc.CallOption) (*HomeResponse, error) {
	return invoke[HomeResponse](ctx, c.cc, FeedServiceName, "GetHome", in, opts)
}
