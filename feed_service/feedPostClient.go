package main

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

// PostClient reads posts and memberships from the post service. It is the
// feed.Source of the composer.
type PostClient struct {
	conn   *grpc.ClientConn
	client pb.PostServiceClient
}

func NewPostClient(target string) (*PostClient, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Println("Error in Connection to Post Service: ", err.Error())
		return nil, err
	}
	return newPostClient(conn), nil
}

func newPostClient(conn *grpc.ClientConn) *PostClient {
	return &PostClient{
		conn:   conn,
		client: pb.NewPostServiceClient(conn),
	}
}

func (pc *PostClient) ListPostsByWindow(ctx context.Context, viewerId string, start, end time.Time) ([]models.Post, error) {
	res, err := pc.client.ListPostsByWindow(ctx, &pb.WindowRequest{ViewerId: viewerId, Start: start, End: end})
	if err != nil {
		return nil, err
	}
	return res.Posts, nil
}

func (pc *PostClient) ListPostsByChannels(ctx context.Context, viewerId string, channelIds []string) ([]models.Post, error) {
	res, err := pc.client.ListPostsByChannels(ctx, &pb.ChannelPostsRequest{ViewerId: viewerId, ChannelIds: channelIds})
	if err != nil {
		return nil, err
	}
	return res.Posts, nil
}

func (pc *PostClient) JoinedChannels(ctx context.Context, userId string) ([]string, error) {
	res, err := pc.client.JoinedChannels(ctx, &pb.JoinedChannelsRequest{UserId: userId})
	if err != nil {
		return nil, err
	}
	return res.ChannelIds, nil
}

func (pc *PostClient) Close() error {
	if pc.conn != nil {
		return pc.conn.Close()
	}
	return nil
}
