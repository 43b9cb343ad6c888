package main

import (
	"context"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

type UserClient struct {
	conn   *grpc.ClientConn
	client pb.UserServiceClient
}

func NewUserClient(target string) (*UserClient, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Println("Error in Connection to User Service: ", err.Error())
		return nil, err
	}
	return newUserClient(conn), nil
}

func newUserClient(conn *grpc.ClientConn) *UserClient {
	return &UserClient{
		conn:   conn,
		client: pb.NewUserServiceClient(conn),
	}
}

func (uc *UserClient) GetUsersData(ctx context.Context, ids []string) (map[string]models.Author, error) {
	if len(ids) == 0 {
		return map[string]models.Author{}, nil
	}
	res, err := uc.client.GetUsersData(ctx, &pb.UsersDataRequest{UserIds: ids})
	if err != nil {
		log.Println("Error in Fetching users data: ", err.Error())
		return nil, err
	}
	return res.Users, nil
}

func (uc *UserClient) Close() error {
	if uc.conn != nil {
		return uc.conn.Close()
	}
	return nil
}
