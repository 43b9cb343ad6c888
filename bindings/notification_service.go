package bindings

import (
	"context"

	"google.golang.org/grpc"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

const NotificationServiceName = "community.NotificationService"

type ListNotificationsRequest struct {
	UserId     string `json:"user_id"`
	UnreadOnly bool   `json:"unread_only"`
	Limit      int32  `json:"limit"`
}

type NotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int64                 `json:"unread"`
}

type MarkReadRequest struct {
	UserId         string `json:"user_id"`
	NotificationId string `json:"notification_id"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

type NotificationServiceServer interface {
	ListNotifications(context.Context, *ListNotificationsRequest) (*NotificationsResponse, error)
	MarkRead(context.Context, *MarkReadRequest) (*MarkReadResponse, error)
	MarkAllRead(context.Context, *MarkReadRequest) (*MarkReadResponse, error)
}

var NotificationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: NotificationServiceName,
	HandlerType: (*NotificationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(NotificationServiceName, "ListNotifications", NotificationServiceServer.ListNotifications),
		method(NotificationServiceName, "MarkRead", NotificationServiceServer.MarkRead),
		method(NotificationServiceName, "MarkAllRead", NotificationServiceServer.MarkAllRead),
	},
	Metadata: "community/notification_service",
}

func RegisterNotificationServiceServer(s grpc.ServiceRegistrar, srv NotificationServiceServer) {
	s.RegisterService(&NotificationService_ServiceDesc, srv)
}

type NotificationServiceClient interface {
	ListNotifications(ctx context.Context, in *ListNotificationsRequest, opts ...grpc.CallOption) (*NotificationsResponse, error)
	MarkRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) (*MarkReadResponse, error)
	MarkAllRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) (*MarkReadResponse, error)
}

type notificationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewNotificationServiceClient(cc grpc.ClientConnInterface) NotificationServiceClient {
	return &notificationServiceClient{cc: cc}
}

func (c *notificationServiceClient) ListNotifications(ctx context.Context, in *ListNotificationsRequest, opts ...grpc.CallOption) (*NotificationsResponse, error) {
	return invoke[NotificationsResponse](ctx, c.cc, NotificationServiceName, "ListNotifications", in, opts)
}

func (c *notificationServiceClient) MarkRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) (*MarkReadResponse, error) {
	return invoke[MarkReadResponse](ctx, c.cc, NotificationServiceName, "MarkRead", in, opts)
}

func (c *notificationServiceClient) MarkAllRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) (*MarkReadResponse, error) {
	return invoke[MarkReadResponse](ctx, c.cc, NotificationServiceName, "MarkAllRead", in, opts)
}
