package bindings

import (
	"context"

	"google.golang.org/grpc"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

const UserServiceName = "community.UserService"

type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Profession string `json:"profession"`
}

type RegisterResponse struct {
	UserId  string `json:"user_id"`
	Message string `json:"message"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt int64       `json:"expires_at"` // unix seconds
	User      models.User `json:"user"`
}

type ProfileRequest struct {
	UserId string `json:"user_id"`
}

type UpdateProfileRequest struct {
	UserId     string `json:"user_id"`
	FullName   string `json:"full_name"`
	Profession string `json:"profession"`
	AvatarUrl  string `json:"avatar_url"`
}

type ProfileResponse struct {
	User models.User `json:"user"`
}

type RolesResponse struct {
	Roles []models.Role `json:"roles"`
}

type GrantRoleRequest struct {
	UserId string      `json:"user_id"`
	Role   models.Role `json:"role"`
}

type UsersDataRequest struct {
	UserIds []string `json:"user_ids"`
}

// UsersDataResponse is keyed by user id; unknown ids are left out.
type UsersDataResponse struct {
	Users map[string]models.Author `json:"users"`
}

type UserServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	GetProfile(context.Context, *ProfileRequest) (*ProfileResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
	GetRoles(context.Context, *ProfileRequest) (*RolesResponse, error)
	GrantRole(context.Context, *GrantRoleRequest) (*RolesResponse, error)
	GetUsersData(context.Context, *UsersDataRequest) (*UsersDataResponse, error)
}

var UserService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: UserServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(UserServiceName, "Register", UserServiceServer.Register),
		method(UserServiceName, "Login", UserServiceServer.Login),
		method(UserServiceName, "GetProfile", UserServiceServer.GetProfile),
		method(UserServiceName, "UpdateProfile", UserServiceServer.UpdateProfile),
		method(UserServiceName, "GetRoles", UserServiceServer.GetRoles),
		method(UserServiceName, "GrantRole", UserServiceServer.GrantRole),
		method(UserServiceName, "GetUsersData", UserServiceServer.GetUsersData),
	},
	Metadata: "community/user_service",
}

func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&UserService_ServiceDesc, srv)
}

type UserServiceClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	GetProfile(ctx context.Context, in *ProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error)
	UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error)
	GetRoles(ctx context.Context, in *ProfileRequest, opts ...grpc.CallOption) (*RolesResponse, error)
	GrantRole(ctx context.Context, in *GrantRoleRequest, opts ...grpc.CallOption) (*RolesResponse, error)
	GetUsersData(ctx context.Context, in *UsersDataRequest, opts ...grpc.CallOption) (*UsersDataResponse, error)
}

type userServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewUserServiceClient(cc grpc.ClientConnInterface) UserServiceClient {
	return &userServiceClient{cc: cc}
}

func (c *userServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, UserServiceName, "Register", in, opts)
}

func (c *userServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, UserServiceName, "Login", in, opts)
}

func (c *userServiceClient) GetProfile(ctx context.Context, in *ProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, UserServiceName, "GetProfile", in, opts)
}

func (c *userServiceClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, UserServiceName, "UpdateProfile", in, opts)
}

func (c *userServiceClient) GetRoles(ctx context.Context, in *ProfileRequest, opts ...grpc.CallOption) (*RolesResponse, error) {
	return invoke[RolesResponse](ctx, c.cc, UserServiceName, "GetRoles", in, opts)
}

func (c *userServiceClient) GrantRole(ctx context.Context, in *GrantRoleRequest, opts ...grpc.CallOption) (*RolesResponse, error) {
	return invoke[RolesResponse](ctx, c.cc, UserServiceName, "GrantRole", in, opts)
}

func (c *userServiceClient) GetUsersData(ctx context.Context, in *UsersDataRequest, opts ...grpc.CallOption) (*UsersDataResponse, error) {
	return invoke[UsersDataResponse](ctx, c.cc, UserServiceName, "GetUsersData", in, opts)
}
