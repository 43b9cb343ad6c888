package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/roweshkalloe/qualogy-ai-connect/auth"
	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

type memStore struct {
	users map[string]User
	roles map[string][]models.Role
	seq   int
}

func newMemStore() *memStore {
	return &memStore{users: map[string]User{}, roles: map[string][]models.Role{}}
}

func (m *memStore) CreateUser(_ context.Context, u User, roles []models.Role) (User, error) {
	for _, other := range m.users {
		if other.Email == u.Email {
			return User{}, ErrUserExists
		}
	}
	m.seq++
	u.Id = "user-" + string(rune('a'+m.seq-1))
	u.CreatedAt = time.Now()
	m.users[u.Id] = u
	m.roles[u.Id] = append([]models.Role(nil), roles...)
	return u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memStore) GetUserByID(_ context.Context, id string) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) GetUsers(_ context.Context, ids []string) ([]User, error) {
	var out []User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) UpdateProfile(_ context.Context, u User) (User, error) {
	cur, ok := m.users[u.Id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	cur.FullName, cur.Profession, cur.AvatarUrl = u.FullName, u.Profession, u.AvatarUrl
	m.users[u.Id] = cur
	return cur, nil
}

func (m *memStore) GetRoles(_ context.Context, id string) ([]models.Role, error) {
	return m.roles[id], nil
}

func (m *memStore) AddRole(_ context.Context, id string, r models.Role) error {
	if _, ok := m.users[id]; !ok {
		return ErrUserNotFound
	}
	for _, have := range m.roles[id] {
		if have == r {
			return nil
		}
	}
	m.roles[id] = append(m.roles[id], r)
	return nil
}

func newTestServer(t *testing.T) (pb.UserServiceClient, ed25519.PublicKey, *memStore) {
	t.Helper()
	pub, prv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	store := newMemStore()
	srv := NewUserServer(store, Config{JWTKey: prv, AdminEmails: []string{"boss@qualogy.com"}})

	lis := bufconn.Listen(1 << 20)
	g := grpc.NewServer()
	srv.register(g)
	go g.Serve(lis)
	t.Cleanup(g.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return pb.NewUserServiceClient(conn), pub, store
}

func TestRegisterAndLogin(t *testing.T) {
	client, pub, store := newTestServer(t)
	ctx := context.Background()

	reg, err := client.Register(ctx, &pb.RegisterRequest{
		Email: " Jane@Qualogy.com ", Password: "s3cret-pass", FullName: "Jane Doe", Profession: "Mendix Developer",
	})
	require.NoError(t, err)
	stored := store.users[reg.UserId]
	assert.Equal(t, "jane@qualogy.com", stored.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))

	login, err := client.Login(ctx, &pb.LoginRequest{Email: "jane@qualogy.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", login.User.FullName)
	assert.Equal(t, []models.Role{models.RoleUser}, login.User.Roles)

	claims, err := auth.Parse(pub, login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.UserId, claims.Subject)
	assert.Equal(t, login.ExpiresAt, claims.ExpiresAt.Unix())
	assert.False(t, claims.HasRole(models.RoleAdmin))

	_, err = client.Login(ctx, &pb.LoginRequest{Email: "jane@qualogy.com", Password: "wrong-pass"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = client.Login(ctx, &pb.LoginRequest{Email: "nobody@qualogy.com", Password: "whatever1"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestRegisterValidation(t *testing.T) {
	client, _, _ := newTestServer(t)
	ctx := context.Background()

	cases := []*pb.RegisterRequest{
		{Email: "", Password: "long-enough", FullName: "Jane"},
		{Email: "not-an-email", Password: "long-enough", FullName: "Jane"},
		{Email: "jane@qualogy.com", Password: "short", FullName: "Jane"},
		{Email: "jane@qualogy.com", Password: "long-enough", FullName: " "},
	}
	for _, req := range cases {
		_, err := client.Register(ctx, req)
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "%+v", req)
	}

	_, err := client.Register(ctx, &pb.RegisterRequest{Email: "jane@qualogy.com", Password: "long-enough", FullName: "Jane"})
	require.NoError(t, err)
	_, err = client.Register(ctx, &pb.RegisterRequest{Email: "JANE@qualogy.com", Password: "long-enough", FullName: "Jane"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestAdminBootstrapAndGrantRole(t *testing.T) {
	client, pub, _ := newTestServer(t)
	ctx := context.Background()

	_, err := client.Register(ctx, &pb.RegisterRequest{Email: "boss@qualogy.com", Password: "long-enough", FullName: "The Boss"})
	require.NoError(t, err)
	login, err := client.Login(ctx, &pb.LoginRequest{Email: "boss@qualogy.com", Password: "long-enough"})
	require.NoError(t, err)
	claims, err := auth.Parse(pub, login.Token)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(models.RoleAdmin))

	mod, err := client.Register(ctx, &pb.RegisterRequest{Email: "mod@qualogy.com", Password: "long-enough", FullName: "Mod"})
	require.NoError(t, err)
	roles, err := client.GrantRole(ctx, &pb.GrantRoleRequest{UserId: mod.UserId, Role: models.RoleChannelAdmin})
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.Role{models.RoleUser, models.RoleChannelAdmin}, roles.Roles)

	_, err = client.GrantRole(ctx, &pb.GrantRoleRequest{UserId: mod.UserId, Role: "superuser"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = client.GrantRole(ctx, &pb.GrantRoleRequest{UserId: "missing", Role: models.RoleAdmin})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestProfileAndUsersData(t *testing.T) {
	client, _, _ := newTestServer(t)
	ctx := context.Background()

	reg, err := client.Register(ctx, &pb.RegisterRequest{Email: "ann@qualogy.com", Password: "long-enough", FullName: "Ann"})
	require.NoError(t, err)

	upd, err := client.UpdateProfile(ctx, &pb.UpdateProfileRequest{
		UserId: reg.UserId, FullName: "Ann Smith", Profession: "Data Engineer", AvatarUrl: "https://cdn.example.com/ann.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann Smith", upd.User.FullName)

	_, err = client.UpdateProfile(ctx, &pb.UpdateProfileRequest{UserId: reg.UserId, FullName: "Ann", AvatarUrl: "not a url"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	prof, err := client.GetProfile(ctx, &pb.ProfileRequest{UserId: reg.UserId})
	require.NoError(t, err)
	assert.Equal(t, "Data Engineer", prof.User.Profession)

	_, err = client.GetProfile(ctx, &pb.ProfileRequest{UserId: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	data, err := client.GetUsersData(ctx, &pb.UsersDataRequest{UserIds: []string{reg.UserId, "missing"}})
	require.NoError(t, err)
	require.Len(t, data.Users, 1)
	assert.Equal(t, "Ann Smith", data.Users[reg.UserId].FullName)
}
