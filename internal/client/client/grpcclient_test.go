package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/api"
	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

/************* fake server *************/

type fakeServer struct {
	api.UnimplementedRemindersServer

	mu         sync.Mutex
	calls      []string
	tokens     []string
	expiredFor string
	failWith   error
	refreshed  int
}

func (f *fakeServer) record(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	md, _ := metadata.FromIncomingContext(ctx)
	tok := ""
	if v := md.Get(common.AccessTokenHeaderName); len(v) > 0 {
		tok = v[0]
	}
	f.tokens = append(f.tokens, tok)
	if f.expiredFor != "" && tok == f.expiredFor {
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}
	return f.failWith
}

var serverClock = time.Date(2024, 7, 1, 12, 0, 0, 42, time.UTC)

func (f *fakeServer) Login(ctx context.Context, in *api.LoginRequest) (*api.LoginResponse, error) {
	if err := f.record(ctx, "Login"); err != nil {
		return nil, err
	}
	return &api.LoginResponse{UserID: "u1", AccessToken: "acc", RefreshToken: "ref"}, nil
}

func (f *fakeServer) RefreshToken(ctx context.Context, in *api.RefreshTokenRequest) (*api.RefreshTokenResponse, error) {
	f.mu.Lock()
	f.refreshed++
	f.mu.Unlock()
	if in.RefreshToken != "ref" {
		return nil, status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
	}
	return &api.RefreshTokenResponse{AccessToken: "acc2", RefreshToken: "ref2"}, nil
}

func (f *fakeServer) List(ctx context.Context, in *api.ListRequest) (*api.ListResponse, error) {
	if err := f.record(ctx, "List"); err != nil {
		return nil, err
	}
	ls := serverClock
	return &api.ListResponse{
		Reminders: []api.Reminder{{ID: "a", Timestamp: serverClock, Enabled: true}},
		LastSync:  &ls,
	}, nil
}

func (f *fakeServer) Add(ctx context.Context, in *api.ReminderRequest) (*api.MutationResponse, error) {
	if err := f.record(ctx, "Add"); err != nil {
		return nil, err
	}
	return &api.MutationResponse{Result: in.Reminder, LastSync: serverClock}, nil
}

func (f *fakeServer) Change(ctx context.Context, in *api.ReminderRequest) (*api.MutationResponse, error) {
	if err := f.record(ctx, "Change"); err != nil {
		return nil, err
	}
	return &api.MutationResponse{Result: in.Reminder, LastSync: serverClock}, nil
}

func (f *fakeServer) Delete(ctx context.Context, in *api.DeleteRequest) (*api.MutationResponse, error) {
	if err := f.record(ctx, "Delete"); err != nil {
		return nil, err
	}
	return &api.MutationResponse{Result: api.Reminder{ID: in.ID}, LastSync: serverClock}, nil
}

func (f *fakeServer) Reset(ctx context.Context, in *api.ResetRequest) (*api.ResetResponse, error) {
	if err := f.record(ctx, "Reset"); err != nil {
		return nil, err
	}
	return &api.ResetResponse{Result: api.ResetResult{Deleted: 3, Inserted: len(in.Reminders)}, LastSync: serverClock}, nil
}

func newTestClient(t *testing.T, fs *fakeServer) (*GRPCClient, *health.Server) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	api.RegisterRemindersServer(s, fs)
	hs := health.NewServer()
	hs.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, hs
}

/************* tests *************/

func TestGRPCClient_LoginKeepsTokens(t *testing.T) {
	fs := &fakeServer{}
	c, _ := newTestClient(t, fs)

	tok, err := c.Login(context.Background(), "alice", []byte("v"))
	require.NoError(t, err)
	assert.Equal(t, Tokens{UserID: "u1", Username: "alice", AccessToken: "acc", RefreshToken: "ref"}, tok)
	assert.Equal(t, tok, c.Tokens())

	_, err = c.List(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "acc", fs.tokens[len(fs.tokens)-1])
}

func TestGRPCClient_List(t *testing.T) {
	c, _ := newTestClient(t, &fakeServer{})

	res, err := c.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, res.Reminders, 1)
	require.NotNil(t, res.LastSync)
	assert.True(t, serverClock.Equal(*res.LastSync))

	res, err = c.List(context.Background(), false)
	require.NoError(t, err)
	assert.Nil(t, res.LastSync)
}

func TestGRPCClient_MutateRoutesByType(t *testing.T) {
	fs := &fakeServer{}
	c, _ := newTestClient(t, fs)
	ctx := context.Background()
	r := models.Reminder{ID: "r1", Timestamp: serverClock, Enabled: true}

	for _, typ := range []models.MutationType{models.MutationAdd, models.MutationChange, models.MutationDelete} {
		res, err := c.Mutate(ctx, models.Mutation{Type: typ, Payload: r})
		require.NoError(t, err)
		assert.Equal(t, "r1", res.Result.ID)
		assert.True(t, serverClock.Equal(res.LastSync))
	}
	assert.Equal(t, []string{"Add", "Change", "Delete"}, fs.calls)

	_, err := c.Mutate(ctx, models.Mutation{Type: "reset"})
	require.Error(t, err)
}

func TestGRPCClient_Reset(t *testing.T) {
	c, _ := newTestClient(t, &fakeServer{})

	res, err := c.Reset(context.Background(), []models.Reminder{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Deleted)
	assert.Equal(t, 2, res.Inserted)
	assert.True(t, serverClock.Equal(res.LastSync))
}

func TestGRPCClient_RefreshesExpiredToken(t *testing.T) {
	fs := &fakeServer{expiredFor: "old"}
	c, _ := newTestClient(t, fs)
	c.SetTokens(Tokens{UserID: "u1", AccessToken: "old", RefreshToken: "ref"})

	var got Tokens
	c.OnTokens(func(t Tokens) { got = t })

	_, err := c.List(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, fs.refreshed)
	assert.Equal(t, []string{"old", "acc2"}, fs.tokens)
	assert.Equal(t, "acc2", c.Tokens().AccessToken)
	assert.Equal(t, "ref2", got.RefreshToken)
	assert.Equal(t, "u1", got.UserID)
}

func TestGRPCClient_RefreshFailureIsUnauthenticated(t *testing.T) {
	fs := &fakeServer{expiredFor: "old"}
	c, _ := newTestClient(t, fs)
	c.SetTokens(Tokens{AccessToken: "old", RefreshToken: "stale"})

	_, err := c.List(context.Background(), false)
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestGRPCClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		code codes.Code
		want error
	}{
		{codes.Unauthenticated, common.ErrUnauthenticated},
		{codes.PermissionDenied, common.ErrUnauthenticated},
		{codes.NotFound, common.ErrNotFound},
		{codes.AlreadyExists, common.ErrAlreadyExists},
		{codes.Unavailable, common.ErrTransport},
		{codes.DeadlineExceeded, common.ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			fs := &fakeServer{failWith: status.Error(tt.code, "x")}
			c, _ := newTestClient(t, fs)

			_, err := c.Mutate(context.Background(), models.Mutation{Type: models.MutationChange, Payload: models.Reminder{ID: "a"}})
			require.ErrorIs(t, err, tt.want)
		})
	}

	fs := &fakeServer{failWith: status.Error(codes.Internal, "boom")}
	c, _ := newTestClient(t, fs)
	_, err := c.List(context.Background(), true)
	require.ErrorContains(t, err, "rpc error")
	assert.False(t, errors.Is(err, common.ErrTransport))
}

func TestGRPCClient_Ping(t *testing.T) {
	c, hs := newTestClient(t, &fakeServer{})

	require.NoError(t, c.Ping(context.Background()))

	hs.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	require.ErrorIs(t, c.Ping(context.Background()), common.ErrTransport)
}

func TestMapError_NonStatus(t *testing.T) {
	require.NoError(t, mapError(nil))
	require.ErrorIs(t, mapError(errors.New("dial failed")), common.ErrTransport)
}
