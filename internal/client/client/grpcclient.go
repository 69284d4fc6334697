package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/remindsync/internal/api"
	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	rpc         api.RemindersClient
	health      healthpb.HealthClient

	mu       sync.RWMutex
	tokens   Tokens
	onTokens func(Tokens)
}

// NewGRPCClient creates a lazily connecting client for endpointURL. Extra
// dial options are appended to the defaults.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.rpc = api.NewRemindersClient(conn)
	c.health = healthpb.NewHealthClient(conn)
	return c, nil
}

// OnTokens registers a callback invoked after the tokens were refreshed
// behind the caller's back.
func (c *GRPCClient) OnTokens(fn func(Tokens)) {
	c.mu.Lock()
	c.onTokens = fn
	c.mu.Unlock()
}

func (c *GRPCClient) SetTokens(t Tokens) {
	c.mu.Lock()
	c.tokens = t
	c.mu.Unlock()
}

func (c *GRPCClient) Tokens() Tokens {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if method == api.MethodRefreshToken {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	tokens := c.Tokens()
	err := invoker(withAccessToken(ctx, tokens.AccessToken), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if tokens.RefreshToken == "" {
		return err
	}

	resp, rerr := c.rpc.RefreshToken(ctx, &api.RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	if rerr != nil {
		return rerr
	}

	tokens.AccessToken = resp.AccessToken
	tokens.RefreshToken = resp.RefreshToken
	c.SetTokens(tokens)

	c.mu.RLock()
	onTokens := c.onTokens
	c.mu.RUnlock()
	if onTokens != nil {
		onTokens(tokens)
	}

	return invoker(withAccessToken(ctx, tokens.AccessToken), method, req, reply, cc, opts...)
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) Register(ctx context.Context, username string, salt, verifier []byte) error {
	_, err := c.rpc.Register(ctx, &api.RegisterRequest{Username: username, Salt: salt, Verifier: verifier})
	return mapError(err)
}

func (c *GRPCClient) GetSalt(ctx context.Context, username string) ([]byte, error) {
	resp, err := c.rpc.GetSalt(ctx, &api.GetSaltRequest{Username: username})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Salt, nil
}

// Login authenticates and keeps the issued tokens for subsequent calls.
func (c *GRPCClient) Login(ctx context.Context, username string, verifier []byte) (Tokens, error) {
	resp, err := c.rpc.Login(ctx, &api.LoginRequest{Username: username, Verifier: verifier})
	if err != nil {
		return Tokens{}, mapError(err)
	}

	t := Tokens{
		UserID:       resp.UserID,
		Username:     username,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	c.SetTokens(t)
	return t, nil
}

// Ping asks the server's health service about the reminders service.
func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: api.ServiceName})
	if err != nil {
		return mapError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: service status %s", common.ErrTransport, resp.GetStatus())
	}
	return nil
}

func (c *GRPCClient) List(ctx context.Context, includeLastSync bool) (*ListResult, error) {
	resp, err := c.rpc.List(ctx, &api.ListRequest{IncludeLastSync: includeLastSync})
	if err != nil {
		return nil, mapError(err)
	}

	out := &ListResult{Reminders: fromAPI(resp.Reminders)}
	if includeLastSync {
		out.LastSync = resp.LastSync
	}
	return out, nil
}

func (c *GRPCClient) Mutate(ctx context.Context, m models.Mutation) (*MutationResult, error) {
	var (
		resp *api.MutationResponse
		err  error
	)

	switch m.Type {
	case models.MutationAdd:
		resp, err = c.rpc.Add(ctx, &api.ReminderRequest{Reminder: toAPIReminder(m.Payload)})
	case models.MutationChange:
		resp, err = c.rpc.Change(ctx, &api.ReminderRequest{Reminder: toAPIReminder(m.Payload)})
	case models.MutationDelete:
		resp, err = c.rpc.Delete(ctx, &api.DeleteRequest{ID: m.Payload.ID})
	default:
		return nil, fmt.Errorf("unknown mutation type %q", m.Type)
	}
	if err != nil {
		return nil, mapError(err)
	}

	return &MutationResult{Result: fromAPIReminder(resp.Result), LastSync: resp.LastSync}, nil
}

func (c *GRPCClient) Reset(ctx context.Context, records []models.Reminder) (*ResetResult, error) {
	resp, err := c.rpc.Reset(ctx, &api.ResetRequest{Reminders: toAPI(records)})
	if err != nil {
		return nil, mapError(err)
	}
	return &ResetResult{
		Deleted:    resp.Result.Deleted,
		Inserted:   resp.Result.Inserted,
		ArchiveKey: resp.Result.ArchiveKey,
		LastSync:   resp.LastSync,
	}, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %v", common.ErrTransport, err)
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrUnauthenticated, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", common.ErrAlreadyExists, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", common.ErrTransport, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func toAPIReminder(r models.Reminder) api.Reminder {
	return api.Reminder{ID: r.ID, Timestamp: r.Timestamp, Enabled: r.Enabled}
}

func fromAPIReminder(r api.Reminder) models.Reminder {
	return models.Reminder{ID: r.ID, Timestamp: r.Timestamp, Enabled: r.Enabled}
}

func toAPI(rs []models.Reminder) []api.Reminder {
	out := make([]api.Reminder, 0, len(rs))
	for _, r := range rs {
		out = append(out, toAPIReminder(r))
	}
	return out
}

func fromAPI(rs []api.Reminder) []models.Reminder {
	out := make([]models.Reminder, 0, len(rs))
	for _, r := range rs {
		out = append(out, fromAPIReminder(r))
	}
	return out
}
