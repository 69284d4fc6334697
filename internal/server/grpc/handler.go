package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/remindsync/internal/api"
	"github.com/dmitrijs2005/remindsync/internal/common"
	"github.com/dmitrijs2005/remindsync/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC codes. Unknown errors are logged
// and reported as Internal without details.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, common.ErrUnauthorized.Error())
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, common.ErrInternal.Error())
}

func toModel(r api.Reminder) models.Reminder {
	return models.Reminder{ID: r.ID, Timestamp: r.Timestamp, Enabled: r.Enabled}
}

func toAPI(r models.Reminder) api.Reminder {
	return api.Reminder{ID: r.ID, Timestamp: r.Timestamp.UTC(), Enabled: r.Enabled}
}

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {
	if req.Username == "" || len(req.Verifier) == 0 {
		return nil, status.Error(codes.InvalidArgument, "username and verifier are required")
	}

	u, err := s.users.Register(ctx, req.Username, req.Salt, req.Verifier)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.RegisterResponse{UserID: u.ID}, nil
}

func (s *GRPCServer) GetSalt(ctx context.Context, req *api.GetSaltRequest) (*api.GetSaltResponse, error) {
	salt, err := s.users.GetSalt(ctx, req.Username)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.GetSaltResponse{Salt: salt}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	tokens, err := s.users.Login(ctx, req.Username, req.Verifier)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	s.logger.Info(ctx, "Logged in", "user_id", tokens.UserID)
	return &api.LoginResponse{UserID: tokens.UserID, AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *api.RefreshTokenRequest) (*api.RefreshTokenResponse, error) {
	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.RefreshTokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) userID(ctx context.Context) (string, error) {
	id, ok := userIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing user")
	}
	return id, nil
}

func (s *GRPCServer) List(ctx context.Context, req *api.ListRequest) (*api.ListResponse, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}

	items, lastSync, err := s.reminders.List(ctx, userID, req.IncludeLastSync)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &api.ListResponse{Reminders: make([]api.Reminder, 0, len(items))}
	for _, r := range items {
		resp.Reminders = append(resp.Reminders, toAPI(r))
	}
	if lastSync != nil {
		ls := lastSync.UTC()
		resp.LastSync = &ls
	}
	return resp, nil
}

func (s *GRPCServer) Add(ctx context.Context, req *api.ReminderRequest) (*api.MutationResponse, error) {
	return s.mutate(ctx, req.Reminder.ID, func(userID string) (*mutation, error) {
		return s.reminders.Add(ctx, userID, toModel(req.Reminder))
	})
}

func (s *GRPCServer) Change(ctx context.Context, req *api.ReminderRequest) (*api.MutationResponse, error) {
	return s.mutate(ctx, req.Reminder.ID, func(userID string) (*mutation, error) {
		return s.reminders.Change(ctx, userID, toModel(req.Reminder))
	})
}

func (s *GRPCServer) Delete(ctx context.Context, req *api.DeleteRequest) (*api.MutationResponse, error) {
	return s.mutate(ctx, req.ID, func(userID string) (*mutation, error) {
		return s.reminders.Delete(ctx, userID, req.ID)
	})
}

func (s *GRPCServer) mutate(ctx context.Context, id string, fn func(userID string) (*mutation, error)) (*api.MutationResponse, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "reminder id is required")
	}

	res, err := fn(userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.MutationResponse{Result: toAPI(res.Reminder), LastSync: res.LastSync.UTC()}, nil
}

func (s *GRPCServer) Reset(ctx context.Context, req *api.ResetRequest) (*api.ResetResponse, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}

	rs := make([]models.Reminder, 0, len(req.Reminders))
	for _, r := range req.Reminders {
		if r.ID == "" {
			return nil, status.Error(codes.InvalidArgument, "reminder id is required")
		}
		rs = append(rs, toModel(r))
	}

	res, err := s.reminders.Reset(ctx, userID, rs)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ResetResponse{
		Result:   api.ResetResult{Deleted: res.Deleted, Inserted: res.Inserted, ArchiveKey: res.ArchiveKey},
		LastSync: res.LastSync.UTC(),
	}, nil
}
