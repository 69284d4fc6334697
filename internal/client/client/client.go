package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/client/models"
)

// ListResult is the server collection. LastSync is nil unless it was asked
// for.
type ListResult struct {
	Reminders []models.Reminder
	LastSync  *time.Time
}

// MutationResult is the acknowledged record and the server clock after the
// mutation.
type MutationResult struct {
	Result   models.Reminder
	LastSync time.Time
}

type ResetResult struct {
	Deleted    int
	Inserted   int
	ArchiveKey string
	LastSync   time.Time
}

type Gateway interface {
	List(ctx context.Context, includeLastSync bool) (*ListResult, error)
	Mutate(ctx context.Context, m models.Mutation) (*MutationResult, error)
	Reset(ctx context.Context, records []models.Reminder) (*ResetResult, error)
}

// Tokens is an authenticated session as issued by the server.
type Tokens struct {
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Identity interface {
	Register(ctx context.Context, username string, salt, verifier []byte) error
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifier []byte) (Tokens, error)
	Ping(ctx context.Context) error
	SetTokens(t Tokens)
	Tokens() Tokens
}

type Client interface {
	Gateway
	Identity
	Close() error
}
