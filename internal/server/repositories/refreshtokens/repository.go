// Package refreshtokens stores the opaque refresh tokens handed out at
// login and rotated on every refresh.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) error
	// Find returns common.ErrNotFound for an unknown token.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	// Delete consumes a token. A token that is already gone yields
	// common.ErrNotFound, so a token can be rotated only once.
	Delete(ctx context.Context, token string) error
	// DeleteExpired drops the user's tokens that expired before now.
	DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error)
}
