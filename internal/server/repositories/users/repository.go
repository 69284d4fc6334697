package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// TouchLastSync stamps a new last-sync time for the user. The new value
	// is strictly greater than the previous one.
	TouchLastSync(ctx context.Context, userID string) (time.Time, error)
	GetLastSync(ctx context.Context, userID string) (time.Time, error)
}
