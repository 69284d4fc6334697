// Package reminders stores the server copy of every user's reminder
// collection.
package reminders

import (
	"context"

	"github.com/dmitrijs2005/remindsync/internal/server/models"
)

type Repository interface {
	// List returns the user's collection in insertion order.
	List(ctx context.Context, userID string) ([]models.Reminder, error)
	// Insert appends r to the end of the collection. A duplicate ID yields
	// common.ErrAlreadyExists.
	Insert(ctx context.Context, r *models.Reminder) (*models.Reminder, error)
	// Update replaces timestamp and enabled flag in place.
	Update(ctx context.Context, r *models.Reminder) (*models.Reminder, error)
	// Delete removes one reminder and returns it as it was.
	Delete(ctx context.Context, userID, id string) (*models.Reminder, error)
	// DeleteAll empties the collection and reports how many rows went away.
	DeleteAll(ctx context.Context, userID string) (int64, error)
}
