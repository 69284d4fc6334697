package reminders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/remindsync/internal/common"
	"github.com/dmitrijs2005/remindsync/internal/dbx"
	"github.com/dmitrijs2005/remindsync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Reminder, error) {
	query :=
		`SELECT id, ts, enabled, position FROM reminders
		 WHERE user_id = $1
		 ORDER BY position
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Reminder, 0)
	for rows.Next() {
		item := models.Reminder{UserID: userID}
		if err := rows.Scan(&item.ID, &item.Timestamp, &item.Enabled, &item.Position); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		item.Timestamp = item.Timestamp.UTC()
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, item *models.Reminder) (*models.Reminder, error) {
	query :=
		`INSERT INTO reminders (id, user_id, ts, enabled, position)
		 VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(position) + 1, 0) FROM reminders WHERE user_id = $2))
		 RETURNING position
		 `

	err := r.db.QueryRowContext(ctx, query, item.ID, item.UserID, item.Timestamp, item.Enabled).Scan(&item.Position)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("reminder %s: %w", item.ID, common.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *PostgresRepository) Update(ctx context.Context, item *models.Reminder) (*models.Reminder, error) {
	query :=
		`UPDATE reminders SET ts = $3, enabled = $4
		 WHERE user_id = $1 AND id = $2
		 RETURNING position
		 `

	err := r.db.QueryRowContext(ctx, query, item.UserID, item.ID, item.Timestamp, item.Enabled).Scan(&item.Position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reminder %s: %w", item.ID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) (*models.Reminder, error) {
	query :=
		`DELETE FROM reminders
		 WHERE user_id = $1 AND id = $2
		 RETURNING ts, enabled, position
		 `

	item := &models.Reminder{ID: id, UserID: userID}
	err := r.db.QueryRowContext(ctx, query, userID, id).Scan(&item.Timestamp, &item.Enabled, &item.Position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reminder %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	item.Timestamp = item.Timestamp.UTC()

	return item, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	query :=
		`DELETE FROM reminders
		 WHERE user_id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
