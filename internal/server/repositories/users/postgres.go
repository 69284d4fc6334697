package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, salt, master_key_verifier)
         VALUES ($1, $2, $3)
		 RETURNING id, last_sync, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Salt, user.Verifier).Scan(&user.ID, &user.LastSync, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.UserName, &user.Verifier, &user.Salt, &user.LastSync, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx,
		`SELECT id, username, master_key_verifier, salt, last_sync, created_at FROM users
		 WHERE username = $1
		 `, userName)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx,
		`SELECT id, username, master_key_verifier, salt, last_sync, created_at FROM users
		 WHERE id = $1
		 `, id)
}

func (r *PostgresRepository) TouchLastSync(ctx context.Context, userID string) (time.Time, error) {
	query :=
		`UPDATE users SET last_sync = GREATEST(now(), last_sync + interval '1 microsecond')
		 WHERE id = $1
		 RETURNING last_sync
		 `

	var t time.Time
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, common.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	return t.UTC(), nil
}

func (r *PostgresRepository) GetLastSync(ctx context.Context, userID string) (time.Time, error) {
	query :=
		`SELECT last_sync FROM users
		 WHERE id = $1
		 `

	var t time.Time
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, common.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	return t.UTC(), nil
}
