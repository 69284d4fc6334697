package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/dbx"
	"github.com/dmitrijs2005/remindsync/internal/logging"
	"github.com/dmitrijs2005/remindsync/internal/server/archive"
	"github.com/dmitrijs2005/remindsync/internal/server/models"
	"github.com/dmitrijs2005/remindsync/internal/server/repositories/repomanager"
)

// MutationResult is a single change as committed, with the lastSync it
// was stamped with.
type MutationResult struct {
	Reminder models.Reminder
	LastSync time.Time
}

type ResetResult struct {
	Deleted    int
	Inserted   int
	ArchiveKey string
	LastSync   time.Time
}

// ReminderService owns the server copy of each user's collection. Every
// mutation commits together with a fresh lastSync.
type ReminderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	archiver    archive.Archiver
	logger      logging.Logger
}

func NewReminderService(db *sql.DB, m repomanager.RepositoryManager, a archive.Archiver, logger logging.Logger) *ReminderService {
	return &ReminderService{
		db:          db,
		repomanager: m,
		archiver:    a,
		logger:      logger.With("module", "reminders"),
	}
}

var snapshotTx = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// List returns the collection in insertion order. With withLastSync the
// collection and the user's lastSync are read from one snapshot.
func (s *ReminderService) List(ctx context.Context, userID string, withLastSync bool) ([]models.Reminder, *time.Time, error) {
	if !withLastSync {
		items, err := s.repomanager.Reminders(s.db).List(ctx, userID)
		return items, nil, err
	}

	var (
		items    []models.Reminder
		lastSync time.Time
	)
	err := dbx.WithTx(ctx, s.db, snapshotTx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if items, err = s.repomanager.Reminders(tx).List(ctx, userID); err != nil {
			return err
		}
		lastSync, err = s.repomanager.Users(tx).GetLastSync(ctx, userID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return items, &lastSync, nil
}

// Add appends r. An existing ID yields common.ErrAlreadyExists.
func (s *ReminderService) Add(ctx context.Context, userID string, r models.Reminder) (*MutationResult, error) {
	r.UserID = userID
	r.Timestamp = r.Timestamp.UTC()
	return s.mutate(ctx, userID, func(ctx context.Context, tx dbx.DBTX) (*models.Reminder, error) {
		return s.repomanager.Reminders(tx).Insert(ctx, &r)
	})
}

// Change updates r in place. A missing ID yields common.ErrNotFound.
func (s *ReminderService) Change(ctx context.Context, userID string, r models.Reminder) (*MutationResult, error) {
	r.UserID = userID
	r.Timestamp = r.Timestamp.UTC()
	return s.mutate(ctx, userID, func(ctx context.Context, tx dbx.DBTX) (*models.Reminder, error) {
		return s.repomanager.Reminders(tx).Update(ctx, &r)
	})
}

// Delete removes the reminder and returns it as it was. A missing ID yields
// common.ErrNotFound.
func (s *ReminderService) Delete(ctx context.Context, userID, id string) (*MutationResult, error) {
	return s.mutate(ctx, userID, func(ctx context.Context, tx dbx.DBTX) (*models.Reminder, error) {
		return s.repomanager.Reminders(tx).Delete(ctx, userID, id)
	})
}

func (s *ReminderService) mutate(ctx context.Context, userID string, fn func(ctx context.Context, tx dbx.DBTX) (*models.Reminder, error)) (*MutationResult, error) {
	return dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*MutationResult, error) {
		r, err := fn(ctx, tx)
		if err != nil {
			return nil, err
		}
		ls, err := s.repomanager.Users(tx).TouchLastSync(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &MutationResult{Reminder: *r, LastSync: ls}, nil
	})
}

// Reset replaces the whole collection with rs, keeping the order of rs.
// The replaced collection is archived before the transaction commits; an
// archive failure rolls the reset back.
func (s *ReminderService) Reset(ctx context.Context, userID string, rs []models.Reminder) (*ResetResult, error) {
	res, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*ResetResult, error) {
		repo := s.repomanager.Reminders(tx)

		old, err := repo.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		deleted, err := repo.DeleteAll(ctx, userID)
		if err != nil {
			return nil, err
		}

		for _, r := range rs {
			r.UserID = userID
			r.Timestamp = r.Timestamp.UTC()
			if _, err := repo.Insert(ctx, &r); err != nil {
				return nil, fmt.Errorf("insert %s: %w", r.ID, err)
			}
		}

		var key string
		if len(old) > 0 {
			if key, err = s.archiver.Archive(ctx, userID, old); err != nil {
				return nil, fmt.Errorf("archive: %w", err)
			}
		}

		ls, err := s.repomanager.Users(tx).TouchLastSync(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &ResetResult{Deleted: int(deleted), Inserted: len(rs), ArchiveKey: key, LastSync: ls}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "collection reset", "user_id", userID,
		"deleted", res.Deleted, "inserted", res.Inserted, "archive_key", res.ArchiveKey)
	return res, nil
}
