// Package store is the client's local record store: the authoritative local
// view of the reminder collection and the client's logical clock.
//
// All reads and writes are synchronous and in memory. Load and Save move
// the state to and from the metadata table.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/remindsync/internal/common"
	"github.com/dmitrijs2005/remindsync/internal/logging"
)

// Epoch is the client clock before any sync. It is earlier than any server
// clock.
var Epoch = time.Unix(0, 0).UTC()

type Store struct {
	mu       sync.RWMutex
	records  []models.Reminder
	lastSync time.Time

	repo    metadata.Repository
	logger  logging.Logger
	changes chan struct{}
}

func New(repo metadata.Repository, logger logging.Logger) *Store {
	return &Store{
		lastSync: Epoch,
		repo:     repo,
		logger:   logger.With("module", "store"),
		changes:  make(chan struct{}, 1),
	}
}

// Changes fires after every change of the collection. Signals coalesce.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

func (s *Store) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Touch signals observers without changing the collection.
func (s *Store) Touch() { s.notify() }

// Apply runs the reducer for one mutation.
func (s *Store) Apply(m models.Mutation) {
	s.mu.Lock()
	s.records = models.Apply(s.records, m)
	s.mu.Unlock()
	s.notify()
}

// Reset replaces the collection wholesale.
func (s *Store) Reset(records []models.Reminder) {
	s.mu.Lock()
	s.records = append([]models.Reminder(nil), records...)
	s.mu.Unlock()
	s.notify()
}

// GetAll returns a copy of the collection in insertion order.
func (s *Store) GetAll() []models.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Reminder{}, s.records...)
}

func (s *Store) Get(id string) (models.Reminder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Find(s.records, id)
}

func (s *Store) LastSync() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}

func (s *Store) SetLastSync(t time.Time) {
	s.mu.Lock()
	s.lastSync = t
	s.mu.Unlock()
}

// Load restores the collection and the clock. A value that cannot be
// decoded is logged as corrupt and replaced by the default, so Load only
// fails when the table itself cannot be read. Losing the collection also
// drops the clock to Epoch, so the next reconcile refetches from the server.
func (s *Store) Load(ctx context.Context) error {
	rawRecords, err := s.repo.Get(ctx, common.KeyReminders)
	if err != nil {
		return fmt.Errorf("load reminders: %w", err)
	}
	rawClock, err := s.repo.Get(ctx, common.KeyLastSync)
	if err != nil {
		return fmt.Errorf("load last sync: %w", err)
	}

	var records []models.Reminder
	corrupt := false
	if rawRecords != nil {
		if err := json.Unmarshal(rawRecords, &records); err != nil {
			s.logger.Warn(ctx, "discarding stored reminders", "error", fmt.Errorf("%w: %v", common.ErrStorageCorrupt, err))
			records = nil
			corrupt = true
		}
	}

	clock := Epoch
	if rawClock != nil && !corrupt {
		var t time.Time
		if err := json.Unmarshal(rawClock, &t); err != nil {
			s.logger.Warn(ctx, "discarding stored last sync", "error", fmt.Errorf("%w: %v", common.ErrStorageCorrupt, err))
		} else {
			clock = t
		}
	}

	s.mu.Lock()
	s.records = records
	s.lastSync = clock
	s.mu.Unlock()
	s.notify()

	s.logger.Debug(ctx, "local state loaded", "reminders", len(records), "lastSync", clock)
	return nil
}

// Save writes the collection and the clock in one statement.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	records := s.records
	if records == nil {
		records = []models.Reminder{}
	}
	rawRecords, err := json.Marshal(records)
	clock := s.lastSync
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode reminders: %w", err)
	}

	rawClock, err := json.Marshal(clock)
	if err != nil {
		return fmt.Errorf("encode last sync: %w", err)
	}

	if err := s.repo.SetMany(ctx, map[string][]byte{
		common.KeyReminders: rawRecords,
		common.KeyLastSync:  rawClock,
	}); err != nil {
		return fmt.Errorf("save local state: %w", err)
	}
	return nil
}
