// Package syncqueue is the durable FIFO of local mutations that the server
// has not acknowledged yet.
package syncqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/remindsync/internal/common"
	"github.com/dmitrijs2005/remindsync/internal/logging"
)

// Queue is safe for concurrent use. Only the head is ever removed.
type Queue struct {
	mu      sync.Mutex
	items   []models.Mutation
	corrupt bool

	repo   metadata.Repository
	logger logging.Logger
}

func New(repo metadata.Repository, logger logging.Logger) *Queue {
	return &Queue{repo: repo, logger: logger.With("module", "syncqueue")}
}

func (q *Queue) Enqueue(m models.Mutation) {
	q.mu.Lock()
	q.items = append(q.items, m)
	q.mu.Unlock()
}

// Peek returns the oldest mutation without removing it.
func (q *Queue) Peek() (models.Mutation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return models.Mutation{}, false
	}
	return q.items[0], true
}

// Dequeue removes and returns the oldest mutation.
func (q *Queue) Dequeue() (models.Mutation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return models.Mutation{}, false
	}
	head := q.items[0]
	q.items[0] = models.Mutation{}
	q.items = q.items[1:]
	return head, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Items returns a copy, oldest first.
func (q *Queue) Items() []models.Mutation {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.Mutation{}, q.items...)
}

// Corrupt reports whether the last Load discarded an undecodable payload.
func (q *Queue) Corrupt() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.corrupt
}

func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

// Load restores persisted entries and puts them ahead of anything enqueued
// before Load ran. A corrupt payload is logged and treated as empty.
func (q *Queue) Load(ctx context.Context) error {
	raw, err := q.repo.Get(ctx, common.KeySyncQueue)
	if err != nil {
		return fmt.Errorf("load sync queue: %w", err)
	}

	var loaded []models.Mutation
	corrupt := false
	if raw != nil {
		if err := json.Unmarshal(raw, &loaded); err != nil {
			q.logger.Warn(ctx, "discarding stored sync queue", "error", fmt.Errorf("%w: %v", common.ErrStorageCorrupt, err))
			loaded = nil
			corrupt = true
		}
	}

	q.mu.Lock()
	q.corrupt = corrupt
	q.items = append(loaded, q.items...)
	n := len(q.items)
	q.mu.Unlock()

	q.logger.Debug(ctx, "sync queue loaded", "restored", len(loaded), "pending", n)
	return nil
}

func (q *Queue) Save(ctx context.Context) error {
	items := q.Items()
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode sync queue: %w", err)
	}
	if err := q.repo.Set(ctx, common.KeySyncQueue, raw); err != nil {
		return fmt.Errorf("save sync queue: %w", err)
	}
	return nil
}
