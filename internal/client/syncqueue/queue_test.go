package syncqueue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/common"
	"github.com/dmitrijs2005/remindsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory metadata.Repository.
type memRepo struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemRepo() *memRepo { return &memRepo{m: map[string][]byte{}} }

func (r *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[key], nil
}

func (r *memRepo) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = value
	return nil
}

func (r *memRepo) SetMany(ctx context.Context, values map[string][]byte) error {
	for k, v := range values {
		_ = r.Set(ctx, k, v)
	}
	return nil
}

func (r *memRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, key)
	return nil
}

func mut(t models.MutationType, id string) models.Mutation {
	return models.Mutation{Type: t, Payload: models.Reminder{ID: id}}
}

func TestQueue_FIFO(t *testing.T) {
	q := New(newMemRepo(), logging.Discard())

	_, ok := q.Peek()
	assert.False(t, ok)
	_, ok = q.Dequeue()
	assert.False(t, ok)

	q.Enqueue(mut(models.MutationAdd, "1"))
	q.Enqueue(mut(models.MutationChange, "1"))
	q.Enqueue(mut(models.MutationDelete, "1"))
	assert.Equal(t, 3, q.Len())

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, models.MutationAdd, head.Type)
	assert.Equal(t, 3, q.Len(), "peek must not remove")

	for _, want := range []models.MutationType{models.MutationAdd, models.MutationChange, models.MutationDelete} {
		m, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, m.Type)
	}
	assert.Zero(t, q.Len())
}

func TestQueue_Clear(t *testing.T) {
	q := New(newMemRepo(), logging.Discard())
	q.Enqueue(mut(models.MutationAdd, "1"))
	q.Clear()
	assert.Zero(t, q.Len())
	assert.Empty(t, q.Items())
}

func TestQueue_LoadPrependsPersisted(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()

	persisted := New(repo, logging.Discard())
	persisted.Enqueue(mut(models.MutationAdd, "old-1"))
	persisted.Enqueue(mut(models.MutationAdd, "old-2"))
	require.NoError(t, persisted.Save(ctx))

	q := New(repo, logging.Discard())
	q.Enqueue(mut(models.MutationAdd, "early"))
	require.NoError(t, q.Load(ctx))

	var ids []string
	for _, m := range q.Items() {
		ids = append(ids, m.Payload.ID)
	}
	assert.Equal(t, []string{"old-1", "old-2", "early"}, ids)
}

func TestQueue_SaveLoadPreservesTimestamps(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	ts := time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC)

	q := New(repo, logging.Discard())
	q.Enqueue(models.Mutation{Type: models.MutationChange, Payload: models.Reminder{ID: "a", Timestamp: ts, Enabled: true}})
	require.NoError(t, q.Save(ctx))

	restored := New(repo, logging.Discard())
	require.NoError(t, restored.Load(ctx))
	assert.False(t, restored.Corrupt())
	head, ok := restored.Peek()
	require.True(t, ok)
	assert.True(t, ts.Equal(head.Payload.Timestamp))
	assert.True(t, head.Payload.Enabled)
}

func TestQueue_LoadCorrupt(t *testing.T) {
	repo := newMemRepo()
	require.NoError(t, repo.Set(context.Background(), common.KeySyncQueue, []byte("[{")))

	q := New(repo, logging.Discard())
	q.Enqueue(mut(models.MutationAdd, "kept"))
	require.NoError(t, q.Load(context.Background()))

	assert.Equal(t, 1, q.Len())
	assert.True(t, q.Corrupt())
}

func TestQueue_ConcurrentEnqueue(t *testing.T) {
	q := New(newMemRepo(), logging.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(mut(models.MutationAdd, "x"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, q.Len())
}
