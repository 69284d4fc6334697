package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/client/client"
	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/remindsync/internal/client/store"
	"github.com/dmitrijs2005/remindsync/internal/client/syncqueue"
	"github.com/dmitrijs2005/remindsync/internal/logging"
	"github.com/stretchr/testify/require"
)

// fakeGateway is an in-memory server: every successful write advances its
// clock by one second.
type fakeGateway struct {
	mu        sync.Mutex
	reminders []models.Reminder
	clock     time.Time

	listErr   error
	mutateErr error
	resetErr  error

	onList   func()
	onMutate func()

	lists  int
	sent   []models.Mutation
	resets [][]models.Reminder
}

func (g *fakeGateway) List(_ context.Context, includeLastSync bool) (*client.ListResult, error) {
	g.mu.Lock()
	g.lists++
	hook := g.onList
	err := g.listErr
	out := &client.ListResult{Reminders: append([]models.Reminder{}, g.reminders...)}
	if includeLastSync {
		ls := g.clock
		out.LastSync = &ls
	}
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *fakeGateway) Mutate(_ context.Context, m models.Mutation) (*client.MutationResult, error) {
	g.mu.Lock()
	g.sent = append(g.sent, m)
	hook := g.onMutate
	err := g.mutateErr
	if err == nil {
		g.reminders = models.Apply(g.reminders, m)
		g.clock = g.clock.Add(time.Second)
	}
	clock := g.clock
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return &client.MutationResult{Result: m.Payload, LastSync: clock}, nil
}

func (g *fakeGateway) Reset(_ context.Context, records []models.Reminder) (*client.ResetResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resets = append(g.resets, append([]models.Reminder{}, records...))
	if g.resetErr != nil {
		return nil, g.resetErr
	}
	deleted := len(g.reminders)
	g.reminders = append([]models.Reminder{}, records...)
	g.clock = g.clock.Add(time.Second)
	return &client.ResetResult{Deleted: deleted, Inserted: len(records), LastSync: g.clock}, nil
}

func (g *fakeGateway) sentIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var ids []string
	for _, m := range g.sent {
		ids = append(ids, m.Payload.ID)
	}
	return ids
}

// day is the test "today"; clock is fixed at 08:00.
var day = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

type fixture struct {
	engine *Engine
	store  *store.Store
	queue  *syncqueue.Queue
	repo   metadata.Repository
	gw     *fakeGateway
}

func newFixture(t *testing.T, gw *fakeGateway) *fixture {
	t.Helper()
	repos, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.DB.Close() })
	return fixtureOn(repos.Metadata, gw)
}

func fixtureOn(repo metadata.Repository, gw *fakeGateway) *fixture {
	st := store.New(repo, logging.Discard())
	q := syncqueue.New(repo, logging.Discard())
	e := NewEngine(st, q, gw, logging.Discard(), WithClock(func() time.Time { return at(8, 0) }))
	return &fixture{engine: e, store: st, queue: q, repo: repo, gw: gw}
}

// seed writes durable state as a previous run would have left it.
func (f *fixture) seed(t *testing.T, records []models.Reminder, clock time.Time, queued ...models.Mutation) {
	t.Helper()
	ctx := context.Background()
	st := store.New(f.repo, logging.Discard())
	st.Reset(records)
	st.SetLastSync(clock)
	require.NoError(t, st.Save(ctx))

	q := syncqueue.New(f.repo, logging.Discard())
	for _, m := range queued {
		q.Enqueue(m)
	}
	require.NoError(t, q.Save(ctx))
}

// ready loads local state and brings the engine online and signed in.
func (f *fixture) ready(t *testing.T) {
	t.Helper()
	require.NoError(t, f.engine.Load(context.Background()))
	f.engine.SetOnline(true)
	f.engine.SetSession(Session{Finished: true, UserID: "u1"})
}

func rem(id string, h int, enabled bool) models.Reminder {
	return models.Reminder{ID: id, Timestamp: at(h, 0), Enabled: enabled}
}
