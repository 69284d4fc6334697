package services

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/client/notify"
	"github.com/dmitrijs2005/remindsync/internal/client/syncer"
	"github.com/dmitrijs2005/remindsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNotifier struct {
	mu  sync.Mutex
	ids []string
}

func (n *countingNotifier) Notify(_ context.Context, r models.Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, r.ID)
	return nil
}

func (n *countingNotifier) seen() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.ids...)
}

func runBridge(t *testing.T, d *fakeDispatcher, allowed bool) (*NotificationBridge, *notify.Scheduler, *countingNotifier, chan struct{}, func()) {
	t.Helper()
	n := &countingNotifier{}
	sched := notify.New(n, logging.Discard())
	changes := make(chan struct{}, 1)
	b := NewNotificationBridge(d, changes, sched, allowed, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = sched.Run(ctx) }()
	go func() { defer wg.Done(); _ = b.Run(ctx) }()

	return b, sched, n, changes, func() {
		cancel()
		wg.Wait()
	}
}

func TestNotificationBridge_FiredReminderIsDisabled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		due := time.Now().Add(time.Hour)
		d := &fakeDispatcher{records: []models.Reminder{{ID: "r1", Timestamp: due, Enabled: true}}}
		_, sched, n, _, stop := runBridge(t, d, true)
		defer stop()

		synctest.Wait()
		assert.Equal(t, 1, sched.Pending())

		time.Sleep(time.Hour)
		synctest.Wait()

		assert.Equal(t, []string{"r1"}, n.seen())
		ms := d.mutations()
		require.Len(t, ms, 1)
		assert.Equal(t, models.MutationChange, ms[0].Type)
		assert.False(t, ms[0].Payload.Enabled)
		assert.False(t, d.Reminders()[0].Enabled)
	})
}

func TestNotificationBridge_ChangesAndPermission(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := &fakeDispatcher{}
		b, sched, n, changes, stop := runBridge(t, d, false)
		defer stop()

		d.mu.Lock()
		d.records = []models.Reminder{{ID: "r1", Timestamp: time.Now().Add(time.Minute), Enabled: true}}
		d.mu.Unlock()
		changes <- struct{}{}
		synctest.Wait()
		assert.Zero(t, sched.Pending())

		b.SetAllowed(true)
		synctest.Wait()
		assert.True(t, b.Allowed())
		assert.Equal(t, 1, sched.Pending())

		b.SetAllowed(false)
		synctest.Wait()
		assert.Zero(t, sched.Pending())

		time.Sleep(time.Hour)
		synctest.Wait()
		assert.Empty(t, n.seen())
		assert.Empty(t, d.mutations())
	})
}

func TestNotificationBridge_FireDuringConflictKeepsRunning(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := &fakeDispatcher{
			records: []models.Reminder{{ID: "r1", Timestamp: time.Now().Add(time.Second), Enabled: true}},
			err:     syncer.ErrResolutionPending,
		}
		_, _, n, changes, stop := runBridge(t, d, true)
		defer stop()

		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, []string{"r1"}, n.seen())

		d.mu.Lock()
		d.err = nil
		d.records = append(d.records, models.Reminder{ID: "r2", Timestamp: time.Now().Add(time.Second), Enabled: true})
		d.mu.Unlock()
		changes <- struct{}{}
		time.Sleep(2 * time.Second)
		synctest.Wait()

		assert.Contains(t, n.seen(), "r2")
		assert.NotEmpty(t, d.mutations())
	})
}

func TestNotificationBridge_FireDuringConflictDisabledAfterResolution(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := &fakeDispatcher{
			records: []models.Reminder{{ID: "r1", Timestamp: time.Now().Add(time.Second), Enabled: true}},
			err:     syncer.ErrResolutionPending,
		}
		_, _, n, changes, stop := runBridge(t, d, true)
		defer stop()

		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, []string{"r1"}, n.seen())
		assert.Empty(t, d.mutations())

		// still pending: the rebuilt timers must not fire r1 again
		changes <- struct{}{}
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, []string{"r1"}, n.seen())

		d.mu.Lock()
		d.err = nil
		d.mu.Unlock()
		changes <- struct{}{}
		time.Sleep(time.Second)
		synctest.Wait()

		assert.Equal(t, []string{"r1"}, n.seen())
		ms := d.mutations()
		require.Len(t, ms, 1)
		assert.Equal(t, "r1", ms[0].Payload.ID)
		assert.False(t, ms[0].Payload.Enabled)
		assert.False(t, d.Reminders()[0].Enabled)
	})
}

func TestNotificationBridge_HeldReminderDroppedWhenReplaced(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := &fakeDispatcher{
			records: []models.Reminder{{ID: "r1", Timestamp: time.Now().Add(time.Second), Enabled: true}},
			err:     syncer.ErrResolutionPending,
		}
		_, sched, _, changes, stop := runBridge(t, d, true)
		defer stop()

		time.Sleep(time.Second)
		synctest.Wait()

		later := time.Now().Add(time.Hour)
		d.mu.Lock()
		d.err = nil
		d.records = []models.Reminder{{ID: "r1", Timestamp: later, Enabled: true}}
		d.mu.Unlock()
		changes <- struct{}{}
		synctest.Wait()

		assert.Empty(t, d.mutations())
		assert.Equal(t, 1, sched.Pending())
	})
}
