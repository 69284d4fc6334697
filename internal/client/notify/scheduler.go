// Package notify fires local notifications for due reminders.
//
// The Scheduler runs in its own goroutine and shares no state with the
// sync core: it receives snapshots of the reminder collection and emits a
// Fired message for every reminder whose timer went off. On every snapshot
// all timers are cancelled and rebuilt from scratch.
package notify

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/logging"
)

// Update is a snapshot of the collection. Disabled reminders are ignored;
// nothing is scheduled unless NotificationsAllowed is set.
type Update struct {
	Reminders            []models.Reminder
	NotificationsAllowed bool
}

// Fired reports a reminder whose notification was shown. Reminder.Enabled
// is already false: the consumer is expected to dispatch it as a change.
type Fired struct {
	Reminder models.Reminder
}

// Notifier shows a notification to the user.
type Notifier interface {
	Notify(ctx context.Context, r models.Reminder) error
}

type fire struct {
	gen      uint64
	reminder models.Reminder
}

type Scheduler struct {
	notifier Notifier
	logger   logging.Logger

	// mailbox: only the latest update matters
	mu     sync.Mutex
	latest *Update
	signal chan struct{}

	fires   chan fire
	fired   chan Fired
	pending atomic.Int32

	// owned by Run
	gen    uint64
	timers map[string]*time.Timer
}

func New(notifier Notifier, logger logging.Logger) *Scheduler {
	return &Scheduler{
		notifier: notifier,
		logger:   logger.With("module", "notify"),
		signal:   make(chan struct{}, 1),
		fires:    make(chan fire),
		fired:    make(chan Fired, 16),
		timers:   make(map[string]*time.Timer),
	}
}

// Send hands a snapshot to the scheduler. It never blocks; an update not
// yet picked up is replaced.
func (s *Scheduler) Send(u Update) {
	u.Reminders = slices.Clone(u.Reminders)

	s.mu.Lock()
	s.latest = &u
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Fired() <-chan Fired {
	return s.fired
}

// Pending is the number of armed timers.
func (s *Scheduler) Pending() int {
	return int(s.pending.Load())
}

// Run processes updates and timer expirations until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.cancelAll()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-s.signal:
			s.mu.Lock()
			u := s.latest
			s.latest = nil
			s.mu.Unlock()
			if u != nil {
				s.rebuild(ctx, *u)
			}

		case f := <-s.fires:
			if f.gen != s.gen {
				continue
			}
			delete(s.timers, f.reminder.ID)
			s.pending.Store(int32(len(s.timers)))

			if err := s.notifier.Notify(ctx, f.reminder); err != nil {
				s.logger.Warn(ctx, "failed to show notification", "id", f.reminder.ID, "error", err)
			}

			r := f.reminder
			r.Enabled = false
			select {
			case s.fired <- Fired{Reminder: r}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (s *Scheduler) cancelAll() {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.gen++
	s.pending.Store(0)
}

func (s *Scheduler) rebuild(ctx context.Context, u Update) {
	s.cancelAll()

	if !u.NotificationsAllowed {
		s.logger.Debug(ctx, "notifications not allowed, nothing scheduled")
		return
	}

	gen := s.gen
	now := time.Now()
	for _, r := range u.Reminders {
		if !r.Enabled {
			continue
		}
		delay := max(r.Timestamp.Sub(now), 0)
		s.timers[r.ID] = time.AfterFunc(delay, func() {
			select {
			case s.fires <- fire{gen: gen, reminder: r}:
			case <-ctx.Done():
			}
		})
	}
	s.pending.Store(int32(len(s.timers)))
	s.logger.Debug(ctx, "timers rebuilt", "scheduled", len(s.timers))
}
