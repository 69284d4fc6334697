package services

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/client/notify"
	"github.com/dmitrijs2005/remindsync/internal/client/syncer"
	"github.com/dmitrijs2005/remindsync/internal/logging"
)

// NotificationBridge feeds the collection to the scheduler whenever it
// changes and turns fired reminders back into change mutations.
type NotificationBridge struct {
	engine    Dispatcher
	changes   <-chan struct{}
	scheduler *notify.Scheduler
	logger    logging.Logger

	allowed atomic.Bool
	resend  chan struct{}

	// fired while a conflict was pending; owned by Run
	held map[string]models.Reminder
}

func NewNotificationBridge(engine Dispatcher, changes <-chan struct{}, scheduler *notify.Scheduler, allowed bool, logger logging.Logger) *NotificationBridge {
	b := &NotificationBridge{
		engine:    engine,
		changes:   changes,
		scheduler: scheduler,
		logger:    logger.With("module", "notifications"),
		resend:    make(chan struct{}, 1),
		held:      map[string]models.Reminder{},
	}
	b.allowed.Store(allowed)
	return b
}

func (b *NotificationBridge) Allowed() bool { return b.allowed.Load() }

// SetAllowed switches notifications on or off.
func (b *NotificationBridge) SetAllowed(v bool) {
	b.allowed.Store(v)
	select {
	case b.resend <- struct{}{}:
	default:
	}
}

// push sends the collection to the scheduler. Held reminders go out
// disabled so they do not fire twice.
func (b *NotificationBridge) push() {
	rs := b.engine.Reminders()
	for i := range rs {
		if _, ok := b.held[rs[i].ID]; ok {
			rs[i].Enabled = false
		}
	}
	b.scheduler.Send(notify.Update{Reminders: rs, NotificationsAllowed: b.allowed.Load()})
}

// disable dispatches a fired reminder as a change. It reports false when
// the dispatch must be retried after the conflict is resolved.
func (b *NotificationBridge) disable(ctx context.Context, fired models.Reminder) bool {
	err := b.engine.Dispatch(ctx, models.Mutation{Type: models.MutationChange, Payload: fired})
	switch {
	case err == nil:
	case errors.Is(err, syncer.ErrResolutionPending):
		return false
	default:
		b.logger.Error(ctx, "failed to disable fired reminder", "id", fired.ID, "error", err)
	}
	return true
}

// flush retries held reminders. One that is gone from the collection, or
// no longer enabled at the time it fired for, is dropped.
func (b *NotificationBridge) flush(ctx context.Context) {
	if len(b.held) == 0 {
		return
	}
	current := b.engine.Reminders()
	for id, fired := range b.held {
		r, ok := models.Find(current, id)
		if !ok || !r.Enabled || !r.Timestamp.Equal(fired.Timestamp) {
			delete(b.held, id)
			continue
		}
		if b.disable(ctx, fired) {
			delete(b.held, id)
		}
	}
}

func (b *NotificationBridge) Run(ctx context.Context) error {
	b.push()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.changes:
			b.flush(ctx)
			b.push()
		case <-b.resend:
			b.push()
		case f := <-b.scheduler.Fired():
			if !b.disable(ctx, f.Reminder) {
				b.logger.Warn(ctx, "reminder fired during conflict, disabling it after resolution", "id", f.Reminder.ID)
				b.held[f.Reminder.ID] = f.Reminder
			}
		}
	}
}
