package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/common"
	"github.com/dmitrijs2005/remindsync/internal/timex"
)

var ErrAmbiguousID = errors.New("ambiguous reminder id")

// Dispatcher is the part of the sync engine that accepts local edits.
type Dispatcher interface {
	Dispatch(ctx context.Context, m models.Mutation) error
	Reminders() []models.Reminder
}

// ReminderService turns user commands into mutations.
type ReminderService struct {
	engine Dispatcher
	now    func() time.Time
}

func NewReminderService(engine Dispatcher) *ReminderService {
	return &ReminderService{engine: engine, now: time.Now}
}

func (s *ReminderService) List() []models.Reminder {
	return s.engine.Reminders()
}

// Add creates an enabled reminder at the next occurrence of timeOfDay
// ("HH:MM").
func (s *ReminderService) Add(ctx context.Context, timeOfDay string) (models.Reminder, error) {
	ts, err := timex.ParseTimeOfDay(timeOfDay, s.now())
	if err != nil {
		return models.Reminder{}, fmt.Errorf("invalid time %q: %w", timeOfDay, err)
	}

	r := models.NewReminder(ts)
	if err := s.engine.Dispatch(ctx, models.Mutation{Type: models.MutationAdd, Payload: r}); err != nil {
		return models.Reminder{}, err
	}
	return r, nil
}

func (s *ReminderService) SetTime(ctx context.Context, id, timeOfDay string) error {
	r, err := s.find(id)
	if err != nil {
		return err
	}
	ts, err := timex.ParseTimeOfDay(timeOfDay, s.now())
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", timeOfDay, err)
	}
	r.Timestamp = ts
	return s.engine.Dispatch(ctx, models.Mutation{Type: models.MutationChange, Payload: r})
}

func (s *ReminderService) Toggle(ctx context.Context, id string) (models.Reminder, error) {
	r, err := s.find(id)
	if err != nil {
		return models.Reminder{}, err
	}
	r.Enabled = !r.Enabled
	if err := s.engine.Dispatch(ctx, models.Mutation{Type: models.MutationChange, Payload: r}); err != nil {
		return models.Reminder{}, err
	}
	return r, nil
}

func (s *ReminderService) Delete(ctx context.Context, id string) error {
	r, err := s.find(id)
	if err != nil {
		return err
	}
	return s.engine.Dispatch(ctx, models.Mutation{Type: models.MutationDelete, Payload: models.Reminder{ID: r.ID}})
}

// find accepts a full id or a unique prefix of one.
func (s *ReminderService) find(id string) (models.Reminder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Reminder{}, fmt.Errorf("empty id: %w", common.ErrNotFound)
	}

	var found []models.Reminder
	for _, r := range s.engine.Reminders() {
		if r.ID == id {
			return r, nil
		}
		if strings.HasPrefix(r.ID, id) {
			found = append(found, r)
		}
	}

	switch len(found) {
	case 0:
		return models.Reminder{}, fmt.Errorf("reminder %s: %w", id, common.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return models.Reminder{}, fmt.Errorf("%w: %s matches %d reminders", ErrAmbiguousID, id, len(found))
	}
}
