// Package models holds the client-side data model of the sync core.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Reminder is a single timestamped, user-editable record. ID is generated on
// the client and never reassigned.
type Reminder struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Enabled   bool      `json:"enabled"`
}

// NewReminder returns an enabled reminder with a fresh ID.
func NewReminder(ts time.Time) Reminder {
	return Reminder{ID: uuid.NewString(), Timestamp: ts, Enabled: true}
}

func (r Reminder) String() string {
	state := "off"
	if r.Enabled {
		state = "on"
	}
	return fmt.Sprintf("%s %s [%s]", r.ID, r.Timestamp.Format("2006-01-02 15:04"), state)
}

// MutationType names a queued edit.
type MutationType string

const (
	MutationAdd    MutationType = "add"
	MutationChange MutationType = "change"
	MutationDelete MutationType = "delete"
)

func (t MutationType) Valid() bool {
	switch t {
	case MutationAdd, MutationChange, MutationDelete:
		return true
	}
	return false
}

// Mutation is a record-level edit. For delete only Payload.ID matters.
type Mutation struct {
	Type    MutationType `json:"type"`
	Payload Reminder     `json:"payload"`
}

// Apply is the reducer shared by the local store and the cached server
// snapshot. It returns a new slice and leaves records untouched.
//
// add of an ID that is already present replaces that record in place, so a
// collection never holds two records with the same ID. change and delete of
// an unknown ID are no-ops.
func Apply(records []Reminder, m Mutation) []Reminder {
	out := make([]Reminder, 0, len(records)+1)

	switch m.Type {
	case MutationAdd:
		replaced := false
		for _, r := range records {
			if r.ID == m.Payload.ID {
				out = append(out, m.Payload)
				replaced = true
				continue
			}
			out = append(out, r)
		}
		if !replaced {
			out = append(out, m.Payload)
		}
	case MutationChange:
		for _, r := range records {
			if r.ID == m.Payload.ID {
				r = m.Payload
			}
			out = append(out, r)
		}
	case MutationDelete:
		for _, r := range records {
			if r.ID != m.Payload.ID {
				out = append(out, r)
			}
		}
	default:
		out = append(out, records...)
	}

	return out
}

// Find returns the record with id.
func Find(records []Reminder, id string) (Reminder, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return Reminder{}, false
}
