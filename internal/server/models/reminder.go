package models

import "time"

// Reminder is one row of a user's collection. Position keeps the
// insertion order of the collection.
type Reminder struct {
	ID        string
	UserID    string
	Timestamp time.Time
	Enabled   bool
	Position  int64
}
