package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Decision is the outcome of comparing the client clock with the server's.
type Decision int

const (
	// NoOp: clocks agree, nothing to reconcile.
	NoOp Decision = iota
	// FastForward: the server moved on and no local edits are at risk, adopt
	// the server collection wholesale.
	FastForward
	// Conflict: the user has to choose a side.
	Conflict
)

func (d Decision) String() string {
	switch d {
	case NoOp:
		return "no-op"
	case FastForward:
		return "fast-forward"
	case Conflict:
		return "conflict"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Decide compares the client clock with the server clock. A client clock
// ahead of the server only happens after a server-side rollback and is
// treated as a conflict.
func Decide(client, server time.Time, queued int) Decision {
	switch {
	case client.Equal(server):
		return NoOp
	case client.Before(server) && queued == 0:
		return FastForward
	default:
		return Conflict
	}
}

// Resolution is the user's answer to a conflict.
type Resolution string

const (
	// ResolutionServer discards the local collection and queue and adopts
	// the server collection and clock.
	ResolutionServer Resolution = "server"
	// ResolutionLocal pushes the local collection as the new server state
	// and adopts the clock the server returns.
	ResolutionLocal Resolution = "local"
)

func ParseResolution(s string) (Resolution, error) {
	switch Resolution(s) {
	case ResolutionServer, ResolutionLocal:
		return Resolution(s), nil
	}
	return "", fmt.Errorf("unknown resolution %q, want %q or %q", s, ResolutionServer, ResolutionLocal)
}

var (
	// ErrClockDiverged is the cause of a conflict raised by Decide.
	ErrClockDiverged = errors.New("client and server clocks diverged")
	// ErrResolutionPending is returned by Dispatch while a conflict waits
	// for the user.
	ErrResolutionPending = errors.New("conflict resolution pending")
	// ErrStaleConflict is returned when answering a request the engine no
	// longer waits for.
	ErrStaleConflict = errors.New("conflict request is no longer pending")
	// ErrNotLoaded is returned by Dispatch before Load completed.
	ErrNotLoaded = errors.New("local state not loaded")
)

// ConflictRequest asks the user to pick a side. It carries enough context
// to present the choice.
type ConflictRequest struct {
	ClientLastSync time.Time
	ServerLastSync time.Time
	LocalCount     int
	ServerCount    int
	Pending        int
	Cause          error

	submit chan<- resolutionCall
}

type resolutionCall struct {
	req    *ConflictRequest
	choice Resolution
	reply  chan error
}

func (r *ConflictRequest) String() string {
	return fmt.Sprintf("local: %d reminders, %d unsent edits (synced %s); server: %d reminders (synced %s); cause: %v",
		r.LocalCount, r.Pending, r.ClientLastSync.Format(time.RFC3339),
		r.ServerCount, r.ServerLastSync.Format(time.RFC3339), r.Cause)
}

// Resolve hands the choice to the engine and waits until it was carried
// out. A failed "local" push is returned as is and the request stays
// pending, so the user may try again.
func (r *ConflictRequest) Resolve(ctx context.Context, choice Resolution) error {
	if _, err := ParseResolution(string(choice)); err != nil {
		return err
	}

	call := resolutionCall{req: r, choice: choice, reply: make(chan error, 1)}
	select {
	case r.submit <- call:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-call.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
