package syncer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/remindsync/internal/client/client"
	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/logging"
)

type DrainState int32

const (
	Idle DrainState = iota
	Sending
	ConflictPending
)

func (s DrainState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case ConflictPending:
		return "conflict-pending"
	}
	return "unknown"
}

// MutationLog is the part of the sync queue the drainer needs.
type MutationLog interface {
	Peek() (models.Mutation, bool)
	Dequeue() (models.Mutation, bool)
	Len() int
}

// Drainer sends queued mutations to the server one at a time.
//
// The state is a single atomic value. Idle -> Sending is a compare-and-swap,
// so overlapping Step calls never put two mutations in flight. Every send is
// stamped with the current epoch; Reset bumps it and a result from an older
// epoch is dropped.
type Drainer struct {
	state atomic.Int32
	epoch atomic.Uint64

	log     MutationLog
	gateway client.Gateway
	gate    func() bool
	logger  logging.Logger

	onSynced   func(ctx context.Context, m models.Mutation, res *client.MutationResult)
	onConflict func(ctx context.Context, m models.Mutation, err error)

	obsMu     sync.Mutex
	observers []chan DrainState
}

func NewDrainer(log MutationLog, gateway client.Gateway, logger logging.Logger) *Drainer {
	return &Drainer{
		log:        log,
		gateway:    gateway,
		gate:       func() bool { return true },
		logger:     logger.With("module", "drainer"),
		onSynced:   func(context.Context, models.Mutation, *client.MutationResult) {},
		onConflict: func(context.Context, models.Mutation, error) {},
	}
}

func (d *Drainer) State() DrainState {
	return DrainState(d.state.Load())
}

// Observe returns a channel holding the latest state. Slow readers only
// miss intermediate states.
func (d *Drainer) Observe() <-chan DrainState {
	ch := make(chan DrainState, 1)
	ch <- d.State()
	d.obsMu.Lock()
	d.observers = append(d.observers, ch)
	d.obsMu.Unlock()
	return ch
}

func (d *Drainer) setState(s DrainState) {
	d.state.Store(int32(s))
	d.publish(s)
}

func (d *Drainer) publish(s DrainState) {
	d.obsMu.Lock()
	defer d.obsMu.Unlock()
	for _, ch := range d.observers {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// Reset leaves ConflictPending (or abandons an in-flight send) and returns
// to Idle.
func (d *Drainer) Reset() {
	d.epoch.Add(1)
	d.setState(Idle)
}

// Step sends the head of the log once, if the drainer is idle, the gate is
// open and the log is not empty. It reports whether a mutation was
// acknowledged.
func (d *Drainer) Step(ctx context.Context) bool {
	if d.log.Len() == 0 || !d.gate() {
		return false
	}
	if !d.state.CompareAndSwap(int32(Idle), int32(Sending)) {
		return false
	}
	d.publish(Sending)

	head, ok := d.log.Peek()
	if !ok {
		d.setState(Idle)
		return false
	}
	epoch := d.epoch.Load()

	res, err := d.gateway.Mutate(ctx, head)

	if d.epoch.Load() != epoch {
		d.logger.Debug(ctx, "dropping stale send result", "id", head.Payload.ID)
		return false
	}

	if err != nil {
		if ctx.Err() != nil {
			d.setState(Idle)
			return false
		}
		d.logger.Warn(ctx, "mutation rejected, halting", "type", head.Type, "id", head.Payload.ID, "error", err)
		d.setState(ConflictPending)
		d.onConflict(ctx, head, err)
		return false
	}

	d.log.Dequeue()
	d.logger.Debug(ctx, "mutation acknowledged", "type", head.Type, "id", head.Payload.ID, "lastSync", res.LastSync)
	d.onSynced(ctx, head, res)
	d.setState(Idle)
	return true
}

// Drain calls Step until nothing more can be sent.
func (d *Drainer) Drain(ctx context.Context) int {
	n := 0
	for d.Step(ctx) {
		n++
	}
	return n
}
