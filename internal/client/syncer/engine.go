package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/client/client"
	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/client/store"
	"github.com/dmitrijs2005/remindsync/internal/client/syncqueue"
	"github.com/dmitrijs2005/remindsync/internal/common"
	"github.com/dmitrijs2005/remindsync/internal/logging"
	"github.com/dmitrijs2005/remindsync/internal/timex"
)

// Status is what the UI shows about synchronisation. Values never overlap.
type Status string

const (
	StatusOffline      Status = "offline"
	StatusSignedOut    Status = "signed-out"
	StatusSyncing      Status = "syncing"
	StatusConflict     Status = "conflict"
	StatusSynchronized Status = "synchronized"
)

// Session is the identity state as far as syncing is concerned.
type Session struct {
	Finished bool
	UserID   string
}

func (s Session) Authenticated() bool {
	return s.Finished && s.UserID != ""
}

// serverSnapshot is the last known server collection and clock.
type serverSnapshot struct {
	reminders []models.Reminder
	lastSync  time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now, used for timestamp normalisation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type Engine struct {
	store   *store.Store
	queue   *syncqueue.Queue
	gateway client.Gateway
	drainer *Drainer
	logger  logging.Logger
	now     func() time.Time

	mu         sync.Mutex
	online     bool
	session    Session
	loaded     bool
	reconciled bool
	server     *serverSnapshot
	pending    *ConflictRequest
	gen        uint64

	kick        chan struct{}
	resolutions chan resolutionCall
	conflicts   chan *ConflictRequest
	errs        chan error
	changes     chan struct{}
}

func NewEngine(st *store.Store, q *syncqueue.Queue, gw client.Gateway, logger logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:       st,
		queue:       q,
		gateway:     gw,
		logger:      logger.With("module", "syncer"),
		now:         time.Now,
		kick:        make(chan struct{}, 1),
		resolutions: make(chan resolutionCall),
		conflicts:   make(chan *ConflictRequest, 1),
		errs:        make(chan error, 8),
		changes:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.drainer = NewDrainer(q, gw, logger)
	e.drainer.gate = e.canDrain
	e.drainer.onSynced = e.onSynced
	e.drainer.onConflict = e.onDrainConflict
	return e
}

// Drainer exposes the drainer for observation.
func (e *Engine) Drainer() *Drainer { return e.drainer }

// Conflicts delivers every conflict request that needs an answer.
func (e *Engine) Conflicts() <-chan *ConflictRequest { return e.conflicts }

// Errors delivers failures the user should know about: a failed list of
// the server collection and a failed resolution.
func (e *Engine) Errors() <-chan error { return e.errs }

// Changes fires whenever Status or the collection may have changed.
func (e *Engine) Changes() <-chan struct{} { return e.changes }

// Kick asks the loop to look for work.
func (e *Engine) Kick() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

func (e *Engine) changed() {
	select {
	case e.changes <- struct{}{}:
	default:
	}
}

func (e *Engine) report(err error) {
	select {
	case e.errs <- err:
	default:
	}
}

// Load restores the collection, clock and queue. It must complete before
// Dispatch is accepted and before any network activity.
func (e *Engine) Load(ctx context.Context) error {
	if err := e.store.Load(ctx); err != nil {
		return err
	}
	if err := e.queue.Load(ctx); err != nil {
		return err
	}
	// Lost queued edits leave the collection ahead of the clock.
	if e.queue.Corrupt() {
		e.store.SetLastSync(store.Epoch)
	}

	e.mu.Lock()
	e.loaded = true
	e.gen++
	e.mu.Unlock()

	e.changed()
	e.Kick()
	return nil
}

// Save persists the collection, clock and queue.
func (e *Engine) Save(ctx context.Context) error {
	return errors.Join(e.store.Save(ctx), e.queue.Save(ctx))
}

func (e *Engine) persist(ctx context.Context) {
	if err := e.Save(ctx); err != nil {
		e.logger.Error(ctx, "failed to persist local state", "error", err)
	}
}

// canSyncLocked reports connected, authenticated and loaded.
func (e *Engine) canSyncLocked() bool {
	return e.online && e.session.Authenticated() && e.loaded
}

// update applies fn under the lock and, when the ability to sync changed,
// forgets the reconciliation so the next loop iteration lists the server
// again.
func (e *Engine) update(fn func()) {
	e.mu.Lock()
	before := e.canSyncLocked()
	fn()
	after := e.canSyncLocked()
	if before != after {
		e.gen++
		e.reconciled = false
	}
	e.mu.Unlock()

	e.changed()
	e.Kick()
}

func (e *Engine) SetOnline(online bool) {
	e.update(func() { e.online = online })
}

func (e *Engine) SetSession(s Session) {
	e.update(func() {
		if s.UserID != e.session.UserID {
			e.gen++
			e.reconciled = false
			e.server = nil
		}
		e.session = s
	})
}

// Refresh forces a new comparison with the server on the next iteration.
func (e *Engine) Refresh() {
	e.update(func() {
		e.gen++
		e.reconciled = false
	})
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case !e.online:
		return StatusOffline
	case !e.session.Authenticated():
		return StatusSignedOut
	case e.pending != nil || e.drainer.State() == ConflictPending:
		return StatusConflict
	case !e.loaded || !e.reconciled || e.queue.Len() > 0 || e.drainer.State() == Sending:
		return StatusSyncing
	default:
		return StatusSynchronized
	}
}

// PendingConflict returns the request waiting for an answer, if any.
func (e *Engine) PendingConflict() *ConflictRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

func (e *Engine) Reminders() []models.Reminder {
	return e.store.GetAll()
}

func (e *Engine) Pending() []models.Mutation {
	return e.queue.Items()
}

// Dispatch applies a local intent and queues it for the server. The
// timestamp of add and change is moved to its next occurrence first.
func (e *Engine) Dispatch(ctx context.Context, m models.Mutation) error {
	if !m.Type.Valid() {
		return fmt.Errorf("unknown mutation type %q", m.Type)
	}

	e.mu.Lock()
	switch {
	case !e.loaded:
		e.mu.Unlock()
		return ErrNotLoaded
	case e.pending != nil:
		e.mu.Unlock()
		return ErrResolutionPending
	}

	if m.Type != models.MutationAdd {
		if _, ok := e.store.Get(m.Payload.ID); !ok {
			e.mu.Unlock()
			return fmt.Errorf("reminder %s: %w", m.Payload.ID, common.ErrNotFound)
		}
	}
	if m.Type != models.MutationDelete {
		m.Payload.Timestamp = timex.NextOccurrence(m.Payload.Timestamp, e.now())
	}

	e.store.Apply(m)
	e.queue.Enqueue(m)
	e.mu.Unlock()

	e.logger.Debug(ctx, "dispatched", "type", m.Type, "id", m.Payload.ID)
	e.persist(ctx)
	e.changed()
	e.Kick()
	return nil
}

// Run is the sync loop. It returns when ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.Kick()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.kick:
			e.step(ctx)
		case call := <-e.resolutions:
			call.reply <- e.resolve(ctx, call.req, call.choice)
			e.step(ctx)
		}
	}
}

type action int

const (
	actNone action = iota
	actList
	actDrain
)

func (e *Engine) next(listed bool) action {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.canSyncLocked() || e.pending != nil {
		return actNone
	}
	if !e.reconciled {
		if listed {
			return actNone
		}
		return actList
	}
	if e.drainer.State() == Idle && e.queue.Len() > 0 {
		return actDrain
	}
	return actNone
}

// step performs work until there is none left. The server collection is
// listed at most once per step so a failing list is retried on the next
// kick rather than in a tight loop.
func (e *Engine) step(ctx context.Context) {
	listed := false
	for ctx.Err() == nil {
		switch e.next(listed) {
		case actList:
			listed = true
			e.reconcile(ctx)
		case actDrain:
			if !e.drainer.Step(ctx) {
				return
			}
		default:
			return
		}
	}
}

func (e *Engine) canDrain() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canSyncLocked() && e.reconciled && e.pending == nil
}

// reconcile lists the server collection and acts on Decide.
func (e *Engine) reconcile(ctx context.Context) {
	e.mu.Lock()
	gen := e.gen
	e.mu.Unlock()

	res, err := e.gateway.List(ctx, true)
	if err == nil && res.LastSync == nil {
		err = errors.New("server did not return its clock")
	}

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		e.logger.Debug(ctx, "dropping stale server list")
		return
	}
	if err != nil {
		e.mu.Unlock()
		if ctx.Err() == nil {
			e.logger.Warn(ctx, "failed to list server reminders", "error", err)
			e.report(fmt.Errorf("list server reminders: %w", err))
		}
		return
	}

	server := &serverSnapshot{reminders: res.Reminders, lastSync: *res.LastSync}
	e.server = server

	clientClock := e.store.LastSync()
	queued := e.queue.Len()
	decision := Decide(clientClock, server.lastSync, queued)
	e.logger.Info(ctx, "reconciling", "decision", decision, "client", clientClock, "server", server.lastSync, "queued", queued)

	switch decision {
	case NoOp:
		e.reconciled = true
		e.mu.Unlock()
	case FastForward:
		e.store.Reset(server.reminders)
		e.store.SetLastSync(server.lastSync)
		e.reconciled = true
		e.mu.Unlock()
		e.persist(ctx)
	default:
		req := e.raiseLocked(ErrClockDiverged)
		e.mu.Unlock()
		e.offer(req)
	}
	e.changed()
}

func (e *Engine) onSynced(ctx context.Context, m models.Mutation, res *client.MutationResult) {
	e.mu.Lock()
	e.store.SetLastSync(res.LastSync)
	if e.server != nil {
		e.server.reminders = models.Apply(e.server.reminders, m)
		e.server.lastSync = res.LastSync
	}
	e.mu.Unlock()

	e.persist(ctx)
	e.changed()
}

func (e *Engine) onDrainConflict(_ context.Context, _ models.Mutation, err error) {
	e.mu.Lock()
	req := e.raiseLocked(err)
	e.mu.Unlock()

	e.offer(req)
	e.changed()
}

// raiseLocked creates the pending request unless one already exists.
func (e *Engine) raiseLocked(cause error) *ConflictRequest {
	if e.pending != nil {
		return nil
	}

	req := &ConflictRequest{
		ClientLastSync: e.store.LastSync(),
		LocalCount:     len(e.store.GetAll()),
		Pending:        e.queue.Len(),
		Cause:          cause,
		submit:         e.resolutions,
	}
	if e.server != nil {
		req.ServerLastSync = e.server.lastSync
		req.ServerCount = len(e.server.reminders)
	}
	e.pending = req
	return req
}

// offer publishes req, replacing an unread older request.
func (e *Engine) offer(req *ConflictRequest) {
	if req == nil {
		return
	}
	for {
		select {
		case e.conflicts <- req:
			return
		default:
		}
		select {
		case <-e.conflicts:
		default:
		}
	}
}

// resolve carries out the user's choice. On failure the request stays
// pending.
func (e *Engine) resolve(ctx context.Context, req *ConflictRequest, choice Resolution) error {
	e.mu.Lock()
	if req == nil || req != e.pending {
		e.mu.Unlock()
		return ErrStaleConflict
	}
	e.mu.Unlock()

	var err error
	switch choice {
	case ResolutionServer:
		err = e.adoptServer(ctx)
	case ResolutionLocal:
		err = e.pushLocal(ctx)
	default:
		_, err = ParseResolution(string(choice))
	}
	if err != nil {
		e.logger.Error(ctx, "conflict resolution failed", "choice", choice, "error", err)
		e.report(err)
		return err
	}

	e.drainer.Reset()
	e.mu.Lock()
	e.pending = nil
	e.reconciled = true
	e.mu.Unlock()
	// store observers held back while the conflict was pending
	e.store.Touch()

	e.logger.Info(ctx, "conflict resolved", "choice", choice, "lastSync", e.store.LastSync())
	e.persist(ctx)
	e.changed()
	return nil
}

func (e *Engine) adoptServer(ctx context.Context) error {
	res, err := e.gateway.List(ctx, true)
	if err != nil {
		return fmt.Errorf("fetch server reminders: %w", err)
	}
	if res.LastSync == nil {
		return errors.New("fetch server reminders: server did not return its clock")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Reset(res.Reminders)
	e.store.SetLastSync(*res.LastSync)
	e.queue.Clear()
	e.server = &serverSnapshot{reminders: res.Reminders, lastSync: *res.LastSync}
	return nil
}

func (e *Engine) pushLocal(ctx context.Context) error {
	records := e.store.GetAll()

	res, err := e.gateway.Reset(ctx, records)
	if err != nil {
		return fmt.Errorf("push local reminders: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.SetLastSync(res.LastSync)
	e.queue.Clear()
	e.server = &serverSnapshot{reminders: records, lastSync: res.LastSync}
	return nil
}
