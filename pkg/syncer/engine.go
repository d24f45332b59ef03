// Package syncer keeps a store.Store eventually consistent with the backend.
//
// The engine pulls the full snapshot on a fixed cadence and, after every
// local mutation, pushes the entire collection back before re-adopting the
// backend's view. Fetch and push-and-reconcile cycles are serialized by a
// single cycle lock: the refresh that follows a push cannot begin before the
// push response is observed, and a poll that fires while a cycle is running
// is skipped rather than overlapped.
package syncer

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kylerisse/pingboard/pkg/host"
	"github.com/kylerisse/pingboard/pkg/store"
)

// DefaultPollInterval is the refresh cadence used when none is configured.
const DefaultPollInterval = 10 * time.Second

// ErrNotLoaded is returned when a push is attempted before any snapshot
// has been fetched. Pushing then would overwrite the backend with nothing.
var ErrNotLoaded = errors.New("host store not loaded yet")

// Engine drives fetches and pushes for one operator session.
type Engine struct {
	backend  Backend
	store    *store.Store
	creds    Credentials
	logger   *logrus.Logger
	onChange func(store.Stats)

	cycle sync.Mutex // held for the duration of a fetch or push cycle

	mu       sync.Mutex // guards state, lastSync and poller
	state    State
	lastSync time.Time
	poller   *Poller
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithOnChange registers a callback fired after every successful snapshot
// replace, typically used to re-render.
func WithOnChange(fn func(store.Stats)) Option {
	return func(e *Engine) {
		e.onChange = fn
	}
}

// New creates an engine in the Unauthenticated state.
func New(backend Backend, st *store.Store, creds Credentials, opts ...Option) *Engine {
	e := &Engine{
		backend: backend,
		store:   st,
		creds:   creds,
		state:   Unauthenticated,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logrus.New()
		e.logger.SetOutput(io.Discard)
	}
	return e
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Store returns the store the engine keeps in sync.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Authenticate performs the first authenticated fetch. On success the
// engine is Synced; on any failure it returns to Unauthenticated and the
// error is returned for the credential owner to handle.
func (e *Engine) Authenticate(ctx context.Context) error {
	e.setState(Authenticating)
	if err := e.FetchSnapshot(ctx); err != nil {
		e.setState(Unauthenticated)
		return err
	}
	return nil
}

// FetchSnapshot reads the backend snapshot and installs it in the store.
// A transient failure leaves the store untouched. An auth failure stops
// polling and notifies the credentials.
func (e *Engine) FetchSnapshot(ctx context.Context) error {
	e.cycle.Lock()
	defer e.cycle.Unlock()
	return e.fetchLocked(ctx)
}

// PushAndReconcile sends the whole local collection to the backend and,
// once the push has been acknowledged, fetches the backend's view. A failed
// push is not retried; the local optimistic state stays in the store.
func (e *Engine) PushAndReconcile(ctx context.Context) error {
	e.cycle.Lock()
	defer e.cycle.Unlock()
	return e.pushLocked(ctx)
}

// Save applies an operator edit locally and persists the collection. The
// stored record is returned even when the push fails, since the local edit
// remains visible until the next successful fetch replaces it.
//
// The edit, the push and the reconcile run as one cycle, so a poll already
// in flight lands before the edit rather than on top of it.
func (e *Engine) Save(ctx context.Context, h host.Host) (host.Host, error) {
	e.cycle.Lock()
	defer e.cycle.Unlock()

	if !e.store.Loaded() {
		return host.Host{}, ErrNotLoaded
	}
	saved, err := e.store.UpsertLocal(h)
	if err != nil {
		return host.Host{}, err
	}
	return saved, e.pushLocked(ctx)
}

// Delete removes a host locally and persists the collection.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	e.cycle.Lock()
	defer e.cycle.Unlock()

	if !e.store.Loaded() {
		return ErrNotLoaded
	}
	if !e.store.RemoveLocal(id) {
		e.logger.Debugf("Host %d not present locally, pushing anyway", id)
	}
	return e.pushLocked(ctx)
}

// pushLocked pushes the store and reconciles. Callers must hold e.cycle.
func (e *Engine) pushLocked(ctx context.Context) error {
	if !e.store.Loaded() {
		return ErrNotLoaded
	}

	hosts := e.store.Snapshot()
	if err := e.backend.Push(ctx, e.creds.Token(), hosts); err != nil {
		return e.failed("push", err)
	}
	e.logger.Debugf("Pushed %d host(s) to backend", len(hosts))

	return e.fetchLocked(ctx)
}

// fetchLocked performs one fetch. Callers must hold e.cycle.
func (e *Engine) fetchLocked(ctx context.Context) error {
	hosts, err := e.backend.Fetch(ctx, e.creds.Token())
	if err != nil {
		return e.failed("fetch", err)
	}

	e.store.ReplaceAll(hosts)
	e.setState(Synced)
	e.mu.Lock()
	e.lastSync = time.Now()
	e.mu.Unlock()

	stats := e.store.Stats()
	e.logger.Debugf("Snapshot applied: %d total, %d online, %d offline", stats.Total, stats.Online, stats.Offline)
	if e.onChange != nil {
		e.onChange(stats)
	}
	return nil
}

// failed classifies a backend error. Auth failures drop the session back to
// Unauthenticated; everything else is reported as transient.
func (e *Engine) failed(op string, err error) error {
	if errors.Is(err, ErrAuth) {
		e.logger.Warnf("Backend rejected credential on %s: %v", op, err)
		e.setState(Unauthenticated)
		e.StopPolling()
		e.creds.Rejected(err)
		return err
	}

	if !errors.Is(err, ErrTransient) {
		err = &TransientSyncError{Op: op, Err: err}
	}
	e.logger.Warnf("Sync %s failed, keeping current state until next attempt: %v", op, err)
	return err
}

// syncedWithin reports whether a snapshot was applied less than d ago.
func (e *Engine) syncedWithin(d time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.lastSync.IsZero() && time.Since(e.lastSync) < d
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != s {
		e.logger.Debugf("Sync state %s -> %s", e.state, s)
	}
	e.state = s
}
