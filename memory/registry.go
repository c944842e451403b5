package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrNotInitialized is returned by Get before the first successful build.
var ErrNotInitialized = errors.New("memory store not initialized")

type registryState int

const (
	stateUninitialized registryState = iota
	stateInitializing
	stateReady
	stateFailed
)

// buildCall is one in-flight build shared by all concurrent initializers.
type buildCall struct {
	done chan struct{}
	err  error
}

// Registry is the process-wide holder of the current Store. Readers never
// observe a half-installed store: builds happen off to the side and are
// installed in a single step under the lock.
type Registry struct {
	mu       sync.RWMutex
	state    registryState
	store    *Store
	accounts map[string]AccountLite
	inflight *buildCall
	lastErr  error
	log      zerolog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{log: log}
}

// Set installs a new store and account lookup table, replacing any previous
// one atomically from the readers' perspective.
func (r *Registry) Set(store *Store, accounts map[string]AccountLite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store = store
	r.accounts = accounts
	r.state = stateReady
	r.lastErr = nil
	r.log.Info().Msg("memory store registry initialized")
}

// Get returns the current store, or ErrNotInitialized. Never blocks.
func (r *Registry) Get() (*Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != stateReady || r.store == nil {
		return nil, ErrNotInitialized
	}
	return r.store, nil
}

// AccountLookup returns the installed account lookup table, or nil before
// the first successful build.
func (r *Registry) AccountLookup() map[string]AccountLite {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.accounts
}

// IsInitialized reports whether a store is installed and not reset.
func (r *Registry) IsInitialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == stateReady && r.store != nil
}

// Reset drops the store. Used for rebuild-from-scratch and test isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store = nil
	r.accounts = nil
	r.state = stateUninitialized
	r.lastErr = nil
	r.log.Info().Msg("memory store registry reset")
}

// Initialize runs the expensive build at most once concurrently. Callers
// arriving mid-build await the same in-flight build and receive its result.
// A failed build does not poison the registry: the next call retries from
// scratch, and callers may choose to run degraded without memory search.
func (r *Registry) Initialize(ctx context.Context, builder *Builder) error {
	r.mu.Lock()
	if r.state == stateReady {
		r.mu.Unlock()
		return nil
	}
	if r.inflight != nil {
		call := r.inflight
		r.mu.Unlock()
		return r.wait(ctx, call)
	}

	call := &buildCall{done: make(chan struct{})}
	r.inflight = call
	r.state = stateInitializing
	r.mu.Unlock()

	go func() {
		store, err := builder.Build(context.WithoutCancel(ctx))

		r.mu.Lock()
		r.inflight = nil
		if err != nil {
			r.state = stateFailed
			r.lastErr = err
			r.log.Error().Err(err).Msg("memory store build failed")
		} else {
			r.store = store
			r.accounts = store.Accounts()
			r.state = stateReady
			r.lastErr = nil
			counts := store.Counts()
			r.log.Info().
				Int("docs", counts.Docs).
				Int("account_docs", counts.Account).
				Int("tx_docs", counts.Tx).
				Int("month_docs", counts.Month).
				Msg("memory store bootstrapped")
		}
		r.mu.Unlock()

		call.err = err
		close(call.done)
	}()

	return r.wait(ctx, call)
}

// LastError returns the error of the most recent failed build, if any.
func (r *Registry) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

func (r *Registry) wait(ctx context.Context, call *buildCall) error {
	select {
	case <-call.done:
		return call.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
