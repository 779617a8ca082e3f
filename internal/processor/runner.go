package processor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/couchcryptid/hydro-tsproc/internal/command"
	"github.com/couchcryptid/hydro-tsproc/internal/domain"
)

// Runner runs scripts for long-lived callers such as the HTTP surface. Each script
// gets a fresh Processor; the supplier, decoder, and preconfigured datastores are
// shared, so they must be safe for concurrent use.
type Runner struct {
	opts        Options
	maxFailures int
	ready       atomic.Bool
	runs        atomic.Int64
}

// NewRunner creates a Runner. The Runner takes ownership of opts.DataStores and closes
// them in Close.
func NewRunner(opts Options, maxFailures int) *Runner {
	r := &Runner{opts: opts, maxFailures: maxFailures}
	r.ready.Store(true)
	return r
}

// RunScript parses and runs script in phase.
func (r *Runner) RunScript(ctx context.Context, script string, phase command.Phase) (*Summary, error) {
	if !r.ready.Load() {
		return nil, errors.New("runner is closed")
	}
	r.runs.Add(1)
	p := New(r.opts)
	return p.RunCommands(ctx, command.SplitLines(script), RunOptions{Phase: phase, MaxFailures: r.maxFailures})
}

// Runs returns how many scripts have been started.
func (r *Runner) Runs() int64 { return r.runs.Load() }

// CheckReadiness returns nil while the runner accepts scripts.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("runner is shutting down")
	}
	return nil
}

// DataStores returns the shared datastores.
func (r *Runner) DataStores() []domain.DataStore { return r.opts.DataStores }

// Close stops accepting scripts and closes the shared datastores.
func (r *Runner) Close() error {
	r.ready.Store(false)
	var errs []error
	for _, ds := range r.opts.DataStores {
		if err := ds.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close datastore %s: %w", ds.Name(), err))
		}
	}
	return errors.Join(errs...)
}
