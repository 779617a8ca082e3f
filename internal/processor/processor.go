// Package processor runs command lists against a result registry.
//
// A Processor owns one registry and executes commands strictly in order. It is the
// command.Processor every unit sees: registry passthrough, date/time resolution,
// property expansion, paths, and the external collaborators (supplier, decoder,
// datastores).
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/couchcryptid/hydro-tsproc/internal/config"
	"github.com/couchcryptid/hydro-tsproc/internal/datastore"
	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/couchcryptid/hydro-tsproc/internal/observability"
	"github.com/couchcryptid/hydro-tsproc/internal/registry"
	"github.com/jonboulle/clockwork"
)

// Options are the collaborators for a Processor. Only Logger is commonly set; the
// rest default to disabled or real implementations.
type Options struct {
	Supplier domain.Supplier
	Decoder  domain.Decoder
	// DataStores are published to the registry at construction. The caller owns them.
	DataStores []domain.DataStore
	// Opener opens NewDataStore definitions. Stores it opens are closed after Run.
	Opener     datastore.Opener
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	WorkingDir string
	Clock      clockwork.Clock
}

// Processor executes commands sequentially. It is not safe for concurrent use.
type Processor struct {
	reg      *registry.Registry
	supplier domain.Supplier
	decoder  domain.Decoder
	opener   datastore.Opener
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	owned    []domain.DataStore
}

// New creates a Processor with an empty registry.
func New(opts Options) *Processor {
	p := &Processor{
		reg:      registry.New(),
		supplier: opts.Supplier,
		decoder:  opts.Decoder,
		opener:   opts.Opener,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		clock:    opts.Clock,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.metrics == nil {
		p.metrics = observability.NewMetricsForTesting()
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	if opts.WorkingDir != "" {
		p.reg.SetProperty(registry.PropWorkingDir, filepath.Clean(opts.WorkingDir))
	}
	for _, ds := range opts.DataStores {
		p.reg.SetDataStore(ds)
	}
	return p
}

// Registry returns the result registry for inspection after a run.
func (p *Processor) Registry() *registry.Registry { return p.reg }

func (p *Processor) Property(key string) (any, bool) { return p.reg.Property(key) }
func (p *Processor) SetProperty(key string, value any) { p.reg.SetProperty(key, value) }

func (p *Processor) TimeSeries(id string) (*domain.TimeSeries, bool) { return p.reg.Get(id) }
func (p *Processor) TimeSeriesAt(pos int) (*domain.TimeSeries, bool) { return p.reg.At(pos) }
func (p *Processor) IndexOf(id string) int { return p.reg.IndexOf(id) }

// TimeSeriesToProcess returns the records chosen by selector.
func (p *Processor) TimeSeriesToProcess(selector registry.Selector, pattern string) ([]registry.Entry, error) {
	return p.reg.Selection(selector, pattern)
}

// AppendTimeSeries adds records at the end of the registry.
func (p *Processor) AppendTimeSeries(series ...*domain.TimeSeries) {
	for _, ts := range series {
		p.reg.Append(ts)
	}
	p.metrics.SeriesAppended.Add(float64(len(series)))
}

// SetTimeSeries replaces the record at pos.
func (p *Processor) SetTimeSeries(pos int, ts *domain.TimeSeries) error {
	return p.reg.Set(pos, ts)
}

func (p *Processor) DataStore(name string) (domain.DataStore, bool) { return p.reg.DataStore(name) }
func (p *Processor) SetDataStore(ds domain.DataStore) { p.reg.SetDataStore(ds) }

// OpenDataStore opens def with the configured opener. The processor closes it when the
// run ends.
func (p *Processor) OpenDataStore(ctx context.Context, def config.DataStore) (domain.DataStore, error) {
	if p.opener == nil {
		return nil, fmt.Errorf("datastore %s: %w: no datastore opener is configured", def.Name, domain.ErrUnsupported)
	}
	ds, err := p.opener.Open(ctx, def)
	if err != nil {
		return nil, err
	}
	p.owned = append(p.owned, ds)
	return ds, nil
}

func (p *Processor) Supplier() domain.Supplier { return p.supplier }
func (p *Processor) Decoder() domain.Decoder { return p.decoder }
func (p *Processor) Logger() *slog.Logger { return p.logger }

// WorkingDir returns the current working directory property.
func (p *Processor) WorkingDir() string { return p.reg.WorkingDir() }

// ResolvePath makes p absolute against the working directory. Without a working
// directory a relative path is returned cleaned but unchanged.
func (p *Processor) ResolvePath(path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if wd := p.WorkingDir(); wd != "" {
		return filepath.Join(wd, path)
	}
	return filepath.Clean(path)
}

// closeOwned closes the datastores opened during the run.
func (p *Processor) closeOwned() error {
	var errs []error
	for _, ds := range p.owned {
		if err := ds.Close(); err != nil {
			p.logger.Warn("close datastore failed", "datastore", ds.Name(), "error", err)
			errs = append(errs, fmt.Errorf("close datastore %s: %w", ds.Name(), err))
		}
	}
	p.owned = nil
	return errors.Join(errs...)
}
