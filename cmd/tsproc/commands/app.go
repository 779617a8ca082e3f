package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/hydro-tsproc/internal/adapter/waterml"
	"github.com/couchcryptid/hydro-tsproc/internal/adapter/webservice"
	"github.com/couchcryptid/hydro-tsproc/internal/config"
	"github.com/couchcryptid/hydro-tsproc/internal/datastore"
	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/couchcryptid/hydro-tsproc/internal/observability"
	"github.com/couchcryptid/hydro-tsproc/internal/processor"
)

// processMetrics registers the collectors once per process.
var processMetrics = sync.OnceValue(observability.NewMetrics)

// env is the configuration and collaborators shared by the subcommands.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &env{
		cfg:     cfg,
		logger:  observability.NewLoggerTo(os.Stderr, cfg),
		metrics: processMetrics(),
	}, nil
}

// dataStoreDefs reads DATASTORE_CONFIG. Relative File paths resolve against the
// working directory.
func (e *env) dataStoreDefs() ([]config.DataStore, error) {
	if e.cfg.DataStoreConfig == "" {
		return nil, nil
	}
	defs, err := config.LoadDataStores(e.cfg.DataStoreConfig)
	if err != nil {
		return nil, err
	}
	for i, d := range defs {
		if d.Type == config.DataStoreFile && !filepath.IsAbs(d.Path) {
			defs[i].Path = filepath.Join(e.cfg.WorkingDir, d.Path)
		}
	}
	return defs, nil
}

// options builds processor options. With connect unset, configured datastores are
// published as placeholders and the web service is not contacted.
func (e *env) options(ctx context.Context, workingDir string, connect bool) (processor.Options, error) {
	decoder := waterml.NewDecoder(e.logger, e.metrics)
	opts := processor.Options{
		Decoder:    decoder,
		Logger:     e.logger,
		Metrics:    e.metrics,
		WorkingDir: workingDir,
	}

	defs, err := e.dataStoreDefs()
	if err != nil {
		return opts, err
	}
	if !connect {
		for _, d := range defs {
			opts.DataStores = append(opts.DataStores, datastore.NewPlaceholder(d))
		}
		return opts, nil
	}

	factory := datastore.NewFactory(e.cfg, e.logger)
	opts.Opener = factory
	if opts.DataStores, err = datastore.OpenAll(ctx, factory, defs); err != nil {
		return opts, err
	}
	if e.cfg.WebServiceEnabled() {
		opts.Supplier = webservice.New(webservice.Options{
			BaseURL:   e.cfg.WebServiceURL,
			Timeout:   e.cfg.WebServiceTimeout,
			RateLimit: e.cfg.WebServiceRateLimit,
			CacheSize: e.cfg.WebServiceCacheSize,
		}, decoder, e.metrics, e.logger)
		e.logger.Info("web service supplier enabled", "url", e.cfg.WebServiceURL, "cache_size", e.cfg.WebServiceCacheSize)
	} else {
		e.logger.Info("web service supplier disabled")
	}
	return opts, nil
}

func closeStores(logger *slog.Logger, stores []domain.DataStore) {
	for _, ds := range stores {
		if err := ds.Close(); err != nil {
			logger.Error("datastore close error", "datastore", ds.Name(), "error", err)
		}
	}
}
