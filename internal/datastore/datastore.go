// Package datastore opens datastore definitions onto their adapters.
package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/hydro-tsproc/internal/adapter/filestore"
	"github.com/couchcryptid/hydro-tsproc/internal/adapter/kafka"
	"github.com/couchcryptid/hydro-tsproc/internal/adapter/objectstore"
	"github.com/couchcryptid/hydro-tsproc/internal/adapter/postgres"
	redisstore "github.com/couchcryptid/hydro-tsproc/internal/adapter/redis"
	"github.com/couchcryptid/hydro-tsproc/internal/config"
	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/redis/go-redis/v9"
)

// Opener opens a definition. The processor calls it for NewDataStore commands and for
// definitions loaded from the datastore file.
type Opener interface {
	Open(ctx context.Context, def config.DataStore) (domain.DataStore, error)
}

// Factory opens definitions using service-level defaults from cfg.
type Factory struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewFactory returns a Factory. cfg and logger may be nil.
func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Factory{cfg: cfg, logger: logger}
}

// Open validates def and connects the adapter for its type.
func (f *Factory) Open(ctx context.Context, def config.DataStore) (domain.DataStore, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	typ, _ := config.CanonicalType(def.Type)
	switch typ {
	case config.DataStoreFile:
		return filestore.New(def.Name, def.Path, f.logger)
	case config.DataStoreRedis:
		opts, err := redisOptions(def.Address)
		if err != nil {
			return nil, fmt.Errorf("datastore %s: %w", def.Name, err)
		}
		return redisstore.New(ctx, def.Name, opts, def.Namespace)
	case config.DataStorePostgres:
		return postgres.New(ctx, def.Name, def.Address, def.Namespace)
	case config.DataStoreKafka:
		brokers := f.cfg.KafkaBrokers
		if def.Address != "" {
			brokers = sharedcfg.ParseBrokers(def.Address)
		}
		return kafka.New(def.Name, brokers, def.Topic, f.logger)
	case config.DataStoreObjectStore:
		return objectstore.New(ctx, def.Name, f.objectStoreOptions(def))
	}
	return nil, fmt.Errorf("datastore %s: unsupported type %q", def.Name, def.Type)
}

// Open is shorthand for NewFactory(cfg, logger).Open(ctx, def).
func Open(ctx context.Context, def config.DataStore, cfg *config.Config, logger *slog.Logger) (domain.DataStore, error) {
	return NewFactory(cfg, logger).Open(ctx, def)
}

// objectStoreOptions fills credentials from the service config when the definition
// omits them.
func (f *Factory) objectStoreOptions(def config.DataStore) objectstore.Options {
	opts := objectstore.Options{
		Endpoint:  def.Address,
		Bucket:    def.Bucket,
		Prefix:    def.Namespace,
		AccessKey: def.AccessKey,
		SecretKey: def.SecretKey,
		UseSSL:    def.UseSSL || f.cfg.ObjectStoreUseSSL,
		Region:    def.Region,
	}
	if opts.AccessKey == "" {
		opts.AccessKey = f.cfg.ObjectStoreAccessKey
	}
	if opts.SecretKey == "" {
		opts.SecretKey = f.cfg.ObjectStoreSecretKey
	}
	if opts.Region == "" {
		opts.Region = f.cfg.ObjectStoreRegion
	}
	return opts
}

// redisOptions accepts either host:port or a redis:// URL.
func redisOptions(address string) (*redis.Options, error) {
	if strings.HasPrefix(address, "redis://") || strings.HasPrefix(address, "rediss://") {
		return redis.ParseURL(address)
	}
	return &redis.Options{Addr: address}, nil
}

// OpenAll opens every definition in order, closing those already opened when one
// fails.
func OpenAll(ctx context.Context, opener Opener, defs []config.DataStore) ([]domain.DataStore, error) {
	opened := make([]domain.DataStore, 0, len(defs))
	for _, def := range defs {
		ds, err := opener.Open(ctx, def)
		if err != nil {
			for _, o := range opened {
				_ = o.Close()
			}
			return nil, fmt.Errorf("open datastore %s: %w", def.Name, err)
		}
		opened = append(opened, ds)
	}
	return opened, nil
}
