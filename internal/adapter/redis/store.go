// Package redis stores time series documents in Redis under a key namespace.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes keys when the definition does not set one.
const DefaultNamespace = "tsproc"

// Store is a Redis-backed datastore. Each record is a string key holding its JSON
// document; a set indexes the keys in the namespace.
type Store struct {
	name      string
	namespace string
	rdb       *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, name string, opts *redis.Options, namespace string) (*Store, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: ping %s: %w", name, opts.Addr, err)
	}
	return &Store{name: name, namespace: namespace, rdb: rdb}, nil
}

func (s *Store) Name() string { return s.name }
func (s *Store) Type() string { return "Redis" }

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) indexKey() string {
	return s.namespace + ":ts:index"
}

func (s *Store) recordKey(key string) string {
	return s.namespace + ":ts:" + key
}

// WriteTimeSeries stores every record in one transaction.
func (s *Store) WriteTimeSeries(ctx context.Context, series []*domain.TimeSeries) error {
	if len(series) == 0 {
		return nil
	}
	docs := make(map[string][]byte, len(series))
	for _, ts := range series {
		data, err := domain.MarshalTimeSeries(ts)
		if err != nil {
			return err
		}
		docs[domain.StorageKey(ts)] = data
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, data := range docs {
			pipe.Set(ctx, s.recordKey(key), data, 0)
			pipe.SAdd(ctx, s.indexKey(), key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write time series to Redis: %w", err)
	}
	return nil
}

// ReadTimeSeries returns the indexed records matching pattern.
func (s *Store) ReadTimeSeries(ctx context.Context, pattern string, period domain.Period) ([]*domain.TimeSeries, error) {
	keys, err := s.rdb.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read time series index from Redis: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)
	recordKeys := make([]string, len(keys))
	for i, k := range keys {
		recordKeys[i] = s.recordKey(k)
	}
	values, err := s.rdb.MGet(ctx, recordKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read time series from Redis: %w", err)
	}

	all := make([]*domain.TimeSeries, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// Indexed but deleted out of band.
			continue
		}
		ts, err := domain.UnmarshalTimeSeries([]byte(str))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", recordKeys[i], err)
		}
		all = append(all, ts)
	}
	return domain.FilterSeries(all, pattern, period), nil
}

// IsNotFound reports whether err is the Redis missing-key error.
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
