// Package filestore keeps time series as JSON documents in a local directory, one
// file per record.
package filestore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
)

const fileExt = ".json"

// Store is a directory-backed datastore. It is safe for concurrent use.
type Store struct {
	name   string
	dir    string
	logger *slog.Logger
	mu     sync.RWMutex
}

// New creates the directory if needed and returns a store rooted there.
func New(name, dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("filestore %s: directory is required", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore %s: create %s: %w", name, dir, err)
	}
	return &Store{name: name, dir: dir, logger: logger}, nil
}

func (s *Store) Name() string { return s.name }
func (s *Store) Type() string { return "File" }
func (s *Store) Dir() string { return s.dir }
func (s *Store) Close() error { return nil }

// WriteTimeSeries writes each record to its own file, replacing earlier versions.
func (s *Store) WriteTimeSeries(ctx context.Context, series []*domain.TimeSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ts := range series {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := domain.MarshalTimeSeries(ts)
		if err != nil {
			return err
		}
		path := filepath.Join(s.dir, fileName(ts))
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// ReadTimeSeries loads every document in the directory and returns those matching
// pattern. Unreadable files are logged and skipped.
func (s *Store) ReadTimeSeries(ctx context.Context, pattern string, period domain.Period) ([]*domain.TimeSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), fileExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all []*domain.TimeSeries
	for _, n := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.dir, n)
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("filestore read failed, skipping file", "datastore", s.name, "path", path, "error", err)
			continue
		}
		ts, err := domain.UnmarshalTimeSeries(data)
		if err != nil {
			s.logger.Warn("filestore decode failed, skipping file", "datastore", s.name, "path", path, "error", err)
			continue
		}
		all = append(all, ts)
	}
	return domain.FilterSeries(all, pattern, period), nil
}

// fileName escapes the storage key so identifiers map to safe file names.
func fileName(ts *domain.TimeSeries) string {
	return url.PathEscape(domain.StorageKey(ts)) + fileExt
}
