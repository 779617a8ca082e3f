// Package registry holds the ordered time series results and the property map shared
// by every command in a run.
//
// Position is meaningful: lookups by identifier search from the end so the most
// recently produced record wins. The registry is not safe for concurrent writers; the
// processor executes commands one at a time.
package registry

import (
	"fmt"
	"sort"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
)

// NotFound is the position returned when an identifier does not resolve.
const NotFound = -1

// Entry pairs a record with its registry position.
type Entry struct {
	TimeSeries *domain.TimeSeries
	Position   int
}

// Registry is the ordered result list plus the property map.
type Registry struct {
	series     []*domain.TimeSeries
	properties map[string]any
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{properties: map[string]any{}}
}

// Len returns the number of records.
func (r *Registry) Len() int {
	return len(r.series)
}

// At returns the record at pos.
func (r *Registry) At(pos int) (*domain.TimeSeries, bool) {
	if pos < 0 || pos >= len(r.series) {
		return nil, false
	}
	return r.series[pos], true
}

// All returns the records in registry order. The slice is a copy.
func (r *Registry) All() []*domain.TimeSeries {
	out := make([]*domain.TimeSeries, len(r.series))
	copy(out, r.series)
	return out
}

// IndexOf returns the highest position whose alias or identifier matches id, or
// NotFound.
func (r *Registry) IndexOf(id string) int {
	for i := len(r.series) - 1; i >= 0; i-- {
		ts := r.series[i]
		if domain.MatchesString(id, ts.Alias, ts.ID) {
			return i
		}
	}
	return NotFound
}

// Get returns the most recent record matching id.
func (r *Registry) Get(id string) (*domain.TimeSeries, bool) {
	pos := r.IndexOf(id)
	if pos == NotFound {
		return nil, false
	}
	return r.series[pos], true
}

// Resolve returns every position matching pattern, in registry order.
func (r *Registry) Resolve(pattern string) []int {
	var out []int
	for i, ts := range r.series {
		if domain.MatchesString(pattern, ts.Alias, ts.ID) {
			out = append(out, i)
		}
	}
	return out
}

// Append adds a record at the end.
func (r *Registry) Append(ts *domain.TimeSeries) {
	r.series = append(r.series, ts)
}

// Set overwrites the record at pos.
func (r *Registry) Set(pos int, ts *domain.TimeSeries) error {
	if pos < 0 || pos >= len(r.series) {
		return fmt.Errorf("set time series at %d of %d: %w", pos, len(r.series), domain.ErrOutOfBounds)
	}
	r.series[pos] = ts
	return nil
}

// Property returns the value stored under key.
func (r *Registry) Property(key string) (any, bool) {
	if key == PropTSResultsList {
		return r.All(), true
	}
	v, ok := r.properties[key]
	return v, ok
}

// SetProperty stores value under key, replacing any previous value.
func (r *Registry) SetProperty(key string, value any) {
	r.properties[key] = value
}

// PropertyNames returns the stored keys in sorted order.
func (r *Registry) PropertyNames() []string {
	names := make([]string, 0, len(r.properties))
	for k := range r.properties {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
