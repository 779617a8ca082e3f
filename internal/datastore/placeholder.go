package datastore

import (
	"context"
	"fmt"

	"github.com/couchcryptid/hydro-tsproc/internal/config"
	"github.com/couchcryptid/hydro-tsproc/internal/domain"
)

// Placeholder stands in for a datastore during discovery, when definitions are
// registered but nothing is connected.
type Placeholder struct {
	def config.DataStore
}

// NewPlaceholder returns an unconnected datastore for def.
func NewPlaceholder(def config.DataStore) *Placeholder {
	if typ, ok := config.CanonicalType(def.Type); ok {
		def.Type = typ
	}
	return &Placeholder{def: def}
}

func (p *Placeholder) Name() string { return p.def.Name }
func (p *Placeholder) Type() string { return p.def.Type }
func (p *Placeholder) Close() error { return nil }

// Definition returns the definition the placeholder was built from.
func (p *Placeholder) Definition() config.DataStore { return p.def }

func (p *Placeholder) ReadTimeSeries(context.Context, string, domain.Period) ([]*domain.TimeSeries, error) {
	return nil, fmt.Errorf("datastore %s is not open: %w", p.def.Name, domain.ErrUnsupported)
}

func (p *Placeholder) WriteTimeSeries(context.Context, []*domain.TimeSeries) error {
	return fmt.Errorf("datastore %s is not open: %w", p.def.Name, domain.ErrUnsupported)
}
