package domain

import (
	"context"
	"time"
)

// SupplierQuery describes a remote time series request.
type SupplierQuery struct {
	Location string
	DataType string
	Interval string // hint applied when the served format omits the interval
	Units    string // requested units; empty keeps the served units
	Start    *time.Time
	End      *time.Time
	ReadData bool
}

// Supplier fetches time series from a remote service.
type Supplier interface {
	ReadTimeSeries(ctx context.Context, q SupplierQuery) ([]*TimeSeries, error)
}

// DecodeOptions controls a single decode call.
type DecodeOptions struct {
	// Provenance is the source URL or file path, recorded in genesis only.
	Provenance string
	// Interval is used when the document does not carry an interval.
	Interval string
	ReadData bool
	Period   Period
}

// Decoder turns served content into time series records.
type Decoder interface {
	Decode(content []byte, opts DecodeOptions) ([]*TimeSeries, error)
}

// DataStore is a named, opened connection to time series storage.
type DataStore interface {
	Name() string
	Type() string
	// ReadTimeSeries returns records whose identifier matches pattern, with points
	// limited to period.
	ReadTimeSeries(ctx context.Context, pattern string, period Period) ([]*TimeSeries, error)
	WriteTimeSeries(ctx context.Context, series []*TimeSeries) error
	Close() error
}
