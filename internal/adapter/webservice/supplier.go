package webservice

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/couchcryptid/hydro-tsproc/internal/observability"
)

const queryTimeLayout = "2006-01-02T15:04:05"

// Supplier implements domain.Supplier on top of a Fetcher and a WaterML decoder.
type Supplier struct {
	baseURL string
	fetcher Fetcher
	decoder domain.Decoder
	logger  *slog.Logger
}

// NewSupplier creates a Supplier for the service rooted at baseURL.
func NewSupplier(baseURL string, fetcher Fetcher, decoder domain.Decoder, logger *slog.Logger) *Supplier {
	return &Supplier{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		decoder: decoder,
		logger:  logger,
	}
}

// ReadTimeSeries fetches and decodes the values for q, converting to q.Units when set.
func (s *Supplier) ReadTimeSeries(ctx context.Context, q domain.SupplierQuery) ([]*domain.TimeSeries, error) {
	if strings.TrimSpace(q.Location) == "" || strings.TrimSpace(q.DataType) == "" {
		return nil, fmt.Errorf("location and variable are required")
	}
	u := s.valuesURL(q)
	doc, err := s.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, nil
	}

	var period domain.Period
	if q.Start != nil {
		period.Start = *q.Start
	}
	if q.End != nil {
		period.End = *q.End
	}
	series, err := s.decoder.Decode(doc, domain.DecodeOptions{
		Provenance: u,
		Interval:   q.Interval,
		ReadData:   q.ReadData,
		Period:     period,
	})
	if err != nil {
		return nil, err
	}
	if q.Units != "" {
		for _, ts := range series {
			if err := domain.ConvertUnits(ts, q.Units); err != nil {
				return nil, fmt.Errorf("%s: %w", ts.ID, err)
			}
		}
	}
	s.logger.Debug("web service time series read", "location", q.Location, "variable", q.DataType, "count", len(series))
	return series, nil
}

// valuesURL builds GET {base}/GetValues?location=&variable=&startDate=&endDate=.
func (s *Supplier) valuesURL(q domain.SupplierQuery) string {
	params := url.Values{
		"location": {q.Location},
		"variable": {q.DataType},
	}
	if q.Start != nil {
		params.Set("startDate", q.Start.UTC().Format(queryTimeLayout))
	}
	if q.End != nil {
		params.Set("endDate", q.End.UTC().Format(queryTimeLayout))
	}
	return s.baseURL + "/GetValues?" + params.Encode()
}

// Options configures New.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	CacheSize int
}

// New wires the HTTP client, document cache, and decoder into a Supplier.
func New(opts Options, decoder domain.Decoder, metrics *observability.Metrics, logger *slog.Logger) *Supplier {
	client := NewClient(opts.Timeout, opts.RateLimit, metrics, logger)
	var fetcher Fetcher = client
	if opts.CacheSize > 0 {
		fetcher = NewCachedFetcher(client, opts.CacheSize, metrics)
	}
	metrics.WebServiceEnabled.Set(1)
	return NewSupplier(opts.BaseURL, fetcher, decoder, logger)
}
