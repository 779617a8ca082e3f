// Package waterml decodes CUAHSI WaterML 1.0 and 1.1 and OGC WaterML 2.0 documents
// into time series records.
package waterml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/couchcryptid/hydro-tsproc/internal/observability"
)

// Version is a WaterML schema version.
type Version string

const (
	Version10 Version = "1.0"
	Version11 Version = "1.1"
	Version20 Version = "2.0"
)

// namespaces maps root namespace URIs to versions. Comparison ignores case and a
// trailing slash.
var namespaces = []struct {
	uri     string
	version Version
}{
	{"http://www.cuahsi.org/waterML/1.0/", Version10},
	{"http://www.cuahsi.org/waterML/1.1/", Version11},
	{"http://www.opengis.net/waterml/2.0", Version20},
}

// FormatError reports a document whose namespace is not a known WaterML version.
type FormatError struct {
	Provenance string
	Namespace  string
}

func (e *FormatError) Error() string {
	if e.Namespace == "" {
		return fmt.Sprintf("%s: no WaterML namespace found", e.Provenance)
	}
	return fmt.Sprintf("%s: unrecognized WaterML namespace %q", e.Provenance, e.Namespace)
}

func (e *FormatError) Unwrap() error { return domain.ErrUnrecognizedFormat }

// Decoder implements domain.Decoder. Values that fail to parse are logged, counted,
// and skipped.
type Decoder struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewDecoder returns a Decoder. metrics may be nil.
func NewDecoder(logger *slog.Logger, metrics *observability.Metrics) *Decoder {
	return &Decoder{logger: logger, metrics: metrics}
}

// Decode detects the version and decodes every time series in content.
func (d *Decoder) Decode(content []byte, opts domain.DecodeOptions) ([]*domain.TimeSeries, error) {
	version, err := DetectVersion(content, opts.Provenance)
	if err != nil {
		return nil, err
	}
	var series []*domain.TimeSeries
	switch version {
	case Version10, Version11:
		series, err = d.decodeV1(content, version, opts)
	case Version20:
		series, err = d.decodeV2(content, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("parse WaterML %s: %w", version, err)
	}
	for _, ts := range series {
		finish(ts, opts)
	}
	return series, nil
}

// DetectVersion reads the root element and matches its namespace, or a namespace it
// declares, against the known versions.
func DetectVersion(content []byte, provenance string) (Version, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", &FormatError{Provenance: provenance}
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", provenance, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if v, ok := lookupNamespace(start.Name.Space); ok {
			return v, nil
		}
		for _, a := range start.Attr {
			if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
				if v, ok := lookupNamespace(a.Value); ok {
					return v, nil
				}
			}
		}
		return "", &FormatError{Provenance: provenance, Namespace: start.Name.Space}
	}
}

func lookupNamespace(uri string) (Version, bool) {
	uri = strings.TrimSuffix(strings.TrimSpace(uri), "/")
	if uri == "" {
		return "", false
	}
	for _, n := range namespaces {
		if strings.EqualFold(uri, strings.TrimSuffix(n.uri, "/")) {
			return n.version, true
		}
	}
	return "", false
}

// skip logs and counts a value that could not be decoded.
func (d *Decoder) skip(opts domain.DecodeOptions, id domain.TSID, index int, err error) {
	d.logger.Warn("skipping WaterML value",
		"provenance", opts.Provenance, "tsid", id.String(), "index", index, "error", err)
	if d.metrics != nil {
		d.metrics.DecodeSkipped.Inc()
	}
}

// finish sets the period from the parsed timestamps, then applies the read period and
// the ReadData flag.
func finish(ts *domain.TimeSeries, opts domain.DecodeOptions) {
	ts.SetPoints(ts.Points)
	if !opts.Period.Start.IsZero() || !opts.Period.End.IsZero() {
		ts.Trim(opts.Period)
	}
	if !opts.ReadData {
		ts.Points = nil
	}
}

// parseTime accepts RFC3339 and the zone-less forms used by WaterML 1.x, which are
// shifted by offset (e.g. "-05:00") when one is given.
func parseTime(s, offset string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	dt, err := domain.ParseDateTime(strings.Replace(strings.SplitN(s, ".", 2)[0], "T", " ", 1))
	if err != nil {
		return time.Time{}, err
	}
	if offset = strings.TrimSpace(offset); offset != "" {
		zoned, err := time.Parse("2006-01-02 15:04:05-07:00", dt.Time.Format("2006-01-02 15:04:05")+offset)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time offset %q: %w", offset, err)
		}
		return zoned.UTC(), nil
	}
	return dt.Time, nil
}

// parseValue returns NaN for empty or nil values.
func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// intervalOrDefault prefers the caller's hint, then the document's, then Irregular.
func intervalOrDefault(hint, fromDocument string) string {
	if hint != "" {
		return hint
	}
	if fromDocument != "" {
		if iv, err := domain.ParseInterval(fromDocument); err == nil {
			return iv.String()
		}
	}
	return "Irregular"
}
