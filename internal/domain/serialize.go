package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// timeSeriesDocument is the JSON form shared by every datastore. JSON has no NaN, so
// missing values are written as null.
type timeSeriesDocument struct {
	TSID           string            `json:"tsid"`
	ID             TSID              `json:"id"`
	Alias          string            `json:"alias,omitempty"`
	Description    string            `json:"description,omitempty"`
	Units          string            `json:"units,omitempty"`
	MissingValue   *float64          `json:"missing_value,omitempty"`
	Period         Period            `json:"period"`
	OriginalPeriod Period            `json:"original_period"`
	Points         []pointDocument   `json:"points"`
	FlagMeta       map[string]string `json:"flags,omitempty"`
	Genesis        []string          `json:"genesis,omitempty"`
}

type pointDocument struct {
	Time  string   `json:"t"`
	Value *float64 `json:"v"`
	Flag  string   `json:"f,omitempty"`
}

// MarshalTimeSeries encodes a record for storage.
func MarshalTimeSeries(ts *TimeSeries) ([]byte, error) {
	doc := timeSeriesDocument{
		TSID:           ts.ID.String(),
		ID:             ts.ID,
		Alias:          ts.Alias,
		Description:    ts.Description,
		Units:          ts.Units,
		Period:         ts.Period,
		OriginalPeriod: ts.OriginalPeriod,
		Points:         make([]pointDocument, len(ts.Points)),
		FlagMeta:       ts.FlagMeta,
		Genesis:        ts.Genesis,
	}
	if isFinite(ts.MissingValue) {
		mv := ts.MissingValue
		doc.MissingValue = &mv
	}
	for i, p := range ts.Points {
		pd := pointDocument{Time: p.Time.Format(timeLayout), Flag: p.Flag}
		if !ts.IsMissing(p.Value) && isFinite(p.Value) {
			v := p.Value
			pd.Value = &v
		}
		doc.Points[i] = pd
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize time series %s: %w", ts.ID, err)
	}
	return data, nil
}

// isFinite reports whether v can be written as a JSON number. Non-finite values are
// stored as missing.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// UnmarshalTimeSeries decodes a record written by MarshalTimeSeries.
func UnmarshalTimeSeries(data []byte) (*TimeSeries, error) {
	var doc timeSeriesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse time series: %w", err)
	}
	ts := NewTimeSeries(doc.ID)
	ts.Alias = doc.Alias
	ts.Description = doc.Description
	ts.Units = doc.Units
	if doc.MissingValue != nil {
		ts.MissingValue = *doc.MissingValue
	}
	ts.Period = doc.Period
	ts.OriginalPeriod = doc.OriginalPeriod
	ts.Genesis = doc.Genesis
	for k, v := range doc.FlagMeta {
		ts.FlagMeta[k] = v
	}
	points := make([]Point, 0, len(doc.Points))
	for _, pd := range doc.Points {
		t, err := parseTimestamp(pd.Time)
		if err != nil {
			return nil, fmt.Errorf("parse time series %s: %w", doc.TSID, err)
		}
		v := ts.MissingValue
		if pd.Value != nil {
			v = *pd.Value
		}
		points = append(points, Point{Time: t, Value: v, Flag: pd.Flag})
	}
	ts.SetPoints(points)
	return ts, nil
}

// StorageKey is the case-insensitive key a datastore files a record under.
func StorageKey(ts *TimeSeries) string {
	return strings.ToLower(ts.Identifier())
}

// FilterSeries returns the records matching pattern, trimmed to period. Inputs are not
// modified.
func FilterSeries(series []*TimeSeries, pattern string, period Period) []*TimeSeries {
	var out []*TimeSeries
	for _, ts := range series {
		if !MatchesString(pattern, ts.Alias, ts.ID) {
			continue
		}
		c := ts.Clone()
		c.Trim(period)
		out = append(out, c)
	}
	return out
}
