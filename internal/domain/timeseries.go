package domain

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Point is one timestamped value. Flag holds a qualifier code, empty when unflagged.
type Point struct {
	Time  time.Time `json:"t"`
	Value float64   `json:"v"`
	Flag  string    `json:"f,omitempty"`
}

// TimeSeries is a time series record held in the result registry.
//
// Points are kept sorted by time. Missing values are stored as MissingValue, never
// by dropping the point. Period always brackets every stored point.
type TimeSeries struct {
	ID             TSID
	Alias          string
	Description    string
	Units          string
	MissingValue   float64
	Period         Period
	OriginalPeriod Period
	Points         []Point
	FlagMeta       map[string]string
	Genesis        []string
	Selected       bool
}

// NewTimeSeries creates an empty record using NaN as the missing sentinel.
func NewTimeSeries(id TSID) *TimeSeries {
	return &TimeSeries{
		ID:           id,
		MissingValue: math.NaN(),
		FlagMeta:     map[string]string{},
	}
}

// Identifier returns the alias when set, otherwise the TSID string.
func (ts *TimeSeries) Identifier() string {
	if ts.Alias != "" {
		return ts.Alias
	}
	return ts.ID.String()
}

// IsMissing reports whether v is the missing sentinel. NaN is always missing.
func (ts *TimeSeries) IsMissing(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	return !math.IsNaN(ts.MissingValue) && v == ts.MissingValue
}

// AddGenesis appends a provenance note.
func (ts *TimeSeries) AddGenesis(format string, args ...any) {
	ts.Genesis = append(ts.Genesis, fmt.Sprintf(format, args...))
}

// RegisterFlag records the description for a flag code. The first registration wins.
func (ts *TimeSeries) RegisterFlag(code, description string) {
	if code == "" {
		return
	}
	if ts.FlagMeta == nil {
		ts.FlagMeta = map[string]string{}
	}
	if _, ok := ts.FlagMeta[code]; !ok {
		ts.FlagMeta[code] = description
	}
}

// SetPoints replaces the points, sorts them, and widens Period to bracket them.
func (ts *TimeSeries) SetPoints(points []Point) {
	ts.Points = points
	slices.SortStableFunc(ts.Points, func(a, b Point) int { return a.Time.Compare(b.Time) })
	ts.widenPeriod()
}

// SetValue overwrites the value at t or inserts a new point in time order.
func (ts *TimeSeries) SetValue(t time.Time, v float64, flag string) {
	i, found := slices.BinarySearchFunc(ts.Points, t, func(p Point, target time.Time) int {
		return p.Time.Compare(target)
	})
	if found {
		ts.Points[i].Value = v
		if flag != "" {
			ts.Points[i].Flag = flag
		}
		return
	}
	ts.Points = slices.Insert(ts.Points, i, Point{Time: t, Value: v, Flag: flag})
	ts.widenPeriod()
}

// Value returns the value at t.
func (ts *TimeSeries) Value(t time.Time) (float64, bool) {
	i, found := slices.BinarySearchFunc(ts.Points, t, func(p Point, target time.Time) int {
		return p.Time.Compare(target)
	})
	if !found {
		return 0, false
	}
	return ts.Points[i].Value, true
}

// DataPeriod returns the bounds of the stored points, zero when there are none.
func (ts *TimeSeries) DataPeriod() Period {
	if len(ts.Points) == 0 {
		return Period{}
	}
	return Period{Start: ts.Points[0].Time, End: ts.Points[len(ts.Points)-1].Time}
}

func (ts *TimeSeries) widenPeriod() {
	dp := ts.DataPeriod()
	if dp.Start.IsZero() {
		return
	}
	if ts.Period.Start.IsZero() || dp.Start.Before(ts.Period.Start) {
		ts.Period.Start = dp.Start
	}
	if ts.Period.End.IsZero() || dp.End.After(ts.Period.End) {
		ts.Period.End = dp.End
	}
	if ts.OriginalPeriod.Start.IsZero() {
		ts.OriginalPeriod = ts.Period
	}
}

// Clone returns a deep copy so a command can modify it before writing it back.
func (ts *TimeSeries) Clone() *TimeSeries {
	c := *ts
	c.Points = slices.Clone(ts.Points)
	c.Genesis = slices.Clone(ts.Genesis)
	c.FlagMeta = make(map[string]string, len(ts.FlagMeta))
	for k, v := range ts.FlagMeta {
		c.FlagMeta[k] = v
	}
	return &c
}

// Trim drops points outside period and narrows Period to match. Open bounds keep the
// existing limit.
func (ts *TimeSeries) Trim(period Period) {
	kept := ts.Points[:0]
	for _, p := range ts.Points {
		if period.Contains(p.Time) {
			kept = append(kept, p)
		}
	}
	ts.Points = kept
	if !period.Start.IsZero() && period.Start.After(ts.Period.Start) {
		ts.Period.Start = period.Start
	}
	if !period.End.IsZero() && (ts.Period.End.IsZero() || period.End.Before(ts.Period.End)) {
		ts.Period.End = period.End
	}
}

const timeLayout = time.RFC3339Nano

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
