package domain

import (
	"fmt"
	"strings"
	"time"
)

// Precision is the finest unit a DateTime carries.
type Precision int

const (
	PrecisionYear Precision = iota
	PrecisionMonth
	PrecisionDay
	PrecisionHour
	PrecisionMinute
	PrecisionSecond
)

var precisionLayouts = []struct {
	precision Precision
	layout    string
}{
	{PrecisionSecond, "2006-01-02 15:04:05"},
	{PrecisionSecond, "2006-01-02T15:04:05"},
	{PrecisionMinute, "2006-01-02 15:04"},
	{PrecisionMinute, "2006-01-02T15:04"},
	{PrecisionHour, "2006-01-02 15"},
	{PrecisionHour, "2006-01-02T15"},
	{PrecisionDay, "2006-01-02"},
	{PrecisionMonth, "2006-01"},
	{PrecisionYear, "2006"},
}

// DateTime is a point in time with an explicit precision. Periods and output bounds
// are carried as DateTime so formatting matches what the user wrote.
type DateTime struct {
	Time      time.Time
	Precision Precision
}

// ParseDateTime parses the literal forms accepted in command parameters. RFC3339 input
// keeps its offset; all other forms are interpreted as UTC.
func ParseDateTime(s string) (DateTime, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateTime{Time: t, Precision: PrecisionSecond}, nil
	}
	for _, l := range precisionLayouts {
		if t, err := time.ParseInLocation(l.layout, s, time.UTC); err == nil {
			return DateTime{Time: t, Precision: l.precision}, nil
		}
	}
	return DateTime{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, s)
}

// NewDateTime truncates t to precision.
func NewDateTime(t time.Time, p Precision) DateTime {
	return DateTime{Time: truncate(t, p), Precision: p}
}

func truncate(t time.Time, p Precision) time.Time {
	switch p {
	case PrecisionYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	case PrecisionMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case PrecisionDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case PrecisionHour:
		return t.Truncate(time.Hour)
	case PrecisionMinute:
		return t.Truncate(time.Minute)
	default:
		return t.Truncate(time.Second)
	}
}

// String formats to the carried precision.
func (d DateTime) String() string {
	switch d.Precision {
	case PrecisionYear:
		return d.Time.Format("2006")
	case PrecisionMonth:
		return d.Time.Format("2006-01")
	case PrecisionDay:
		return d.Time.Format("2006-01-02")
	case PrecisionHour:
		return d.Time.Format("2006-01-02 15")
	case PrecisionMinute:
		return d.Time.Format("2006-01-02 15:04")
	default:
		return d.Time.Format("2006-01-02 15:04:05")
	}
}

// IsZero reports whether the time is unset.
func (d DateTime) IsZero() bool {
	return d.Time.IsZero()
}

// Period is an inclusive start/end pair. Zero bounds are open.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within the bounds; open bounds always pass.
func (p Period) Contains(t time.Time) bool {
	if !p.Start.IsZero() && t.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && t.After(p.End) {
		return false
	}
	return true
}

// PeriodFrom builds a Period from optional DateTime bounds.
func PeriodFrom(start, end *DateTime) Period {
	var p Period
	if start != nil {
		p.Start = start.Time
	}
	if end != nil {
		p.End = end.Time
	}
	return p
}

// Current-time tokens accepted wherever a date/time parameter is expected.
var currentTokens = map[string]Precision{
	"currenttoyear":   PrecisionYear,
	"currenttomonth":  PrecisionMonth,
	"currenttoday":    PrecisionDay,
	"currenttohour":   PrecisionHour,
	"currenttominute": PrecisionMinute,
	"currenttosecond": PrecisionSecond,
}

// CurrentTo resolves a CurrentToYear..CurrentToSecond token against now. ok is false
// for any other token.
func CurrentTo(token string, now time.Time) (DateTime, bool) {
	p, ok := currentTokens[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return DateTime{}, false
	}
	return NewDateTime(now, p), true
}
