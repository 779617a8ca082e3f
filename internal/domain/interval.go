package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IntervalBase is the unit of a data interval.
type IntervalBase int

const (
	IntervalIrregular IntervalBase = iota
	IntervalMinute
	IntervalHour
	IntervalDay
	IntervalMonth
	IntervalYear
)

var intervalNames = map[IntervalBase]string{
	IntervalIrregular: "Irregular",
	IntervalMinute:    "Minute",
	IntervalHour:      "Hour",
	IntervalDay:       "Day",
	IntervalMonth:     "Month",
	IntervalYear:      "Year",
}

// Interval is a base unit with a multiplier, e.g. 15Minute or 6Hour.
type Interval struct {
	Base       IntervalBase
	Multiplier int
}

// ParseInterval accepts forms like "Day", "1Day", "15Minute", "15Min", "6Hour",
// "Month", "Year", "Irregular" and "Irreg" (case-insensitive).
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	mult := 1
	if i > 0 {
		n, err := strconv.Atoi(s[:i])
		if err != nil || n <= 0 {
			return Interval{}, fmt.Errorf("invalid interval multiplier in %q", s)
		}
		mult = n
	}

	var base IntervalBase
	switch strings.ToLower(s[i:]) {
	case "min", "minute":
		base = IntervalMinute
	case "hour", "hr":
		base = IntervalHour
	case "day":
		base = IntervalDay
	case "month", "mon":
		base = IntervalMonth
	case "year", "yr":
		base = IntervalYear
	case "irregular", "irreg":
		if i > 0 {
			return Interval{}, fmt.Errorf("irregular interval %q cannot have a multiplier", s)
		}
		return Interval{Base: IntervalIrregular}, nil
	default:
		return Interval{}, fmt.Errorf("unknown interval %q", s)
	}
	return Interval{Base: base, Multiplier: mult}, nil
}

// String returns the canonical form, omitting a multiplier of 1.
func (iv Interval) String() string {
	name := intervalNames[iv.Base]
	if iv.Base == IntervalIrregular || iv.Multiplier <= 1 {
		return name
	}
	return strconv.Itoa(iv.Multiplier) + name
}

// IsRegular reports whether values fall on a fixed step.
func (iv Interval) IsRegular() bool {
	return iv.Base != IntervalIrregular
}

// Advance returns t moved forward by one interval. Irregular intervals do not advance.
func (iv Interval) Advance(t time.Time) time.Time {
	m := max(iv.Multiplier, 1)
	switch iv.Base {
	case IntervalMinute:
		return t.Add(time.Duration(m) * time.Minute)
	case IntervalHour:
		return t.Add(time.Duration(m) * time.Hour)
	case IntervalDay:
		return t.AddDate(0, 0, m)
	case IntervalMonth:
		return t.AddDate(0, m, 0)
	case IntervalYear:
		return t.AddDate(m, 0, 0)
	default:
		return t
	}
}

// Precision is the date/time precision that suits values at this interval.
func (iv Interval) Precision() Precision {
	switch iv.Base {
	case IntervalMinute:
		return PrecisionMinute
	case IntervalHour:
		return PrecisionHour
	case IntervalDay:
		return PrecisionDay
	case IntervalMonth:
		return PrecisionMonth
	case IntervalYear:
		return PrecisionYear
	default:
		return PrecisionSecond
	}
}
