package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	cases := []struct {
		in        string
		want      time.Time
		precision Precision
		formatted string
	}{
		{"2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), PrecisionYear, "2024"},
		{"2024-03", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), PrecisionMonth, "2024-03"},
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), PrecisionDay, "2024-03-05"},
		{"2024-03-05 12", time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), PrecisionHour, "2024-03-05 12"},
		{"2024-03-05 12:30", time.Date(2024, 3, 5, 12, 30, 0, 0, time.UTC), PrecisionMinute, "2024-03-05 12:30"},
		{"2024-03-05T12:30:15", time.Date(2024, 3, 5, 12, 30, 15, 0, time.UTC), PrecisionSecond, "2024-03-05 12:30:15"},
		{"2024-03-05T12:30:15Z", time.Date(2024, 3, 5, 12, 30, 15, 0, time.UTC), PrecisionSecond, "2024-03-05 12:30:15"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			dt, err := ParseDateTime(tc.in)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(dt.Time))
			assert.Equal(t, tc.precision, dt.Precision)
			assert.Equal(t, tc.formatted, dt.String())
		})
	}

	_, err := ParseDateTime("next tuesday")
	assert.ErrorIs(t, err, ErrInvalidDateTime)
}

func TestNewDateTime_Truncates(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 30, 15, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), NewDateTime(now, PrecisionDay).Time)
	assert.Equal(t, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), NewDateTime(now, PrecisionHour).Time)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), NewDateTime(now, PrecisionYear).Time)
}

func TestPeriod_Contains(t *testing.T) {
	p := Period{Start: day(2), End: day(4)}
	assert.False(t, p.Contains(day(1)))
	assert.True(t, p.Contains(day(2)))
	assert.True(t, p.Contains(day(4)))
	assert.False(t, p.Contains(day(5)))
	assert.True(t, Period{}.Contains(day(1)))
}

func TestParseInterval(t *testing.T) {
	cases := []struct {
		in   string
		want Interval
		str  string
	}{
		{"Day", Interval{Base: IntervalDay, Multiplier: 1}, "Day"},
		{"1Day", Interval{Base: IntervalDay, Multiplier: 1}, "Day"},
		{"15Min", Interval{Base: IntervalMinute, Multiplier: 15}, "15Minute"},
		{"6hour", Interval{Base: IntervalHour, Multiplier: 6}, "6Hour"},
		{"Month", Interval{Base: IntervalMonth, Multiplier: 1}, "Month"},
		{"Irregular", Interval{Base: IntervalIrregular}, "Irregular"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			iv, err := ParseInterval(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, iv)
			assert.Equal(t, tc.str, iv.String())
		})
	}

	for _, bad := range []string{"", "Fortnight", "0Day", "2Irregular"} {
		_, err := ParseInterval(bad)
		assert.Error(t, err, bad)
	}
}

func TestInterval_Advance(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, start.Add(6*time.Hour), Interval{Base: IntervalHour, Multiplier: 6}.Advance(start))
	assert.Equal(t, start.AddDate(0, 0, 1), Interval{Base: IntervalDay, Multiplier: 1}.Advance(start))
	assert.Equal(t, start.AddDate(1, 0, 0), Interval{Base: IntervalYear, Multiplier: 1}.Advance(start))
	assert.Equal(t, start, Interval{Base: IntervalIrregular}.Advance(start))
}

func TestCurrentTo(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 30, 15, 0, time.UTC)

	dt, ok := CurrentTo("CurrentToDay", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), dt.Time)
	assert.Equal(t, PrecisionDay, dt.Precision)

	dt, ok = CurrentTo("currenttominute", now)
	require.True(t, ok)
	assert.Equal(t, "2024-03-05 12:30", dt.String())

	_, ok = CurrentTo("Yesterday", now)
	assert.False(t, ok)
}
