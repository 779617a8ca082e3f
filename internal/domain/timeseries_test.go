package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestTimeSeries_SetPointsSortsAndBrackets(t *testing.T) {
	ts := NewTimeSeries(MustParseTSID(testTSID))
	ts.SetPoints([]Point{{Time: day(3), Value: 3}, {Time: day(1), Value: 1}, {Time: day(2), Value: 2}})

	require.Len(t, ts.Points, 3)
	assert.Equal(t, day(1), ts.Points[0].Time)
	assert.Equal(t, day(1), ts.Period.Start)
	assert.Equal(t, day(3), ts.Period.End)
	assert.Equal(t, ts.Period, ts.OriginalPeriod)
}

func TestTimeSeries_SetValue(t *testing.T) {
	ts := NewTimeSeries(MustParseTSID(testTSID))
	ts.SetPoints([]Point{{Time: day(1), Value: 1}, {Time: day(3), Value: 3}})

	ts.SetValue(day(2), 2, "E")
	ts.SetValue(day(3), 30, "")
	ts.SetValue(day(5), 5, "")

	require.Len(t, ts.Points, 4)
	v, ok := ts.Value(day(2))
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, "E", ts.Points[1].Flag)
	v, _ = ts.Value(day(3))
	assert.Equal(t, 30.0, v)
	assert.Equal(t, day(5), ts.Period.End)

	_, ok = ts.Value(day(9))
	assert.False(t, ok)
}

func TestTimeSeries_IsMissing(t *testing.T) {
	ts := NewTimeSeries(TSID{})
	assert.True(t, ts.IsMissing(math.NaN()))
	assert.False(t, ts.IsMissing(-999))

	ts.MissingValue = -999
	assert.True(t, ts.IsMissing(-999))
	assert.True(t, ts.IsMissing(math.NaN()))
	assert.False(t, ts.IsMissing(0))
}

func TestTimeSeries_RegisterFlagFirstWins(t *testing.T) {
	ts := NewTimeSeries(TSID{})
	ts.RegisterFlag("P", "Provisional")
	ts.RegisterFlag("P", "Something else")
	ts.RegisterFlag("", "ignored")

	assert.Equal(t, map[string]string{"P": "Provisional"}, ts.FlagMeta)
}

func TestTimeSeries_CloneIsDeep(t *testing.T) {
	ts := NewTimeSeries(MustParseTSID(testTSID))
	ts.SetPoints([]Point{{Time: day(1), Value: 1}})
	ts.RegisterFlag("P", "Provisional")
	ts.AddGenesis("created")

	c := ts.Clone()
	c.Points[0].Value = 99
	c.FlagMeta["E"] = "Estimated"
	c.AddGenesis("changed")

	assert.Equal(t, 1.0, ts.Points[0].Value)
	assert.NotContains(t, ts.FlagMeta, "E")
	assert.Len(t, ts.Genesis, 1)
}

func TestTimeSeries_Trim(t *testing.T) {
	ts := NewTimeSeries(MustParseTSID(testTSID))
	ts.SetPoints([]Point{{Time: day(1)}, {Time: day(2)}, {Time: day(3)}, {Time: day(4)}})

	ts.Trim(Period{Start: day(2), End: day(3)})

	require.Len(t, ts.Points, 2)
	assert.Equal(t, Period{Start: day(2), End: day(3)}, ts.Period)
	assert.Equal(t, day(1), ts.OriginalPeriod.Start)
}

func TestTimeSeries_Identifier(t *testing.T) {
	ts := NewTimeSeries(MustParseTSID(testTSID))
	assert.Equal(t, testTSID, ts.Identifier())
	ts.Alias = "Flow"
	assert.Equal(t, "Flow", ts.Identifier())
}

func TestMarshalTimeSeries_RoundTrip(t *testing.T) {
	ts := NewTimeSeries(MustParseTSID(testTSID))
	ts.Alias = "Flow"
	ts.Units = "CFS"
	ts.MissingValue = -999
	ts.SetPoints([]Point{{Time: day(1), Value: 10}, {Time: day(2), Value: -999, Flag: "M"}})
	ts.RegisterFlag("M", "Missing")
	ts.AddGenesis("created")

	data, err := MarshalTimeSeries(ts)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tsid":"01646500.USGS.Streamflow.Day"`)
	assert.Contains(t, string(data), `"v":null`)

	back, err := UnmarshalTimeSeries(data)
	require.NoError(t, err)
	assert.Equal(t, ts.ID, back.ID)
	assert.Equal(t, ts.Alias, back.Alias)
	assert.Equal(t, -999.0, back.MissingValue)
	require.Len(t, back.Points, 2)
	assert.True(t, back.IsMissing(back.Points[1].Value))
	assert.Equal(t, "M", back.Points[1].Flag)
	assert.Equal(t, ts.Period, back.Period)
	assert.Equal(t, ts.Genesis, back.Genesis)
}

func TestMarshalTimeSeries_NaNMissing(t *testing.T) {
	ts := NewTimeSeries(MustParseTSID(testTSID))
	ts.SetPoints([]Point{{Time: day(1), Value: math.NaN()}})

	data, err := MarshalTimeSeries(ts)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "missing_value")

	back, err := UnmarshalTimeSeries(data)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(back.MissingValue))
	assert.True(t, math.IsNaN(back.Points[0].Value))
}

func TestMarshalTimeSeries_InfiniteIsMissing(t *testing.T) {
	ts := NewTimeSeries(MustParseTSID(testTSID))
	ts.MissingValue = math.Inf(-1)
	ts.SetPoints([]Point{{Time: day(1), Value: math.Inf(1)}, {Time: day(2), Value: 3}})

	data, err := MarshalTimeSeries(ts)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "missing_value")

	back, err := UnmarshalTimeSeries(data)
	require.NoError(t, err)
	require.Len(t, back.Points, 2)
	assert.True(t, back.IsMissing(back.Points[0].Value))
	assert.Equal(t, 3.0, back.Points[1].Value)
}

func TestUnmarshalTimeSeries_Invalid(t *testing.T) {
	_, err := UnmarshalTimeSeries([]byte("not json"))
	assert.Error(t, err)
}

func TestConvertUnits(t *testing.T) {
	ts := NewTimeSeries(MustParseTSID(testTSID))
	ts.Units = "IN"
	ts.SetPoints([]Point{{Time: day(1), Value: 2}, {Time: day(2), Value: math.NaN()}})

	require.NoError(t, ConvertUnits(ts, "MM"))
	assert.Equal(t, "MM", ts.Units)
	assert.InEpsilon(t, 50.8, ts.Points[0].Value, 1e-9)
	assert.True(t, math.IsNaN(ts.Points[1].Value))
	assert.Len(t, ts.Genesis, 1)

	ts.Units = "DEGC"
	ts.Points[0].Value = 100
	require.NoError(t, ConvertUnits(ts, "DEGF"))
	assert.InEpsilon(t, 212.0, ts.Points[0].Value, 1e-9)

	assert.ErrorIs(t, ConvertUnits(ts, "CFS"), ErrIncompatibleUnits)
	assert.True(t, SameUnits("ft3/s", "CFS"))
}

func TestFilterSeries(t *testing.T) {
	a := NewTimeSeries(MustParseTSID("A.USGS.Streamflow.Day"))
	a.SetPoints([]Point{{Time: day(1), Value: 1}, {Time: day(2), Value: 2}, {Time: day(3), Value: 3}})
	b := NewTimeSeries(MustParseTSID("B.USGS.Stage.Day"))
	b.Alias = "StageB"

	got := FilterSeries([]*TimeSeries{a, b}, "*.USGS.Streamflow.*", Period{Start: day(2)})
	require.Len(t, got, 1)
	assert.Len(t, got[0].Points, 2)
	assert.Len(t, a.Points, 3, "input must not be trimmed")

	got = FilterSeries([]*TimeSeries{a, b}, "stageb", Period{})
	require.Len(t, got, 1)
	assert.Equal(t, "stageb", StorageKey(b))
	assert.Equal(t, "a.usgs.streamflow.day", StorageKey(a))
}
