package command

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
)

// maxGeneratedPoints bounds the points NewTimeSeries will create for one record.
const maxGeneratedPoints = 10_000_000

var newTimeSeriesSpec = &Spec{
	Name:    "NewTimeSeries",
	Summary: "Create a time series filled with an initial value or missing values.",
	Params:  []string{"Alias", "NewTSID", "Description", "SetStart", "SetEnd", "Units", "MissingValue", "InitialValue"},
	Check: func(c *Checker) {
		if c.Required("NewTSID") {
			c.TSID("NewTSID")
		}
		c.DateTime("SetStart", "SetEnd")
		c.Number("MissingValue", "InitialValue")
		if id, err := domain.ParseTSID(c.Get("NewTSID")); err == nil && id.HasWildcard() {
			c.Fail("NewTSID cannot contain wildcards.", "Specify a complete identifier.")
		}
	},
	Run:      runNewTimeSeries,
	Discover: runNewTimeSeries,
}

func runNewTimeSeries(_ context.Context, x *Exec) error {
	raw, err := x.Text("NewTSID")
	if err != nil {
		return err
	}
	id, err := domain.ParseTSID(raw)
	if err != nil {
		return withHint(err, "Specify NewTSID as Location.Source.DataType.Interval.")
	}
	ts := domain.NewTimeSeries(id)
	if ts.Description, err = x.Text("Description"); err != nil {
		return err
	}
	if ts.Units, err = x.Text("Units"); err != nil {
		return err
	}
	if ts.MissingValue, err = x.Float("MissingValue", math.NaN()); err != nil {
		return err
	}
	period, err := x.Period("SetStart", "SetEnd", "OutputStart", "OutputEnd")
	if err != nil {
		return err
	}
	ts.Period, ts.OriginalPeriod = period, period
	if err := applyAlias(x, ts); err != nil {
		return err
	}

	if !x.Discovery() {
		initial, err := x.Float("InitialValue", ts.MissingValue)
		if err != nil {
			return err
		}
		if err := fillRegular(ts, period, initial); err != nil {
			return err
		}
		ts.AddGenesis("Created with initial value %s.", formatValue(initial))
	}
	x.Proc.AppendTimeSeries(ts)
	return nil
}

// fillRegular creates one point per interval across period. Irregular series and
// open periods get no points.
func fillRegular(ts *domain.TimeSeries, period domain.Period, value float64) error {
	iv, err := domain.ParseInterval(ts.ID.Interval)
	if err != nil || !iv.IsRegular() || period.Start.IsZero() || period.End.IsZero() {
		return nil
	}
	var points []domain.Point
	for t := period.Start; !t.After(period.End); t = iv.Advance(t) {
		if len(points) == maxGeneratedPoints {
			return failf("Shorten the period or use a coarser interval.",
				"%s would exceed %d values", ts.Identifier(), maxGeneratedPoints)
		}
		points = append(points, domain.Point{Time: t, Value: value})
	}
	ts.SetPoints(points)
	return nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "missing"
	}
	return fmt.Sprintf("%g", v)
}

var copySpec = &Spec{
	Name:    "Copy",
	Summary: "Copy a time series, optionally giving the copy a new identifier.",
	Params:  []string{"Alias", "TSID", "NewTSID"},
	Check: func(c *Checker) {
		c.Required("Alias", "TSID")
		c.TSID("NewTSID")
	},
	Run:      runCopy,
	Discover: runCopy,
}

func runCopy(_ context.Context, x *Exec) error {
	tsid, err := x.Text("TSID")
	if err != nil {
		return err
	}
	src, ok := x.Proc.TimeSeries(tsid)
	if !ok {
		if x.Discovery() {
			return nil
		}
		return failf("Verify that a previous command creates the time series.",
			"time series %q was not found", tsid)
	}
	cp := src.Clone()
	cp.Selected = false
	if raw, err := x.Text("NewTSID"); err != nil {
		return err
	} else if raw != "" {
		if cp.ID, err = domain.ParseTSID(raw); err != nil {
			return withHint(err, "Specify NewTSID as Location.Source.DataType.Interval.")
		}
	}
	if x.Discovery() {
		cp.Points = nil
	}
	cp.Alias = ""
	if err := applyAlias(x, cp); err != nil {
		return err
	}
	cp.AddGenesis("Copied from %s.", src.Identifier())
	x.Proc.AppendTimeSeries(cp)
	return nil
}

// applyAlias sets the alias from the Alias parameter. %L, %S, %T and %I are replaced
// by the location, source, data type and interval of the identifier.
func applyAlias(x *Exec, ts *domain.TimeSeries) error {
	pattern, err := x.Text("Alias")
	if err != nil || pattern == "" {
		return err
	}
	ts.Alias = FormatAlias(pattern, ts.ID)
	return nil
}

// FormatAlias expands identifier specifiers in an alias pattern.
func FormatAlias(pattern string, id domain.TSID) string {
	return strings.NewReplacer(
		"%L", id.Location,
		"%S", id.Source,
		"%T", id.DataType,
		"%I", id.Interval,
	).Replace(pattern)
}

// placeholder builds a metadata-only record for DISCOVERY passes.
func placeholder(id domain.TSID, alias string) *domain.TimeSeries {
	ts := domain.NewTimeSeries(id)
	if alias != "" {
		ts.Alias = FormatAlias(alias, id)
	}
	return ts
}
