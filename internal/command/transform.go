package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/couchcryptid/hydro-tsproc/internal/registry"
)

// transformSelected applies fn to a copy of each selected record and writes the
// copies back only when every call succeeds.
func transformSelected(x *Exec, fn func(ts *domain.TimeSeries) error) error {
	entries, err := x.Selection()
	if err != nil || len(entries) == 0 {
		return err
	}
	copies := make([]*domain.TimeSeries, len(entries))
	for i, e := range entries {
		ts := e.TimeSeries.Clone()
		if err := fn(ts); err != nil {
			return fmt.Errorf("%s: %w", e.TimeSeries.Identifier(), err)
		}
		copies[i] = ts
	}
	for i, e := range entries {
		if err := x.Proc.SetTimeSeries(e.Position, copies[i]); err != nil {
			return err
		}
	}
	return nil
}

var selectTimeSeriesSpec = &Spec{
	Name:    "SelectTimeSeries",
	Summary: "Mark time series as selected for later TSList=SelectedTS commands.",
	Params:  []string{"TSList", "TSID", "DeselectAllFirst", "SelectionMode"},
	Check: func(c *Checker) {
		c.TSList()
		c.Bool("DeselectAllFirst")
		c.OneOf("SelectionMode", "Select", "Deselect")
	},
	Run:      runSelectTimeSeries,
	Discover: runSelectTimeSeries,
}

func runSelectTimeSeries(_ context.Context, x *Exec) error {
	if x.Bool("DeselectAllFirst", false) {
		all, err := x.Proc.TimeSeriesToProcess(registry.AllTS, "")
		if err != nil {
			return err
		}
		for _, e := range all {
			if !e.TimeSeries.Selected {
				continue
			}
			ts := e.TimeSeries.Clone()
			ts.Selected = false
			if err := x.Proc.SetTimeSeries(e.Position, ts); err != nil {
				return err
			}
		}
	}
	selected := !strings.EqualFold(x.Params.Get("SelectionMode"), "Deselect")
	return transformSelected(x, func(ts *domain.TimeSeries) error {
		ts.Selected = selected
		return nil
	})
}

var scaleSpec = &Spec{
	Name:    "Scale",
	Summary: "Multiply time series values by a constant.",
	Params:  []string{"TSList", "TSID", "ScaleValue", "AnalysisStart", "AnalysisEnd", "NewUnits"},
	Check: func(c *Checker) {
		c.TSList()
		if c.Required("ScaleValue") {
			c.Number("ScaleValue")
		}
		c.DateTime("AnalysisStart", "AnalysisEnd")
	},
	Run: func(_ context.Context, x *Exec) error {
		factor, err := x.Float("ScaleValue", 1)
		if err != nil {
			return err
		}
		period, err := x.Period("AnalysisStart", "AnalysisEnd", "", "")
		if err != nil {
			return err
		}
		newUnits, err := x.Text("NewUnits")
		if err != nil {
			return err
		}
		return transformSelected(x, func(ts *domain.TimeSeries) error {
			for i, p := range ts.Points {
				if !period.Contains(p.Time) || ts.IsMissing(p.Value) {
					continue
				}
				ts.Points[i].Value = p.Value * factor
			}
			if newUnits != "" {
				ts.Units = newUnits
			}
			ts.AddGenesis("Scaled by %g.", factor)
			return nil
		})
	},
}

var fillConstantSpec = &Spec{
	Name:    "FillConstant",
	Summary: "Replace missing values with a constant.",
	Params:  []string{"TSList", "TSID", "ConstantValue", "FillStart", "FillEnd", "FillFlag"},
	Check: func(c *Checker) {
		c.TSList()
		if c.Required("ConstantValue") {
			c.Number("ConstantValue")
		}
		c.DateTime("FillStart", "FillEnd")
		if flag := c.Get("FillFlag"); len(flag) > 1 && !deferred(flag) {
			c.Warn(fmt.Sprintf("FillFlag=%q is longer than one character.", flag), "Use a single-character flag.")
		}
	},
	Run: func(_ context.Context, x *Exec) error {
		value, err := x.Float("ConstantValue", 0)
		if err != nil {
			return err
		}
		period, err := x.Period("FillStart", "FillEnd", "", "")
		if err != nil {
			return err
		}
		flag, err := x.Text("FillFlag")
		if err != nil {
			return err
		}
		total := 0
		err = transformSelected(x, func(ts *domain.TimeSeries) error {
			n := fillMissing(ts, period, value, flag)
			total += n
			if flag != "" {
				ts.RegisterFlag(flag, fmt.Sprintf("Filled with constant %g", value))
			}
			ts.AddGenesis("Filled %d missing values with %g.", n, value)
			return nil
		})
		if err == nil {
			x.Note(fmt.Sprintf("Filled %d missing values.", total))
		}
		return err
	},
}

// fillMissing sets missing values within period to value. Regular series also get
// values at interval slots that have no point.
func fillMissing(ts *domain.TimeSeries, period domain.Period, value float64, flag string) int {
	bounds := ts.Period
	if !period.Start.IsZero() && period.Start.After(bounds.Start) {
		bounds.Start = period.Start
	}
	if !period.End.IsZero() && (bounds.End.IsZero() || period.End.Before(bounds.End)) {
		bounds.End = period.End
	}

	n := 0
	if iv, err := domain.ParseInterval(ts.ID.Interval); err == nil && iv.IsRegular() &&
		!ts.Period.Start.IsZero() && !bounds.End.IsZero() {
		for t := ts.Period.Start; !t.After(bounds.End); t = iv.Advance(t) {
			if t.Before(bounds.Start) {
				continue
			}
			if v, ok := ts.Value(t); !ok || ts.IsMissing(v) {
				ts.SetValue(t, value, flag)
				n++
			}
		}
		return n
	}
	for i, p := range ts.Points {
		if bounds.Contains(p.Time) && ts.IsMissing(p.Value) {
			ts.Points[i].Value = value
			if flag != "" {
				ts.Points[i].Flag = flag
			}
			n++
		}
	}
	return n
}

var convertDataUnitsSpec = &Spec{
	Name:    "ConvertDataUnits",
	Summary: "Convert time series values to new units.",
	Params:  []string{"TSList", "TSID", "NewUnits"},
	Check: func(c *Checker) {
		c.TSList()
		c.Required("NewUnits")
	},
	Run: func(_ context.Context, x *Exec) error {
		units, err := x.Text("NewUnits")
		if err != nil {
			return err
		}
		return transformSelected(x, func(ts *domain.TimeSeries) error {
			return domain.ConvertUnits(ts, units)
		})
	},
}
