package command

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
)

var readWaterMLSpec = &Spec{
	Name:    "ReadWaterML",
	Summary: "Read time series from a WaterML 1.0, 1.1 or 2.0 file.",
	Params:  []string{"InputFile", "Interval", "Alias", "ReadData", "InputStart", "InputEnd"},
	Check: func(c *Checker) {
		c.Required("InputFile")
		c.Interval("Interval")
		c.Bool("ReadData")
		c.DateTime("InputStart", "InputEnd")
	},
	Run:      runReadWaterML,
	Discover: runReadWaterML,
}

func runReadWaterML(_ context.Context, x *Exec) error {
	path, err := x.Path("InputFile")
	if err != nil {
		return err
	}
	dec := x.Proc.Decoder()
	if dec == nil {
		return failf("Configure a WaterML decoder for the processor.", "no format decoder is configured")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if x.Discovery() {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return failf("Verify the input file path. Relative paths resolve against the working directory.",
				"input file %q does not exist", path)
		}
		return withHint(fmt.Errorf("read %s: %w", path, err), "Verify the file can be read.")
	}
	period, err := x.Period("InputStart", "InputEnd", "InputStart", "InputEnd")
	if err != nil {
		return err
	}
	series, err := dec.Decode(content, domain.DecodeOptions{
		Provenance: path,
		Interval:   x.Params.Get("Interval"),
		ReadData:   x.Bool("ReadData", true) && !x.Discovery(),
		Period:     period,
	})
	if err != nil {
		return withHint(fmt.Errorf("decode %s: %w", path, err), "Verify the file is WaterML 1.0, 1.1 or 2.0.")
	}
	return appendRead(x, series, path)
}

var readWaterOneFlowSpec = &Spec{
	Name:    "ReadWaterOneFlow",
	Summary: "Read time series for a location and variable from the remote web service.",
	Params:  []string{"Location", "Variable", "Interval", "Units", "Alias", "ReadData", "InputStart", "InputEnd"},
	Check: func(c *Checker) {
		c.Required("Location", "Variable")
		c.Interval("Interval")
		c.Bool("ReadData")
		c.DateTime("InputStart", "InputEnd")
	},
	Run: runReadWaterOneFlow,
	Discover: func(_ context.Context, x *Exec) error {
		loc, err := x.Text("Location")
		if err != nil {
			return err
		}
		variable, err := x.Text("Variable")
		if err != nil {
			return err
		}
		id := domain.TSID{Location: loc, DataType: variable, Interval: x.Params.Get("Interval")}
		x.Proc.AppendTimeSeries(placeholder(id, x.Params.Get("Alias")))
		return nil
	},
}

func runReadWaterOneFlow(ctx context.Context, x *Exec) error {
	sup := x.Proc.Supplier()
	if sup == nil {
		return failf("Set WEBSERVICE_URL to enable the web service.", "no web service supplier is configured")
	}
	loc, err := x.Text("Location")
	if err != nil {
		return err
	}
	variable, err := x.Text("Variable")
	if err != nil {
		return err
	}
	units, err := x.Text("Units")
	if err != nil {
		return err
	}
	period, err := x.Period("InputStart", "InputEnd", "InputStart", "InputEnd")
	if err != nil {
		return err
	}
	q := domain.SupplierQuery{
		Location: loc,
		DataType: variable,
		Interval: x.Params.Get("Interval"),
		Units:    units,
		Start:    timePtr(period.Start),
		End:      timePtr(period.End),
		ReadData: x.Bool("ReadData", true),
	}
	series, err := sup.ReadTimeSeries(ctx, q)
	if err != nil {
		return withHint(fmt.Errorf("read %s %s from web service: %w", loc, variable, err),
			"Verify the web service is reachable and serves the location and variable.")
	}
	return appendRead(x, series, "web service")
}

var readTimeSeriesSpec = &Spec{
	Name:    "ReadTimeSeries",
	Summary: "Read time series matching an identifier from a datastore.",
	Params:  []string{"DataStore", "TSID", "Alias", "InputStart", "InputEnd"},
	Check: func(c *Checker) {
		c.Required("DataStore", "TSID")
		c.TSID("TSID")
		c.DateTime("InputStart", "InputEnd")
	},
	Run: func(ctx context.Context, x *Exec) error {
		ds, err := dataStoreParam(x)
		if err != nil {
			return err
		}
		pattern, err := x.Text("TSID")
		if err != nil {
			return err
		}
		period, err := x.Period("InputStart", "InputEnd", "InputStart", "InputEnd")
		if err != nil {
			return err
		}
		series, err := ds.ReadTimeSeries(ctx, pattern, period)
		if err != nil {
			return withHint(fmt.Errorf("read %q from datastore %s: %w", pattern, ds.Name(), err),
				"Verify the datastore is reachable and supports reading.")
		}
		return appendRead(x, series, "datastore "+ds.Name())
	},
	Discover: func(_ context.Context, x *Exec) error {
		id, err := domain.ParseTSID(x.Params.Get("TSID"))
		if err != nil || id.HasWildcard() {
			return nil
		}
		x.Proc.AppendTimeSeries(placeholder(id, x.Params.Get("Alias")))
		return nil
	},
}

// appendRead applies the alias to each record and appends them. An empty result is a
// warning, not a failure.
func appendRead(x *Exec, series []*domain.TimeSeries, source string) error {
	if len(series) == 0 {
		if !x.Discovery() {
			x.Warn("No time series were read from "+source+".", "Verify the query and input period.")
		}
		return nil
	}
	for _, ts := range series {
		if err := applyAlias(x, ts); err != nil {
			return err
		}
		if x.Discovery() {
			ts.Points = nil
		}
	}
	x.Proc.AppendTimeSeries(series...)
	if !x.Discovery() {
		x.Note(fmt.Sprintf("Read %d time series from %s.", len(series), source))
	}
	return nil
}

// dataStoreParam looks up the datastore named by the DataStore parameter.
func dataStoreParam(x *Exec) (domain.DataStore, error) {
	name, err := x.Text("DataStore")
	if err != nil {
		return nil, err
	}
	ds, ok := x.Proc.DataStore(strings.TrimSpace(name))
	if !ok {
		return nil, failf("Add a NewDataStore command before this command or define it in DATASTORE_CONFIG.",
			"datastore %q is not defined", name)
	}
	return ds, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
