package command

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/hydro-tsproc/internal/config"
	"github.com/couchcryptid/hydro-tsproc/internal/datastore"
	"github.com/couchcryptid/hydro-tsproc/internal/domain"
)

// IfFound policies for NewDataStore when the name is already in use.
const (
	ifFoundReplace = "Replace"
	ifFoundWarn    = "Warn"
	ifFoundFail    = "Fail"
)

var newDataStoreSpec = &Spec{
	Name:     "NewDataStore",
	Summary:  "Open a named datastore for later read and write commands.",
	Params:   []string{"Name", "Type", "Path", "Address", "Bucket", "Topic", "Namespace", "IfFound"},
	Check:    checkNewDataStore,
	Run:      runNewDataStore,
	Discover: discoverNewDataStore,
}

func checkNewDataStore(c *Checker) {
	c.Required("Name")
	c.OneOf("Type", config.DataStoreTypes...)
	c.OneOf("IfFound", ifFoundReplace, ifFoundWarn, ifFoundFail)

	typ := dataStoreType(c.Get("Type"))
	switch typ {
	case config.DataStoreFile:
		path := c.Get("Path")
		if c.Required("Path") && !deferred(path) && !filepath.IsAbs(path) && c.Processor().WorkingDir() == "" {
			c.Fail(fmt.Sprintf("Path %q is relative but the working directory is not set.", path),
				"Specify an absolute path or use SetWorkingDir first.")
		}
	case config.DataStoreRedis, config.DataStorePostgres:
		c.Required("Address")
	case config.DataStoreKafka:
		c.Required("Topic")
	case config.DataStoreObjectStore:
		c.Required("Address", "Bucket")
	}
}

// dataStoreType returns the canonical type, File when unset.
func dataStoreType(v string) string {
	if strings.TrimSpace(v) == "" {
		return config.DataStoreFile
	}
	typ, _ := config.CanonicalType(strings.TrimSpace(v))
	return typ
}

func dataStoreDef(x *Exec) (config.DataStore, error) {
	def := config.DataStore{Type: dataStoreType(x.Params.Get("Type"))}
	fields := []struct {
		param string
		dst   *string
	}{
		{"Name", &def.Name},
		{"Address", &def.Address},
		{"Bucket", &def.Bucket},
		{"Topic", &def.Topic},
		{"Namespace", &def.Namespace},
	}
	for _, f := range fields {
		v, err := x.Text(f.param)
		if err != nil {
			return def, err
		}
		*f.dst = strings.TrimSpace(v)
	}
	path, err := x.Path("Path")
	if err != nil {
		return def, err
	}
	def.Path = path
	return def, nil
}

func runNewDataStore(ctx context.Context, x *Exec) error {
	def, err := dataStoreDef(x)
	if err != nil {
		return err
	}
	if existing, ok := x.Proc.DataStore(def.Name); ok {
		switch policy := x.Params.Get("IfFound"); {
		case strings.EqualFold(policy, ifFoundFail):
			return failf("Use a different name or set IfFound=Replace.",
				"datastore %q is already defined as type %s", def.Name, existing.Type())
		case strings.EqualFold(policy, ifFoundWarn):
			x.Warn(fmt.Sprintf("Datastore %q is already defined and will be replaced.", def.Name),
				"Use a different name if both datastores are needed.")
		}
	}
	if err := def.Validate(); err != nil {
		return withHint(err, "Correct the datastore parameters.")
	}
	ds, err := x.Proc.OpenDataStore(ctx, def)
	if err != nil {
		return withHint(fmt.Errorf("open datastore %s: %w", def.Name, err),
			"Verify the datastore settings and that the service is reachable.")
	}
	x.Proc.SetDataStore(ds)
	x.Note(fmt.Sprintf("Opened %s datastore %q.", def.Type, def.Name))
	return nil
}

func discoverNewDataStore(_ context.Context, x *Exec) error {
	def, err := dataStoreDef(x)
	if err != nil {
		return err
	}
	x.Proc.SetDataStore(datastore.NewPlaceholder(def))
	return nil
}

var writeTimeSeriesSpec = &Spec{
	Name:    "WriteTimeSeries",
	Summary: "Write selected time series to a datastore.",
	Params:  []string{"DataStore", "TSList", "TSID", "OutputStart", "OutputEnd"},
	Check: func(c *Checker) {
		c.Required("DataStore")
		c.TSList()
		c.DateTime("OutputStart", "OutputEnd")
	},
	Run: func(ctx context.Context, x *Exec) error {
		ds, err := dataStoreParam(x)
		if err != nil {
			return err
		}
		entries, err := x.Selection()
		if err != nil || len(entries) == 0 {
			return err
		}
		period, err := x.Period("OutputStart", "OutputEnd", "OutputStart", "OutputEnd")
		if err != nil {
			return err
		}
		out := make([]*domain.TimeSeries, 0, len(entries))
		for _, e := range entries {
			ts := e.TimeSeries.Clone()
			ts.Trim(period)
			out = append(out, ts)
		}
		if err := ds.WriteTimeSeries(ctx, out); err != nil {
			return withHint(fmt.Errorf("write to datastore %s: %w", ds.Name(), err),
				"Verify the datastore is reachable and supports writing.")
		}
		x.Note(fmt.Sprintf("Wrote %d time series to %s.", len(out), ds.Name()))
		return nil
	},
}
