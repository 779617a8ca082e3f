package command

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/hydro-tsproc/internal/registry"
)

var setWorkingDirSpec = &Spec{
	Name:    "SetWorkingDir",
	Summary: "Set the directory that relative paths resolve against.",
	Params:  []string{"WorkingDir"},
	Check: func(c *Checker) {
		c.Required("WorkingDir")
	},
	Run: func(_ context.Context, x *Exec) error {
		dir, err := x.Path("WorkingDir")
		if err != nil {
			return err
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return failf("Verify that the directory exists.", "working directory %q does not exist", dir)
		}
		x.Proc.SetProperty(registry.PropWorkingDir, dir)
		return nil
	},
	Discover: func(_ context.Context, x *Exec) error {
		dir, err := x.Path("WorkingDir")
		if err != nil {
			return err
		}
		x.Proc.SetProperty(registry.PropWorkingDir, dir)
		return nil
	},
}

// Property value types accepted by SetProperty.
const (
	propString   = "String"
	propInteger  = "Integer"
	propDouble   = "Double"
	propBoolean  = "Boolean"
	propDateTime = "DateTime"
)

var setPropertySpec = &Spec{
	Name:     "SetProperty",
	Summary:  "Set a processor property for use in ${Name} references.",
	Params:   []string{"PropertyName", "PropertyType", "PropertyValue"},
	Check:    checkSetProperty,
	Run:      runSetProperty,
	Discover: runSetProperty,
}

func checkSetProperty(c *Checker) {
	c.Required("PropertyName", "PropertyValue")
	c.OneOf("PropertyType", propString, propInteger, propDouble, propBoolean, propDateTime)
	if name := c.Get("PropertyName"); strings.ContainsAny(name, "${}") {
		c.Fail(fmt.Sprintf("PropertyName=%q contains reserved characters.", name), "Remove $, { and } from the property name.")
	}
	value := c.Get("PropertyValue")
	if deferred(value) {
		return
	}
	switch {
	case strings.EqualFold(c.Get("PropertyType"), propInteger):
		if _, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err != nil {
			c.Fail(fmt.Sprintf("PropertyValue=%q is not an integer.", value), "Specify an integer value.")
		}
	case strings.EqualFold(c.Get("PropertyType"), propDouble):
		c.Number("PropertyValue")
	case strings.EqualFold(c.Get("PropertyType"), propBoolean):
		c.Bool("PropertyValue")
	case strings.EqualFold(c.Get("PropertyType"), propDateTime):
		c.DateTime("PropertyValue")
	}
}

func runSetProperty(_ context.Context, x *Exec) error {
	name := strings.TrimSpace(x.Params.Get("PropertyName"))
	raw, err := x.Text("PropertyValue")
	if err != nil {
		return err
	}
	var value any
	switch typ := x.Params.Get("PropertyType"); {
	case strings.EqualFold(typ, propInteger):
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return failf("Specify an integer value.", "PropertyValue %q is not an integer", raw)
		}
		value = n
	case strings.EqualFold(typ, propDouble):
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return failf("Specify a number.", "PropertyValue %q is not a number", raw)
		}
		value = f
	case strings.EqualFold(typ, propBoolean):
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return failf("Specify True or False.", "PropertyValue %q is not a boolean", raw)
		}
		value = b
	case strings.EqualFold(typ, propDateTime):
		dt, err := x.Proc.DateTime(raw)
		if err != nil {
			return withHint(err, "Specify a valid date/time.")
		}
		if dt == nil {
			return failf("Specify a valid date/time.", "PropertyValue %q does not resolve to a date/time", raw)
		}
		value = *dt
	default:
		value = raw
	}
	x.Proc.SetProperty(name, value)
	return nil
}

var setOutputPeriodSpec = &Spec{
	Name:    "SetOutputPeriod",
	Summary: "Set the period that output and analysis commands use by default.",
	Params:  []string{"OutputStart", "OutputEnd"},
	Check: func(c *Checker) {
		c.DateTime("OutputStart", "OutputEnd")
	},
	Run:      periodSetter("OutputStart", "OutputEnd", registry.PropOutputStart, registry.PropOutputEnd),
	Discover: periodSetter("OutputStart", "OutputEnd", registry.PropOutputStart, registry.PropOutputEnd),
}

var setInputPeriodSpec = &Spec{
	Name:    "SetInputPeriod",
	Summary: "Set the period that read commands query by default.",
	Params:  []string{"InputStart", "InputEnd"},
	Check: func(c *Checker) {
		c.DateTime("InputStart", "InputEnd")
	},
	Run:      periodSetter("InputStart", "InputEnd", registry.PropQueryStart, registry.PropQueryEnd),
	Discover: periodSetter("InputStart", "InputEnd", registry.PropQueryStart, registry.PropQueryEnd),
}

// periodSetter publishes a start/end parameter pair as date/time properties. Empty
// parameters leave the property unchanged.
func periodSetter(startName, endName, startProp, endProp string) func(context.Context, *Exec) error {
	return func(_ context.Context, x *Exec) error {
		if _, err := x.Period(startName, endName, "", ""); err != nil {
			return err
		}
		start, _ := x.DateTime(startName, "")
		end, _ := x.DateTime(endName, "")
		if start != nil {
			x.Proc.SetProperty(startProp, *start)
		}
		if end != nil {
			x.Proc.SetProperty(endProp, *end)
		}
		return nil
	}
}

var setOutputYearTypeSpec = &Spec{
	Name:    "SetOutputYearType",
	Summary: "Set the year type used for annual output.",
	Params:  []string{"OutputYearType"},
	Check: func(c *Checker) {
		if c.Required("OutputYearType") {
			c.OneOf("OutputYearType", yearTypes...)
		}
	},
	Run:      runSetOutputYearType,
	Discover: runSetOutputYearType,
}

var yearTypes = []string{"Calendar", "Water", "NovToOct"}

func runSetOutputYearType(_ context.Context, x *Exec) error {
	v := strings.TrimSpace(x.Params.Get("OutputYearType"))
	for _, yt := range yearTypes {
		if strings.EqualFold(v, yt) {
			x.Proc.SetProperty(registry.PropOutputYearType, yt)
			return nil
		}
	}
	return failf("Specify OutputYearType as "+strings.Join(yearTypes, ", ")+".", "unknown year type %q", v)
}

var exitSpec = &Spec{
	Name:    "Exit",
	Summary: "Stop processing after this command.",
	Run: func(_ context.Context, _ *Exec) error {
		return ErrExit
	},
	Discover: func(_ context.Context, _ *Exec) error {
		return ErrExit
	},
}
