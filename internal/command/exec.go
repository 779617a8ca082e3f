package command

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/couchcryptid/hydro-tsproc/internal/registry"
)

// Exec is the per-invocation context handed to a command's run function.
type Exec struct {
	Proc   Processor
	Params *Params
	Seq    int
	Phase  Phase
	unit   *Unit
}

// Discovery reports whether this is a DISCOVERY pass.
func (x *Exec) Discovery() bool {
	return x.Phase == PhaseDiscovery
}

// Logger returns the processor logger tagged with the command and sequence number.
func (x *Exec) Logger() *slog.Logger {
	return x.Proc.Logger().With("command", x.unit.name, "seq", x.Seq)
}

// Note records an informational entry.
func (x *Exec) Note(msg string) {
	x.unit.status.Add(x.Phase, SeveritySuccess, msg, "")
}

// Warn records a warning and keeps running.
func (x *Exec) Warn(msg, recommendation string) {
	x.unit.status.Add(x.Phase, SeverityWarning, msg, recommendation)
	x.Logger().Warn(msg)
}

// Fail records a failure and keeps running. The command reports failure when it
// returns.
func (x *Exec) Fail(msg, recommendation string) {
	x.unit.status.Add(x.Phase, SeverityFailure, msg, recommendation)
	x.Logger().Warn(msg, "severity", SeverityFailure)
}

// Text returns a parameter with ${Property} references expanded.
func (x *Exec) Text(name string) (string, error) {
	return x.Proc.ExpandProperties(x.Params.Get(name))
}

// Path returns a path parameter expanded and resolved against the working directory.
// An empty parameter yields an empty path.
func (x *Exec) Path(name string) (string, error) {
	p, err := x.Text(name)
	if err != nil || p == "" {
		return "", err
	}
	return x.Proc.ResolvePath(p), nil
}

// Float parses a numeric parameter, returning def when it is empty.
func (x *Exec) Float(name string, def float64) (float64, error) {
	s, err := x.Text(name)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, failf("Specify "+name+" as a number.", "%s=%q is not a number", name, s)
	}
	return v, nil
}

// Bool returns a True/False parameter, def when it is empty.
func (x *Exec) Bool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(x.Params.Get(name))) {
	case "true":
		return true
	case "false":
		return false
	default:
		return def
	}
}

// DateTime resolves a date/time parameter, falling back to the fallback token when
// the parameter is empty. Nil means the bound is open.
func (x *Exec) DateTime(name, fallback string) (*domain.DateTime, error) {
	token := strings.TrimSpace(x.Params.Get(name))
	if token == "" {
		if fallback == "" {
			return nil, nil
		}
		if prop, ok := registry.DateTimeTokenProperty(fallback); ok {
			if _, set := x.Proc.Property(prop); !set {
				return nil, nil
			}
		}
		token = fallback
	}
	dt, err := x.Proc.DateTime(token)
	if err != nil {
		return nil, withHint(fmt.Errorf("%s: %w", name, err),
			"Specify "+name+" as a date/time such as 2024-03-05, or a defined date/time property.")
	}
	return dt, nil
}

// Period resolves a start/end parameter pair. Empty parameters fall back to the given
// tokens, which may be unset.
func (x *Exec) Period(startName, endName, startFallback, endFallback string) (domain.Period, error) {
	start, err := x.DateTime(startName, startFallback)
	if err != nil {
		return domain.Period{}, err
	}
	end, err := x.DateTime(endName, endFallback)
	if err != nil {
		return domain.Period{}, err
	}
	p := domain.PeriodFrom(start, end)
	if !p.Start.IsZero() && !p.End.IsZero() && p.Start.After(p.End) {
		return domain.Period{}, failf("Specify "+startName+" before "+endName+".",
			"%s %s is after %s %s", startName, start, endName, end)
	}
	return p, nil
}

// Selection returns the records chosen by the TSList and TSID parameters. No match
// records a warning and returns an empty list.
func (x *Exec) Selection() ([]registry.Entry, error) {
	pattern, err := x.Text("TSID")
	if err != nil {
		return nil, err
	}
	sel, err := registry.ParseSelector(x.Params.Get("TSList"), pattern)
	if err != nil {
		return nil, withHint(err, "Specify TSList as one of "+selectorNames()+".")
	}
	entries, err := x.Proc.TimeSeriesToProcess(sel, pattern)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 && !x.Discovery() {
		x.Warn(fmt.Sprintf("No time series matched TSList=%s TSID=%q.", sel, pattern),
			"Verify that a previous command creates a time series matching the TSID.")
	}
	return entries, nil
}

func selectorNames() string {
	names := make([]string, len(registry.Selectors))
	for i, s := range registry.Selectors {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Checker accumulates parameter problems for one CheckParameters call. Values holding
// ${Property} references are validated when the command runs.
type Checker struct {
	proc     Processor
	params   *Params
	status   *Status
	problems []string
}

// Processor returns the processor the command is bound to.
func (c *Checker) Processor() Processor { return c.proc }

// Get returns a raw parameter value.
func (c *Checker) Get(name string) string { return c.params.Get(name) }

// Fail records a problem that prevents the command from running.
func (c *Checker) Fail(msg, recommendation string) {
	c.problems = append(c.problems, msg)
	c.status.Add(PhaseInitialization, SeverityFailure, msg, recommendation)
}

// Warn records a non-blocking concern.
func (c *Checker) Warn(msg, recommendation string) {
	c.status.Add(PhaseInitialization, SeverityWarning, msg, recommendation)
}

// Required fails for each name with an empty value and reports whether all were set.
func (c *Checker) Required(names ...string) bool {
	ok := true
	for _, n := range names {
		if strings.TrimSpace(c.params.Get(n)) == "" {
			c.Fail(n+" must be specified.", "Specify "+n+".")
			ok = false
		}
	}
	return ok
}

func deferred(v string) bool {
	return strings.Contains(v, "${")
}

// OneOf fails when name is set to something other than choices, ignoring case.
func (c *Checker) OneOf(name string, choices ...string) {
	v := strings.TrimSpace(c.params.Get(name))
	if v == "" || deferred(v) {
		return
	}
	for _, choice := range choices {
		if strings.EqualFold(v, choice) {
			return
		}
	}
	c.Fail(fmt.Sprintf("%s=%q is invalid.", name, v), "Specify "+name+" as "+strings.Join(choices, ", ")+".")
}

// Bool checks a True/False parameter.
func (c *Checker) Bool(name string) {
	c.OneOf(name, "True", "False")
}

// Number checks a numeric parameter.
func (c *Checker) Number(names ...string) {
	for _, name := range names {
		v := strings.TrimSpace(c.params.Get(name))
		if v == "" || deferred(v) {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			c.Fail(fmt.Sprintf("%s=%q is not a number.", name, v), "Specify "+name+" as a number.")
		}
	}
}

// DateTime checks date/time parameters. Symbolic tokens are accepted and resolved at
// run time. Other values must be a literal or a date/time property that is already set.
func (c *Checker) DateTime(names ...string) {
	for _, name := range names {
		v := strings.TrimSpace(c.params.Get(name))
		if v == "" || v == domain.Wildcard || deferred(v) || isSymbolicDateTime(v) {
			continue
		}
		if !c.resolvesDateTime(v) {
			c.Fail(fmt.Sprintf("%s=%q is not a valid date/time.", name, v),
				"Specify "+name+" as YYYY, YYYY-MM, YYYY-MM-DD, YYYY-MM-DD hh, YYYY-MM-DD hh:mm or a date/time property.")
		}
	}
}

func (c *Checker) resolvesDateTime(v string) bool {
	if c.proc != nil {
		dt, err := c.proc.DateTime(v)
		return err == nil && dt != nil
	}
	_, err := domain.ParseDateTime(v)
	return err == nil
}

func isSymbolicDateTime(v string) bool {
	if _, ok := registry.DateTimeTokenProperty(v); ok {
		return true
	}
	_, ok := domain.CurrentTo(v, time.Time{})
	return ok
}

// TSID checks an identifier parameter.
func (c *Checker) TSID(name string) {
	v := strings.TrimSpace(c.params.Get(name))
	if v == "" || deferred(v) {
		return
	}
	if _, err := domain.ParseTSID(v); err != nil {
		c.Fail(fmt.Sprintf("%s=%q is not a valid identifier.", name, v),
			"Specify "+name+" as Location.Source.DataType.Interval.")
	}
}

// Interval checks an interval parameter.
func (c *Checker) Interval(name string) {
	v := strings.TrimSpace(c.params.Get(name))
	if v == "" || deferred(v) {
		return
	}
	if _, err := domain.ParseInterval(v); err != nil {
		c.Fail(fmt.Sprintf("%s=%q is not a valid interval.", name, v),
			"Specify "+name+" as Irregular or a multiplier and base such as Day, 6Hour or 15Minute.")
	}
}

// TSList checks the TSList selector against the TSID parameter.
func (c *Checker) TSList() {
	tsid := strings.TrimSpace(c.params.Get("TSID"))
	sel, err := registry.ParseSelector(c.params.Get("TSList"), tsid)
	if err != nil {
		c.Fail(fmt.Sprintf("TSList=%q is invalid.", c.params.Get("TSList")), "Specify TSList as one of "+selectorNames()+".")
		return
	}
	if (sel == registry.AllMatchingTSID || sel == registry.LastMatchingTSID) && tsid == "" {
		c.Fail("TSID must be specified when TSList="+string(sel)+".", "Specify TSID.")
	}
}
