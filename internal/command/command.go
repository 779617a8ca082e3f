// Package command implements the script command units run by the processor.
//
// A command is a Unit built from a Spec: the spec declares the command name, its
// parameters in canonical order, a parameter check and the per-phase run functions.
// Units record their outcome in a per-phase Status instead of aborting the script.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/couchcryptid/hydro-tsproc/internal/config"
	"github.com/couchcryptid/hydro-tsproc/internal/domain"
	"github.com/couchcryptid/hydro-tsproc/internal/registry"
)

// Processor is the shared state a command reads and mutates while it runs.
type Processor interface {
	Property(key string) (any, bool)
	SetProperty(key string, value any)

	TimeSeries(id string) (*domain.TimeSeries, bool)
	TimeSeriesAt(pos int) (*domain.TimeSeries, bool)
	TimeSeriesToProcess(selector registry.Selector, pattern string) ([]registry.Entry, error)
	IndexOf(id string) int
	AppendTimeSeries(series ...*domain.TimeSeries)
	SetTimeSeries(pos int, ts *domain.TimeSeries) error

	// DateTime resolves a symbolic or literal date/time. Empty and "*" return nil.
	DateTime(token string) (*domain.DateTime, error)

	DataStore(name string) (domain.DataStore, bool)
	SetDataStore(ds domain.DataStore)
	OpenDataStore(ctx context.Context, def config.DataStore) (domain.DataStore, error)

	Supplier() domain.Supplier
	Decoder() domain.Decoder

	WorkingDir() string
	ResolvePath(p string) string
	ExpandProperties(s string) (string, error)

	Logger() *slog.Logger
}

// Command is one executable script step.
type Command interface {
	Name() string
	Params() *Params
	Status() *Status
	// CheckParameters validates the parameters against the current processor state.
	CheckParameters() error
	Run(ctx context.Context, seq int, phase Phase) error
	String() string
}

// Spec defines a command kind.
type Spec struct {
	Name    string
	Summary string
	// Params lists the accepted parameter names in canonical order.
	Params []string
	Check  func(c *Checker)
	Run    func(ctx context.Context, x *Exec) error
	// Discover runs in the DISCOVERY phase. Nil means discovery is a no-op.
	Discover func(ctx context.Context, x *Exec) error
}

// Unit is a parsed command bound to a processor.
type Unit struct {
	spec     *Spec
	name     string
	text     string // original line, kept for comments and unparseable input
	parseErr error
	params   *Params
	status   Status
	proc     Processor
}

// NewUnit binds spec to proc with the given parameters.
func NewUnit(spec *Spec, params *Params, proc Processor) *Unit {
	if params == nil {
		params = &Params{}
	}
	return &Unit{spec: spec, name: spec.Name, params: params, proc: proc}
}

func (u *Unit) Name() string { return u.name }
func (u *Unit) Params() *Params { return u.params }
func (u *Unit) Status() *Status { return &u.status }
func (u *Unit) Spec() *Spec { return u.spec }
func (u *Unit) IsComment() bool { return u.spec == commentSpec }
func (u *Unit) Known() bool { return u.spec != nil && u.parseErr == nil }
func (u *Unit) Text() string { return u.text }
func (u *Unit) ParseError() error { return u.parseErr }

// String returns the canonical command text. Comments and lines that failed to parse
// are returned as written.
func (u *Unit) String() string {
	if u.spec == nil || u.spec == commentSpec || u.parseErr != nil {
		return u.text
	}
	return FormatText(u.name, u.spec.Params, u.params)
}

// CheckParameters clears the INITIALIZATION status and validates every parameter,
// returning a *ParameterError listing all problems found.
func (u *Unit) CheckParameters() error {
	u.status.Clear(PhaseInitialization)
	c := &Checker{proc: u.proc, params: u.params, status: &u.status}

	switch {
	case u.parseErr != nil:
		c.Fail(u.parseErr.Error(), "Correct the command syntax: Name(Param=\"Value\",...).")
	case u.spec == nil:
		c.Fail(fmt.Sprintf("Unknown command %q.", u.name), "Verify the command name. Run 'tsproc commands' for the list.")
	default:
		for _, p := range u.params.list {
			if !slices.Contains(u.spec.Params, p.Name) {
				c.Fail(fmt.Sprintf("Unknown parameter %q.", p.Name),
					"Valid parameters are: "+strings.Join(u.spec.Params, ", ")+".")
			}
		}
		if u.spec.Check != nil {
			u.spec.Check(c)
		}
	}

	if len(c.problems) > 0 {
		return &ParameterError{Command: u.name, Problems: c.problems}
	}
	return nil
}

// Run clears the status for phase and executes the command. Failures are recorded in
// the status and returned as *ExecutionError; panics are recovered the same way.
// ErrExit is returned unchanged.
func (u *Unit) Run(ctx context.Context, seq int, phase Phase) (err error) {
	if phase == PhaseInitialization {
		return fmt.Errorf("%s: run phase must be %s or %s", u.name, PhaseRun, PhaseDiscovery)
	}
	u.status.Clear(phase)
	if u.spec == nil || u.parseErr != nil {
		u.status.Add(phase, SeverityFailure, "Command cannot run because it was not recognized.", "Correct the command text.")
		return u.executionError(phase, nil)
	}

	fn := u.spec.Run
	if phase == PhaseDiscovery {
		fn = u.spec.Discover
	}
	if fn == nil {
		return nil
	}

	x := &Exec{Proc: u.proc, Params: u.params, Seq: seq, Phase: phase, unit: u}
	defer func() {
		if r := recover(); r != nil {
			cause := fmt.Errorf("unexpected error: %v", r)
			u.status.Add(phase, SeverityFailure, cause.Error(), "Report the problem with the command text and log file.")
			err = u.executionError(phase, cause)
		}
	}()

	if runErr := fn(ctx, x); runErr != nil {
		if errors.Is(runErr, ErrExit) {
			return runErr
		}
		u.status.Add(phase, SeverityFailure, runErr.Error(), hintFor(runErr))
		return u.executionError(phase, runErr)
	}
	if u.status.Count(phase, SeverityFailure) > 0 {
		return u.executionError(phase, nil)
	}
	return nil
}

func (u *Unit) executionError(phase Phase, cause error) *ExecutionError {
	return &ExecutionError{
		Command:  u.name,
		Phase:    phase,
		Warnings: u.status.Count(phase, SeverityWarning) + u.status.Count(phase, SeverityFailure),
		Cause:    cause,
	}
}
