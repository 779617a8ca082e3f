package processor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/command"
	"github.com/couchcryptid/hydro-tsproc/internal/registry"
	"github.com/google/uuid"
)

// ErrFailureThreshold stops a run once MaxFailures commands have failed.
var ErrFailureThreshold = errors.New("command failure threshold reached")

// RunOptions controls one run.
type RunOptions struct {
	// Phase is command.PhaseRun or command.PhaseDiscovery. Zero means PhaseRun.
	Phase command.Phase
	// MaxFailures stops the run after that many failed commands. Zero is unlimited.
	MaxFailures int
}

// CommandResult is the outcome of one command.
type CommandResult struct {
	Seq      int                `json:"seq"`
	Name     string             `json:"name"`
	Text     string             `json:"text"`
	Severity command.Severity   `json:"severity"`
	Entries  []command.LogEntry `json:"entries,omitempty"`
}

// Summary aggregates a run. Warnings and Failures count commands whose worst entry
// was WARNING or FAILURE.
type Summary struct {
	RunID    uuid.UUID        `json:"run_id"`
	Phase    string           `json:"phase"`
	Commands []CommandResult  `json:"commands"`
	Warnings int              `json:"warnings"`
	Failures int              `json:"failures"`
	Severity command.Severity `json:"severity"`
	Duration time.Duration    `json:"duration_ns"`
	Exited   bool             `json:"exited,omitempty"`
	// Results lists the registry identifiers after the run, in order.
	Results []string `json:"results"`
}

// Failed reports whether any command ended in FAILURE.
func (s *Summary) Failed() bool { return s.Failures > 0 }

// RunCommands parses script lines and runs them.
func (p *Processor) RunCommands(ctx context.Context, lines []string, opts RunOptions) (*Summary, error) {
	units := command.ParseScript(lines, p)
	cmds := make([]command.Command, len(units))
	for i, u := range units {
		cmds[i] = u
	}
	return p.Run(ctx, cmds, opts)
}

// commentUnit is implemented by command.Unit.
type commentUnit interface {
	IsComment() bool
}

// Run executes cmds in order. Each command has its parameters checked immediately
// before it runs, so earlier commands can set state a later check depends on. A
// rejected or failed command is recorded and the run continues. Datastores opened by
// the run are closed before Run returns.
func (p *Processor) Run(ctx context.Context, cmds []command.Command, opts RunOptions) (summary *Summary, err error) {
	phase := opts.Phase
	if phase != command.PhaseDiscovery {
		phase = command.PhaseRun
	}
	start := p.clock.Now()
	summary = &Summary{RunID: uuid.New(), Phase: phase.String(), Severity: command.SeveritySuccess}
	logger := p.logger.With("run_id", summary.RunID.String(), "phase", phase.String())
	logger.Info("run started", "commands", len(cmds))

	p.metrics.RunsInProgress.Inc()
	defer func() {
		p.metrics.RunsInProgress.Dec()
		if cerr := p.closeOwned(); cerr != nil && err == nil {
			logger.Warn("closing datastores failed", "error", cerr)
		}
		summary.Duration = p.clock.Since(start)
		summary.Results = p.identifiers()
		outcome := strings.ToLower(summary.Severity.String())
		if err != nil {
			outcome = "aborted"
		}
		p.metrics.Runs.WithLabelValues(outcome).Inc()
		logger.Info("run finished",
			"severity", summary.Severity.String(),
			"warnings", summary.Warnings,
			"failures", summary.Failures,
			"duration", summary.Duration,
		)
	}()

	for i, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if c, ok := cmd.(commentUnit); ok && c.IsComment() {
			continue
		}
		seq := i + 1
		exited := p.runOne(ctx, cmd, seq, phase, summary, logger)
		if exited {
			summary.Exited = true
			logger.Info("exit command reached", "seq", seq)
			break
		}
		if opts.MaxFailures > 0 && summary.Failures >= opts.MaxFailures {
			logger.Warn("stopping run", "failures", summary.Failures, "max_failures", opts.MaxFailures)
			return summary, ErrFailureThreshold
		}
	}

	if phase == command.PhaseDiscovery {
		p.reg.SetProperty(registry.PropTSIDListNoInput, p.identifiers())
	}
	return summary, nil
}

// runOne checks and runs a single command and records its result. It reports
// whether the command asked to stop the run.
func (p *Processor) runOne(ctx context.Context, cmd command.Command, seq int, phase command.Phase, summary *Summary, logger *slog.Logger) bool {
	start := p.clock.Now()
	exited := false

	if err := cmd.CheckParameters(); err != nil {
		logger.Warn("command rejected, skipping", "command", cmd.Name(), "seq", seq, "error", err)
	} else if err := cmd.Run(ctx, seq, phase); err != nil {
		if errors.Is(err, command.ErrExit) {
			exited = true
		} else {
			logger.Warn("command failed", "command", cmd.Name(), "seq", seq, "error", err)
		}
	}

	st := cmd.Status()
	sev := max(st.Severity(command.PhaseInitialization), st.Severity(phase))
	entries := append(st.Entries(command.PhaseInitialization), st.Entries(phase)...)
	summary.Commands = append(summary.Commands, CommandResult{
		Seq:      seq,
		Name:     cmd.Name(),
		Text:     cmd.String(),
		Severity: sev,
		Entries:  entries,
	})
	switch sev {
	case command.SeverityWarning:
		summary.Warnings++
	case command.SeverityFailure:
		summary.Failures++
	}
	summary.Severity = max(summary.Severity, sev)

	label := commandLabel(cmd.Name())
	p.metrics.CommandsExecuted.WithLabelValues(label, sev.String()).Inc()
	p.metrics.CommandDuration.WithLabelValues(label).Observe(p.clock.Since(start).Seconds())
	logger.Debug("command complete", "command", cmd.Name(), "seq", seq, "severity", sev.String())
	return exited
}

// unknownCommandLabel is the metric label for names outside the command catalogue.
const unknownCommandLabel = "unknown"

// commandLabel maps a command name to its catalogue spelling so label values stay
// bounded by the catalogue.
func commandLabel(name string) string {
	if spec, ok := command.Lookup(name); ok {
		return spec.Name
	}
	return unknownCommandLabel
}

func (p *Processor) identifiers() []string {
	all := p.reg.All()
	ids := make([]string, len(all))
	for i, ts := range all {
		ids[i] = ts.Identifier()
	}
	return ids
}
