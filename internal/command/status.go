package command

import (
	"fmt"
	"strings"
)

// Phase identifies one pass over a command.
type Phase int

const (
	PhaseInitialization Phase = iota
	PhaseDiscovery
	PhaseRun
)

var phaseNames = [...]string{"INITIALIZATION", "DISCOVERY", "RUN"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Phases lists every phase in execution order.
var Phases = []Phase{PhaseInitialization, PhaseDiscovery, PhaseRun}

// Severity orders status outcomes. Rollups take the maximum.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityFailure
)

var severityNames = [...]string{"UNKNOWN", "SUCCESS", "WARNING", "FAILURE"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// MarshalText encodes the severity by name for JSON summaries.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity maps a name onto a Severity, ignoring case.
func ParseSeverity(s string) (Severity, error) {
	for i, name := range severityNames {
		if strings.EqualFold(s, name) {
			return Severity(i), nil
		}
	}
	return SeverityUnknown, fmt.Errorf("unknown severity %q", s)
}

// LogEntry is one status message recorded by a command.
type LogEntry struct {
	Severity       Severity `json:"severity"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation,omitempty"`
}

type phaseLog struct {
	started bool
	entries []LogEntry
}

// Status is the per-phase log of a single command.
//
// A phase reports UNKNOWN until it is cleared for the first time, then SUCCESS until
// an entry with a higher severity is added.
type Status struct {
	phases [3]phaseLog
}

// Clear starts phase afresh, dropping earlier entries.
func (s *Status) Clear(phase Phase) {
	s.phases[phase] = phaseLog{started: true}
}

// Add records an entry for phase.
func (s *Status) Add(phase Phase, severity Severity, message, recommendation string) {
	pl := &s.phases[phase]
	pl.started = true
	pl.entries = append(pl.entries, LogEntry{
		Severity:       severity,
		Message:        message,
		Recommendation: recommendation,
	})
}

// Severity returns the rollup severity for phase.
func (s *Status) Severity(phase Phase) Severity {
	pl := s.phases[phase]
	if !pl.started {
		return SeverityUnknown
	}
	sev := SeveritySuccess
	for _, e := range pl.entries {
		sev = max(sev, e.Severity)
	}
	return sev
}

// Entries returns a copy of the log for phase.
func (s *Status) Entries(phase Phase) []LogEntry {
	return append([]LogEntry(nil), s.phases[phase].entries...)
}

// Count returns how many entries of phase have exactly severity.
func (s *Status) Count(phase Phase, severity Severity) int {
	n := 0
	for _, e := range s.phases[phase].entries {
		if e.Severity == severity {
			n++
		}
	}
	return n
}

// Overall returns the maximum severity across all phases.
func (s *Status) Overall() Severity {
	sev := SeverityUnknown
	for _, p := range Phases {
		sev = max(sev, s.Severity(p))
	}
	return sev
}
