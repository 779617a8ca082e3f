// Package printer formats run results and errors for the terminal.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/hydro-tsproc/internal/command"
	"github.com/couchcryptid/hydro-tsproc/internal/processor"
	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// severityColor returns the color used for a severity label.
func severityColor(s command.Severity) *color.Color {
	switch s {
	case command.SeveritySuccess:
		return green
	case command.SeverityWarning:
		return yellow
	case command.SeverityFailure:
		return red
	default:
		return faint
	}
}

// Report writes one line per command and a closing summary line. With verbose set,
// every status entry is listed under its command, not only warnings and failures.
func Report(w io.Writer, s *processor.Summary, verbose bool) {
	for _, c := range s.Commands {
		label := severityColor(c.Severity).Sprintf("%-7s", c.Severity)
		fmt.Fprintf(w, "%4d %s %s\n", c.Seq, label, c.Text)
		for _, e := range c.Entries {
			if !verbose && e.Severity <= command.SeveritySuccess {
				continue
			}
			fmt.Fprintf(w, "         %s %s\n", severityColor(e.Severity).Sprint("-"), e.Message)
			if e.Recommendation != "" {
				faint.Fprintf(w, "           %s\n", e.Recommendation)
			}
		}
	}

	fmt.Fprintln(w)
	status := severityColor(s.Severity).Sprint(s.Severity)
	fmt.Fprintf(w, "%s %s: %d commands, %d warnings, %d failures in %s\n",
		cyan.Sprint("→"), status, len(s.Commands), s.Warnings, s.Failures, s.Duration.Round(1e6))
	if s.Exited {
		fmt.Fprintln(w, "  stopped by Exit")
	}
	if len(s.Results) > 0 {
		fmt.Fprintf(w, "  results: %s\n", strings.Join(s.Results, ", "))
	}
}

// Commands lists the available command kinds.
func Commands(w io.Writer, specs []*command.Spec) {
	width := 0
	for _, s := range specs {
		width = max(width, len(s.Name))
	}
	for _, s := range specs {
		fmt.Fprintf(w, "%s  %s\n", cyan.Sprintf("%-*s", width, s.Name), s.Summary)
		if len(s.Params) > 0 {
			faint.Fprintf(w, "%-*s  %s\n", width, "", strings.Join(s.Params, ", "))
		}
	}
}

// Success prints a message in green with a checkmark prefix.
func Success(w io.Writer, format string, a ...any) {
	green.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Error prints a title, explanation and suggestions to stderr and returns a plain
// error carrying the title for cobra.
func Error(title, explanation string, suggestions ...string) error {
	red.Fprintf(os.Stderr, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", explanation)
	}
	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(os.Stderr, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(os.Stderr, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, s)
		}
	}
	return fmt.Errorf("%s", title)
}
