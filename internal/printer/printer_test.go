package printer

import (
	"bytes"
	"testing"
	"time"

	"github.com/couchcryptid/hydro-tsproc/internal/command"
	"github.com/couchcryptid/hydro-tsproc/internal/processor"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

func sampleSummary() *processor.Summary {
	return &processor.Summary{
		Commands: []processor.CommandResult{
			{Seq: 1, Name: "NewTimeSeries", Text: `NewTimeSeries(NewTSID="A.X.Flow.Day")`, Severity: command.SeveritySuccess,
				Entries: []command.LogEntry{{Severity: command.SeveritySuccess, Message: "created"}}},
			{Seq: 2, Name: "Copy", Text: `Copy(Alias="b",TSID="Z.X.Flow.Day")`, Severity: command.SeverityFailure,
				Entries: []command.LogEntry{{Severity: command.SeverityFailure, Message: `time series "Z.X.Flow.Day" was not found`, Recommendation: "Verify the TSID."}}},
		},
		Failures: 1,
		Severity: command.SeverityFailure,
		Duration: 1500 * time.Millisecond,
		Exited:   true,
		Results:  []string{"A.X.Flow.Day"},
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	Report(&buf, sampleSummary(), false)
	out := buf.String()

	assert.Contains(t, out, `   1 SUCCESS NewTimeSeries(NewTSID="A.X.Flow.Day")`)
	assert.Contains(t, out, `   2 FAILURE Copy(Alias="b",TSID="Z.X.Flow.Day")`)
	assert.Contains(t, out, `was not found`)
	assert.Contains(t, out, "Verify the TSID.")
	assert.NotContains(t, out, "created")
	assert.Contains(t, out, "FAILURE: 2 commands, 0 warnings, 1 failures in 1.5s")
	assert.Contains(t, out, "stopped by Exit")
	assert.Contains(t, out, "results: A.X.Flow.Day")
}

func TestReport_Verbose(t *testing.T) {
	var buf bytes.Buffer
	Report(&buf, sampleSummary(), true)
	assert.Contains(t, buf.String(), "created")
}

func TestCommands(t *testing.T) {
	var buf bytes.Buffer
	Commands(&buf, []*command.Spec{
		{Name: "Exit", Summary: "Stop."},
		{Name: "Copy", Summary: "Copy a series.", Params: []string{"Alias", "TSID"}},
	})
	assert.Equal(t, "Exit  Stop.\nCopy  Copy a series.\n      Alias, TSID\n", buf.String())
}

func TestSuccess(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "wrote %d", 3)
	assert.Equal(t, "✓ wrote 3\n", buf.String())
}

func TestError(t *testing.T) {
	err := Error("script failed", "2 commands failed", "Fix the script.", "Pass --allow-failures.")
	assert.EqualError(t, err, "script failed")
}
