package command

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Rollup(t *testing.T) {
	var s Status
	assert.Equal(t, SeverityUnknown, s.Severity(PhaseRun))
	assert.Equal(t, SeverityUnknown, s.Overall())

	s.Clear(PhaseRun)
	assert.Equal(t, SeveritySuccess, s.Severity(PhaseRun))

	s.Add(PhaseRun, SeverityWarning, "careful", "look")
	s.Add(PhaseRun, SeveritySuccess, "note", "")
	assert.Equal(t, SeverityWarning, s.Severity(PhaseRun))
	assert.Equal(t, 1, s.Count(PhaseRun, SeverityWarning))

	s.Add(PhaseInitialization, SeverityFailure, "bad", "fix")
	assert.Equal(t, SeverityFailure, s.Overall())
	assert.Equal(t, SeverityUnknown, s.Severity(PhaseDiscovery))

	s.Clear(PhaseRun)
	assert.Empty(t, s.Entries(PhaseRun))
	assert.Len(t, s.Entries(PhaseInitialization), 1)
}

func TestSeverity_Names(t *testing.T) {
	assert.Less(t, SeverityUnknown, SeveritySuccess)
	assert.Less(t, SeveritySuccess, SeverityWarning)
	assert.Less(t, SeverityWarning, SeverityFailure)

	sev, err := ParseSeverity("warning")
	require.NoError(t, err)
	assert.Equal(t, SeverityWarning, sev)
	_, err = ParseSeverity("fatal")
	assert.Error(t, err)

	data, err := json.Marshal(LogEntry{Severity: SeverityFailure, Message: "m"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"severity":"FAILURE","message":"m"}`, string(data))

	assert.Equal(t, "Severity(9)", Severity(9).String())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "INITIALIZATION", PhaseInitialization.String())
	assert.Equal(t, "DISCOVERY", PhaseDiscovery.String())
	assert.Equal(t, "RUN", PhaseRun.String())
	assert.Equal(t, "Phase(7)", Phase(7).String())
}
