package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DATASTORE_CONFIG", "")
	t.Setenv("WEBSERVICE_URL", "")
	t.Setenv("MAX_COMMAND_FAILURES", "0")

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.tsp")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const writeScriptBody = `# daily flow
SetOutputPeriod(OutputStart="2024-01-01",OutputEnd="2024-01-03")
NewTimeSeries(Alias="flow",NewTSID="A.X.Flow.Day",InitialValue="2")
NewDataStore(Name="Out",Type="File",Path="out")
WriteTimeSeries(DataStore="Out",TSList=AllTS)
`

func TestCommands_ListsCommands(t *testing.T) {
	out, err := execute(t, "commands")
	require.NoError(t, err)
	assert.Contains(t, out, "NewTimeSeries")
	assert.Contains(t, out, "WriteTimeSeries")
}

func TestRun_WritesFileDataStore(t *testing.T) {
	path := writeScript(t, writeScriptBody)

	out, err := execute(t, "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "SUCCESS: 4 commands")

	entries, err := os.ReadDir(filepath.Join(filepath.Dir(path), "out"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestRun_JSON(t *testing.T) {
	path := writeScript(t, `NewTimeSeries(NewTSID="A.X.Flow.Day")`)

	out, err := execute(t, "run", "--json", path)
	require.NoError(t, err)

	var summary struct {
		Severity string   `json:"severity"`
		Results  []string `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "SUCCESS", summary.Severity)
	assert.Equal(t, []string{"A.X.Flow.Day"}, summary.Results)
}

func TestRun_FailingScript(t *testing.T) {
	path := writeScript(t, `Copy(Alias="b",TSID="NONE.X.Flow.Day")`)

	out, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Contains(t, out, "FAILURE")

	_, err = execute(t, "run", "--allow-failures", path)
	assert.NoError(t, err)
}

func TestRun_MaxFailures(t *testing.T) {
	path := writeScript(t, `Copy(Alias="b",TSID="NONE.X.Flow.Day")
NewTimeSeries(NewTSID="A.X.Flow.Day")`)

	_, err := execute(t, "run", "--allow-failures", "--max-failures", "1", path)
	assert.Error(t, err)
}

func TestRun_MissingScript(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.tsp"))
	assert.Error(t, err)
}

func TestCheck_DoesNotWrite(t *testing.T) {
	path := writeScript(t, writeScriptBody)

	_, err := execute(t, "check", path)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(filepath.Dir(path), "out"))
	assert.True(t, os.IsNotExist(err))
}

func TestUnknownFlag(t *testing.T) {
	_, err := execute(t, "run", "--no-such-flag", "x")
	assert.Error(t, err)
}
