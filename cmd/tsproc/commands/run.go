package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/hydro-tsproc/internal/command"
	"github.com/couchcryptid/hydro-tsproc/internal/printer"
	"github.com/couchcryptid/hydro-tsproc/internal/processor"
	"github.com/spf13/cobra"
)

type runFlags struct {
	workingDir    string
	allowFailures bool
	maxFailures   int
	verbose       bool
	jsonOutput    bool
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a command script",
		Long: `Run executes every command in the script in order. A failed command is
reported and the run continues. The exit status is non-zero when any command
fails, unless --allow-failures is set.

Relative paths in the script resolve against the script's directory unless
--working-dir is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, args[0], f, command.PhaseRun, true)
		},
	}
	cmd.Flags().StringVar(&f.workingDir, "working-dir", "", "directory relative paths resolve against")
	cmd.Flags().BoolVar(&f.allowFailures, "allow-failures", false, "exit zero even when commands fail")
	cmd.Flags().IntVar(&f.maxFailures, "max-failures", -1, "stop after this many failed commands (default MAX_COMMAND_FAILURES)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "list every status entry")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "print the run summary as JSON")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "check <script>",
		Short: "Validate a script without reading data or connecting to datastores",
		Long: `Check validates every command and runs the discovery pass, which creates
metadata-only results so later commands can be checked against them. Datastores
are not contacted and no data is read or written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, args[0], f, command.PhaseDiscovery, false)
		},
	}
	cmd.Flags().StringVar(&f.workingDir, "working-dir", "", "directory relative paths resolve against")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "list every status entry")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "print the run summary as JSON")
	f.maxFailures = -1
	return cmd
}

func runScript(cmd *cobra.Command, path string, f runFlags, phase command.Phase, connect bool) error {
	script, err := os.ReadFile(path)
	if err != nil {
		return printer.Error("Cannot read script", err.Error(), "Verify the script path.")
	}
	e, err := loadEnv()
	if err != nil {
		return printer.Error("Invalid configuration", err.Error(), "Check the environment variables.")
	}

	workingDir := f.workingDir
	if workingDir == "" {
		if workingDir, err = filepath.Abs(filepath.Dir(path)); err != nil {
			return err
		}
	}
	maxFailures := f.maxFailures
	if maxFailures < 0 {
		maxFailures = e.cfg.MaxCommandFailures
	}

	ctx := cmd.Context()
	opts, err := e.options(ctx, workingDir, connect)
	if err != nil {
		return printer.Error("Cannot open datastores", err.Error(),
			"Verify DATASTORE_CONFIG and that each datastore is reachable.")
	}
	defer closeStores(e.logger, opts.DataStores)

	p := processor.New(opts)
	summary, runErr := p.RunCommands(ctx, command.SplitLines(string(script)), processor.RunOptions{
		Phase:       phase,
		MaxFailures: maxFailures,
	})
	if summary != nil {
		if f.jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return err
			}
		} else {
			printer.Report(cmd.OutOrStdout(), summary, f.verbose)
		}
	}

	switch {
	case errors.Is(runErr, processor.ErrFailureThreshold):
		return printer.Error("Run stopped", fmt.Sprintf("%d commands failed, reaching the limit of %d.", summary.Failures, maxFailures),
			"Fix the failing commands or raise --max-failures.")
	case runErr != nil:
		return printer.Error("Run interrupted", runErr.Error())
	case summary.Failed() && !f.allowFailures:
		return printer.Error("Script failed", fmt.Sprintf("%d of %d commands failed.", summary.Failures, len(summary.Commands)),
			"Fix the failing commands.", "Pass --allow-failures to exit zero anyway.")
	}
	return nil
}
