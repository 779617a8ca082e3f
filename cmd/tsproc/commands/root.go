// Package commands holds the tsproc cobra command tree.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionString = "dev"

// NewRootCmd builds the tsproc command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tsproc",
		Short: "tsproc - time series command processor",
		Long: `tsproc runs scripts of time series commands: read WaterML files and web
services, transform series, and write them to File, Redis, Postgres, Kafka or
object-store datastores.

Configuration comes from environment variables such as LOG_LEVEL, WORKING_DIR,
WEBSERVICE_URL and DATASTORE_CONFIG.`,
		Version: versionString,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceErrors:      true,
		SilenceUsage:       true,
	}
	root.AddCommand(newRunCmd(), newCheckCmd(), newServeCmd(), newCommandsCmd())
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// SetVersionInfo sets the version reported by --version.
func SetVersionInfo(v, c, d string) {
	versionString = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}
