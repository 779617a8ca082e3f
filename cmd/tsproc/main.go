// Command tsproc runs time series command scripts from the terminal or over HTTP.
package main

import (
	"os"

	"github.com/couchcryptid/hydro-tsproc/cmd/tsproc/commands"
)

// Version information, set during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// Errors are printed by the printer package.
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
