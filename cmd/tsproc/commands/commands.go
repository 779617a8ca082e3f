package commands

import (
	"github.com/couchcryptid/hydro-tsproc/internal/command"
	"github.com/couchcryptid/hydro-tsproc/internal/printer"
	"github.com/spf13/cobra"
)

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the script commands and their parameters",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printer.Commands(cmd.OutOrStdout(), command.Specs())
		},
	}
}
