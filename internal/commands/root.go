package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/bursar/internal/buildinfo"
	"github.com/cleared-dev/bursar/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "bursar",
		Short:   "Double-entry ledger for schools and institutions",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", config.DefaultPath, "path to bursar.yaml")

	rootCmd.AddCommand(
		newInitCommand(),
		newPostCommand(),
		newImportCommand(),
		newShowCommand(),
		newApproveCommand(),
		newRejectCommand(),
		newReApproveCommand(),
		newRequestDeleteCommand(),
		newConfirmDeleteCommand(),
		newDeleteCommand(),
		newEditCommand(),
		newQueueCommand(),
		newReportCommand(),
		newBudgetCommand(),
	)

	return rootCmd
}
