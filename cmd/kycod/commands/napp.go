package commands

import (
	"github.com/spf13/cobra"

	"github.com/kyco-project/kyco/internal/cli/output"
	"github.com/kyco-project/kyco/pkg/napp"

	// Registers the bundled core NApps against the compile-time registry.
	_ "github.com/kyco-project/kyco/pkg/napp/builtin"
)

var nappCmd = &cobra.Command{
	Use:   "napp",
	Short: "Inspect NApps registered at compile time",
}

var nappListCmd = &cobra.Command{
	Use:   "list",
	Short: "List NApps available to load",
	RunE: func(cmd *cobra.Command, args []string) error {
		table := output.NewTableData("NAME")
		for _, name := range napp.Available() {
			table.AddRow(name)
		}
		return output.PrintTable(cmd.OutOrStdout(), table)
	},
}

func init() {
	nappCmd.AddCommand(nappListCmd)
}
