package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kyco-project/kyco/internal/cli/output"
	"github.com/kyco-project/kyco/internal/cli/prompt"
	"github.com/kyco-project/kyco/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and generate kycod configuration",
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := GetConfigFile()
		if path == "" {
			path = config.DefaultConfigPath()
		}

		if _, err := os.Stat(path); err == nil && !configForce {
			proceed, err := prompt.Confirm(fmt.Sprintf("%s already exists, overwrite?", path), false)
			if err != nil {
				if prompt.IsAborted(err) {
					return nil
				}
				return err
			}
			if !proceed {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
		}

		cfg := config.GetDefaultConfig()
		if err := config.Save(cfg, path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Load configuration and print its effective values",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(GetConfigFile())
		if err != nil {
			return err
		}

		table := output.NewTableData("KEY", "VALUE")
		table.AddRow("listen", fmt.Sprintf("%s:%d", cfg.Listen, cfg.Port))
		table.AddRow("shutdown_timeout", cfg.ShutdownTimeout.String())
		table.AddRow("max_frame_size", cfg.MaxFrameSize.String())
		table.AddRow("buffers", fmt.Sprintf("%v", cfg.Buffers))
		table.AddRow("napps", fmt.Sprintf("%v", cfg.NApps))
		table.AddRow("logging.level", cfg.Logging.Level)
		table.AddRow("logging.format", cfg.Logging.Format)
		table.AddRow("logging.output", cfg.Logging.Output)
		table.AddRow("telemetry.enabled", fmt.Sprintf("%v", cfg.Telemetry.Enabled))
		table.AddRow("telemetry.endpoint", cfg.Telemetry.Endpoint)
		table.AddRow("metrics.enabled", fmt.Sprintf("%v", cfg.Metrics.Enabled))
		table.AddRow("metrics.bind_address", cfg.Metrics.BindAddress)

		return output.PrintTable(cmd.OutOrStdout(), table)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file without starting the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(GetConfigFile())
		if err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing configuration file without prompting")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}
