package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gianmarcomichelini/data-privacy-toolkit/cmd/cli/config"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current configuration to disk",
		Long: `Write the effective configuration (defaults merged with any existing
config file and environment overrides) back to disk, creating the
config directory if needed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			if err := config.SaveConfig(cfg, cfgFile); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "configuration saved")
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgFile, "file", "", "Target config file (default $HOME/.privacy-toolkit/config.yaml)")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(cfg)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "file", "", "Config file to read (default $HOME/.privacy-toolkit/config.yaml)")

	return cmd
}
