package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configDiff bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Prints the effective configuration",
	Long: `The config command prints the configuration after the config file and the
command line flags were applied. Use --diff to only see how it differs from
the built-in defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		render := cfg.YAML
		if configDiff {
			render = cfg.DiffFromDefaults
		}
		out, err := render()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configDiff, "diff", false, "Show the differences from the built-in defaults")
}
