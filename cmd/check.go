package cmd

import (
	"fedora-updater/pkg/orchestrator"

	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Reports which backends have pending updates without installing them",
	Long: `The check command runs only the check step of each installed backend.
Nothing is installed. Flatpak cannot report pending updates by exit code and is
listed as not checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := loggerFrom(cmd)
		cons := consoleFrom(cmd)

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		orch := orchestrator.New(cfg.EnabledBackends(), processRunner(cons, logger, cfg), toolLocator, cons, logger, orchestrator.Options{
			DefaultMode: cfg.Mode(),
		})

		report := orch.Check(cmd.Context())
		report.PrintCheck(cons)

		if code := report.ExitCode(); code != orchestrator.ExitOK {
			return &ExitStatusError{Code: code, Err: report.Err()}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
