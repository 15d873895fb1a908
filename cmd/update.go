package cmd

import (
	"strings"

	"fedora-updater/pkg/config"
	"fedora-updater/pkg/console"
	"fedora-updater/pkg/orchestrator"
	"fedora-updater/pkg/system"

	"github.com/spf13/cobra"
)

var dryRun bool

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Updates Flatpak applications and DNF5 packages",
	Long: `The update command runs Flatpak first and DNF5 second. Backends that are not
installed are skipped. DNF5 updates are applied immediately by default; use
--interactive to choose between an immediate and an offline update, or set
default-mode in the config file.

Exit status is 0 when every installed backend succeeded, 2 when one of them
failed while the other succeeded, and 1 when all of them failed.`,
	RunE: runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	logger := loggerFrom(cmd)
	cons := consoleFrom(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	procRunner := processRunner(cons, logger, cfg)
	orch := orchestrator.New(cfg.EnabledBackends(), procRunner, toolLocator, cons, logger, orchestrator.Options{
		Interactive: interactive,
		DefaultMode: cfg.Mode(),
		Prompter:    orchestrator.NewPrompter(stdin, cons),
	})

	if dryRun {
		orch.DryRun()
		return nil
	}

	printBanner(cons, system.GatherInfo(cmd.Context(), procRunner, toolLocator, tools(cfg)))

	report := orch.Update(cmd.Context())
	report.Print(cons)

	if code := report.ExitCode(); code != orchestrator.ExitOK {
		logger.Debug("Update finished with failures", "exitCode", code, "error", report.Err())
		return &ExitStatusError{Code: code, Err: report.Err()}
	}
	return nil
}

func printBanner(cons *console.Console, info system.Info) {
	cons.Heading("Fedora Updater")
	cons.Println(strings.Repeat("=", len("Fedora Updater")))
	cons.Println("Distribution: %s", info.Distribution)
	cons.Println("Kernel: %s", info.Kernel)
	for _, tool := range info.Tools {
		cons.Println("%s: %s", tool.Name, tool.Version)
	}
	cons.Println("")
}

func tools(cfg *config.Config) []system.Tool {
	var list []system.Tool
	for _, b := range cfg.EnabledBackends() {
		list = append(list, system.Tool{Name: b.Name, Binary: b.Binary})
	}
	return list
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the commands each backend would run without executing them")
}
