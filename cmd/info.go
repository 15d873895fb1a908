package cmd

import (
	"encoding/json"
	"fmt"

	"fedora-updater/pkg/system"

	"github.com/spf13/cobra"
)

var jsonOutput bool

type backendForJSON struct {
	Name      string   `json:"name"`
	Binary    string   `json:"binary"`
	Installed bool     `json:"installed"`
	Modes     []string `json:"modes"`
}

type infoForJSON struct {
	Distribution string               `json:"distribution"`
	Kernel       string               `json:"kernel"`
	Tools        []system.ToolVersion `json:"tools"`
	Backends     []backendForJSON     `json:"backends"`
}

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Shows the distribution, kernel and update tool versions",
	Long: `The info command prints the same system banner "update" starts with, followed
by the configured backends and whether they are installed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := loggerFrom(cmd)
		cons := consoleFrom(cmd)

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		info := system.GatherInfo(cmd.Context(), processRunner(cons, logger, cfg), toolLocator, tools(cfg))

		var backends []backendForJSON
		for _, b := range cfg.EnabledBackends() {
			entry := backendForJSON{Name: b.Name, Binary: b.Binary, Installed: toolLocator.IsInstalled(b.Binary)}
			for _, mode := range b.Modes() {
				entry.Modes = append(entry.Modes, string(mode))
			}
			backends = append(backends, entry)
		}

		if jsonOutput {
			jsonData, err := json.MarshalIndent(infoForJSON{
				Distribution: info.Distribution,
				Kernel:       info.Kernel,
				Tools:        info.Tools,
				Backends:     backends,
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling to JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		}

		printBanner(cons, info)
		cons.Heading("Backends")
		for _, b := range backends {
			state := "not installed"
			if b.Installed {
				state = "installed"
			}
			cons.Println("%s (%s): %s, modes: %v", b.Name, b.Binary, state, b.Modes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the information in JSON format")
}
