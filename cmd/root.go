package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"fedora-updater/pkg/config"
	"fedora-updater/pkg/console"
	"fedora-updater/pkg/log"
	"fedora-updater/pkg/runner"
	"fedora-updater/pkg/system"

	"github.com/spf13/cobra"
)

type contextKey string

const (
	loggerKey  contextKey = "logger"
	consoleKey contextKey = "console"
)

var (
	cfgFile     string
	logLevel    string
	interactive bool
	noColor     bool
	timeout     time.Duration

	// cmdRunner overrides the process runner; nil builds one per command.
	cmdRunner   runner.CommandRunner
	toolLocator system.Locator = system.NewToolLocator()
	stdin       io.Reader      = os.Stdin

	rootCmd = &cobra.Command{
		Use:   "fedora-updater",
		Short: "fedora-updater updates Flatpak applications and DNF5 packages",
		Long: `A small update tool for Fedora. It updates Flatpak applications first and
DNF5 system packages second, streaming the output of both tools as it arrives.
System packages are applied immediately or staged as an offline update for the
next reboot. Running without a subcommand is the same as "update".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			cons := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), noColor)
			logger := log.NewSlogLogger(level, cons.LogWriter())

			ctx := context.WithValue(cmd.Context(), loggerKey, log.Logger(logger))
			ctx = context.WithValue(ctx, consoleKey, cons)
			cmd.SetContext(ctx)
			return nil
		},
		RunE: runUpdate,
	}
)

// ExitStatusError carries a non-zero process exit status. The summary was
// already printed, so Execute only exits with Code.
type ExitStatusError struct {
	Code int
	Err  error
}

func (e *ExitStatusError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitStatusError) Unwrap() error {
	return e.Err
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(exitCode(rootCmd.Execute(), os.Stderr))
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitStatusError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func loggerFrom(cmd *cobra.Command) log.Logger {
	if logger, ok := cmd.Context().Value(loggerKey).(log.Logger); ok {
		return logger
	}
	return log.Discard()
}

func consoleFrom(cmd *cobra.Command) *console.Console {
	if cons, ok := cmd.Context().Value(consoleKey).(*console.Console); ok {
		return cons
	}
	return console.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), noColor)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit := cmd.Flags().Changed("config")
	cfg, err := config.LoadConfig(cfgFile, explicit, loggerFrom(cmd))
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("timeout") {
		if timeout < 0 {
			return nil, fmt.Errorf("invalid timeout %s: must not be negative", timeout)
		}
		cfg.Timeout = timeout
	}
	return cfg, nil
}

func processRunner(cons *console.Console, logger log.Logger, cfg *config.Config) runner.CommandRunner {
	if cmdRunner != nil {
		return cmdRunner
	}
	return system.NewProcessRunner(cons, logger, cfg.Timeout)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&interactive, "interactive", "i", false, "Ask whether to update system packages now or offline")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Kill a backend command after this long (0 disables)")
}
