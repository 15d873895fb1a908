package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"fedora-updater/pkg/backend"
	"fedora-updater/pkg/model"
	"fedora-updater/pkg/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	flatpakUpdate = "flatpak update -y"
	dnfCheck      = "sudo dnf5 --refresh check-upgrade"
	dnfApply      = "sudo dnf5 upgrade -y"
	dnfOffline    = "sudo dnf5 upgrade --offline -y"
	dnfReboot     = "sudo dnf5 needs-restarting"
)

type fixture struct {
	runner  *test.MockCommandRunner
	locator test.MockLocator
	output  func() string
	orch    *Orchestrator
}

func newFixture(t *testing.T, installed test.MockLocator, opts Options) *fixture {
	t.Helper()
	cmdRunner := test.NewMockCommandRunner()
	console, buf := test.NewTestConsole()
	backends := []backend.Backend{backend.Flatpak("flatpak"), backend.DNF5("dnf5", "sudo", true)}
	return &fixture{
		runner:  cmdRunner,
		locator: installed,
		output:  buf.String,
		orch:    New(backends, cmdRunner, installed, console, test.NewMockLogger(slog.LevelDebug), opts),
	}
}

func bothInstalled() test.MockLocator {
	return test.MockLocator{"flatpak": true, "dnf5": true}
}

func TestUpdate_FlatpakMissingDNF5NeedsReboot(t *testing.T) {
	f := newFixture(t, test.MockLocator{"dnf5": true}, Options{})
	f.runner.SetExitCode(dnfCheck, 100)
	f.runner.SetExitCode(dnfReboot, 1)

	report := f.orch.Update(context.Background())

	require.Len(t, report.Results, 2)
	assert.Equal(t, model.StatusNotInstalled, report.Results[0].Status)
	assert.Equal(t, model.StatusRebootRequired, report.Results[1].Status)
	assert.Equal(t, model.RebootRequired, report.Results[1].Reboot)
	assert.Equal(t, ExitOK, report.ExitCode())
	assert.NoError(t, report.Err())
	assert.Equal(t, []string{dnfCheck, dnfApply, dnfReboot}, f.runner.Executed())

	console, buf := test.NewTestConsole()
	report.Print(console)
	assert.Contains(t, f.output(), "Flatpak is not installed. Skipping Flatpak updates.")
	assert.Contains(t, buf.String(), "Updates were successfully installed!")
	assert.Contains(t, buf.String(), "A system restart is required to complete the updates.")
}

func TestUpdate_FlatpakFailsDNF5UpToDate(t *testing.T) {
	f := newFixture(t, bothInstalled(), Options{})
	f.runner.SetExitCode(flatpakUpdate, 1)

	report := f.orch.Update(context.Background())

	require.Len(t, report.Results, 2)
	assert.Equal(t, model.StatusOperationFailed, report.Results[0].Status)
	assert.Equal(t, model.StatusNoUpdatesAvailable, report.Results[1].Status)
	assert.Equal(t, ExitPartialFailure, report.ExitCode())
	require.Error(t, report.Err())
	assert.Contains(t, report.Err().Error(), "Flatpak apply failed (exit code 1)")

	console, buf := test.NewTestConsole()
	report.Print(console)
	assert.Contains(t, buf.String(), "Warning: Flatpak updates failed, but DNF5 updates succeeded.")
}

func TestUpdate_BothFail(t *testing.T) {
	f := newFixture(t, bothInstalled(), Options{})
	f.runner.SetExitCode(flatpakUpdate, 1)
	f.runner.SetExitCode(dnfCheck, 1)

	report := f.orch.Update(context.Background())

	assert.Equal(t, ExitFailed, report.ExitCode())
	assert.Contains(t, report.Err().Error(), "2 errors occurred")

	console, buf := test.NewTestConsole()
	report.Print(console)
	assert.Contains(t, buf.String(), "Both update mechanisms failed.")
}

func TestUpdate_SingleInstalledBackendFails(t *testing.T) {
	f := newFixture(t, test.MockLocator{"dnf5": true}, Options{})
	f.runner.SetExitCode(dnfCheck, 100)
	f.runner.SetExitCode(dnfApply, 1)

	report := f.orch.Update(context.Background())

	assert.Equal(t, ExitFailed, report.ExitCode())

	console, buf := test.NewTestConsole()
	report.Print(console)
	assert.Contains(t, buf.String(), "DNF5 updates failed.")
}

func TestUpdate_NothingInstalled(t *testing.T) {
	f := newFixture(t, test.MockLocator{}, Options{})

	report := f.orch.Update(context.Background())

	assert.Equal(t, ExitOK, report.ExitCode())
	assert.Empty(t, f.runner.Executed())

	console, buf := test.NewTestConsole()
	report.Print(console)
	assert.Contains(t, buf.String(), "No supported update tools are installed.")
}

func TestUpdate_UpToDate(t *testing.T) {
	f := newFixture(t, test.MockLocator{"dnf5": true}, Options{})

	report := f.orch.Update(context.Background())

	console, buf := test.NewTestConsole()
	report.Print(console)
	assert.Contains(t, buf.String(), "System is up to date.")
	assert.NotContains(t, buf.String(), "restart")
}

func TestUpdate_ModeSelection(t *testing.T) {
	t.Run("default mode from options", func(t *testing.T) {
		f := newFixture(t, bothInstalled(), Options{DefaultMode: model.ModeOffline})
		f.runner.SetExitCode(dnfCheck, 100)

		report := f.orch.Update(context.Background())

		assert.Equal(t, model.ModeOffline, report.Results[1].Mode)
		test.AssertCommandExecuted(t, f.runner, dnfOffline)
		test.AssertCommandNotExecuted(t, f.runner, dnfReboot)
	})

	t.Run("interactive asks once", func(t *testing.T) {
		prompter := &test.MockPrompter{Mode: model.ModeImmediate}
		f := newFixture(t, bothInstalled(), Options{Interactive: true, DefaultMode: model.ModeOffline, Prompter: prompter})
		f.runner.SetExitCode(dnfCheck, 100)

		report := f.orch.Update(context.Background())

		assert.Equal(t, 1, prompter.Calls)
		assert.Equal(t, model.ModeImmediate, report.Results[1].Mode)
		test.AssertCommandExecuted(t, f.runner, dnfApply)
	})

	t.Run("no prompt when nothing to apply", func(t *testing.T) {
		prompter := &test.MockPrompter{Mode: model.ModeImmediate}
		f := newFixture(t, test.MockLocator{"dnf5": true}, Options{Interactive: true, Prompter: prompter})

		f.orch.Update(context.Background())

		assert.Equal(t, 0, prompter.Calls)
	})

	t.Run("prompt failure fails the backend", func(t *testing.T) {
		prompter := &test.MockPrompter{Err: errors.New("no update mode given: input closed")}
		f := newFixture(t, bothInstalled(), Options{Interactive: true, Prompter: prompter})
		f.runner.SetExitCode(dnfCheck, 100)

		report := f.orch.Update(context.Background())

		assert.Equal(t, model.StatusUpdatesApplied, report.Results[0].Status)
		assert.Equal(t, model.StatusOperationFailed, report.Results[1].Status)
		assert.Equal(t, ExitPartialFailure, report.ExitCode())
	})
}

func TestCheck(t *testing.T) {
	f := newFixture(t, bothInstalled(), Options{})
	f.runner.SetExitCode(dnfCheck, 100)

	report := f.orch.Check(context.Background())

	require.Len(t, report.Results, 2)
	assert.Equal(t, model.StatusNotChecked, report.Results[0].Status)
	assert.Equal(t, model.StatusUpdatesAvailable, report.Results[1].Status)
	assert.Equal(t, []string{dnfCheck}, f.runner.Executed())
	assert.Equal(t, ExitOK, report.ExitCode())

	console, buf := test.NewTestConsole()
	report.PrintCheck(console)
	assert.Contains(t, f.output(), "Flatpak cannot report pending updates without applying them.")
	assert.Contains(t, buf.String(), "Updates are available for: DNF5")
}

func TestCheck_Failure(t *testing.T) {
	f := newFixture(t, test.MockLocator{"dnf5": true}, Options{})
	f.runner.SetExitCode(dnfCheck, 7)

	report := f.orch.Check(context.Background())

	require.Len(t, report.Results, 2)
	assert.Equal(t, model.StatusOperationFailed, report.Results[1].Status)
	require.NotNil(t, report.Results[1].Err)
	assert.Equal(t, 7, report.Results[1].Err.Code)
	assert.Equal(t, ExitFailed, report.ExitCode())
	assert.Contains(t, f.output(), "DNF5 check failed (exit code 7)")
}

func TestDryRun(t *testing.T) {
	f := newFixture(t, test.MockLocator{"dnf5": true}, Options{})

	f.orch.DryRun()

	assert.Empty(t, f.runner.Executed())
	lines := strings.Split(strings.TrimSpace(f.output()), "\n")
	assert.Equal(t, []string{
		"Dry run enabled. The following commands would be run:",
		"=> Flatpak: skipped (flatpak: not installed)",
		"=> DNF5 (immediate)",
		"   - check: sudo dnf5 --refresh check-upgrade [0=no-updates-available, 100=updates-available]",
		"   - apply (immediate): sudo dnf5 upgrade -y [0=updates-applied]",
		"   - reboot check: sudo dnf5 needs-restarting [0=no-reboot-needed, 1=reboot-required]",
		"=> DNF5 (offline)",
		"   - check: sudo dnf5 --refresh check-upgrade [0=no-updates-available, 100=updates-available]",
		"   - apply (offline): sudo dnf5 upgrade --offline -y [0=updates-applied]",
	}, lines)
}
