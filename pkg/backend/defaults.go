package backend

import (
	"fedora-updater/pkg/model"
	"fedora-updater/pkg/runner"
)

// Exit codes documented by dnf5.
const (
	dnfUpdatesAvailable = 100
	dnfRebootRequired   = 1
)

var (
	applyTable = ExitTable{
		{Code: 0, Status: model.StatusUpdatesApplied},
	}
	dnfCheckTable = ExitTable{
		{Code: 0, Status: model.StatusNoUpdatesAvailable},
		{Code: dnfUpdatesAvailable, Status: model.StatusUpdatesAvailable},
	}
	dnfRebootTable = ExitTable{
		{Code: 0, Status: model.StatusNoRebootNeeded},
		{Code: dnfRebootRequired, Status: model.StatusRebootRequired},
	}
)

// Flatpak updates user-level applications. It has no exit code for pending
// updates, so it goes straight to apply, and it cannot stage offline updates.
func Flatpak(binary string) Backend {
	return Backend{
		Name:   "Flatpak",
		Binary: binary,
		Apply: map[model.Mode]StepDef{
			model.ModeImmediate: {
				Spec:  runner.NewCommandSpec(binary, "update", "-y"),
				Table: applyTable,
			},
		},
	}
}

// DNF5 updates system packages. Every step is privileged and runs through
// the elevation tool.
func DNF5(binary, elevation string, refresh bool) Backend {
	checkArgs := []string{"check-upgrade"}
	if refresh {
		checkArgs = append([]string{"--refresh"}, checkArgs...)
	}

	return Backend{
		Name:   "DNF5",
		Binary: binary,
		Check: &StepDef{
			Spec:  runner.Elevated(elevation, binary, checkArgs...),
			Table: dnfCheckTable,
		},
		Apply: map[model.Mode]StepDef{
			model.ModeImmediate: {
				Spec:  runner.Elevated(elevation, binary, "upgrade", "-y"),
				Table: applyTable,
			},
			model.ModeOffline: {
				Spec:  runner.Elevated(elevation, binary, "upgrade", "--offline", "-y"),
				Table: applyTable,
			},
		},
		RebootCheck: &StepDef{
			Spec:  runner.Elevated(elevation, binary, "needs-restarting"),
			Table: dnfRebootTable,
		},
	}
}
