package backend

import (
	"context"
	"errors"
	"fmt"

	"fedora-updater/pkg/log"
	"fedora-updater/pkg/model"
	"fedora-updater/pkg/runner"
)

// State is the position of a Driver in its run.
type State int

const (
	StateNotChecked State = iota
	StateChecking
	StateNoUpdatesAvailable
	StateUpdatesAvailable
	StateApplying
	StateUpdatesApplied
	StateFailed
	StateCheckingReboot
	StateRebootRequired
	StateNoRebootNeeded
	StateRebootUnknown
)

var stateNames = []string{
	"not-checked", "checking", "no-updates-available", "updates-available", "applying",
	"updates-applied", "failed", "checking-reboot", "reboot-required", "no-reboot-needed", "reboot-unknown",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transitions lists the legal next states. NotChecked may jump to Applying
// for backends without a check step.
var transitions = map[State][]State{
	StateNotChecked:       {StateChecking, StateApplying, StateFailed},
	StateChecking:         {StateNoUpdatesAvailable, StateUpdatesAvailable, StateFailed},
	StateUpdatesAvailable: {StateApplying, StateFailed},
	StateApplying:         {StateUpdatesApplied, StateFailed},
	StateUpdatesApplied:   {StateCheckingReboot},
	StateCheckingReboot:   {StateRebootRequired, StateNoRebootNeeded, StateRebootUnknown},
}

// Reporter is the console surface a Driver prints progress to.
type Reporter interface {
	Status(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ModeSelector picks the update mode. It is only called for backends that
// support more than one mode.
type ModeSelector func() (model.Mode, error)

// Driver runs one Backend through its steps.
type Driver struct {
	backend  Backend
	runner   runner.CommandRunner
	reporter Reporter
	logger   log.Logger
	state    State
}

func NewDriver(b Backend, cmdRunner runner.CommandRunner, reporter Reporter, logger log.Logger) *Driver {
	return &Driver{
		backend:  b,
		runner:   cmdRunner,
		reporter: reporter,
		logger:   logger,
	}
}

func (d *Driver) Backend() Backend {
	return d.backend
}

func (d *Driver) State() State {
	return d.state
}

func (d *Driver) transition(to State) error {
	for _, allowed := range transitions[d.state] {
		if allowed == to {
			d.logger.Debug("Backend state change", "backend", d.backend.Name, "from", d.state, "to", to)
			d.state = to
			return nil
		}
	}
	return fmt.Errorf("%s: illegal state change from %s to %s", d.backend.Name, d.state, to)
}

// Check asks the backend whether updates are pending.
func (d *Driver) Check(ctx context.Context) (model.Status, error) {
	if d.backend.Check == nil {
		return model.StatusOperationFailed, fmt.Errorf("%s has no check step", d.backend.Name)
	}
	if err := d.transition(StateChecking); err != nil {
		return model.StatusOperationFailed, err
	}

	d.reporter.Status("Checking for %s updates...", d.backend.Name)
	status, opErr := d.runStep(ctx, StepCheck, *d.backend.Check)
	if opErr == nil && status != model.StatusNoUpdatesAvailable && status != model.StatusUpdatesAvailable {
		opErr = d.unexpected(StepCheck, *d.backend.Check, status)
	}
	if opErr != nil {
		_ = d.transition(StateFailed)
		return model.StatusOperationFailed, opErr
	}

	if status == model.StatusNoUpdatesAvailable {
		_ = d.transition(StateNoUpdatesAvailable)
		d.reporter.Status("No %s updates available.", d.backend.Name)
		return status, nil
	}

	_ = d.transition(StateUpdatesAvailable)
	d.reporter.Status("%s updates are available.", d.backend.Name)
	return status, nil
}

// Apply installs pending updates in mode and returns the mode that ran.
func (d *Driver) Apply(ctx context.Context, mode model.Mode) (model.Mode, error) {
	if err := d.transition(StateApplying); err != nil {
		return mode, err
	}

	def, mode := d.backend.ApplyStep(mode)
	switch {
	case !d.backend.SupportsOffline():
		d.reporter.Status("Updating %s packages...", d.backend.Name)
	case mode == model.ModeOffline:
		d.reporter.Status("Preparing offline %s update...", d.backend.Name)
	default:
		d.reporter.Status("Performing immediate %s update...", d.backend.Name)
	}

	status, opErr := d.runStep(ctx, StepApply, def)
	if opErr == nil && status != model.StatusUpdatesApplied {
		opErr = d.unexpected(StepApply, def, status)
	}
	if opErr != nil {
		_ = d.transition(StateFailed)
		return mode, opErr
	}

	_ = d.transition(StateUpdatesApplied)
	if mode == model.ModeOffline {
		d.reporter.Warn("Offline update prepared. Changes will be applied on next reboot.")
	}
	return mode, nil
}

// NeedsReboot runs the restart check after an immediate apply.
func (d *Driver) NeedsReboot(ctx context.Context) (bool, error) {
	if d.backend.RebootCheck == nil {
		return false, fmt.Errorf("%s has no reboot check", d.backend.Name)
	}
	if err := d.transition(StateCheckingReboot); err != nil {
		return false, err
	}

	status, opErr := d.runStep(ctx, StepRebootCheck, *d.backend.RebootCheck)
	switch {
	case opErr != nil:
		_ = d.transition(StateRebootUnknown)
		return false, opErr
	case status == model.StatusRebootRequired:
		_ = d.transition(StateRebootRequired)
		return true, nil
	case status == model.StatusNoRebootNeeded:
		_ = d.transition(StateNoRebootNeeded)
		return false, nil
	default:
		_ = d.transition(StateRebootUnknown)
		return false, d.unexpected(StepRebootCheck, *d.backend.RebootCheck, status)
	}
}

// Run takes the backend from NotChecked to a terminal state.
func (d *Driver) Run(ctx context.Context, selectMode ModeSelector) model.Result {
	result := model.Result{Backend: d.backend.Name}

	if d.backend.Check != nil {
		status, err := d.Check(ctx)
		if err != nil {
			return d.failed(result, StepCheck, err)
		}
		if status == model.StatusNoUpdatesAvailable {
			result.Status = status
			return result
		}
	}

	mode := model.ModeImmediate
	if d.backend.SupportsOffline() && selectMode != nil {
		selected, err := selectMode()
		if err != nil {
			_ = d.transition(StateFailed)
			return d.failed(result, StepModeSelection, err)
		}
		mode = selected
	}

	applied, err := d.Apply(ctx, mode)
	if err != nil {
		return d.failed(result, StepApply, err)
	}
	result.Status = model.StatusUpdatesApplied
	result.Mode = applied

	if applied != model.ModeImmediate || d.backend.RebootCheck == nil {
		return result
	}

	required, err := d.NeedsReboot(ctx)
	switch {
	case err != nil:
		result.Reboot = model.RebootUnknown
		d.reporter.Warn("Warning: Could not determine if restart is needed.")
		d.reporter.Error("Error checking restart status: %v", err)
	case required:
		result.Status = model.StatusRebootRequired
		result.Reboot = model.RebootRequired
	default:
		result.Reboot = model.RebootNotNeeded
	}
	return result
}

func (d *Driver) failed(result model.Result, step Step, err error) model.Result {
	var opErr *model.OperationError
	if !errors.As(err, &opErr) {
		opErr = &model.OperationError{Backend: d.backend.Name, Step: string(step), Code: -1, Cause: err}
	}
	d.reporter.Error("%v", opErr)
	d.logger.Info("Backend step failed", "backend", d.backend.Name, "step", step, "error", opErr)

	result.Status = model.StatusOperationFailed
	result.Err = opErr
	return result
}

// runStep runs def and reads its exit code through the step's table.
func (d *Driver) runStep(ctx context.Context, step Step, def StepDef) (model.Status, *model.OperationError) {
	opErr := &model.OperationError{
		Backend: d.backend.Name,
		Step:    string(step),
		Command: def.Spec.String(),
		Code:    -1,
	}

	outcome, err := d.runner.Run(ctx, def.Spec)
	if err != nil {
		opErr.Cause = err
		return model.StatusOperationFailed, opErr
	}
	if outcome.StreamErr != nil {
		d.reporter.Error("%s %s: output of %q was not fully captured: %v", d.backend.Name, step, def.Spec, outcome.StreamErr)
	}

	opErr.Code = outcome.Code
	opErr.Signal = outcome.Signal
	switch {
	case outcome.TimedOut:
		opErr.Cause = model.ErrTimeout
		return model.StatusOperationFailed, opErr
	case outcome.Signaled():
		return model.StatusOperationFailed, opErr
	}

	status, ok := def.Table.Lookup(outcome.Code)
	if !ok || status == model.StatusOperationFailed {
		return model.StatusOperationFailed, opErr
	}

	d.logger.Debug("Backend step finished", "backend", d.backend.Name, "step", step, "exitCode", outcome.Code, "status", status)
	return status, nil
}

func (d *Driver) unexpected(step Step, def StepDef, status model.Status) *model.OperationError {
	return &model.OperationError{
		Backend: d.backend.Name,
		Step:    string(step),
		Command: def.Spec.String(),
		Code:    -1,
		Cause:   fmt.Errorf("exit table yields %s, which is not a valid %s result", status, step),
	}
}
