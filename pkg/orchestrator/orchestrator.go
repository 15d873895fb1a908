// Package orchestrator runs the update backends one after another and folds
// their results into a single report.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fedora-updater/pkg/backend"
	"fedora-updater/pkg/log"
	"fedora-updater/pkg/model"
	"fedora-updater/pkg/runner"
	"fedora-updater/pkg/system"
)

// Printer is the console surface used for progress and the final summary.
type Printer interface {
	backend.Reporter
	Success(format string, args ...any)
	Println(format string, args ...any)
}

// ModePrompter asks the user for an update mode.
type ModePrompter interface {
	AskMode() (model.Mode, error)
}

type Options struct {
	// Interactive asks the Prompter instead of using DefaultMode.
	Interactive bool
	DefaultMode model.Mode
	Prompter    ModePrompter
}

type Orchestrator struct {
	backends   []backend.Backend
	runner     runner.CommandRunner
	locator    system.Locator
	out        Printer
	logger     log.Logger
	selectMode backend.ModeSelector
}

func New(backends []backend.Backend, cmdRunner runner.CommandRunner, locator system.Locator, out Printer, logger log.Logger, opts Options) *Orchestrator {
	o := &Orchestrator{
		backends: backends,
		runner:   cmdRunner,
		locator:  locator,
		out:      out,
		logger:   logger,
	}

	defaultMode := opts.DefaultMode
	if defaultMode == "" {
		defaultMode = model.ModeImmediate
	}
	selectMode := func() (model.Mode, error) { return defaultMode, nil }
	if opts.Interactive && opts.Prompter != nil {
		selectMode = opts.Prompter.AskMode
	}
	o.selectMode = once(selectMode, logger)

	return o
}

// once makes sure the user is asked at most one time per run, no matter how
// many backends support offline updates.
func once(selectMode backend.ModeSelector, logger log.Logger) backend.ModeSelector {
	var (
		o    sync.Once
		mode model.Mode
		err  error
	)
	return func() (model.Mode, error) {
		o.Do(func() {
			mode, err = selectMode()
			logger.Debug("Update mode selected", "mode", mode, "error", err)
		})
		return mode, err
	}
}

// Update runs every installed backend in order: Flatpak first, then DNF5.
func (o *Orchestrator) Update(ctx context.Context) Report {
	var report Report
	for _, b := range o.backends {
		if err := o.installed(b); err != nil {
			report.Results = append(report.Results, o.skip(b, err))
			continue
		}

		driver := backend.NewDriver(b, o.runner, o.out, o.logger)
		report.Results = append(report.Results, driver.Run(ctx, o.selectMode))
	}
	return report
}

// Check runs only the check step of each installed backend. Backends that
// cannot check are reported as not checked.
func (o *Orchestrator) Check(ctx context.Context) Report {
	var report Report
	for _, b := range o.backends {
		if err := o.installed(b); err != nil {
			report.Results = append(report.Results, o.skip(b, err))
			continue
		}

		result := model.Result{Backend: b.Name}
		if b.Check == nil {
			o.out.Status("%s cannot report pending updates without applying them.", b.Name)
			result.Status = model.StatusNotChecked
			report.Results = append(report.Results, result)
			continue
		}

		status, err := backend.NewDriver(b, o.runner, o.out, o.logger).Check(ctx)
		result.Status = status
		if err != nil {
			result.Err = asOperationError(b.Name, err)
			o.out.Error("%v", result.Err)
		}
		report.Results = append(report.Results, result)
	}
	return report
}

// DryRun prints the commands each installed backend would run in every mode
// it supports. Nothing is executed.
func (o *Orchestrator) DryRun() {
	o.out.Println("Dry run enabled. The following commands would be run:")
	for _, b := range o.backends {
		if err := o.installed(b); err != nil {
			o.out.Println("=> %s: skipped (%v)", b.Name, err)
			continue
		}
		for _, mode := range b.Modes() {
			o.out.Println("=> %s (%s)", b.Name, mode)
			for _, detail := range b.ExecutionDetails(mode) {
				o.out.Println("   - %s", detail)
			}
		}
	}
}

func (o *Orchestrator) installed(b backend.Backend) error {
	if !o.locator.IsInstalled(b.Binary) {
		return fmt.Errorf("%s: %w", b.Binary, backend.ErrNotInstalled)
	}
	return nil
}

func (o *Orchestrator) skip(b backend.Backend, err error) model.Result {
	o.out.Warn("%s is not installed. Skipping %s updates.", b.Name, b.Name)
	o.logger.Debug("Backend skipped", "backend", b.Name, "reason", err)
	return model.Result{Backend: b.Name, Status: model.StatusNotInstalled}
}

func asOperationError(name string, err error) *model.OperationError {
	var opErr *model.OperationError
	if errors.As(err, &opErr) {
		return opErr
	}
	return &model.OperationError{Backend: name, Step: string(backend.StepCheck), Code: -1, Cause: err}
}
