// Package backend turns subprocess exit codes into update results.
//
// A Backend is pure data: which commands run for each step and how their exit
// codes read. A Driver walks one Backend through check, apply and reboot-check
// using a runner.CommandRunner.
package backend

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"fedora-updater/pkg/model"
	"fedora-updater/pkg/runner"
)

// ErrNotInstalled is returned when a backend's binary is not on PATH.
var ErrNotInstalled = errors.New("not installed")

// Step names a phase of a backend run.
type Step string

const (
	StepCheck         Step = "check"
	StepApply         Step = "apply"
	StepRebootCheck   Step = "reboot check"
	StepModeSelection Step = "mode selection"
)

// ExitRule maps one exit code to a status.
type ExitRule struct {
	Code   int
	Status model.Status
}

// ExitTable is an ordered list of exit-code rules. The first matching rule
// wins; codes without a rule are failures.
type ExitTable []ExitRule

// Lookup returns the status for code, and false when no rule matches.
func (t ExitTable) Lookup(code int) (model.Status, bool) {
	for _, rule := range t {
		if rule.Code == code {
			return rule.Status, true
		}
	}
	return model.StatusOperationFailed, false
}

func (t ExitTable) String() string {
	parts := make([]string, 0, len(t))
	for _, rule := range t {
		parts = append(parts, fmt.Sprintf("%d=%s", rule.Code, rule.Status))
	}
	return strings.Join(parts, ", ")
}

// StepDef is the command for a step and the table used to read its exit code.
type StepDef struct {
	Spec  runner.CommandSpec
	Table ExitTable
}

// Backend describes one package-update tool.
type Backend struct {
	// Name is the display name, e.g. "DNF5".
	Name string
	// Binary is looked up on PATH to decide whether the backend is installed.
	Binary string
	// Check is nil when the tool cannot report pending updates by exit code.
	Check *StepDef
	// Apply holds one step per supported mode. ModeImmediate is required.
	Apply map[model.Mode]StepDef
	// RebootCheck runs after an immediate apply; nil to skip.
	RebootCheck *StepDef
}

// SupportsOffline reports whether updates can be staged for the next boot.
func (b Backend) SupportsOffline() bool {
	_, ok := b.Apply[model.ModeOffline]
	return ok
}

// ApplyStep returns the apply step for mode, falling back to immediate when
// the backend has no such mode. The returned mode is the one that will run.
func (b Backend) ApplyStep(mode model.Mode) (StepDef, model.Mode) {
	if def, ok := b.Apply[mode]; ok {
		return def, mode
	}
	return b.Apply[model.ModeImmediate], model.ModeImmediate
}

// ExecutionDetails lists the commands a run in mode would execute.
func (b Backend) ExecutionDetails(mode model.Mode) []string {
	var details []string
	if b.Check != nil {
		details = append(details, fmt.Sprintf("%s: %s [%s]", StepCheck, b.Check.Spec, b.Check.Table))
	}

	apply, applied := b.ApplyStep(mode)
	details = append(details, fmt.Sprintf("%s (%s): %s [%s]", StepApply, applied, apply.Spec, apply.Table))

	if applied == model.ModeImmediate && b.RebootCheck != nil {
		details = append(details, fmt.Sprintf("%s: %s [%s]", StepRebootCheck, b.RebootCheck.Spec, b.RebootCheck.Table))
	}
	return details
}

// Modes returns the supported modes in a stable order.
func (b Backend) Modes() []model.Mode {
	modes := make([]model.Mode, 0, len(b.Apply))
	for mode := range b.Apply {
		modes = append(modes, mode)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}
