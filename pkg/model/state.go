package model

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects how system updates are applied.
type Mode string

const (
	ModeImmediate Mode = "immediate"
	ModeOffline   Mode = "offline"
)

// ParseMode accepts the config spelling of a mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeImmediate:
		return ModeImmediate, nil
	case ModeOffline:
		return ModeOffline, nil
	default:
		return "", fmt.Errorf("invalid update mode '%s', must be one of: immediate, offline", s)
	}
}

// ModeFromAnswer interprets the interactive prompt: "now" means immediate,
// anything else, including an empty line, means offline.
func ModeFromAnswer(answer string) Mode {
	if strings.EqualFold(strings.TrimSpace(answer), "now") {
		return ModeImmediate
	}
	return ModeOffline
}

// Status is the domain meaning of a backend step.
type Status int

const (
	StatusNotChecked Status = iota
	StatusNotInstalled
	StatusNoUpdatesAvailable
	StatusUpdatesAvailable
	StatusUpdatesApplied
	StatusRebootRequired
	StatusNoRebootNeeded
	StatusOperationFailed
)

var statusNames = map[Status]string{
	StatusNotChecked:         "not-checked",
	StatusNotInstalled:       "not-installed",
	StatusNoUpdatesAvailable: "no-updates-available",
	StatusUpdatesAvailable:   "updates-available",
	StatusUpdatesApplied:     "updates-applied",
	StatusRebootRequired:     "reboot-required",
	StatusNoRebootNeeded:     "no-reboot-needed",
	StatusOperationFailed:    "operation-failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// RebootStatus is what the post-update restart check found.
type RebootStatus int

const (
	// RebootNotChecked covers backends without a check, offline mode and failed applies.
	RebootNotChecked RebootStatus = iota
	RebootNotNeeded
	RebootRequired
	// RebootUnknown means the check itself failed.
	RebootUnknown
)

func (r RebootStatus) String() string {
	switch r {
	case RebootNotNeeded:
		return "not-needed"
	case RebootRequired:
		return "required"
	case RebootUnknown:
		return "unknown"
	default:
		return "not-checked"
	}
}

// ErrTimeout is the cause of an OperationError when a step hit its deadline.
var ErrTimeout = errors.New("timed out")

// OperationError describes a backend step that ran and failed, or could not run.
type OperationError struct {
	Backend string
	Step    string
	Command string
	// Code is the raw exit code; -1 when there was none.
	Code int
	// Signal is set when the process was terminated by a signal.
	Signal string
	Cause  error
}

func (e *OperationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s failed", e.Backend, e.Step))
	switch {
	case e.Signal != "":
		sb.WriteString(fmt.Sprintf(" (terminated by signal %s)", e.Signal))
	case e.Code >= 0:
		sb.WriteString(fmt.Sprintf(" (exit code %d)", e.Code))
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// Result is the final state of one backend after a run.
type Result struct {
	Backend string
	Status  Status
	// Mode is set once updates were applied.
	Mode   Mode
	Reboot RebootStatus
	Err    *OperationError
}

// Failed reports whether the backend ended in OperationFailed.
func (r Result) Failed() bool {
	return r.Status == StatusOperationFailed
}

// Ran reports whether the backend was installed and enabled.
func (r Result) Ran() bool {
	return r.Status != StatusNotInstalled && r.Status != StatusNotChecked
}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	if len(es) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, e := range es {
		sb.WriteString(fmt.Sprintf("  - %s\n", e.Error()))
	}
	return sb.String()
}
