// Package runner defines the contract between backend drivers and the process runner.
// This package exists to break import cycles between testing and system packages.
package runner

import (
	"context"
	"fmt"
	"strings"
)

// Privilege tells whether a command needs elevated rights. The runner never
// elevates on its own: an elevated spec already carries the elevation tool
// (for example sudo) as its executable.
type Privilege int

const (
	PrivilegeNone Privilege = iota
	PrivilegeElevated
)

func (p Privilege) String() string {
	if p == PrivilegeElevated {
		return "elevated"
	}
	return "none"
}

// CommandSpec describes one subprocess invocation.
type CommandSpec struct {
	Executable string
	Args       []string
	Privilege  Privilege
}

// NewCommandSpec builds an unprivileged spec.
func NewCommandSpec(executable string, args ...string) CommandSpec {
	return CommandSpec{Executable: executable, Args: append([]string(nil), args...)}
}

// Elevated builds a spec that runs executable through the elevation tool.
// An empty tool runs the command directly but still marks it as privileged.
func Elevated(tool, executable string, args ...string) CommandSpec {
	if tool == "" {
		return CommandSpec{Executable: executable, Args: append([]string(nil), args...), Privilege: PrivilegeElevated}
	}
	return CommandSpec{
		Executable: tool,
		Args:       append([]string{executable}, args...),
		Privilege:  PrivilegeElevated,
	}
}

// String renders the command line as a user would type it.
func (s CommandSpec) String() string {
	if len(s.Args) == 0 {
		return s.Executable
	}
	return s.Executable + " " + strings.Join(s.Args, " ")
}

// ExitOutcome is the terminal status of one subprocess run. It is only
// produced once the process was reaped and both output streams hit EOF.
type ExitOutcome struct {
	// Code is the exit code, or -1 when the process was terminated by a signal.
	Code int
	// Signal names the terminating signal, empty for a normal exit.
	Signal string
	// Complete is true when every byte of both streams was forwarded.
	Complete bool
	// TimedOut is set when the run's deadline killed the process.
	TimedOut bool
	// StreamErr holds the reader failures when Complete is false.
	StreamErr error
}

// Signaled reports whether the process was terminated by a signal.
func (o ExitOutcome) Signaled() bool {
	return o.Signal != ""
}

func (o ExitOutcome) String() string {
	if o.Signaled() {
		return fmt.Sprintf("terminated by signal %s", o.Signal)
	}
	return fmt.Sprintf("exit code %d", o.Code)
}

// CommandRunner runs a command, streaming its output to the console.
// A nonzero exit code is not an error; only a failure to start is.
type CommandRunner interface {
	Run(ctx context.Context, spec CommandSpec) (ExitOutcome, error)
	// Output runs a short query command and returns its captured stdout.
	Output(ctx context.Context, spec CommandSpec) ([]byte, error)
}

// SpawnError is returned when the subprocess could not be created.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// StreamError is reported when a stream reader failed before end-of-stream.
type StreamError struct {
	Command string
	Stream  string
	Err     error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("reading %s of %q: %v", e.Stream, e.Command, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
