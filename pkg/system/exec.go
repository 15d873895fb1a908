package system

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"fedora-updater/pkg/console"
	"fedora-updater/pkg/log"
	"fedora-updater/pkg/runner"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// CommandRunner defines an interface for running commands.
// This allows for mocking in tests.
// Re-exported from pkg/runner so callers of this package need only one import.
type CommandRunner = runner.CommandRunner

// drainGrace bounds how long readers may keep draining after a timed out
// process was killed. Grandchildren can hold the pipes open indefinitely.
const drainGrace = 2 * time.Second

// ProcessRunner is the CommandRunner for the live system. Each run gets its
// own pair of pipes and one reader goroutine per pipe; the readers forward
// whole lines to the shared sink while the calling goroutine waits for the
// process.
type ProcessRunner struct {
	sink    console.LineSink
	logger  log.Logger
	timeout time.Duration
}

// NewProcessRunner creates a runner streaming into sink. A zero timeout
// disables the per-command deadline.
func NewProcessRunner(sink console.LineSink, logger log.Logger, timeout time.Duration) *ProcessRunner {
	return &ProcessRunner{
		sink:    sink,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes spec and streams its output. The returned outcome is only
// built after the process was reaped and both readers reached end-of-stream.
func (r *ProcessRunner) Run(ctx context.Context, spec runner.CommandSpec) (runner.ExitOutcome, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	command := spec.String()

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return runner.ExitOutcome{Code: -1}, &runner.SpawnError{Command: command, Err: err}
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeFiles(stdoutR, stdoutW)
		return runner.ExitOutcome{Code: -1}, &runner.SpawnError{Command: command, Err: err}
	}

	cmd := exec.CommandContext(ctx, spec.Executable, spec.Args...)
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	r.logger.Debug("Starting command", "executable", spec.Executable, "args", spec.Args, "privilege", spec.Privilege)
	if err := cmd.Start(); err != nil {
		closeFiles(stdoutR, stdoutW, stderrR, stderrW)
		return runner.ExitOutcome{Code: -1}, &runner.SpawnError{Command: command, Err: err}
	}

	// The child owns its copies of the write ends now. Ours must go, or the
	// readers would never see EOF.
	closeFiles(stdoutW, stderrW)

	streamErrs := make([]error, 2)
	var readers errgroup.Group
	readers.Go(func() error {
		streamErrs[0] = r.forward(stdoutR, console.Stdout, command)
		return streamErrs[0]
	})
	readers.Go(func() error {
		streamErrs[1] = r.forward(stderrR, console.Stderr, command)
		return streamErrs[1]
	})

	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		cutoff := time.AfterFunc(drainGrace, func() {
			closeFiles(stdoutR, stderrR)
		})
		defer cutoff.Stop()
	}

	// Output written just before exit may still sit in the pipes.
	_ = readers.Wait()
	closeFiles(stdoutR, stderrR)

	outcome := exitOutcome(cmd.ProcessState)
	outcome.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)

	var merr *multierror.Error
	for _, err := range streamErrs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	outcome.StreamErr = merr.ErrorOrNil()
	outcome.Complete = outcome.StreamErr == nil

	if cmd.ProcessState == nil {
		r.logger.Error("Command could not be reaped", "command", command, "error", waitErr)
	}
	if outcome.StreamErr != nil {
		r.logger.Error("Command output was not fully captured", "command", command, "error", outcome.StreamErr)
	}
	r.logger.Debug("Command finished", "command", command, "exitCode", outcome.Code, "signal", outcome.Signal, "timedOut", outcome.TimedOut)

	return outcome, nil
}

// forward splits pipe into lines and hands each one to the sink as soon as
// its terminator arrives.
func (r *ProcessRunner) forward(pipe io.Reader, stream console.Stream, command string) error {
	reader := bufio.NewReader(pipe)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			r.sink.WriteLine(stream, cleanLine(line))
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}

		// Keep the pipe drained so the child never blocks on a full buffer.
		_, _ = io.Copy(io.Discard, pipe)
		return &runner.StreamError{Command: command, Stream: stream.String(), Err: err}
	}
}

// Output runs spec and captures its stdout. Used for short version queries.
func (r *ProcessRunner) Output(ctx context.Context, spec runner.CommandSpec) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, spec.Executable, spec.Args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, fmt.Errorf("%s: %w", spec, err)
		}
		return nil, &runner.SpawnError{Command: spec.String(), Err: err}
	}
	return out, nil
}

// cleanLine strips the line terminator. The content is forwarded byte for
// byte, invalid UTF-8 included.
func cleanLine(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

func exitOutcome(state *os.ProcessState) runner.ExitOutcome {
	if state == nil {
		return runner.ExitOutcome{Code: -1}
	}

	outcome := runner.ExitOutcome{Code: state.ExitCode()}
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		outcome.Code = -1
		outcome.Signal = status.Signal().String()
	}
	return outcome
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
