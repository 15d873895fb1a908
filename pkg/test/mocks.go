package test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fedora-updater/pkg/console"
	"fedora-updater/pkg/log"
	"fedora-updater/pkg/model"
	"fedora-updater/pkg/runner"
)

// MockCommandRunner is a shared mock implementation of runner.CommandRunner for testing.
// Commands are keyed by their rendered command line, e.g. "sudo dnf5 upgrade -y".
type MockCommandRunner struct {
	mu sync.Mutex

	Commands []string                      // Track executed commands
	Outcomes map[string]runner.ExitOutcome // Outcome by command line
	Errors   map[string]error              // Spawn error by command line
	Lines    map[string][]string           // Stdout lines forwarded before exit
	Outputs  map[string][]byte             // Captured output for Output()

	// Sink receives Lines when set.
	Sink console.LineSink
}

// NewMockCommandRunner creates a new MockCommandRunner with initialized maps.
func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{
		Commands: []string{},
		Outcomes: make(map[string]runner.ExitOutcome),
		Errors:   make(map[string]error),
		Lines:    make(map[string][]string),
		Outputs:  make(map[string][]byte),
	}
}

// Run records the command and returns its configured outcome. Unconfigured
// commands exit 0.
func (r *MockCommandRunner) Run(ctx context.Context, spec runner.CommandSpec) (runner.ExitOutcome, error) {
	key := spec.String()

	r.mu.Lock()
	r.Commands = append(r.Commands, key)
	err, hasErr := r.Errors[key]
	outcome, hasOutcome := r.Outcomes[key]
	lines := r.Lines[key]
	r.mu.Unlock()

	if hasErr {
		return runner.ExitOutcome{Code: -1}, err
	}
	if r.Sink != nil {
		for _, line := range lines {
			r.Sink.WriteLine(console.Stdout, line)
		}
	}
	if !hasOutcome {
		outcome = runner.ExitOutcome{Code: 0, Complete: true}
	}
	return outcome, nil
}

// Output records the command and returns its configured output.
func (r *MockCommandRunner) Output(ctx context.Context, spec runner.CommandSpec) ([]byte, error) {
	key := spec.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commands = append(r.Commands, key)

	if err, ok := r.Errors[key]; ok {
		return nil, err
	}
	if out, ok := r.Outputs[key]; ok {
		return out, nil
	}
	return nil, fmt.Errorf("%s: no output configured", key)
}

// SetExitCode configures the exit code for a command line.
func (r *MockCommandRunner) SetExitCode(command string, code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Outcomes[command] = runner.ExitOutcome{Code: code, Complete: true}
}

// SetOutcome configures a full outcome for a command line.
func (r *MockCommandRunner) SetOutcome(command string, outcome runner.ExitOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Outcomes[command] = outcome
}

// SetError configures a spawn error for a command line.
func (r *MockCommandRunner) SetError(command string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors[command] = err
}

// SetOutput configures what Output returns for a command line.
func (r *MockCommandRunner) SetOutput(command string, output string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Outputs[command] = []byte(output)
}

// Executed returns a copy of the recorded command lines.
func (r *MockCommandRunner) Executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Commands...)
}

// RecordingSink is a console.LineSink that keeps every line it receives.
type RecordingSink struct {
	mu    sync.Mutex
	lines map[console.Stream][]string
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{lines: make(map[console.Stream][]string)}
}

func (s *RecordingSink) WriteLine(stream console.Stream, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[stream] = append(s.lines[stream], line)
}

// Lines returns the lines received on stream, in arrival order.
func (s *RecordingSink) Lines(stream console.Stream) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines[stream]...)
}

// MockLocator answers installation checks from a fixed set.
type MockLocator map[string]bool

func (l MockLocator) IsInstalled(name string) bool {
	return l[name]
}

// MockPrompter answers the update mode prompt with a fixed mode or error.
type MockPrompter struct {
	Mode  model.Mode
	Err   error
	Calls int
}

func (p *MockPrompter) AskMode() (model.Mode, error) {
	p.Calls++
	return p.Mode, p.Err
}

// MockLogger is a shared mock implementation of Logger for testing.
// It captures logged messages for verification.
type MockLogger struct {
	mu       sync.Mutex
	Messages []string
	Level    slog.Level
}

// NewMockLogger creates a new MockLogger with the specified level.
func NewMockLogger(level slog.Level) *MockLogger {
	return &MockLogger{
		Messages: []string{},
		Level:    level,
	}
}

// Debug captures debug messages.
func (l *MockLogger) Debug(msg string, args ...any) {
	if l.Level <= slog.LevelDebug {
		l.captureMessage("DEBUG", msg, args...)
	}
}

// Info captures info messages.
func (l *MockLogger) Info(msg string, args ...any) {
	if l.Level <= slog.LevelInfo {
		l.captureMessage("INFO", msg, args...)
	}
}

// Warn captures warn messages.
func (l *MockLogger) Warn(msg string, args ...any) {
	if l.Level <= slog.LevelWarn {
		l.captureMessage("WARN", msg, args...)
	}
}

// Error captures error messages.
func (l *MockLogger) Error(msg string, args ...any) {
	if l.Level <= slog.LevelError {
		l.captureMessage("ERROR", msg, args...)
	}
}

func (l *MockLogger) captureMessage(level, msg string, args ...any) {
	buf := &bytes.Buffer{}
	buf.WriteString(level)
	buf.WriteString(": ")
	buf.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(buf, " %v=%v", args[i], args[i+1])
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, buf.String())
}

// HasMessage checks if any captured message contains the given substring.
func (l *MockLogger) HasMessage(substring string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, msg := range l.Messages {
		if bytes.Contains([]byte(msg), []byte(substring)) {
			return true
		}
	}
	return false
}

// SlogLogger creates a real slog logger for testing (alternative to mock).
func SlogLogger(level slog.Level) log.Logger {
	buf := &bytes.Buffer{}
	return log.NewSlogLogger(level, buf)
}
