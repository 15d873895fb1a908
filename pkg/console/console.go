// Package console serializes everything the updater prints.
//
// Stream readers, status messages and log records all go through one Console so
// that two writers racing each other produce whole lines, never a mix of both.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Stream identifies which subprocess pipe a line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// LineSink receives complete lines from stream readers.
type LineSink interface {
	WriteLine(stream Stream, line string)
}

// Console is the shared output sink. It is safe for concurrent use.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer

	stdoutTag string
	stderrTag string

	status  *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
	heading *color.Color
}

// New creates a Console writing normal output to out and subprocess stderr,
// errors and logs to errOut.
func New(out, errOut io.Writer, noColor bool) *Console {
	c := &Console{
		out:     out,
		err:     errOut,
		status:  color.New(color.FgGreen),
		success: color.New(color.FgGreen, color.Bold),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
		heading: color.New(color.FgBlue, color.Bold),
	}
	stdoutColor := color.New(color.FgBlue)
	stderrColor := color.New(color.FgRed)

	if noColor {
		for _, col := range []*color.Color{c.status, c.success, c.warn, c.fail, c.heading, stdoutColor, stderrColor} {
			col.DisableColor()
		}
	}

	c.stdoutTag = stdoutColor.Sprint("[stdout]")
	c.stderrTag = stderrColor.Sprint("[stderr]")
	return c
}

// WriteLine forwards one subprocess line, tagged with its stream.
func (c *Console) WriteLine(stream Stream, line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stream == Stderr {
		fmt.Fprintf(c.err, "%s %s\n", c.stderrTag, line)
		return
	}
	fmt.Fprintf(c.out, "%s %s\n", c.stdoutTag, line)
}

// Println writes an uncolored line.
func (c *Console) Println(format string, args ...any) {
	c.printLine(c.out, nil, format, args...)
}

// Heading writes a bold section title.
func (c *Console) Heading(format string, args ...any) {
	c.printLine(c.out, c.heading, format, args...)
}

// Status reports progress on the normal channel.
func (c *Console) Status(format string, args ...any) {
	c.printLine(c.out, c.status, format, args...)
}

// Success reports a final positive outcome.
func (c *Console) Success(format string, args ...any) {
	c.printLine(c.out, c.success, format, args...)
}

// Warn reports a non-fatal problem.
func (c *Console) Warn(format string, args ...any) {
	c.printLine(c.out, c.warn, format, args...)
}

// Error reports a failure on the error channel.
func (c *Console) Error(format string, args ...any) {
	c.printLine(c.err, c.fail, format, args...)
}

func (c *Console) printLine(w io.Writer, col *color.Color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if col != nil {
		msg = col.Sprint(msg)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(w, msg)
}

// LogWriter returns a writer for log handlers that shares the console lock, so
// a log record never lands in the middle of a forwarded line.
func (c *Console) LogWriter() io.Writer {
	return &lockedWriter{c: c}
}

type lockedWriter struct {
	c *Console
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.err.Write(p)
}
