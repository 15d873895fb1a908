package orchestrator

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"fedora-updater/pkg/model"

	"golang.org/x/term"
)

// Prompter reads the update mode from the user.
type Prompter struct {
	in       *bufio.Reader
	out      Printer
	terminal bool
}

// NewPrompter reads answers from in. When in is a file that is not a
// terminal, the user is warned that the answer is read from a pipe.
func NewPrompter(in io.Reader, out Printer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out, terminal: true}
	if f, ok := in.(interface{ Fd() uintptr }); ok {
		p.terminal = term.IsTerminal(int(f.Fd()))
	}
	return p
}

// AskMode prints the menu and waits for one line. "now" selects an immediate
// update; anything else, including an empty line, selects offline.
func (p *Prompter) AskMode() (model.Mode, error) {
	if !p.terminal {
		p.out.Warn("Standard input is not a terminal. Reading the update mode from it anyway.")
	}

	p.out.Println("Choose update mode:")
	p.out.Println("1. Immediate update (type 'now')")
	p.out.Println("2. Offline update (press Enter)")

	answer, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read update mode: %w", err)
		}
		if answer == "" {
			return "", errors.New("no update mode given: input closed")
		}
	}

	return model.ModeFromAnswer(answer), nil
}
