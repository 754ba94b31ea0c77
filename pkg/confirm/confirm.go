// Package confirm is the gate between planning and copying.
//
// The copy engine never reads the console itself; it asks a Gate and waits.
// That keeps the input channel swappable — a terminal prompt in the CLI, a
// canned answer in tests or in --yes mode.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Gate answers yes/no questions before irreversible work starts.
type Gate interface {
	Confirm(prompt string) (bool, error)
}

// ConsoleGate asks on Out and reads the answer from In. Only "y" and "yes"
// (case-insensitive) count as approval.
type ConsoleGate struct {
	In  io.Reader
	Out io.Writer
}

func (g *ConsoleGate) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(g.Out, "%s [y/N]: ", prompt)

	reader := bufio.NewReader(g.In)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// AlwaysYes approves everything; used for --yes runs.
type AlwaysYes struct{}

func (AlwaysYes) Confirm(string) (bool, error) {
	return true, nil
}
