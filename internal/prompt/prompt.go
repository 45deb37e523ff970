// Package prompt abstracts the yes/no confirmations the wizard asks the
// operator, so the decision flows stay testable without terminal I/O.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the operator for an explicit yes/no decision.
type Prompter interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Term reads answers from a terminal, typically stdin. It holds one
// buffered reader for its lifetime so consecutive prompts in the same
// command never lose input buffered past the first answer.
type Term struct {
	out io.Writer
	in  *bufio.Reader
}

// NewTerm wraps the given streams for interactive confirmations.
func NewTerm(in io.Reader, out io.Writer) *Term {
	return &Term{out: out, in: bufio.NewReader(in)}
}

func (t *Term) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(t.out, "%s [y/N]: ", message)
	line, err := t.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// Auto answers every confirmation the same way; used for --yes runs.
type Auto bool

func (a Auto) Confirm(context.Context, string) (bool, error) {
	return bool(a), nil
}
