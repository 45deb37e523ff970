package prompt_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"fieldline/internal/prompt"
)

func TestTermAnswersConsecutivePrompts(t *testing.T) {
	in := strings.NewReader("y\nn\n")
	var out bytes.Buffer
	term := prompt.NewTerm(in, &out)
	ctx := context.Background()

	// two prompts in one command, as when an overage question is followed
	// by a shortfall question; the second answer must not be lost to
	// buffering from the first read
	first, err := term.Confirm(ctx, "Update the client's expected counts?")
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if !first {
		t.Fatalf("first answer was y, got decline")
	}
	second, err := term.Confirm(ctx, "2 Outside stations missing. Continue anyway?")
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if second {
		t.Fatalf("second answer was n, got accept")
	}
	if !strings.Contains(out.String(), "Continue anyway?") {
		t.Fatalf("second prompt never shown: %q", out.String())
	}
}

func TestTermAnswerWithoutTrailingNewline(t *testing.T) {
	term := prompt.NewTerm(strings.NewReader("yes"), &bytes.Buffer{})
	ok, err := term.Confirm(context.Background(), "Continue anyway?")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !ok {
		t.Fatalf("yes at EOF must count as accept")
	}
}

func TestTermCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	term := prompt.NewTerm(strings.NewReader("y\n"), &bytes.Buffer{})
	if _, err := term.Confirm(ctx, "Continue anyway?"); err == nil {
		t.Fatalf("cancelled context must error")
	}
}

func TestAutoAnswersEverything(t *testing.T) {
	ok, err := prompt.Auto(true).Confirm(context.Background(), "anything")
	if err != nil || !ok {
		t.Fatalf("Auto(true) = %v %v", ok, err)
	}
	ok, err = prompt.Auto(false).Confirm(context.Background(), "anything")
	if err != nil || ok {
		t.Fatalf("Auto(false) = %v %v", ok, err)
	}
}
