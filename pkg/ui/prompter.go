// Package ui implements the interactive prompts: line input with
// suggestions, numbered select, multi-select, and $EDITOR round-trips.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/term"

	prerrors "gitpr.dev/gitpr/pkg/errors"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = prerrors.ErrCancelled

// Prompter collects user input. The app layer depends on this interface so
// tests can script answers.
type Prompter interface {
	// Input reads one line. def is used on empty input; suggestions are
	// displayed as hints.
	Input(label, def string, suggestions []string) (string, error)

	// Select picks exactly one option.
	Select(label string, options []string) (string, error)

	// MultiSelect picks zero or more options.
	MultiSelect(label string, options []string) ([]string, error)

	// Editor opens $EDITOR on initial and returns the edited text.
	Editor(label, initial string) (string, error)
}

// TerminalPrompter implements Prompter on an interactive terminal.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

var _ Prompter = (*TerminalPrompter)(nil)

// NewTerminalPrompter creates a prompter on stdin/stderr.
// Prompts go to stderr so stdout stays clean for the PR URL.
func NewTerminalPrompter() (*TerminalPrompter, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, prerrors.NewPromptError("", "stdin is not a terminal, interactive prompts are unavailable")
	}
	return &TerminalPrompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stderr,
	}, nil
}

// NewPrompterWithStreams creates a prompter on arbitrary streams (for testing).
func NewPrompterWithStreams(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

// Input reads one line of input.
func (p *TerminalPrompter) Input(label, def string, suggestions []string) (string, error) {
	if len(suggestions) > 0 {
		fmt.Fprintf(p.out, "Recent: %s\n", strings.Join(suggestions, ", "))
	}
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// Select prints a numbered list and reads a choice. Invalid input re-prompts.
func (p *TerminalPrompter) Select(label string, options []string) (string, error) {
	if len(options) == 0 {
		return "", prerrors.NewPromptError(label, "no options to select from")
	}

	fmt.Fprintf(p.out, "%s:\n", label)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}

	for {
		fmt.Fprintf(p.out, "Choice [1-%d]: ", len(options))
		line, err := p.readLine()
		if err != nil {
			return "", err
		}
		if line == "" {
			// Enter picks the first (best-ranked) option.
			return options[0], nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(options) {
			fmt.Fprintf(p.out, "Enter a number between 1 and %d.\n", len(options))
			continue
		}
		return options[n-1], nil
	}
}

// MultiSelect reads a comma-separated list of choices. Empty input selects
// nothing.
func (p *TerminalPrompter) MultiSelect(label string, options []string) ([]string, error) {
	if len(options) == 0 {
		return nil, nil
	}

	fmt.Fprintf(p.out, "%s:\n", label)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}

	for {
		fmt.Fprintf(p.out, "Choices (comma-separated, empty for none): ")
		line, err := p.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			return nil, nil
		}

		picks, ok := parseChoices(line, len(options))
		if !ok {
			fmt.Fprintf(p.out, "Enter numbers between 1 and %d, separated by commas.\n", len(options))
			continue
		}

		selected := make([]string, 0, len(picks))
		for _, n := range picks {
			selected = append(selected, options[n-1])
		}
		return selected, nil
	}
}

// Editor opens $EDITOR on a temp file seeded with initial.
func (p *TerminalPrompter) Editor(label, initial string) (string, error) {
	tmpFile, err := os.CreateTemp("", "git-pr-*.md")
	if err != nil {
		return "", prerrors.NewPromptError(label, "failed to create temp file: "+err.Error())
	}
	defer func() {
		_ = os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.WriteString(initial); err != nil {
		return "", prerrors.NewPromptError(label, "failed to write temp file: "+err.Error())
	}
	_ = tmpFile.Close()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "nano"
		if _, err := exec.LookPath("nano"); err != nil {
			editor = "vi"
		}
	}

	fmt.Fprintf(p.out, "Opening %s for %s...\n", editor, label)

	cmd := exec.Command(editor, tmpFile.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", prerrors.NewPromptError(label, "editor exited with error: "+err.Error())
	}

	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", prerrors.NewPromptError(label, "failed to read edited file: "+err.Error())
	}

	return strings.TrimSpace(string(content)), nil
}

// readLine reads a line, mapping EOF (Ctrl-D) to ErrCancelled.
func (p *TerminalPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if err == io.EOF && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		return "", ErrCancelled
	}
	return strings.TrimSpace(line), nil
}

// parseChoices parses "1,3,4" against max. Duplicates collapse.
func parseChoices(line string, max int) ([]int, bool) {
	var picks []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > max {
			return nil, false
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		picks = append(picks, n)
	}
	return picks, len(picks) > 0
}
