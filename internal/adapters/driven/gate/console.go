package gate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure Console implements the interface.
var _ driven.DecisionGate = (*Console)(nil)

// EditTerminator ends a multi-line edit when entered on its own line.
const EditTerminator = "DONE"

// ErrInputClosed is returned when the console input ends mid-decision.
var ErrInputClosed = errors.New("decision input closed")

var (
	headerColor   = color.New(color.FgCyan, color.Bold)
	critiqueColor = color.New(color.FgYellow)
	promptColor   = color.New(color.FgGreen, color.Bold)
	errorColor    = color.New(color.FgRed)
	mutedColor    = color.New(color.Faint)
)

// Console asks for decisions on a line-oriented terminal.
// Prompts from concurrently revised chapters are serialised.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	lines <-chan string
}

// NewConsole creates a console gate reading from in and writing to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return &Console{out: out, lines: lines}
}

// Decide shows the version and its critique and reads accept, edit or reject.
func (c *Console) Decide(ctx context.Context, req driven.DecisionRequest) (domain.Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.show(req)
	for {
		promptColor.Fprint(c.out, "Enter 'accept', 'edit', or 'reject': ")
		line, err := c.readLine(ctx)
		if err != nil {
			return domain.Decision{}, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "accept":
			return domain.Accept(), nil
		case "r", "reject":
			return domain.Reject(), nil
		case "e", "edit":
			text, err := c.readEdit(ctx)
			if err != nil {
				return domain.Decision{}, err
			}
			if strings.TrimSpace(text) == "" {
				errorColor.Fprintln(c.out, "Edit was empty.")
				continue
			}
			return domain.Edit(text), nil
		default:
			errorColor.Fprintln(c.out, "Invalid input. Please enter 'accept', 'edit', or 'reject'.")
		}
	}
}

func (c *Console) show(req driven.DecisionRequest) {
	v := req.Version
	fmt.Fprintln(c.out)
	headerColor.Fprintf(c.out, "--- %s: cycle %d/%d, version %d (%s) ---\n",
		req.ChapterTitle, req.Iteration, req.MaxIterations, v.Sequence, v.Stage)
	fmt.Fprintln(c.out, v.Content)
	if req.Critique != "" {
		fmt.Fprintln(c.out)
		critiqueColor.Fprintln(c.out, "Critique:")
		critiqueColor.Fprintln(c.out, req.Critique)
	}
	mutedColor.Fprintln(c.out, strings.Repeat("-", 40))
}

// readEdit collects lines until the terminator.
func (c *Console) readEdit(ctx context.Context) (string, error) {
	fmt.Fprintf(c.out, "\nPlease provide your edits. Enter '%s' on a new line when finished.\n", EditTerminator)
	var lines []string
	for {
		line, err := c.readLine(ctx)
		if err != nil {
			return "", err
		}
		if strings.EqualFold(strings.TrimSpace(line), EditTerminator) {
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, line)
	}
}

func (c *Console) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", ErrInputClosed
		}
		return line, nil
	}
}
