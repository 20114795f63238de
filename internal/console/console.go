// Package console provides the operator-facing collaborators the controllers
// talk to: confirmation prompts, notices, navigation and screen lifetime.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Confirmer asks the operator a yes/no question. It must be awaited before a
// destructive call proceeds.
type Confirmer interface {
	Confirm(ctx context.Context, title, text string) (bool, error)
}

// Notifier shows success and error notices.
type Notifier interface {
	NotifySuccess(ctx context.Context, message string)
	NotifyError(ctx context.Context, message string)
}

// ==========================
// Prompt confirmer
// ==========================

// PromptConfirmer reads the answer from a line based input. A single reader
// goroutine owns the input; a prompt abandoned on cancellation leaves it
// waiting for the next line, which answers the next prompt.
type PromptConfirmer struct {
	in    *bufio.Reader
	out   io.Writer
	mu    sync.Mutex
	once  sync.Once
	lines chan answer
}

type answer struct {
	line string
	err  error
}

func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out, lines: make(chan answer)}
}

func (p *PromptConfirmer) readLines() {
	defer close(p.lines)
	for {
		line, err := p.in.ReadString('\n')
		if line != "" {
			p.lines <- answer{line: line}
		}
		if err != nil {
			if err != io.EOF {
				p.lines <- answer{err: err}
			}
			return
		}
	}
}

// Confirm accepts "y" or "yes". Anything else, including end of input, declines.
func (p *PromptConfirmer) Confirm(ctx context.Context, title, text string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := fmt.Fprintf(p.out, "%s %s [y/N]: ", title, text); err != nil {
		return false, err
	}
	p.once.Do(func() { go p.readLines() })

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a, ok := <-p.lines:
		if !ok {
			return false, nil
		}
		if a.err != nil {
			return false, a.err
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

// AutoConfirm answers every prompt with the same value (--yes).
type AutoConfirm bool

func (a AutoConfirm) Confirm(ctx context.Context, title, text string) (bool, error) {
	return bool(a), nil
}

// ==========================
// Writer notifier
// ==========================

// WriterNotifier prints notices, one per line.
type WriterNotifier struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

func NewWriterNotifier(out, errOut io.Writer) *WriterNotifier {
	return &WriterNotifier{out: out, err: errOut}
}

func (w *WriterNotifier) NotifySuccess(ctx context.Context, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "✔ %s\n", message)
}

func (w *WriterNotifier) NotifyError(ctx context.Context, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.err, "✖ %s\n", message)
}

// Discard drops notices and navigation intents.
type Discard struct{}

func (Discard) NotifySuccess(ctx context.Context, message string) {}

func (Discard) NotifyError(ctx context.Context, message string) {}

func (Discard) Navigate(ctx context.Context, path string, delay time.Duration) {}
