// Package output renders CLI messages. Color and in-place progress
// are enabled only when writing to a terminal, so piped output stays
// clean.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiDim    = "\033[2m"
)

// Writer renders user-facing CLI output. Write errors are ignored;
// there is nothing useful to do when the console is gone.
type Writer struct {
	out   io.Writer
	isTTY bool
}

// New creates a writer. TTY features activate when out is a terminal.
func New(out io.Writer) *Writer {
	w := &Writer{out: out}
	if f, ok := out.(*os.File); ok {
		w.isTTY = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	if os.Getenv("NO_COLOR") != "" {
		w.isTTY = false
	}
	return w
}

// Printf writes a plain formatted line.
func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format+"\n", args...)
}

// Println writes a plain line.
func (w *Writer) Println(msg string) {
	_, _ = fmt.Fprintln(w.out, msg)
}

// Success writes a confirmation line.
func (w *Writer) Success(format string, args ...any) {
	w.tagged(ansiGreen, "ok", format, args...)
}

// Warn writes a warning line.
func (w *Writer) Warn(format string, args ...any) {
	w.tagged(ansiYellow, "warn", format, args...)
}

// Error writes an error line.
func (w *Writer) Error(format string, args ...any) {
	w.tagged(ansiRed, "error", format, args...)
}

// Heading writes a bold section heading.
func (w *Writer) Heading(text string) {
	if w.isTTY {
		_, _ = fmt.Fprintf(w.out, "%s%s%s\n", ansiBold, text, ansiReset)
		return
	}
	_, _ = fmt.Fprintln(w.out, text)
}

// Detail writes a dimmed secondary line, indented under its parent.
func (w *Writer) Detail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if w.isTTY {
		_, _ = fmt.Fprintf(w.out, "  %s%s%s\n", ansiDim, msg, ansiReset)
		return
	}
	_, _ = fmt.Fprintf(w.out, "  %s\n", msg)
}

// Quote writes a multi-line block indented for readability.
func (w *Writer) Quote(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
}

// Progress reports incremental completion. On a terminal it rewrites
// one line in place; otherwise it emits a line per call.
func (w *Writer) Progress(current, total int, msg string) {
	if total <= 0 {
		return
	}

	if !w.isTTY {
		_, _ = fmt.Fprintf(w.out, "%d/%d %s\n", current, total, msg)
		return
	}

	pct := float64(current) / float64(total) * 100
	_, _ = fmt.Fprintf(w.out, "\r%3.0f%% (%d/%d) %s", pct, current, total, msg)
	if current >= total {
		_, _ = fmt.Fprintln(w.out)
	}
}

func (w *Writer) tagged(color, tag, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if w.isTTY {
		_, _ = fmt.Fprintf(w.out, "%s%s:%s %s\n", color, tag, ansiReset, msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "%s: %s\n", tag, msg)
}
