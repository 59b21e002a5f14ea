package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/curatai/curatai/internal/agent"
)

var (
	callLabel   = color.New(color.FgMagenta, color.Bold)
	argsLabel   = color.New(color.FgMagenta)
	errorLabel  = color.New(color.FgHiRed)
	bannerLabel = color.New(color.FgCyan, color.Bold)
)

// maxPrintedResult bounds how much of a tool result is echoed in verbose mode.
const maxPrintedResult = 600

// toolPrinter renders tool calls and results as they happen, timestamped
// relative to the start of the turn.
type toolPrinter struct {
	out   io.Writer
	now   func() time.Time
	mu    sync.Mutex
	start time.Time
}

var _ agent.Observer = (*toolPrinter)(nil)

func newToolPrinter(out io.Writer) *toolPrinter {
	return &toolPrinter{out: out, now: time.Now}
}

// beginTurn resets the relative clock.
func (p *toolPrinter) beginTurn() {
	p.mu.Lock()
	p.start = p.now()
	p.mu.Unlock()
}

func (p *toolPrinter) timestamp() string {
	if p.start.IsZero() {
		p.start = p.now()
	}
	relative := p.now().Sub(p.start)
	return fmt.Sprintf("[%02d:%02d.%03d]",
		int(relative.Minutes()),
		int(relative.Seconds())%60,
		relative.Milliseconds()%1000,
	)
}

func (p *toolPrinter) ToolCall(call agent.ToolCall) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, "  "+p.timestamp()+" ")
	callLabel.Fprint(p.out, call.Name)
	args := strings.TrimSpace(string(call.Arguments))
	if args == "" {
		args = "{}"
	}
	fmt.Fprint(p.out, " ")
	argsLabel.Fprintln(p.out, args)
}

func (p *toolPrinter) ToolResult(call agent.ToolCall, content string, isError bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msg := indentMultiline(clip(content, maxPrintedResult), "                ")
	fmt.Fprint(p.out, "  "+p.timestamp()+" ")
	if isError {
		errorLabel.Fprint(p.out, "❗ ")
		errorLabel.Fprintln(p.out, msg)
		return
	}
	fmt.Fprint(p.out, "▶ ")
	fmt.Fprintln(p.out, msg)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + " ..."
}

func indentMultiline(text, indent string) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= 1 {
		return text
	}
	for i := 1; i < len(lines); i++ {
		lines[i] = indent + lines[i]
	}
	return strings.Join(lines, "\n")
}
