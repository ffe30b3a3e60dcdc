package stream

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ANSI color codes - chosen to work on both light and dark backgrounds
const (
	colorReset  = "\x1b[0m"
	colorDim    = "\x1b[2m"
	colorItalic = "\x1b[3m"
	colorGray   = "\x1b[90m"
	colorYellow = "\x1b[33m"
)

// toolResultSnippetLen bounds how much of a tool result the human
// renderer prints.
const toolResultSnippetLen = 120

// HumanRenderer writes events as human-readable terminal output.
// Phase boundaries and diagnostics go to the error stream, streaming
// text goes to the output stream verbatim (no trailing newline; the
// caller owns the final newline).
type HumanRenderer struct {
	out          io.Writer
	errOut       io.Writer
	showThinking bool
	showTools    bool
	noColor      bool
}

// HumanOptions configures a HumanRenderer.
type HumanOptions struct {
	ShowThinking bool
	ShowTools    bool
	NoColor      bool
}

// NewHumanRenderer creates a renderer writing text to out and
// diagnostics to errOut. Color is suppressed when out is not a
// terminal.
func NewHumanRenderer(out, errOut io.Writer, opts HumanOptions) *HumanRenderer {
	if !opts.NoColor {
		opts.NoColor = !isTerminal(out)
	}
	return &HumanRenderer{
		out:          out,
		errOut:       errOut,
		showThinking: opts.ShowThinking,
		showTools:    opts.ShowTools,
		noColor:      opts.NoColor,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (r *HumanRenderer) color(c string) string {
	if r.noColor {
		return ""
	}
	return c
}

// Attach registers the renderer's handlers on a dispatcher.
func (r *HumanRenderer) Attach(d *Dispatcher) {
	d.On(EventPhaseStart, r.handlePhase)
	d.On(EventPhaseEnd, r.handlePhase)
	d.On(EventTextDelta, r.handleText)
	d.On(EventToolStart, r.handleTool)
	d.On(EventToolResult, r.handleTool)
	d.On(EventThinking, r.handleThinking)
	d.On(EventSessionInit, r.handleSessionInit)
}

func (r *HumanRenderer) handlePhase(ev Event) error {
	if ev.Type == EventPhaseStart {
		fmt.Fprintf(r.errOut, "\n[%s] Starting...\n", ev.Phase)
	} else {
		fmt.Fprintf(r.errOut, "[%s] Done.\n", ev.Phase)
	}
	return nil
}

func (r *HumanRenderer) handleText(ev Event) error {
	_, err := fmt.Fprint(r.out, ev.Text)
	return err
}

func (r *HumanRenderer) handleTool(ev Event) error {
	if !r.showTools {
		return nil
	}
	if ev.Type == EventToolStart {
		fmt.Fprintf(r.errOut, "\n%s  [Tool: %s]%s\n", r.color(colorGray), ev.ToolName, r.color(colorReset))
	} else {
		snippet := ev.ToolResult
		if len(snippet) > toolResultSnippetLen {
			snippet = snippet[:toolResultSnippetLen]
		}
		fmt.Fprintf(r.errOut, "%s  [Result: %s]%s\n", r.color(colorGray), snippet, r.color(colorReset))
	}
	return nil
}

func (r *HumanRenderer) handleThinking(ev Event) error {
	if !r.showThinking {
		return nil
	}
	fmt.Fprintf(r.errOut, "\n%s%s  [Thinking] %s%s\n",
		r.color(colorDim), r.color(colorItalic), ev.Thinking, r.color(colorReset))
	return nil
}

// handleSessionInit warns about tool servers the runtime could not
// connect to; the rest of the init metadata stays silent.
func (r *HumanRenderer) handleSessionInit(ev Event) error {
	servers, ok := ev.Extra["mcp_servers"].([]map[string]interface{})
	if !ok {
		return nil
	}
	for _, srv := range servers {
		status, _ := srv["status"].(string)
		name, _ := srv["name"].(string)
		if status != "connected" {
			fmt.Fprintf(r.errOut, "%sWarning: MCP server '%s' failed to connect%s\n",
				r.color(colorYellow), name, r.color(colorReset))
		}
	}
	return nil
}
