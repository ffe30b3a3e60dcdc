package stream

import (
	"encoding/json"
	"fmt"
	"io"
)

// jsonEvent is the JSON-lines wire form. Field names are the
// compatibility contract for external consumers; kind-specific keys
// are omitted when empty.
type jsonEvent struct {
	Type      string                 `json:"type"`
	Agent     string                 `json:"agent"`
	Timestamp float64                `json:"timestamp"`
	Text      string                 `json:"text,omitempty"`
	Tool      string                 `json:"tool,omitempty"`
	Input     map[string]interface{} `json:"input,omitempty"`
	Result    string                 `json:"result,omitempty"`
	Thinking  string                 `json:"thinking,omitempty"`
	Phase     string                 `json:"phase,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// JSONRenderer writes every event as one JSON object per line,
// flushing after each line so consumers piping the stream see
// line-buffered delivery.
type JSONRenderer struct {
	out io.Writer
}

// NewJSONRenderer creates a renderer writing JSON lines to out.
func NewJSONRenderer(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Attach registers the renderer for all events on a dispatcher.
func (r *JSONRenderer) Attach(d *Dispatcher) {
	d.OnAll(r.handle)
}

type flusher interface {
	Flush() error
}

type syncer interface {
	Sync() error
}

func (r *JSONRenderer) handle(ev Event) error {
	line := jsonEvent{
		Type:      string(ev.Type),
		Agent:     ev.Agent,
		Timestamp: float64(ev.Timestamp.UnixNano()) / 1e9,
	}

	switch ev.Type {
	case EventTextDelta:
		line.Text = ev.Text
	case EventToolStart:
		line.Tool = ev.ToolName
		line.Input = ev.ToolInput
	case EventToolResult:
		// Result events carry no tool name; correlation happens through
		// the preceding tool_start.
		line.Result = ev.ToolResult
	case EventThinking:
		line.Thinking = ev.Thinking
	case EventPhaseStart, EventPhaseEnd:
		line.Phase = ev.Phase
	default:
		line.Data = ev.Extra
	}

	b, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := r.out.Write(append(b, '\n')); err != nil {
		return err
	}

	switch w := r.out.(type) {
	case flusher:
		return w.Flush()
	case syncer:
		// os.Stdout is unbuffered but piped consumers still benefit
		// from an explicit sync on platforms that buffer it.
		_ = w.Sync()
	}
	return nil
}
