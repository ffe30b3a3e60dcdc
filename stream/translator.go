package stream

import (
	"github.com/bazelment/codedozer/protocol"
)

// Translator converts raw protocol messages into events and emits
// them through a dispatcher. It owns the per-run text and thinking
// cursors that make emission correct whether the runtime reports
// cumulative snapshots or incremental deltas, and idempotent against
// repeated identical messages.
//
// A Translator is scoped to a single agent run and is not safe for
// concurrent use; messages for one run arrive in order on one
// goroutine.
type Translator struct {
	dispatcher *Dispatcher
	agent      string
	sessionID  string

	prevTextLen     int
	prevThinkingLen int

	turnText  string
	finalText string
	completed bool
}

// NewTranslator creates a translator for one agent run.
func NewTranslator(d *Dispatcher, agent string) *Translator {
	return &Translator{dispatcher: d, agent: agent}
}

// SessionID returns the session id reported by the runtime, or empty
// if no init message has been seen yet.
func (t *Translator) SessionID() string { return t.sessionID }

// FinalText returns the authoritative final text: the success result's
// text when one was received, otherwise the text accumulated for the
// current turn.
func (t *Translator) FinalText() string {
	if t.completed {
		return t.finalText
	}
	return t.turnText
}

// Completed reports whether a success result message was received.
func (t *Translator) Completed() bool { return t.completed }

// Process maps one raw message to zero or more emitted events.
// Messages of unknown shape are ignored: the runtime grows new
// message variants and the translator must keep working when it does.
func (t *Translator) Process(msg protocol.Message) error {
	switch m := msg.(type) {
	case protocol.SystemMessage:
		return t.processSystem(m)
	case protocol.AssistantMessage:
		return t.processAssistant(m)
	case protocol.UserMessage:
		return t.processUser(m)
	case protocol.ResultMessage:
		return t.processResult(m)
	case protocol.StreamEvent:
		return t.processStreamEvent(m)
	default:
		return nil
	}
}

func (t *Translator) processSystem(m protocol.SystemMessage) error {
	if m.Subtype != "init" {
		return nil
	}
	t.sessionID = m.SessionID

	extra := map[string]interface{}{
		"model": m.Model,
		"cwd":   m.CWD,
		"tools": m.Tools,
	}
	if len(m.MCPServers) > 0 {
		servers := make([]map[string]interface{}, 0, len(m.MCPServers))
		for _, srv := range m.MCPServers {
			servers = append(servers, map[string]interface{}{
				"name":   srv.Name,
				"status": srv.Status,
			})
		}
		extra["mcp_servers"] = servers
	}
	return t.dispatcher.Emit(NewSessionInit(t.agent, t.sessionID, extra))
}

func (t *Translator) processAssistant(m protocol.AssistantMessage) error {
	blocks, ok := m.Message.Content.AsBlocks()
	if !ok {
		return nil
	}

	// Concatenate all text-bearing fragments into the candidate full
	// text, then emit only the suffix beyond the cursor. A shorter
	// full text means the accumulator reset for a new turn.
	var full, fullThinking string
	for _, block := range blocks {
		switch b := block.(type) {
		case protocol.TextBlock:
			full += b.Text
		case protocol.ThinkingBlock:
			fullThinking += b.Thinking
		}
	}

	if len(full) < t.prevTextLen {
		t.prevTextLen = 0
		t.turnText = ""
	}
	if len(full) > t.prevTextLen {
		delta := full[t.prevTextLen:]
		t.prevTextLen = len(full)
		t.turnText += delta
		if err := t.dispatcher.Emit(NewTextDelta(t.agent, t.sessionID, delta)); err != nil {
			return err
		}
	}

	if len(fullThinking) < t.prevThinkingLen {
		t.prevThinkingLen = 0
	}
	if len(fullThinking) > t.prevThinkingLen {
		delta := fullThinking[t.prevThinkingLen:]
		t.prevThinkingLen = len(fullThinking)
		if err := t.dispatcher.Emit(NewThinking(t.agent, t.sessionID, delta)); err != nil {
			return err
		}
	}

	for _, block := range blocks {
		switch b := block.(type) {
		case protocol.ToolUseBlock:
			// Every invocation is distinct; no de-duplication.
			if err := t.dispatcher.Emit(NewToolStart(t.agent, t.sessionID, b.ID, b.Name, b.Input)); err != nil {
				return err
			}
		case protocol.ToolResultBlock:
			if err := t.dispatcher.Emit(NewToolResult(t.agent, t.sessionID, b.ToolUseID, b.TextContent())); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Translator) processUser(m protocol.UserMessage) error {
	blocks, ok := m.Message.Content.AsBlocks()
	if !ok {
		return nil
	}
	for _, block := range blocks {
		if b, ok := block.(protocol.ToolResultBlock); ok {
			if err := t.dispatcher.Emit(NewToolResult(t.agent, t.sessionID, b.ToolUseID, b.TextContent())); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Translator) processResult(m protocol.ResultMessage) error {
	if m.Subtype == "success" {
		// The final result supersedes anything accumulated during the
		// turn; this is an override, not a delta.
		t.completed = true
		t.finalText = m.Result
		t.prevTextLen = 0
		t.prevThinkingLen = 0
		if err := t.dispatcher.Emit(NewTextDelta(t.agent, t.sessionID, m.Result)); err != nil {
			return err
		}
	}

	extra := map[string]interface{}{
		"subtype":        m.Subtype,
		"is_error":       m.IsError,
		"num_turns":      m.NumTurns,
		"duration_ms":    m.DurationMs,
		"total_cost_usd": m.TotalCostUSD,
	}
	return t.dispatcher.Emit(NewSessionComplete(t.agent, t.sessionID, extra))
}

func (t *Translator) processStreamEvent(m protocol.StreamEvent) error {
	data, err := protocol.ParseStreamEvent(m.Event)
	if err != nil || data == nil {
		// Undecodable or unknown stream events are skipped.
		return nil
	}

	switch e := data.(type) {
	case protocol.ContentBlockDeltaEvent:
		return t.processDelta(e)
	case protocol.ContentBlockStartEvent:
		block, err := e.ParsedBlock()
		if err != nil || block == nil {
			return nil
		}
		if b, ok := block.(protocol.ToolUseBlock); ok {
			return t.dispatcher.Emit(NewToolStart(t.agent, t.sessionID, b.ID, b.Name, b.Input))
		}
	}
	return nil
}

func (t *Translator) processDelta(e protocol.ContentBlockDeltaEvent) error {
	d, err := e.ParsedDelta()
	if err != nil || d == nil {
		return nil
	}

	switch delta := d.(type) {
	case protocol.TextDelta:
		// Advance the cursor so a later coalesced snapshot of the same
		// turn does not re-emit this text.
		t.prevTextLen += len(delta.Text)
		t.turnText += delta.Text
		return t.dispatcher.Emit(NewTextDelta(t.agent, t.sessionID, delta.Text))
	case protocol.ThinkingDelta:
		t.prevThinkingLen += len(delta.Thinking)
		return t.dispatcher.Emit(NewThinking(t.agent, t.sessionID, delta.Thinking))
	case protocol.InputJSONDelta:
		extra := map[string]interface{}{
			"type":         "input_json_delta",
			"partial_json": delta.PartialJSON,
		}
		return t.dispatcher.Emit(NewProgress(t.agent, t.sessionID, "", extra))
	}
	return nil
}
