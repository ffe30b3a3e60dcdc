// Package stream defines the typed event model emitted while an agent
// runs, the dispatcher that fans events out to subscribers, the
// translator that produces events from raw protocol messages, and the
// built-in renderers.
package stream

import "time"

// EventType discriminates between event kinds. The string values are
// the wire "type" field of the JSON-lines output and are a
// compatibility contract for external consumers.
type EventType string

const (
	EventSessionInit     EventType = "session_init"
	EventSessionComplete EventType = "session_complete"
	EventPhaseStart      EventType = "phase_start"
	EventPhaseEnd        EventType = "phase_end"
	EventTextDelta       EventType = "text_delta"
	EventToolStart       EventType = "tool_start"
	EventToolResult      EventType = "tool_result"
	EventThinking        EventType = "thinking"
	EventProgress        EventType = "progress"
	EventError           EventType = "error"
)

// Event is a tagged union: Type selects which payload fields are
// meaningful, and all other payload fields stay at their zero value.
// Extra is the escape valve for the kinds without dedicated fields
// (session lifecycle, progress, error) and is nil for every other
// kind.
type Event struct {
	Type      EventType
	Agent     string
	SessionID string
	Timestamp time.Time

	// Payload fields, valid per Type:
	Text       string                 // text_delta
	Thinking   string                 // thinking
	ToolName   string                 // tool_start
	ToolInput  map[string]interface{} // tool_start
	ToolResult string                 // tool_result
	ToolUseID  string                 // tool_start, tool_result
	Phase      string                 // phase_start, phase_end
	Message    string                 // progress

	Extra map[string]interface{} // session_init, session_complete, progress, error
}

func newEvent(t EventType, agent, sessionID string) Event {
	return Event{
		Type:      t,
		Agent:     agent,
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
}

// NewTextDelta builds a text_delta event.
func NewTextDelta(agent, sessionID, text string) Event {
	ev := newEvent(EventTextDelta, agent, sessionID)
	ev.Text = text
	return ev
}

// NewThinking builds a thinking event.
func NewThinking(agent, sessionID, thinking string) Event {
	ev := newEvent(EventThinking, agent, sessionID)
	ev.Thinking = thinking
	return ev
}

// NewToolStart builds a tool_start event.
func NewToolStart(agent, sessionID, toolUseID, name string, input map[string]interface{}) Event {
	ev := newEvent(EventToolStart, agent, sessionID)
	ev.ToolUseID = toolUseID
	ev.ToolName = name
	ev.ToolInput = input
	return ev
}

// NewToolResult builds a tool_result event.
func NewToolResult(agent, sessionID, toolUseID, result string) Event {
	ev := newEvent(EventToolResult, agent, sessionID)
	ev.ToolUseID = toolUseID
	ev.ToolResult = result
	return ev
}

// NewPhase builds a phase_start or phase_end event.
func NewPhase(t EventType, agent, phase string) Event {
	ev := newEvent(t, agent, "")
	ev.Phase = phase
	return ev
}

// NewProgress builds a progress event.
func NewProgress(agent, sessionID, message string, extra map[string]interface{}) Event {
	ev := newEvent(EventProgress, agent, sessionID)
	ev.Message = message
	ev.Extra = extra
	return ev
}

// NewSessionInit builds a session_init event carrying runtime-reported
// session metadata in Extra.
func NewSessionInit(agent, sessionID string, extra map[string]interface{}) Event {
	ev := newEvent(EventSessionInit, agent, sessionID)
	ev.Extra = extra
	return ev
}

// NewSessionComplete builds a session_complete event carrying turn
// metrics in Extra.
func NewSessionComplete(agent, sessionID string, extra map[string]interface{}) Event {
	ev := newEvent(EventSessionComplete, agent, sessionID)
	ev.Extra = extra
	return ev
}

// NewError builds an error event with detail in Extra.
func NewError(agent, sessionID string, extra map[string]interface{}) Event {
	ev := newEvent(EventError, agent, sessionID)
	ev.Extra = extra
	return ev
}
