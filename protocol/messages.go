// Package protocol defines the wire model for the agent CLI's
// stream-json output. Every line the CLI prints is one JSON object
// discriminated by a "type" field; ParseMessage decodes a line into
// one of the typed message variants below. Unknown variants decode to
// nil so that new CLI message types never break consumers.
package protocol

import (
	"encoding/json"
)

// MessageType discriminates between message kinds.
type MessageType string

const (
	MessageTypeSystem      MessageType = "system"
	MessageTypeAssistant   MessageType = "assistant"
	MessageTypeUser        MessageType = "user"
	MessageTypeResult      MessageType = "result"
	MessageTypeStreamEvent MessageType = "stream_event"
)

// Message is the interface for all protocol messages.
type Message interface {
	MsgType() MessageType
}

// MCPServerStatus reports the connection state of one MCP server.
type MCPServerStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// SystemMessage represents session initialization and system events.
type SystemMessage struct {
	Type           MessageType       `json:"type"`
	Subtype        string            `json:"subtype"`
	UUID           string            `json:"uuid"`
	SessionID      string            `json:"session_id"`
	Model          string            `json:"model,omitempty"`
	CWD            string            `json:"cwd,omitempty"`
	PermissionMode string            `json:"permissionMode,omitempty"`
	Tools          []string          `json:"tools,omitempty"`
	Agents         []string          `json:"agents,omitempty"`
	MCPServers     []MCPServerStatus `json:"mcp_servers,omitempty"`
}

// MsgType returns the message type.
func (m SystemMessage) MsgType() MessageType { return MessageTypeSystem }

// Usage tracks token usage for a message or turn.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	OutputTokens             int `json:"output_tokens"`
}

// FlexibleContent can be either a string or an array of content blocks.
type FlexibleContent struct {
	raw json.RawMessage
}

// NewStringContent builds a FlexibleContent holding a plain string.
// Used by tests and fixtures; the CLI produces both forms.
func NewStringContent(s string) FlexibleContent {
	b, _ := json.Marshal(s)
	return FlexibleContent{raw: b}
}

// NewBlocksContent builds a FlexibleContent from raw block JSON.
func NewBlocksContent(raw json.RawMessage) FlexibleContent {
	return FlexibleContent{raw: raw}
}

// UnmarshalJSON implements json.Unmarshaler.
func (fc *FlexibleContent) UnmarshalJSON(data []byte) error {
	fc.raw = data
	return nil
}

// MarshalJSON implements json.Marshaler.
func (fc FlexibleContent) MarshalJSON() ([]byte, error) {
	if fc.raw == nil {
		return []byte("null"), nil
	}
	return fc.raw, nil
}

// IsString returns true if the content is a string.
func (fc FlexibleContent) IsString() bool {
	if len(fc.raw) == 0 {
		return false
	}
	return fc.raw[0] == '"'
}

// AsString returns the content as a string (if it is one).
func (fc FlexibleContent) AsString() (string, bool) {
	if !fc.IsString() {
		return "", false
	}
	var s string
	if err := json.Unmarshal(fc.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// AsBlocks returns the content as content blocks (if it is an array).
func (fc FlexibleContent) AsBlocks() (ContentBlocks, bool) {
	if fc.IsString() || len(fc.raw) == 0 {
		return nil, false
	}
	var blocks ContentBlocks
	if err := json.Unmarshal(fc.raw, &blocks); err != nil {
		return nil, false
	}
	return blocks, true
}

// MessageContent is the inner content of assistant/user messages.
type MessageContent struct {
	Model   string          `json:"model,omitempty"`
	ID      string          `json:"id,omitempty"`
	Role    string          `json:"role"`
	Content FlexibleContent `json:"content"`
	Usage   Usage           `json:"usage,omitempty"`
}

// AssistantMessage is a complete (possibly partially accumulated)
// message from the model. The CLI may emit several of these for one
// turn, each carrying the full text accumulated so far.
type AssistantMessage struct {
	Type      MessageType    `json:"type"`
	SessionID string         `json:"session_id"`
	UUID      string         `json:"uuid"`
	Message   MessageContent `json:"message"`
}

// MsgType returns the message type.
func (m AssistantMessage) MsgType() MessageType { return MessageTypeAssistant }

// UserMessage represents tool results echoed back by the CLI.
type UserMessage struct {
	Type      MessageType    `json:"type"`
	SessionID string         `json:"session_id"`
	UUID      string         `json:"uuid"`
	Message   MessageContent `json:"message"`
}

// MsgType returns the message type.
func (m UserMessage) MsgType() MessageType { return MessageTypeUser }

// ResultMessage contains turn completion metrics and the final text.
type ResultMessage struct {
	Type          MessageType `json:"type"`
	Subtype       string      `json:"subtype"`
	UUID          string      `json:"uuid"`
	SessionID     string      `json:"session_id"`
	Result        string      `json:"result"`
	Usage         Usage       `json:"usage"`
	TotalCostUSD  float64     `json:"total_cost_usd"`
	NumTurns      int         `json:"num_turns"`
	DurationMs    int64       `json:"duration_ms"`
	DurationAPIMs int64       `json:"duration_api_ms"`
	IsError       bool        `json:"is_error"`
}

// MsgType returns the message type.
func (m ResultMessage) MsgType() MessageType { return MessageTypeResult }
