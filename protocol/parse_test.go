package protocol

import (
	"testing"
)

const (
	systemInitLine = `{"type":"system","subtype":"init","session_id":"sess_1","model":"opus","cwd":"/work","tools":["Read","Grep"],"mcp_servers":[{"name":"github","status":"connected"},{"name":"jira","status":"failed"}]}`

	assistantBlocksLine = `{"type":"assistant","session_id":"sess_1","message":{"role":"assistant","content":[{"type":"text","text":"hello"},{"type":"tool_use","id":"toolu_1","name":"Read","input":{"file_path":"main.go"}}]}}`

	userToolResultLine = `{"type":"user","session_id":"sess_1","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_1","content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}]}}`

	resultSuccessLine = `{"type":"result","subtype":"success","session_id":"sess_1","result":"all done","total_cost_usd":0.42,"num_turns":3,"duration_ms":1200,"is_error":false}`

	streamTextDeltaLine = `{"type":"stream_event","session_id":"sess_1","event":{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"chunk"}}}`
)

func TestParseMessage_System(t *testing.T) {
	msg, err := ParseMessage([]byte(systemInitLine))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sys, ok := msg.(SystemMessage)
	if !ok {
		t.Fatalf("expected SystemMessage, got %T", msg)
	}
	if sys.Subtype != "init" {
		t.Errorf("expected subtype init, got %q", sys.Subtype)
	}
	if sys.SessionID != "sess_1" {
		t.Errorf("expected session sess_1, got %q", sys.SessionID)
	}
	if len(sys.MCPServers) != 2 || sys.MCPServers[1].Status != "failed" {
		t.Errorf("unexpected mcp servers: %+v", sys.MCPServers)
	}
}

func TestParseMessage_AssistantBlocks(t *testing.T) {
	msg, err := ParseMessage([]byte(assistantBlocksLine))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	am, ok := msg.(AssistantMessage)
	if !ok {
		t.Fatalf("expected AssistantMessage, got %T", msg)
	}

	blocks, ok := am.Message.Content.AsBlocks()
	if !ok {
		t.Fatal("expected block content")
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}

	tb, ok := blocks[0].(TextBlock)
	if !ok || tb.Text != "hello" {
		t.Errorf("unexpected first block: %+v", blocks[0])
	}
	tu, ok := blocks[1].(ToolUseBlock)
	if !ok {
		t.Fatalf("expected ToolUseBlock, got %T", blocks[1])
	}
	if tu.ID != "toolu_1" || tu.Name != "Read" {
		t.Errorf("unexpected tool use: %+v", tu)
	}
	if tu.Input["file_path"] != "main.go" {
		t.Errorf("unexpected tool input: %+v", tu.Input)
	}
}

func TestParseMessage_UserToolResult(t *testing.T) {
	msg, err := ParseMessage([]byte(userToolResultLine))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	um, ok := msg.(UserMessage)
	if !ok {
		t.Fatalf("expected UserMessage, got %T", msg)
	}

	blocks, ok := um.Message.Content.AsBlocks()
	if !ok || len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	tr, ok := blocks[0].(ToolResultBlock)
	if !ok {
		t.Fatalf("expected ToolResultBlock, got %T", blocks[0])
	}
	if tr.ToolUseID != "toolu_1" {
		t.Errorf("unexpected tool_use_id: %q", tr.ToolUseID)
	}
	if got := tr.TextContent(); got != "a\nb" {
		t.Errorf("expected flattened content 'a\\nb', got %q", got)
	}
}

func TestParseMessage_Result(t *testing.T) {
	msg, err := ParseMessage([]byte(resultSuccessLine))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rm, ok := msg.(ResultMessage)
	if !ok {
		t.Fatalf("expected ResultMessage, got %T", msg)
	}
	if rm.Subtype != "success" || rm.Result != "all done" {
		t.Errorf("unexpected result message: %+v", rm)
	}
	if rm.IsError {
		t.Error("expected is_error false")
	}
}

func TestParseMessage_StreamEvent(t *testing.T) {
	msg, err := ParseMessage([]byte(streamTextDeltaLine))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	se, ok := msg.(StreamEvent)
	if !ok {
		t.Fatalf("expected StreamEvent, got %T", msg)
	}

	data, err := ParseStreamEvent(se.Event)
	if err != nil {
		t.Fatalf("ParseStreamEvent failed: %v", err)
	}
	delta, ok := data.(ContentBlockDeltaEvent)
	if !ok {
		t.Fatalf("expected ContentBlockDeltaEvent, got %T", data)
	}
	d, err := delta.ParsedDelta()
	if err != nil {
		t.Fatalf("ParsedDelta failed: %v", err)
	}
	td, ok := d.(TextDelta)
	if !ok || td.Text != "chunk" {
		t.Errorf("unexpected delta: %+v", d)
	}
}

func TestParseMessage_UnknownType(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"control_request","request_id":"req_1"}`))
	if err != nil {
		t.Fatalf("expected no error for unknown type, got: %v", err)
	}
	if msg != nil {
		t.Fatalf("expected nil message for unknown type, got %T", msg)
	}
}

func TestParseMessage_InvalidJSON(t *testing.T) {
	if _, err := ParseMessage([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseMessage_StringContent(t *testing.T) {
	line := `{"type":"user","message":{"role":"user","content":"plain text"}}`
	msg, err := ParseMessage([]byte(line))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	um := msg.(UserMessage)
	s, ok := um.Message.Content.AsString()
	if !ok || s != "plain text" {
		t.Errorf("expected string content, got %q (ok=%v)", s, ok)
	}
	if _, ok := um.Message.Content.AsBlocks(); ok {
		t.Error("string content must not decode as blocks")
	}
}
