package stream

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRenderer_OneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher()
	NewJSONRenderer(&buf).Attach(d)

	require.NoError(t, d.Emit(NewTextDelta("researcher", "s1", "hello")))
	require.NoError(t, d.Emit(NewToolStart("researcher", "s1", "toolu_1", "Bash", map[string]interface{}{"command": "ls"})))
	require.NoError(t, d.Emit(NewPhase(EventPhaseStart, "researcher", "research")))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "text_delta", first["type"])
	assert.Equal(t, "researcher", first["agent"])
	assert.Equal(t, "hello", first["text"])
	assert.InDelta(t, float64(time.Now().Unix()), first["timestamp"].(float64), 5.0)
	assert.NotContains(t, first, "tool")

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "tool_start", second["type"])
	assert.Equal(t, "Bash", second["tool"])
	assert.Equal(t, "ls", second["input"].(map[string]interface{})["command"])

	var third map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &third))
	assert.Equal(t, "phase_start", third["type"])
	assert.Equal(t, "research", third["phase"])
}

func TestJSONRenderer_ToolResultCarriesOnlyResult(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher()
	NewJSONRenderer(&buf).Attach(d)

	require.NoError(t, d.Emit(NewToolResult("coder", "s1", "toolu_1", "ok")))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "tool_result", line["type"])
	assert.Equal(t, "ok", line["result"])
	assert.NotContains(t, line, "tool")
	assert.NotContains(t, line, "input")
}

func TestJSONRenderer_SessionCompleteCarriesData(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher()
	NewJSONRenderer(&buf).Attach(d)

	require.NoError(t, d.Emit(NewSessionComplete("coder", "s1", map[string]interface{}{
		"subtype":   "success",
		"num_turns": 3,
	})))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "session_complete", line["type"])
	data := line["data"].(map[string]interface{})
	assert.Equal(t, "success", data["subtype"])
	assert.Equal(t, float64(3), data["num_turns"])
}

func TestHumanRenderer_TextVerbatimToOut(t *testing.T) {
	var out, errOut bytes.Buffer
	d := NewDispatcher()
	NewHumanRenderer(&out, &errOut, HumanOptions{}).Attach(d)

	require.NoError(t, d.Emit(NewTextDelta("a", "s", "Hello, ")))
	require.NoError(t, d.Emit(NewTextDelta("a", "s", "world")))

	assert.Equal(t, "Hello, world", out.String())
	assert.Empty(t, errOut.String())
}

func TestHumanRenderer_PhaseBoundariesToErrOut(t *testing.T) {
	var out, errOut bytes.Buffer
	d := NewDispatcher()
	NewHumanRenderer(&out, &errOut, HumanOptions{}).Attach(d)

	require.NoError(t, d.Emit(NewPhase(EventPhaseStart, "researcher", "research")))
	require.NoError(t, d.Emit(NewPhase(EventPhaseEnd, "researcher", "research")))

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "[research] Starting...")
	assert.Contains(t, errOut.String(), "[research] Done.")
}

func TestHumanRenderer_ToolAndThinkingGatedByOptions(t *testing.T) {
	var out, errOut bytes.Buffer
	d := NewDispatcher()
	NewHumanRenderer(&out, &errOut, HumanOptions{}).Attach(d)

	require.NoError(t, d.Emit(NewToolStart("a", "s", "id", "Bash", nil)))
	require.NoError(t, d.Emit(NewThinking("a", "s", "pondering")))
	assert.Empty(t, errOut.String())

	errOut.Reset()
	d2 := NewDispatcher()
	NewHumanRenderer(&out, &errOut, HumanOptions{ShowTools: true, ShowThinking: true}).Attach(d2)

	require.NoError(t, d2.Emit(NewToolStart("a", "s", "id", "Bash", nil)))
	require.NoError(t, d2.Emit(NewThinking("a", "s", "pondering")))
	assert.Contains(t, errOut.String(), "[Tool: Bash]")
	assert.Contains(t, errOut.String(), "[Thinking] pondering")
}

func TestHumanRenderer_ToolResultTruncated(t *testing.T) {
	var out, errOut bytes.Buffer
	d := NewDispatcher()
	NewHumanRenderer(&out, &errOut, HumanOptions{ShowTools: true}).Attach(d)

	long := strings.Repeat("x", 500)
	require.NoError(t, d.Emit(NewToolResult("a", "s", "id", long)))

	assert.Contains(t, errOut.String(), strings.Repeat("x", toolResultSnippetLen))
	assert.NotContains(t, errOut.String(), strings.Repeat("x", toolResultSnippetLen+1))
}

func TestHumanRenderer_WarnsOnFailedServers(t *testing.T) {
	var out, errOut bytes.Buffer
	d := NewDispatcher()
	NewHumanRenderer(&out, &errOut, HumanOptions{}).Attach(d)

	require.NoError(t, d.Emit(NewSessionInit("a", "s", map[string]interface{}{
		"mcp_servers": []map[string]interface{}{
			{"name": "github", "status": "connected"},
			{"name": "jira", "status": "failed"},
		},
	})))

	assert.NotContains(t, errOut.String(), "github")
	assert.Contains(t, errOut.String(), "Warning: MCP server 'jira' failed to connect")
}
