package agent

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazelment/codedozer/protocol"
	"github.com/bazelment/codedozer/stream"
)

// fakeRunner replays a scripted message sequence per call and records
// every request it sees.
type fakeRunner struct {
	reqs   []Request
	script [][]protocol.Message
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, req Request) (<-chan protocol.Message, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}

	var msgs []protocol.Message
	if len(f.script) > 0 {
		msgs = f.script[0]
		f.script = f.script[1:]
	}

	ch := make(chan protocol.Message, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	close(ch)
	return ch, nil
}

func successScript(finalText string) []protocol.Message {
	return []protocol.Message{
		protocol.SystemMessage{Subtype: "init", SessionID: "sess_1"},
		protocol.ResultMessage{Subtype: "success", Result: finalText},
	}
}

func assistantMsg(text string) protocol.Message {
	raw, _ := json.Marshal([]map[string]interface{}{{"type": "text", "text": text}})
	return protocol.AssistantMessage{
		Message: protocol.MessageContent{Content: protocol.NewBlocksContent(raw)},
	}
}

func TestResearcher_Run(t *testing.T) {
	runner := &fakeRunner{script: [][]protocol.Message{
		successScript("Findings.\n```json\n{\"recommendations\":[\"go ahead\"]}\n```"),
	}}
	a := NewResearcher(runner, stream.NewDispatcher(), Options{Model: "opus", WorkDir: "/repo"})

	res, err := a.Run(context.Background(), "add health endpoint")
	require.NoError(t, err)
	assert.Equal(t, []string{"go ahead"}, res.Recommendations)
	assert.Contains(t, res.Content, "Findings.")

	require.Len(t, runner.reqs, 1)
	req := runner.reqs[0]
	assert.Equal(t, "researcher", req.AgentName)
	assert.Equal(t, "opus", req.Model)
	assert.Equal(t, "/repo", req.WorkDir)
	assert.Equal(t, readOnlyTools, req.AllowedTools)
	assert.Contains(t, req.Prompt, "add health endpoint")
}

func TestPlanner_PromptReferencesResearchFile(t *testing.T) {
	runner := &fakeRunner{script: [][]protocol.Message{successScript("the plan")}}
	a := NewPlanner(runner, stream.NewDispatcher(), Options{})

	plan, err := a.Run(context.Background(), "task", "/work/research")
	require.NoError(t, err)
	assert.Equal(t, "the plan", plan.Content)
	assert.Contains(t, runner.reqs[0].Prompt, filepath.Join("/work/research", "research.md"))
}

func TestPlanner_EmptyTaskOmitsTaskLine(t *testing.T) {
	runner := &fakeRunner{script: [][]protocol.Message{successScript("the plan")}}
	a := NewPlanner(runner, stream.NewDispatcher(), Options{})

	_, err := a.Run(context.Background(), "", "/work/research")
	require.NoError(t, err)
	assert.NotContains(t, runner.reqs[0].Prompt, "Task:")
	assert.Contains(t, runner.reqs[0].Prompt, "research.md")
}

func TestCoder_FallbackParse(t *testing.T) {
	runner := &fakeRunner{script: [][]protocol.Message{
		successScript("Implemented the endpoint.\nCreated: `health.py`\n"),
	}}
	a := NewCoder(runner, stream.NewDispatcher(), Options{})

	res, err := a.Run(context.Background(), "task", "/work/plans")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"health.py"}, res.FilesCreated)
	assert.Equal(t, "acceptEdits", runner.reqs[0].PermissionMode)
	assert.Equal(t, coderTools, runner.reqs[0].AllowedTools)
}

func TestReviewer_ParsesVerdict(t *testing.T) {
	runner := &fakeRunner{script: [][]protocol.Message{
		successScript("```json\n{\"passed\":true,\"summary\":\"clean\"}\n```"),
	}}
	a := NewReviewer(runner, stream.NewDispatcher(), Options{})

	res, err := a.Run(context.Background(), "/work/detail_plans")
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Equal(t, "clean", res.Summary)
}

func TestDetailPlanner_LoadsWrittenParts(t *testing.T) {
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "01_add_handler.md"), []byte("p1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "TODO.md"), []byte("- [ ] 01: Add handler\n"), 0o644))

	runner := &fakeRunner{script: [][]protocol.Message{successScript("done")}}
	a := NewDetailPlanner(runner, stream.NewDispatcher(), Options{})

	plan, err := a.Run(context.Background(), "/work/plans", outDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"01_add_handler.md"}, plan.Parts)
	require.Len(t, plan.Todos, 1)
	assert.Equal(t, "Add handler", plan.Todos[0].Label)
}

func TestStage_StreamEndsWithoutResult(t *testing.T) {
	runner := &fakeRunner{script: [][]protocol.Message{
		{assistantMsg("partial output, then the process died")},
	}}
	a := NewResearcher(runner, stream.NewDispatcher(), Options{})

	_, err := a.Run(context.Background(), "task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without result")
}

func TestStage_RunnerErrorPropagates(t *testing.T) {
	boom := errors.New("spawn failed")
	a := NewCoder(&fakeRunner{err: boom}, stream.NewDispatcher(), Options{})

	_, err := a.Run(context.Background(), "task", "/plans")
	assert.ErrorIs(t, err, boom)
}

func TestStage_EventsReachDispatcher(t *testing.T) {
	d := stream.NewDispatcher()
	var types []stream.EventType
	d.OnAll(func(ev stream.Event) error {
		types = append(types, ev.Type)
		return nil
	})

	runner := &fakeRunner{script: [][]protocol.Message{
		{
			protocol.SystemMessage{Subtype: "init", SessionID: "s"},
			assistantMsg("working"),
			protocol.ResultMessage{Subtype: "success", Result: "final"},
		},
	}}
	a := NewResearcher(runner, d, Options{})

	_, err := a.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, []stream.EventType{
		stream.EventSessionInit,
		stream.EventTextDelta,
		stream.EventTextDelta,
		stream.EventSessionComplete,
	}, types)
}
