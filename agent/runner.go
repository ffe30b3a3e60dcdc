// Package agent is the boundary to the external LLM runtime. A Runner
// produces the raw protocol message stream for one prompt; CLIRunner
// backs it with the agent CLI subprocess. The five stage agents
// (researcher, planner, detail planner, coder, reviewer) each own
// their instruction set and bounded tool access and turn the stream
// into a stage artifact.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/bazelment/codedozer/mcp"
	"github.com/bazelment/codedozer/protocol"
)

// Request describes one agent invocation.
type Request struct {
	Prompt         string
	SystemPrompt   string
	AgentName      string
	AllowedTools   []string
	PermissionMode string
	Model          string
	WorkDir        string
	MCPServers     map[string]mcp.ServerConfig
	IncludePartial bool
}

// Runner produces the raw message stream for one request. The channel
// closes when the run ends; a failed run closes the channel early and
// never panics. Tests substitute a scripted Runner.
type Runner interface {
	Run(ctx context.Context, req Request) (<-chan protocol.Message, error)
}

// DefaultBinary is the agent CLI looked up in PATH.
const DefaultBinary = "claude"

// scanBufSize must hold the longest stream-json line the CLI emits;
// coalesced assistant snapshots can reach megabytes.
const scanBufSize = 10 * 1024 * 1024

// CLIRunner runs requests through the agent CLI subprocess.
type CLIRunner struct {
	// Binary overrides the CLI executable; empty means DefaultBinary.
	Binary string
}

// Run spawns the CLI and streams parsed messages until EOF. Unknown
// message variants are skipped. A non-zero exit is logged, not
// returned: the caller judges the run by its result message, so a
// crashed process simply looks like a run with no result.
func (r *CLIRunner) Run(ctx context.Context, req Request) (<-chan protocol.Message, error) {
	binary := r.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	args, err := buildArgs(req)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = req.WorkDir
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	ch := make(chan protocol.Message, 64)
	go func() {
		defer close(ch)
		r.pump(ctx, stdout, ch)
		if err := cmd.Wait(); err != nil {
			slog.Warn("agent CLI exited with error", "agent", req.AgentName, "error", err)
		}
	}()
	return ch, nil
}

func (r *CLIRunner) pump(ctx context.Context, stdout io.Reader, ch chan<- protocol.Message) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), scanBufSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := protocol.ParseMessage(line)
		if err != nil {
			slog.Debug("undecodable stream line skipped", "error", err)
			continue
		}
		if msg == nil {
			continue
		}
		select {
		case ch <- msg:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("agent CLI stream read failed", "error", err)
	}
}

// buildArgs assembles the CLI argument list for a request.
func buildArgs(req Request) ([]string, error) {
	args := []string{
		"-p", req.Prompt,
		"--output-format", "stream-json",
		"--verbose",
	}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	if req.PermissionMode != "" {
		args = append(args, "--permission-mode", req.PermissionMode)
	}
	for _, tool := range req.AllowedTools {
		args = append(args, "--allowed-tools", tool)
	}
	if req.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", req.SystemPrompt)
	}
	if req.IncludePartial {
		args = append(args, "--include-partial-messages")
	}
	if len(req.MCPServers) > 0 {
		cfg, err := mcp.MarshalServers(req.MCPServers)
		if err != nil {
			return nil, fmt.Errorf("marshal MCP config: %w", err)
		}
		args = append(args, "--mcp-config", cfg)
	}
	return args, nil
}
