package agent

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bazelment/codedozer/artifact"
	"github.com/bazelment/codedozer/mcp"
	"github.com/bazelment/codedozer/stream"
)

// Options carries the per-stage runtime settings the orchestrator
// resolves from flags and repo config.
type Options struct {
	Model          string
	WorkDir        string
	MCPServers     map[string]mcp.ServerConfig
	IncludePartial bool
}

// stage is the shared machinery of all five agents: run one request
// through the runner and feed every message to a fresh translator.
type stage struct {
	runner     Runner
	dispatcher *stream.Dispatcher
	opts       Options
}

func (s stage) request(name, prompt, systemPrompt string, tools []string, permMode string) Request {
	return Request{
		Prompt:         prompt,
		SystemPrompt:   systemPrompt,
		AgentName:      name,
		AllowedTools:   tools,
		PermissionMode: permMode,
		Model:          s.opts.Model,
		WorkDir:        s.opts.WorkDir,
		MCPServers:     s.opts.MCPServers,
		IncludePartial: s.opts.IncludePartial,
	}
}

// run drives one request to completion and returns the translator
// holding the final text. A stream that ends without a success result
// is an error; callers surface it as a stage failure.
func (s stage) run(ctx context.Context, req Request) (*stream.Translator, error) {
	msgs, err := s.runner.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	tr := stream.NewTranslator(s.dispatcher, req.AgentName)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				if !tr.Completed() {
					return nil, fmt.Errorf("%s session ended without result", req.AgentName)
				}
				return tr, nil
			}
			if err := tr.Process(msg); err != nil {
				return nil, err
			}
		}
	}
}

const researcherSystemPrompt = `You are a research agent. Investigate the codebase and any relevant
external documentation for the given task. Do not modify any files.
Summarize requirements, constraints, and relevant code locations.
End your report with a ` + "```json" + ` block containing fields:
original_requirements, requirements_analysis, research_agenda,
findings (list of {topic, summary, sources}), technical_context,
recommendations, notes.`

const plannerSystemPrompt = `You are a planning agent. Produce a concrete implementation plan for
the given task, grounded in the research you are pointed at. Do not
modify any files. End your plan with a ` + "```json" + ` block containing
fields: task, requirements, files_to_create, files_to_modify,
implementation_steps, dependencies, notes.`

const detailPlannerSystemPrompt = `You are a detail-planning agent. Split the implementation plan into
small, independently implementable parts. Write each part as a
numbered markdown file (01_<slug>.md, 02_<slug>.md, ...) in the
directory you are given, plus a TODO.md checklist with one line per
part in the exact form "- [ ] NN: label". Do not write any other
files.`

const coderSystemPrompt = `You are a coding agent. Implement the plan you are pointed at,
modifying the repository directly. When finished, report a
` + "```json" + ` block with fields: files_created, files_modified, summary,
success, errors.`

const reviewerSystemPrompt = `You are a code-review agent. Review the implemented changes against
the plan you are pointed at. Do not modify any files. Report a
` + "```json" + ` block with fields: passed, summary, findings (list of
{category, severity, file, line, description, suggestion}).`

var (
	readOnlyTools = []string{"Read", "Grep", "Glob", "WebSearch", "WebFetch"}
	writerTools   = []string{"Read", "Grep", "Glob", "Write"}
	coderTools    = []string{"Read", "Grep", "Glob", "Write", "Edit", "Bash"}
)

// Researcher investigates the task and produces a research artifact.
type Researcher struct{ stage }

// NewResearcher creates a researcher agent.
func NewResearcher(r Runner, d *stream.Dispatcher, opts Options) *Researcher {
	return &Researcher{stage{runner: r, dispatcher: d, opts: opts}}
}

// Run researches the task and parses the final text into an artifact.
func (a *Researcher) Run(ctx context.Context, task string) (*artifact.ResearchResult, error) {
	prompt := fmt.Sprintf("Research the following task and write up your findings.\n\nTask: %s", task)
	tr, err := a.run(ctx, a.request("researcher", prompt, researcherSystemPrompt, readOnlyTools, "default"))
	if err != nil {
		return nil, err
	}
	res := artifact.ParseResearch(tr.FinalText())
	if res == nil {
		return nil, fmt.Errorf("researcher produced no usable result")
	}
	return res, nil
}

// Planner turns task plus persisted research into an implementation
// plan.
type Planner struct{ stage }

// NewPlanner creates a planner agent.
func NewPlanner(r Runner, d *stream.Dispatcher, opts Options) *Planner {
	return &Planner{stage{runner: r, dispatcher: d, opts: opts}}
}

// Run plans the task against the research persisted at researchDir.
// An empty task is allowed for standalone planning runs; the research
// itself carries the requirements then.
func (a *Planner) Run(ctx context.Context, task, researchDir string) (*artifact.Plan, error) {
	prompt := fmt.Sprintf(
		"Read the research in %s and produce an implementation plan.",
		filepath.Join(researchDir, "research.md"))
	if task != "" {
		prompt += fmt.Sprintf("\n\nTask: %s", task)
	}
	tr, err := a.run(ctx, a.request("planner", prompt, plannerSystemPrompt, readOnlyTools, "default"))
	if err != nil {
		return nil, err
	}
	plan := artifact.ParsePlan(tr.FinalText())
	if plan == nil {
		return nil, fmt.Errorf("planner produced no usable result")
	}
	return plan, nil
}

// DetailPlanner decomposes a plan into numbered part files. The agent
// writes the files itself; success is the runtime's success flag plus
// the presence of the part files on disk.
type DetailPlanner struct{ stage }

// NewDetailPlanner creates a detail-planner agent.
func NewDetailPlanner(r Runner, d *stream.Dispatcher, opts Options) *DetailPlanner {
	return &DetailPlanner{stage{runner: r, dispatcher: d, opts: opts}}
}

// Run decomposes the plan at planDir into part files under outDir.
func (a *DetailPlanner) Run(ctx context.Context, planDir, outDir string) (*artifact.DetailPlan, error) {
	prompt := fmt.Sprintf(
		"Split the plan in %s into numbered part files under %s, plus a TODO.md checklist.",
		filepath.Join(planDir, "plan.md"), outDir)
	_, err := a.run(ctx, a.request("detail-planner", prompt, detailPlannerSystemPrompt, writerTools, "acceptEdits"))
	if err != nil {
		return nil, err
	}
	return artifact.LoadDetailPlan(outDir)
}

// Coder implements the plan, modifying the repository directly.
type Coder struct{ stage }

// NewCoder creates a coder agent.
func NewCoder(r Runner, d *stream.Dispatcher, opts Options) *Coder {
	return &Coder{stage{runner: r, dispatcher: d, opts: opts}}
}

// Run implements the plan at planDir and parses the coder's
// self-report. The Success flag of the returned result is the sole
// authority on pipeline success.
func (a *Coder) Run(ctx context.Context, task, planDir string) (*artifact.CodeResult, error) {
	// planDir may be the flat plan or the decomposed detail plans; the
	// prompt points at the directory and lets the agent read what is
	// there.
	prompt := fmt.Sprintf("Implement the plan in %s.\n\nTask: %s", planDir, task)
	tr, err := a.run(ctx, a.request("coder", prompt, coderSystemPrompt, coderTools, "acceptEdits"))
	if err != nil {
		return nil, err
	}
	res := artifact.ParseCodeResult(tr.FinalText())
	if res == nil {
		return nil, fmt.Errorf("coder produced no usable result")
	}
	return res, nil
}

// Reviewer checks the implemented changes against the plans.
type Reviewer struct{ stage }

// NewReviewer creates a reviewer agent.
func NewReviewer(r Runner, d *stream.Dispatcher, opts Options) *Reviewer {
	return &Reviewer{stage{runner: r, dispatcher: d, opts: opts}}
}

// Run reviews the working tree against the plans at planDir.
func (a *Reviewer) Run(ctx context.Context, planDir string) (*artifact.ReviewResult, error) {
	prompt := fmt.Sprintf("Review the implemented changes against the plans in %s.", planDir)
	tr, err := a.run(ctx, a.request("reviewer", prompt, reviewerSystemPrompt, readOnlyTools, "default"))
	if err != nil {
		return nil, err
	}
	res := artifact.ParseReview(tr.FinalText())
	if res == nil {
		return nil, fmt.Errorf("reviewer produced no usable verdict")
	}
	return res, nil
}
