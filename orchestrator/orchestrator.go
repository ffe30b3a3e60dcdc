package orchestrator

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bazelment/codedozer/agent"
	"github.com/bazelment/codedozer/artifact"
	"github.com/bazelment/codedozer/mcp"
	"github.com/bazelment/codedozer/stream"
)

// Stage failure labels, the stable error strings on TaskResult.
const (
	errResearcherFailed    = "Researcher agent failed"
	errPlannerFailed       = "Planner agent failed"
	errDetailPlannerFailed = "Detail planner agent failed"
	errCoderFailed         = "Coder agent failed"
	errReviewerFailed      = "Reviewer agent failed"
	errNoTask              = "No task or issue URL provided"
)

// Config configures one orchestrator.
type Config struct {
	WorkDir        string
	Models         StageModels
	DetailPlan     bool
	Review         bool
	IncludePartial bool
}

// Orchestrator runs the pipeline state machine. One orchestrator runs
// one task at a time; stages are strictly sequential.
type Orchestrator struct {
	cfg        Config
	runner     agent.Runner
	dispatcher *stream.Dispatcher
	state      State
}

// New creates an orchestrator driving stages through runner and
// emitting events through d.
func New(runner agent.Runner, d *stream.Dispatcher, cfg Config) *Orchestrator {
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	return &Orchestrator{
		cfg:        cfg,
		runner:     runner,
		dispatcher: d,
		state:      StateIdle,
	}
}

// State returns the current pipeline state.
func (o *Orchestrator) State() State { return o.state }

func (o *Orchestrator) dir(name string) string {
	return filepath.Join(o.cfg.WorkDir, name)
}

func (o *Orchestrator) stageOpts(model string, servers map[string]mcp.ServerConfig) agent.Options {
	return agent.Options{
		Model:          model,
		WorkDir:        o.cfg.WorkDir,
		MCPServers:     servers,
		IncludePartial: o.cfg.IncludePartial,
	}
}

// phase brackets a stage invocation with the authoritative phase
// events, emitted unconditionally regardless of what the stage's own
// translator emits. A subscriber error from Emit aborts the stage
// (the dispatcher's documented sharp edge).
func (o *Orchestrator) phase(agentName, label string, fn func() error) error {
	if err := o.dispatcher.Emit(stream.NewPhase(stream.EventPhaseStart, agentName, label)); err != nil {
		return err
	}
	err := fn()
	if emitErr := o.dispatcher.Emit(stream.NewPhase(stream.EventPhaseEnd, agentName, label)); emitErr != nil && err == nil {
		err = emitErr
	}
	return err
}

func (o *Orchestrator) fail(res *TaskResult, label string, err error) *TaskResult {
	if err != nil {
		slog.Warn("pipeline stage failed", "label", label, "error", err)
	}
	o.state = StateFailed
	res.Error = label
	return res
}

// RunTask runs the full pipeline for one task description and returns
// the outcome. A failed stage skips all remaining stages; terminal
// success is solely the coder's self-reported flag.
func (o *Orchestrator) RunTask(ctx context.Context, task string) *TaskResult {
	res := &TaskResult{Task: task}
	if strings.TrimSpace(task) == "" {
		return o.fail(res, errNoTask, nil)
	}

	servers := mcp.LoadConfig(o.cfg.WorkDir)

	// Research
	o.state = StateResearching
	research, err := o.runResearch(ctx, task, servers)
	if err != nil {
		return o.fail(res, errResearcherFailed, err)
	}
	res.Research = research

	// Planning
	o.state = StatePlanning
	plan, err := o.runPlan(ctx, task, servers)
	if err != nil {
		return o.fail(res, errPlannerFailed, err)
	}
	res.Plan = plan

	// Detail planning (optional)
	if o.cfg.DetailPlan {
		o.state = StateDetailPlanning
		detail, err := o.runDetailPlan(ctx, servers)
		if err != nil {
			return o.fail(res, errDetailPlannerFailed, err)
		}
		res.Detail = detail
	}

	// Implementation
	o.state = StateImplementing
	code, err := o.runCode(ctx, task, servers)
	if err != nil {
		return o.fail(res, errCoderFailed, err)
	}
	res.Code = code
	if !code.Success {
		return o.fail(res, errCoderFailed, nil)
	}

	// Review (optional; recorded, does not redefine success)
	if o.cfg.Review {
		o.state = StateReviewing
		review, err := o.runReview(ctx, servers)
		if err != nil {
			return o.fail(res, errReviewerFailed, err)
		}
		res.Review = review
	}

	o.state = StateDone
	res.Success = true
	return res
}

// runResearch runs the researcher and persists its artifact before
// returning; the planner locates the hand-off purely by path.
func (o *Orchestrator) runResearch(ctx context.Context, task string, servers map[string]mcp.ServerConfig) (*artifact.ResearchResult, error) {
	var research *artifact.ResearchResult
	err := o.phase("researcher", "Research", func() error {
		a := agent.NewResearcher(o.runner, o.dispatcher, o.stageOpts(o.cfg.Models.Researcher, servers))
		r, err := a.Run(ctx, task)
		if err != nil {
			return err
		}
		if err := r.Save(o.dir(artifact.ResearchDir)); err != nil {
			return err
		}
		research = r
		return nil
	})
	return research, err
}

func (o *Orchestrator) runPlan(ctx context.Context, task string, servers map[string]mcp.ServerConfig) (*artifact.Plan, error) {
	var plan *artifact.Plan
	err := o.phase("planner", "Planning", func() error {
		a := agent.NewPlanner(o.runner, o.dispatcher, o.stageOpts(o.cfg.Models.Planner, servers))
		p, err := a.Run(ctx, task, o.dir(artifact.ResearchDir))
		if err != nil {
			return err
		}
		if err := p.Save(o.dir(artifact.PlansDir)); err != nil {
			return err
		}
		plan = p
		return nil
	})
	return plan, err
}

func (o *Orchestrator) runDetailPlan(ctx context.Context, servers map[string]mcp.ServerConfig) (*artifact.DetailPlan, error) {
	var detail *artifact.DetailPlan
	err := o.phase("detail-planner", "Detail Planning", func() error {
		a := agent.NewDetailPlanner(o.runner, o.dispatcher, o.stageOpts(o.cfg.Models.DetailPlanner, servers))
		d, err := a.Run(ctx, o.dir(artifact.PlansDir), o.dir(artifact.DetailPlanDir))
		if err != nil {
			return err
		}
		detail = d
		return nil
	})
	return detail, err
}

func (o *Orchestrator) runCode(ctx context.Context, task string, servers map[string]mcp.ServerConfig) (*artifact.CodeResult, error) {
	var code *artifact.CodeResult
	err := o.phase("coder", "Implementation", func() error {
		a := agent.NewCoder(o.runner, o.dispatcher, o.stageOpts(o.cfg.Models.Coder, servers))
		planDir := o.dir(artifact.PlansDir)
		if o.cfg.DetailPlan {
			planDir = o.dir(artifact.DetailPlanDir)
		}
		c, err := a.Run(ctx, task, planDir)
		if err != nil {
			return err
		}
		code = c
		return nil
	})
	return code, err
}

func (o *Orchestrator) runReview(ctx context.Context, servers map[string]mcp.ServerConfig) (*artifact.ReviewResult, error) {
	var review *artifact.ReviewResult
	err := o.phase("reviewer", "Review", func() error {
		a := agent.NewReviewer(o.runner, o.dispatcher, o.stageOpts(o.cfg.Models.Reviewer, servers))
		planDir := o.dir(artifact.PlansDir)
		if o.cfg.DetailPlan {
			planDir = o.dir(artifact.DetailPlanDir)
		}
		r, err := a.Run(ctx, planDir)
		if err != nil {
			return err
		}
		if err := r.Save(o.dir(artifact.ReviewsDir)); err != nil {
			return err
		}
		review = r
		return nil
	})
	return review, err
}

// RunResearch runs the researcher stage standalone, persisting its
// artifact. Backs the `research` subcommand.
func (o *Orchestrator) RunResearch(ctx context.Context, task string) (*artifact.ResearchResult, error) {
	servers := mcp.LoadConfig(o.cfg.WorkDir)
	o.state = StateResearching
	r, err := o.runResearch(ctx, task, servers)
	if err != nil {
		o.state = StateFailed
		return nil, err
	}
	o.state = StateDone
	return r, nil
}

// RunPlan runs the planner stage standalone against previously
// persisted research. Backs the `plan` subcommand.
func (o *Orchestrator) RunPlan(ctx context.Context, task string) (*artifact.Plan, error) {
	servers := mcp.LoadConfig(o.cfg.WorkDir)
	o.state = StatePlanning
	p, err := o.runPlan(ctx, task, servers)
	if err != nil {
		o.state = StateFailed
		return nil, err
	}
	o.state = StateDone
	return p, nil
}

// RunReview runs the reviewer stage standalone against the persisted
// plans. Backs the `review` subcommand.
func (o *Orchestrator) RunReview(ctx context.Context) (*artifact.ReviewResult, error) {
	servers := mcp.LoadConfig(o.cfg.WorkDir)
	o.state = StateReviewing
	r, err := o.runReview(ctx, servers)
	if err != nil {
		o.state = StateFailed
		return nil, err
	}
	o.state = StateDone
	return r, nil
}
