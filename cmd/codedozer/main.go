// Command codedozer turns a natural-language task or a GitHub issue
// into code changes by running a pipeline of LLM-driven agents:
// researcher, planner, optional detail planner, coder, and optional
// reviewer. Stage artifacts persist under the working directory so
// every hand-off is inspectable.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bazelment/codedozer/agent"
	"github.com/bazelment/codedozer/artifact"
	"github.com/bazelment/codedozer/orchestrator"
	"github.com/bazelment/codedozer/stream"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	issueURL     string
	workDir      string
	stream       bool
	showThinking bool
	showTools    bool
	jsonEvents   bool
	detailPlan   bool
	review       bool
	interactive  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "codedozer [flags] [task...]",
		Short: "Run an agent pipeline that implements a task end to end",
		Long: `codedozer runs a research -> plan -> implement pipeline of LLM-driven
agents against the current repository. Each stage's artifact is
persisted under the working directory (research/, plans/, ...) before
the next stage starts.`,
		Example: `  codedozer "Add a health-check endpoint"
  codedozer --issue https://github.com/acme/widgets/issues/42
  codedozer --issue https://github.com/acme/widgets/issues/42 "prefer small diffs"
  codedozer --json-events "Add a health-check endpoint" | jq .type
  codedozer --interactive`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runRoot(args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.issueURL, "issue", "", "GitHub issue URL to implement")
	cmd.Flags().StringVar(&flags.workDir, "dir", "", "Working directory (defaults to current directory)")
	cmd.Flags().BoolVar(&flags.stream, "stream", false, "Stream incremental token deltas instead of coalesced snapshots")
	cmd.Flags().BoolVar(&flags.showThinking, "show-thinking", false, "Print the agents' reasoning traces")
	cmd.Flags().BoolVar(&flags.showTools, "show-tools", false, "Print tool invocations and truncated results")
	cmd.Flags().BoolVar(&flags.jsonEvents, "json-events", false, "Emit events as JSON lines instead of human output")
	cmd.Flags().BoolVar(&flags.detailPlan, "detail-plan", false, "Decompose the plan into numbered parts before coding")
	cmd.Flags().BoolVar(&flags.review, "review", false, "Review the implemented changes after coding")
	cmd.Flags().BoolVar(&flags.interactive, "interactive", false, "Read tasks interactively, one pipeline run per line")

	cmd.AddCommand(newResearchCmd(flags))
	cmd.AddCommand(newPlanCmd(flags))
	cmd.AddCommand(newReviewCmd(flags))

	return cmd
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// setup resolves working directory and repo config, merges flags, and
// wires the dispatcher with the selected renderer.
func setup(flags *rootFlags) *orchestrator.Orchestrator {
	workDir := flags.workDir
	if workDir == "" {
		workDir = "."
	}

	repoCfg, err := orchestrator.LoadRepoConfig(workDir)
	if err != nil {
		fatalf("invalid %s: %v", orchestrator.ConfigFileName, err)
	}

	d := stream.NewDispatcher()
	if flags.jsonEvents {
		stream.NewJSONRenderer(os.Stdout).Attach(d)
	} else {
		stream.NewHumanRenderer(os.Stdout, os.Stderr, stream.HumanOptions{
			ShowThinking: flags.showThinking || repoCfg.ShowThinking,
			ShowTools:    flags.showTools || repoCfg.ShowTools,
		}).Attach(d)
	}

	return orchestrator.New(&agent.CLIRunner{}, d, orchestrator.Config{
		WorkDir:        workDir,
		Models:         repoCfg.Models,
		DetailPlan:     flags.detailPlan || repoCfg.DetailPlan,
		Review:         flags.review || repoCfg.Review,
		IncludePartial: flags.stream,
	})
}

func runRoot(args []string, flags *rootFlags) {
	if flags.issueURL != "" && !orchestrator.ValidIssueURL(flags.issueURL) {
		fatalf("invalid GitHub issue URL: %s", flags.issueURL)
	}

	orch := setup(flags)

	if flags.interactive {
		runInteractive(orch)
		return
	}

	task, err := orchestrator.BuildTaskDescription(flags.issueURL, strings.Join(args, " "))
	if err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res := orch.RunTask(ctx, task)
	if !res.Success {
		fmt.Fprintf(os.Stderr, "\nTask failed: %s\n", res.Error)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "\nTask completed successfully.")
}

// runInteractive reads one task per line and runs the full pipeline
// for each. An interrupt aborts the in-flight task and returns to the
// prompt; EOF or "exit" quits.
func runInteractive(orch *orchestrator.Orchestrator) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "Task> ")
		if !scanner.Scan() {
			fmt.Fprintln(os.Stderr)
			return
		}
		task := strings.TrimSpace(scanner.Text())
		if task == "" {
			continue
		}
		if task == "exit" || task == "quit" {
			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		res := orch.RunTask(ctx, task)
		interrupted := errors.Is(ctx.Err(), context.Canceled)
		stop()

		switch {
		case interrupted:
			fmt.Fprintln(os.Stderr, "\nInterrupted.")
		case res.Success:
			fmt.Fprintln(os.Stderr, "\nTask completed successfully.")
		default:
			fmt.Fprintf(os.Stderr, "\nTask failed: %s\n", res.Error)
		}
	}
}

func newResearchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "research <task...>",
		Short:   "Run only the researcher stage and persist its artifact",
		Example: `  codedozer research "Add a health-check endpoint"`,
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			orch := setup(flags)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			if _, err := orch.RunResearch(ctx, strings.Join(args, " ")); err != nil {
				fatalf("research failed: %v", err)
			}
			fmt.Fprintf(os.Stderr, "\nResearch saved under %s/\n", artifact.ResearchDir)
		},
	}
}

func newPlanCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [task...]",
		Short: "Run only the planner stage against persisted research",
		Long: `Runs the planner against the research/ artifact from an earlier
research run. With no task argument, the task is taken from the
persisted research.`,
		Example: `  codedozer plan
  codedozer plan "Add a health-check endpoint"`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			orch := setup(flags)

			task := strings.Join(args, " ")
			if task == "" {
				workDir := flags.workDir
				if workDir == "" {
					workDir = "."
				}
				research, err := artifact.LoadResearch(filepath.Join(workDir, artifact.ResearchDir))
				if err != nil {
					fatalf("no task given and no persisted research: %v", err)
				}
				task = research.Requirements
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			if _, err := orch.RunPlan(ctx, task); err != nil {
				fatalf("planning failed: %v", err)
			}
			fmt.Fprintf(os.Stderr, "\nPlan saved under %s/\n", artifact.PlansDir)
		},
	}
}

func newReviewCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "review",
		Short:   "Review the working tree against the persisted plans",
		Example: `  codedozer review`,
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			orch := setup(flags)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			review, err := orch.RunReview(ctx)
			if err != nil {
				fatalf("review failed: %v", err)
			}

			verdict := "FAILED"
			if review.Passed {
				verdict = "PASSED"
			}
			fmt.Fprintf(os.Stderr, "\nReview %s: %s\n", verdict, review.Summary)
			if !review.Passed {
				os.Exit(1)
			}
		},
	}
}
