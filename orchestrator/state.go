// Package orchestrator sequences the agent pipeline: research,
// planning, optional detail planning, implementation, optional review.
// It persists each stage's artifact to the filesystem before the next
// stage starts, emits the authoritative phase events, and reports the
// outcome as data on a TaskResult rather than as an error.
package orchestrator

import "fmt"

// State represents the pipeline's current stage.
type State int

const (
	// StateIdle indicates no task is running.
	StateIdle State = iota
	// StateResearching indicates the researcher agent is active.
	StateResearching
	// StatePlanning indicates the planner agent is active.
	StatePlanning
	// StateDetailPlanning indicates the detail-planner agent is active.
	StateDetailPlanning
	// StateImplementing indicates the coder agent is active.
	StateImplementing
	// StateReviewing indicates the reviewer agent is active.
	StateReviewing
	// StateDone indicates the task completed successfully.
	StateDone
	// StateFailed indicates the task failed; reachable from any stage.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResearching:
		return "researching"
	case StatePlanning:
		return "planning"
	case StateDetailPlanning:
		return "detail_planning"
	case StateImplementing:
		return "implementing"
	case StateReviewing:
		return "reviewing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// IsTerminal returns true for done and failed.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}
