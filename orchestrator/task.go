package orchestrator

import (
	"fmt"
	"regexp"

	"github.com/bazelment/codedozer/artifact"
)

// TaskResult is the immutable outcome of one pipeline run. Callers
// inspect Success and Error rather than catching an error value;
// ordinary pipeline failure is data, not a raised error.
type TaskResult struct {
	Task     string
	Research *artifact.ResearchResult
	Plan     *artifact.Plan
	Detail   *artifact.DetailPlan
	Code     *artifact.CodeResult
	Review   *artifact.ReviewResult
	Success  bool
	Error    string
}

var issueURLRe = regexp.MustCompile(`^https://github\.com/[^/]+/[^/]+/issues/[0-9]+$`)

// ValidIssueURL reports whether u is a GitHub issue URL of the form
// https://github.com/{owner}/{repo}/issues/{number}.
func ValidIssueURL(u string) bool {
	return issueURLRe.MatchString(u)
}

// BuildTaskDescription assembles the task text from an optional issue
// URL and optional free text. Neither present is an error.
func BuildTaskDescription(issueURL, task string) (string, error) {
	switch {
	case issueURL != "" && task != "":
		return fmt.Sprintf("Implement GitHub issue: %s\n\nAdditional context: %s", issueURL, task), nil
	case issueURL != "":
		return fmt.Sprintf("Implement GitHub issue: %s", issueURL), nil
	case task != "":
		return task, nil
	default:
		return "", fmt.Errorf("no task or issue URL provided")
	}
}
