// Package artifact defines the persisted hand-off records passed
// between pipeline stages. Each artifact knows how to parse itself
// from an agent's final text (best effort, never failing past the
// parse boundary), save itself under a well-known directory, and load
// back from that directory. The filesystem is the source of truth for
// stage hand-off; artifacts are never passed in memory across stages.
package artifact

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Directory names under the working directory, the hand-off contract
// between stages.
const (
	ResearchDir   = "research"
	PlansDir      = "plans"
	DetailPlanDir = "detail_plans"
	ReviewsDir    = "reviews"
)

var fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// extractFencedJSON returns the body of the first ```json fenced block
// in text, if any.
func extractFencedJSON(text string) (string, bool) {
	m := fencedJSONRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases s and collapses non-alphanumeric runs to single
// underscores, for use in artifact file names.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// writeFile writes data to dir/name, creating dir if needed.
func writeFile(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}
