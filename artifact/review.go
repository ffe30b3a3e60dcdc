package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReviewFinding is one issue raised by the reviewer.
type ReviewFinding struct {
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	File        string `json:"file,omitempty"`
	Line        int    `json:"line,omitempty"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// ReviewResult is the reviewer stage's artifact. The review outcome is
// recorded on the task result but does not redefine pipeline success.
type ReviewResult struct {
	Passed   bool            `json:"passed"`
	Summary  string          `json:"summary"`
	Findings []ReviewFinding `json:"findings,omitempty"`

	Content string `json:"-"`
}

// ParseReview builds a ReviewResult from the reviewer's final text.
// The verdict may arrive as a fenced ```json block or as a bare JSON
// document; anything else yields nil (total parse failure).
func ParseReview(text string) *ReviewResult {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	body, ok := extractFencedJSON(text)
	if !ok {
		body = strings.TrimSpace(text)
	}

	var r ReviewResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil
	}
	r.Content = text
	return &r
}

// Save writes review.md and review.json under dir.
func (r *ReviewResult) Save(dir string) error {
	content := r.Content
	if content == "" {
		content = r.renderMarkdown()
	}
	if err := writeFile(dir, "review.md", []byte(content)); err != nil {
		return fmt.Errorf("save review.md: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}
	if err := writeFile(dir, "review.json", data); err != nil {
		return fmt.Errorf("save review.json: %w", err)
	}
	return nil
}

// LoadReview reads a ReviewResult back from dir.
func LoadReview(dir string) (*ReviewResult, error) {
	data, err := os.ReadFile(filepath.Join(dir, "review.json"))
	if err != nil {
		return nil, fmt.Errorf("load review.json: %w", err)
	}
	var r ReviewResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse review.json: %w", err)
	}
	if md, err := os.ReadFile(filepath.Join(dir, "review.md")); err == nil {
		r.Content = string(md)
	}
	return &r, nil
}

func (r *ReviewResult) renderMarkdown() string {
	var b strings.Builder
	verdict := "FAILED"
	if r.Passed {
		verdict = "PASSED"
	}
	fmt.Fprintf(&b, "# Review: %s\n\n%s\n", verdict, r.Summary)
	for _, f := range r.Findings {
		fmt.Fprintf(&b, "\n## [%s] %s\n\n%s\n", f.Severity, f.Category, f.Description)
		if f.File != "" {
			fmt.Fprintf(&b, "\nFile: %s", f.File)
			if f.Line > 0 {
				fmt.Fprintf(&b, ":%d", f.Line)
			}
			b.WriteString("\n")
		}
		if f.Suggestion != "" {
			fmt.Fprintf(&b, "\nSuggestion: %s\n", f.Suggestion)
		}
	}
	return b.String()
}
