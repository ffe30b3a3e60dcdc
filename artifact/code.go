package artifact

import (
	"encoding/json"
	"regexp"
	"strings"
)

// CodeResult is the coder stage's artifact. It is not persisted to a
// hand-off directory; its Success flag alone defines pipeline success.
type CodeResult struct {
	FilesCreated  []string `json:"files_created,omitempty"`
	FilesModified []string `json:"files_modified,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Success       bool     `json:"success"`
	Errors        []string `json:"errors,omitempty"`
}

// summaryFallbackLen bounds the summary taken from unstructured coder
// output.
const summaryFallbackLen = 1000

var (
	createdRe  = regexp.MustCompile("(?im)^\\s*(?:[-*]\\s*)?Created:\\s*`([^`]+)`")
	modifiedRe = regexp.MustCompile("(?im)^\\s*(?:[-*]\\s*)?Modified:\\s*`([^`]+)`")

	errorWordRe   = regexp.MustCompile(`(?i)\berrors?\b`)
	successWordRe = regexp.MustCompile(`(?i)\bsuccess\b`)
)

// ParseCodeResult builds a CodeResult from the coder's final text.
// Fallback chain: a fenced ```json block decodes to the typed result;
// otherwise Created:/Modified: file lines are extracted by pattern,
// the first part of the raw text becomes the summary, and the success
// flag comes from a word heuristic. Empty text yields nil.
func ParseCodeResult(text string) *CodeResult {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if body, ok := extractFencedJSON(text); ok {
		var r CodeResult
		if err := json.Unmarshal([]byte(body), &r); err == nil {
			return &r
		}
	}

	r := &CodeResult{}
	for _, m := range createdRe.FindAllStringSubmatch(text, -1) {
		r.FilesCreated = append(r.FilesCreated, m[1])
	}
	for _, m := range modifiedRe.FindAllStringSubmatch(text, -1) {
		r.FilesModified = append(r.FilesModified, m[1])
	}

	r.Summary = text
	if len(r.Summary) > summaryFallbackLen {
		r.Summary = r.Summary[:summaryFallbackLen]
	}

	r.Success = successHeuristic(text)
	return r
}

// successHeuristic decides the success flag for unstructured output.
// Any mention of "error"/"errors" fails the result unless the word
// "success" also appears; text mentioning neither is a success.
func successHeuristic(text string) bool {
	if !errorWordRe.MatchString(text) {
		return true
	}
	return successWordRe.MatchString(text)
}
