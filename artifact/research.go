package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Finding is one researched topic.
type Finding struct {
	Topic   string   `json:"topic"`
	Summary string   `json:"summary"`
	Sources []string `json:"sources,omitempty"`
}

// ResearchResult is the researcher stage's artifact.
type ResearchResult struct {
	Requirements     string    `json:"original_requirements,omitempty"`
	Analysis         []string  `json:"requirements_analysis,omitempty"`
	Agenda           []string  `json:"research_agenda,omitempty"`
	Findings         []Finding `json:"findings,omitempty"`
	TechnicalContext []string  `json:"technical_context,omitempty"`
	Recommendations  []string  `json:"recommendations,omitempty"`
	Notes            string    `json:"notes,omitempty"`

	// Content is the raw markdown the agent produced; it is the
	// human-readable research.md and is not duplicated into the JSON.
	Content string `json:"-"`
}

// ParseResearch builds a ResearchResult from the researcher's final
// text. A fenced ```json block populates the structured fields; the
// full text is always kept as Content. Empty text yields nil.
func ParseResearch(text string) *ResearchResult {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	r := &ResearchResult{Content: text}
	if body, ok := extractFencedJSON(text); ok {
		// Parse errors leave the structured fields empty; the raw
		// content still makes a usable artifact.
		_ = json.Unmarshal([]byte(body), r)
	}
	return r
}

// Save writes research.md and research.json under dir.
func (r *ResearchResult) Save(dir string) error {
	content := r.Content
	if content == "" {
		content = r.renderMarkdown()
	}
	if err := writeFile(dir, "research.md", []byte(content)); err != nil {
		return fmt.Errorf("save research.md: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal research: %w", err)
	}
	if err := writeFile(dir, "research.json", data); err != nil {
		return fmt.Errorf("save research.json: %w", err)
	}
	return nil
}

// LoadResearch reads a ResearchResult back from dir.
func LoadResearch(dir string) (*ResearchResult, error) {
	var r ResearchResult
	data, err := os.ReadFile(filepath.Join(dir, "research.json"))
	if err == nil {
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("parse research.json: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	md, err := os.ReadFile(filepath.Join(dir, "research.md"))
	if err != nil {
		return nil, fmt.Errorf("load research.md: %w", err)
	}
	r.Content = string(md)
	return &r, nil
}

func (r *ResearchResult) renderMarkdown() string {
	var b strings.Builder
	b.WriteString("# Research\n")
	if r.Requirements != "" {
		fmt.Fprintf(&b, "\n## Requirements\n\n%s\n", r.Requirements)
	}
	writeSection := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n## %s\n\n", title)
		for _, it := range items {
			fmt.Fprintf(&b, "- %s\n", it)
		}
	}
	writeSection("Analysis", r.Analysis)
	writeSection("Research Agenda", r.Agenda)
	if len(r.Findings) > 0 {
		b.WriteString("\n## Findings\n")
		for _, f := range r.Findings {
			fmt.Fprintf(&b, "\n### %s\n\n%s\n", f.Topic, f.Summary)
			for _, src := range f.Sources {
				fmt.Fprintf(&b, "- %s\n", src)
			}
		}
	}
	writeSection("Technical Context", r.TechnicalContext)
	writeSection("Recommendations", r.Recommendations)
	if r.Notes != "" {
		fmt.Fprintf(&b, "\n## Notes\n\n%s\n", r.Notes)
	}
	return b.String()
}
