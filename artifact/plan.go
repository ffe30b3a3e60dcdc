package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Plan is the planner stage's artifact.
type Plan struct {
	Task          string   `json:"task,omitempty"`
	Requirements  []string `json:"requirements,omitempty"`
	FilesToCreate []string `json:"files_to_create,omitempty"`
	FilesToModify []string `json:"files_to_modify,omitempty"`
	Steps         []string `json:"implementation_steps,omitempty"`
	Dependencies  []string `json:"dependencies,omitempty"`
	Notes         string   `json:"notes,omitempty"`

	Content string `json:"-"`
}

// ParsePlan builds a Plan from the planner's final text. Same policy
// as ParseResearch: fenced JSON fills the structured fields, the raw
// text is kept verbatim, empty text yields nil.
func ParsePlan(text string) *Plan {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	p := &Plan{Content: text}
	if body, ok := extractFencedJSON(text); ok {
		_ = json.Unmarshal([]byte(body), p)
	}
	return p
}

// Save writes plan.md and plan.json under dir.
func (p *Plan) Save(dir string) error {
	content := p.Content
	if content == "" {
		content = p.renderMarkdown()
	}
	if err := writeFile(dir, "plan.md", []byte(content)); err != nil {
		return fmt.Errorf("save plan.md: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if err := writeFile(dir, "plan.json", data); err != nil {
		return fmt.Errorf("save plan.json: %w", err)
	}
	return nil
}

// LoadPlan reads a Plan back from dir.
func LoadPlan(dir string) (*Plan, error) {
	var p Plan
	data, err := os.ReadFile(filepath.Join(dir, "plan.json"))
	if err == nil {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse plan.json: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	md, err := os.ReadFile(filepath.Join(dir, "plan.md"))
	if err != nil {
		return nil, fmt.Errorf("load plan.md: %w", err)
	}
	p.Content = string(md)
	return &p, nil
}

func (p *Plan) renderMarkdown() string {
	var b strings.Builder
	b.WriteString("# Implementation Plan\n")
	if p.Task != "" {
		fmt.Fprintf(&b, "\n## Task\n\n%s\n", p.Task)
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
	writeSection("Requirements", p.Requirements)
	writeSection("Files to Create", p.FilesToCreate)
	writeSection("Files to Modify", p.FilesToModify)
	if len(p.Steps) > 0 {
		b.WriteString("\n## Implementation Steps\n\n")
		for i, step := range p.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}
	writeSection("Dependencies", p.Dependencies)
	if p.Notes != "" {
		fmt.Fprintf(&b, "\n## Notes\n\n%s\n", p.Notes)
	}
	return b.String()
}
