package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// TodoItem is one entry of the flat TODO.md checklist.
type TodoItem struct {
	Number int
	Label  string
	Done   bool
}

// DetailPlan is the detail-planner stage's artifact: the numbered part
// files the agent wrote under detail_plans/ plus the TODO checklist.
// The agent writes the part files itself; the orchestrator only
// verifies presence and loads the checklist.
type DetailPlan struct {
	Parts []string // file names, NN_<slug>.md, sorted by number
	Todos []TodoItem
}

var (
	partFileRe = regexp.MustCompile(`^(\d{2})_[a-z0-9_]+\.md$`)
	todoLineRe = regexp.MustCompile(`^- \[([ xX])\] (\d+): (.+)$`)
)

// LoadDetailPlan reads a DetailPlan from dir. A directory with no
// numbered part files is a failed stage, reported as an error.
func LoadDetailPlan(dir string) (*DetailPlan, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load detail plans: %w", err)
	}

	var p DetailPlan
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if partFileRe.MatchString(e.Name()) {
			p.Parts = append(p.Parts, e.Name())
		}
	}
	if len(p.Parts) == 0 {
		return nil, fmt.Errorf("no detail plan parts in %s", dir)
	}
	sort.Strings(p.Parts)

	if data, err := os.ReadFile(filepath.Join(dir, "TODO.md")); err == nil {
		p.Todos = ParseTodos(string(data))
	}
	return &p, nil
}

// ParseTodos parses a flat checklist, one `- [ ] NN: label` item per
// line. Lines not matching the form are skipped; nesting is not
// supported.
func ParseTodos(text string) []TodoItem {
	var items []TodoItem
	for _, line := range strings.Split(text, "\n") {
		m := todoLineRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		items = append(items, TodoItem{
			Number: n,
			Label:  m[3],
			Done:   m[1] != " ",
		})
	}
	return items
}

// FormatTodos renders the checklist back to TODO.md form.
func FormatTodos(items []TodoItem) string {
	var b strings.Builder
	for _, it := range items {
		mark := " "
		if it.Done {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %02d: %s\n", mark, it.Number, it.Label)
	}
	return b.String()
}

// SaveTodos writes the checklist to dir/TODO.md.
func (p *DetailPlan) SaveTodos(dir string) error {
	return writeFile(dir, "TODO.md", []byte(FormatTodos(p.Todos)))
}

// PartFileName builds the numbered part file name for a label, e.g.
// PartFileName(1, "Add health check") == "01_add_health_check.md".
func PartFileName(number int, label string) string {
	return fmt.Sprintf("%02d_%s.md", number, slugify(label))
}
