package pipeline

import (
	"strings"

	"fintrack/internal/core"
)

// Taxonomy is a validated snapshot of the Expense categories used for one
// scan. It always holds the fallback entry.
type Taxonomy struct {
	entries  []core.Category
	fallback core.Category
}

// NewTaxonomy checks the snapshot invariants: at least one entry and an
// entry named exactly "Other".
func NewTaxonomy(entries []core.Category) (*Taxonomy, error) {
	if len(entries) == 0 {
		return nil, core.ErrEmptyTaxonomy
	}
	fallback, ok := findFallback(entries)
	if !ok {
		return nil, core.ErrTaxonomyIntegrity
	}
	return &Taxonomy{entries: entries, fallback: fallback}, nil
}

// Resolve maps a free-text label onto a taxonomy entry.
func (t *Taxonomy) Resolve(label string) core.Category {
	if c, ok := match(label, t.entries); ok {
		return c
	}
	return t.fallback
}

func (t *Taxonomy) Fallback() core.Category { return t.fallback }

// Names lists the entry names in taxonomy order.
func (t *Taxonomy) Names() []string {
	names := make([]string, len(t.entries))
	for i, c := range t.entries {
		names[i] = c.Name
	}
	return names
}

// Resolve matches label case-insensitively against the entry names; the
// first match in order wins. Unmatched labels resolve to "Other", and a
// taxonomy without it yields core.ErrTaxonomyIntegrity.
func Resolve(label string, entries []core.Category) (core.Category, error) {
	if c, ok := match(label, entries); ok {
		return c, nil
	}
	if c, ok := findFallback(entries); ok {
		return c, nil
	}
	return core.Category{}, core.ErrTaxonomyIntegrity
}

func match(label string, entries []core.Category) (core.Category, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return core.Category{}, false
	}
	for _, c := range entries {
		if strings.EqualFold(c.Name, label) {
			return c, true
		}
	}
	return core.Category{}, false
}

func findFallback(entries []core.Category) (core.Category, bool) {
	for _, c := range entries {
		if c.Name == core.FallbackCategoryName {
			return c, true
		}
	}
	return core.Category{}, false
}
