package scoring

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Category is the semantic grouping of a raw state name.
type Category string

const (
	CategoryAssigned   Category = "assigned"
	CategoryProductive Category = "productive"
	CategoryPaused     Category = "paused"
	CategoryCompleted  Category = "completed"
	CategoryIgnored    Category = "ignored"
)

// CategoryMap partitions raw state names into the five categories.
// State names are case-sensitive; unmapped names resolve to the default.
type CategoryMap struct {
	byState  map[string]Category
	fallback Category
}

// NewCategoryMap builds a validated map from the five configured lists.
// A state name appearing in more than one list is a configuration error;
// every overlap is reported, not just the first.
func NewCategoryMap(assigned, productive, paused, completed, ignored []string, fallback Category) (*CategoryMap, error) {
	if fallback == "" {
		fallback = CategoryProductive
	}

	m := &CategoryMap{
		byState:  make(map[string]Category),
		fallback: fallback,
	}

	var errs *multierror.Error
	add := func(states []string, cat Category) {
		for _, s := range states {
			if s == "" {
				continue
			}
			if prev, ok := m.byState[s]; ok && prev != cat {
				errs = multierror.Append(errs, fmt.Errorf("state %q mapped to both %q and %q", s, prev, cat))
				continue
			}
			m.byState[s] = cat
		}
	}

	add(assigned, CategoryAssigned)
	add(productive, CategoryProductive)
	add(paused, CategoryPaused)
	add(completed, CategoryCompleted)
	add(ignored, CategoryIgnored)

	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("overlapping state categories: %w", err)
	}
	return m, nil
}

// CategoryOf resolves a state name. The second return reports whether the
// name was explicitly configured; unmapped names fall back to the default
// category so no transition is ever dropped.
func (m *CategoryMap) CategoryOf(state string) (Category, bool) {
	if cat, ok := m.byState[state]; ok {
		return cat, true
	}
	return m.fallback, false
}

// HasCompleted reports whether any state maps to the Completed category.
// An empty completion set makes completion bonuses unreachable, which the
// config layer treats as a fail-closed condition.
func (m *CategoryMap) HasCompleted() bool {
	for _, cat := range m.byState {
		if cat == CategoryCompleted {
			return true
		}
	}
	return false
}

// Len returns the number of explicitly mapped state names.
func (m *CategoryMap) Len() int {
	return len(m.byState)
}
