// Package relevance decides which resolved locations are worth reporting.
package relevance

import (
	"context"
	"fmt"

	"geotext/internal/domain"
)

// Rule is the (class, type) group significance rule. A group is significant when
// it has more than MinGroupCount members and neither an excluded type nor an
// excluded class, or when its class or type is explicitly allowed.
type Rule struct {
	MinGroupCount   int
	ExcludedTypes   []string
	ExcludedClasses []string
	AllowedClasses  []string
	AllowedTypes    []string
}

// DefaultRule returns the rule used when nothing is configured.
func DefaultRule() Rule {
	return Rule{
		MinGroupCount:   5,
		ExcludedTypes:   []string{"continent"},
		ExcludedClasses: []string{"highway"},
		AllowedClasses:  []string{"natural", "waterway"},
		AllowedTypes:    []string{"sea", "ocean", "lighthouse"},
	}
}

// Filter applies a Rule to location records.
type Filter struct {
	rule Rule

	excludedTypes   map[string]struct{}
	excludedClasses map[string]struct{}
	allowedClasses  map[string]struct{}
	allowedTypes    map[string]struct{}
}

// New creates a Filter from rule.
func New(rule Rule) *Filter {
	return &Filter{
		rule:            rule,
		excludedTypes:   set(rule.ExcludedTypes),
		excludedClasses: set(rule.ExcludedClasses),
		allowedClasses:  set(rule.AllowedClasses),
		allowedTypes:    set(rule.AllowedTypes),
	}
}

type group struct{ class, typ string }

// Significant returns the names of records that fall in significant groups.
func (f *Filter) Significant(records []domain.LocationRecord) map[string]struct{} {
	counts := make(map[group]int)
	for _, r := range records {
		counts[group{r.Class, r.Type}]++
	}
	out := make(map[string]struct{})
	for _, r := range records {
		g := group{r.Class, r.Type}
		if f.significant(g, counts[g]) {
			out[r.Name] = struct{}{}
		}
	}
	return out
}

func (f *Filter) significant(g group, count int) bool {
	if _, ok := f.allowedClasses[g.class]; ok {
		return true
	}
	if _, ok := f.allowedTypes[g.typ]; ok {
		return true
	}
	if count <= f.rule.MinGroupCount {
		return false
	}
	if _, ok := f.excludedTypes[g.typ]; ok {
		return false
	}
	_, excluded := f.excludedClasses[g.class]
	return !excluded
}

// SignificantNames evaluates the rule over every known location in store.
func (f *Filter) SignificantNames(ctx context.Context, store domain.LocationStore) (map[string]struct{}, error) {
	var records []domain.LocationRecord
	err := store.View(ctx, func(tx domain.LocationTx) error {
		var err error
		records, err = tx.Locations()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing known locations: %w", err)
	}
	return f.Significant(records), nil
}

func set(items []string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}
