package annotate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"geotext/internal/domain"
)

type rule struct {
	label domain.Label
	re    *regexp.Regexp
}

// ruler labels text matching fixed patterns. Earlier patterns win over later ones,
// and every pattern match wins over an overlapping model entity.
type ruler struct {
	rules []rule
}

func newRuler(patterns []Pattern) (*ruler, error) {
	r := &ruler{}
	for _, p := range patterns {
		expr := strings.TrimSpace(p.Pattern)
		if expr == "" {
			return nil, fmt.Errorf("entity pattern for %s is empty: %w", p.Label, domain.ErrInvalidInput)
		}
		re, err := regexp.Compile(`\b(?:` + expr + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("compiling entity pattern %q: %w: %w", expr, domain.ErrInvalidInput, err)
		}
		r.rules = append(r.rules, rule{label: p.Label, re: re})
	}
	return r, nil
}

type span struct {
	start, end int
	entity     domain.Entity
}

// apply merges ruler matches with model entities in text order.
func (r *ruler) apply(text string, model []domain.Entity) []domain.Entity {
	if r == nil || len(r.rules) == 0 {
		return model
	}

	var fixed []span
	for _, rl := range r.rules {
		for _, loc := range rl.re.FindAllStringIndex(text, -1) {
			if overlapsAny(fixed, loc[0], loc[1]) {
				continue
			}
			fixed = append(fixed, span{
				start:  loc[0],
				end:    loc[1],
				entity: domain.Entity{Span: text[loc[0]:loc[1]], Label: rl.label},
			})
		}
	}

	out := append([]span(nil), fixed...)
	cursor := 0
	for _, ent := range model {
		start := locate(text, ent.Span, cursor)
		if start < 0 {
			// Span text not found verbatim; keep it unless a fixed phrase covers it.
			if !mentionedIn(fixed, ent.Span) {
				out = append(out, span{start: len(text), end: len(text), entity: ent})
			}
			continue
		}
		end := start + len(ent.Span)
		cursor = end
		if overlapsAny(fixed, start, end) {
			continue
		}
		out = append(out, span{start: start, end: end, entity: ent})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].start < out[j].start })
	ents := make([]domain.Entity, len(out))
	for i, s := range out {
		ents[i] = s.entity
	}
	return ents
}

func locate(text, needle string, from int) int {
	if needle == "" || from > len(text) {
		return -1
	}
	if i := strings.Index(text[from:], needle); i >= 0 {
		return from + i
	}
	return strings.Index(text, needle)
}

func overlapsAny(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}

func mentionedIn(spans []span, text string) bool {
	for _, s := range spans {
		if strings.Contains(s.entity.Span, text) || strings.Contains(text, s.entity.Span) {
			return true
		}
	}
	return false
}
