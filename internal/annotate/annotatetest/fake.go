// Package annotatetest provides a deterministic domain.Annotator for tests.
package annotatetest

import (
	"regexp"
	"sort"
	"strings"

	"geotext/internal/domain"
)

var (
	wordRE     = regexp.MustCompile(`\p{L}+`)
	sentenceRE = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

// Annotator labels phrases from a fixed gazetteer. Lemmas are the lower-cased
// words of the text minus a short stopword list.
type Annotator struct {
	entries   []entry
	stopwords map[string]struct{}
}

type entry struct {
	label domain.Label
	re    *regexp.Regexp
}

var _ domain.Annotator = (*Annotator)(nil)

// New returns an annotator that knows no entities.
func New() *Annotator {
	stop := make(map[string]struct{})
	for _, w := range strings.Fields("a an the and or of to in on at was were is it he she they for with from by") {
		stop[w] = struct{}{}
	}
	return &Annotator{stopwords: stop}
}

// With labels every whole-word occurrence of phrase.
func (a *Annotator) With(label domain.Label, phrases ...string) *Annotator {
	for _, p := range phrases {
		a.entries = append(a.entries, entry{
			label: label,
			re:    regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`),
		})
	}
	return a
}

// Annotate implements domain.Annotator.
func (a *Annotator) Annotate(text string) (domain.Annotation, error) {
	type hit struct {
		at int
		e  domain.Entity
	}
	var hits []hit
	for _, en := range a.entries {
		for _, loc := range en.re.FindAllStringIndex(text, -1) {
			hits = append(hits, hit{at: loc[0], e: domain.Entity{Span: text[loc[0]:loc[1]], Label: en.label}})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at < hits[j].at })

	var ann domain.Annotation
	for _, h := range hits {
		ann.Entities = append(ann.Entities, h.e)
	}
	ann.Lemmas, _ = a.Lemmatize(text)
	for _, s := range sentenceRE.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			ann.Sentences = append(ann.Sentences, s)
		}
	}
	return ann, nil
}

// Lemmatize implements domain.Annotator.
func (a *Annotator) Lemmatize(text string) ([]string, error) {
	var out []string
	for _, w := range wordRE.FindAllString(strings.ToLower(text), -1) {
		if _, ok := a.stopwords[w]; ok {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}
