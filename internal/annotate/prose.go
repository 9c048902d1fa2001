// Package annotate labels entity spans and produces lemma sequences for paragraphs.
package annotate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
	"github.com/kljensen/snowball/english"

	"geotext/internal/domain"
)

// Pattern is a regular expression whose matches are always labeled, overriding the
// statistical model. Matches are anchored on word boundaries.
type Pattern struct {
	Label   domain.Label
	Pattern string
}

// Options configures the annotator.
type Options struct {
	Patterns []Pattern
	// Stopwords replaces the default stopword list when non-empty.
	Stopwords []string
}

// Annotator is a domain.Annotator backed by prose for tokens, sentences and
// named entities, with snowball stems standing in for lemmas.
type Annotator struct {
	model     *prose.Model
	ruler     *ruler
	stopwords map[string]struct{}
}

var _ domain.Annotator = (*Annotator)(nil)

// New creates an Annotator. The tagger and entity model are loaded once here
// and shared by every call. The Annotator is safe for concurrent use.
func New(opts Options) (*Annotator, error) {
	r, err := newRuler(opts.Patterns)
	if err != nil {
		return nil, err
	}
	model, err := loadModel()
	if err != nil {
		return nil, err
	}
	words := opts.Stopwords
	if len(words) == 0 {
		words = defaultStopwords
	}
	stop := make(map[string]struct{}, len(words))
	for _, w := range words {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Annotator{model: model, ruler: r, stopwords: stop}, nil
}

// Annotate extracts entities, lemmas and sentences from text.
func (a *Annotator) Annotate(text string) (domain.Annotation, error) {
	doc, err := prose.NewDocument(text, prose.UsingModel(a.model))
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("annotating text: %w", err)
	}

	var model []domain.Entity
	for _, ent := range doc.Entities() {
		model = append(model, domain.Entity{Span: ent.Text, Label: domain.ParseLabel(ent.Label)})
	}

	sentences := make([]string, 0, len(doc.Sentences()))
	for _, s := range doc.Sentences() {
		sentences = append(sentences, s.Text)
	}

	return domain.Annotation{
		Entities:  a.ruler.apply(text, model),
		Lemmas:    a.lemmas(doc.Tokens()),
		Sentences: sentences,
	}, nil
}

// Lemmatize returns the filtered lemma sequence of text.
func (a *Annotator) Lemmatize(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.UsingModel(a.model),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("lemmatizing text: %w", err)
	}
	return a.lemmas(doc.Tokens()), nil
}

// loadModel builds prose's default tagger and entity model. NewDocument does
// this on every call unless a model is supplied.
func loadModel() (*prose.Model, error) {
	doc, err := prose.NewDocument("", prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("loading annotation model: %w", err)
	}
	return doc.Model, nil
}

// lemmas drops whitespace, punctuation, numbers and stopwords, then stems.
func (a *Annotator) lemmas(tokens []prose.Token) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Tag == "CD" {
			continue
		}
		w := strings.ToLower(strings.TrimSpace(tok.Text))
		if !isWord(w) {
			continue
		}
		if _, ok := a.stopwords[w]; ok {
			continue
		}
		out = append(out, english.Stem(w, false))
	}
	return out
}

// isWord is true for tokens made of letters, allowing inner apostrophes and hyphens.
func isWord(s string) bool {
	if s == "" {
		return false
	}
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == '\'' || r == '’' || r == '-':
		default:
			return false
		}
	}
	return letters > 0
}

var defaultStopwords = []string{
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
	"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these",
	"those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into",
	"about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own",
	"same", "too", "very", "can", "will", "just", "should", "now", "not", "no", "nor", "i", "me", "my",
	"we", "our", "you", "your", "he", "him", "his", "she", "her", "they", "them", "their", "what",
	"which", "who", "whom", "when", "where", "why", "how", "all", "any", "both", "each", "few", "more",
	"most", "other", "some", "had", "has", "have", "having", "do", "does", "did", "would", "could",
	"shall", "may", "might", "must", "there", "here", "only", "also", "upon", "'s", "n't",
}
