package domain

import "context"

// Document is a narrative text split into chapters, with whitelisted header metadata.
type Document struct {
	Metadata map[string]string
	Chapters []Chapter
}

// Paragraphs returns every paragraph of the document in reading order.
func (d Document) Paragraphs() []Paragraph {
	var out []Paragraph
	for _, ch := range d.Chapters {
		out = append(out, ch.Paragraphs...)
	}
	return out
}

// Chapter is a headed run of paragraphs.
type Chapter struct {
	Index      int
	Header     string
	Paragraphs []Paragraph
}

// Paragraph is a normalized block of prose together with what the annotator found in it.
type Paragraph struct {
	Chapter             int
	Index               int
	Text                string
	Locations           []string
	People              []string
	MentionsProtagonist bool
	Lemmas              []string
}

// Label classifies an entity span.
type Label string

const (
	LabelGPE    Label = "GPE"
	LabelLOC    Label = "LOC"
	LabelPerson Label = "PERSON"
	LabelOther  Label = "OTHER"
)

// ParseLabel maps an annotator label onto the labels this system cares about.
func ParseLabel(s string) Label {
	switch Label(s) {
	case LabelGPE, LabelLOC, LabelPerson:
		return Label(s)
	}
	return LabelOther
}

// IsPlace reports whether the label denotes a place mention.
func (l Label) IsPlace() bool { return l == LabelGPE || l == LabelLOC }

// Entity is a labeled span of text.
type Entity struct {
	Span  string
	Label Label
}

// Annotation is everything the annotator extracts from one piece of text.
type Annotation struct {
	Entities  []Entity
	Lemmas    []string
	Sentences []string
}

// Annotator labels entity spans and produces filtered lemma sequences.
// Implementations must be safe for concurrent use.
type Annotator interface {
	Annotate(text string) (Annotation, error)
	Lemmatize(text string) ([]string, error)
}

// GeocodeResult is a single candidate returned by a geocoding service.
type GeocodeResult struct {
	Lon         float64
	Lat         float64
	Class       string
	Type        string
	DisplayName string
}

// Geocoder looks up a place name. An empty result set means the name is unknown.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]GeocodeResult, error)
}

// MentionKey identifies a row of the location report.
type MentionKey struct {
	Name        string
	Protagonist bool
}

// LocationReport is one row of the location-mention report.
type LocationReport struct {
	Location       string  `json:"location"`
	Count          int     `json:"count"`
	Lon            float64 `json:"lon"`
	Lat            float64 `json:"lat"`
	Class          string  `json:"class"`
	Type           string  `json:"type"`
	HasProtagonist bool    `json:"has_protagonist"`
}

// SearchResult is the best matching paragraph for a query.
// The zero value is the empty match.
type SearchResult struct {
	Paragraph Paragraph
	Score     float64
}

// Text returns the matched paragraph text, empty for no match.
func (r SearchResult) Text() string { return r.Paragraph.Text }

// Empty reports whether r is the empty match.
func (r SearchResult) Empty() bool { return r.Paragraph.Text == "" && r.Score == 0 }

// TermWeight is a term's loading on a topic.
type TermWeight struct {
	Term   string
	Weight float64
}

// Topic is one dimension of the reduced topic space.
type Topic struct {
	ID    int
	Terms []TermWeight
}

// DocumentService defines the operations exposed by the application core.
type DocumentService interface {
	Locations(ctx context.Context) ([]LocationReport, error)
	Search(ctx context.Context, phrase string) SearchResult
	Topics(n int) []Topic
}
