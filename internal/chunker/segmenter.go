package chunker

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"geotext/internal/domain"
)

// DefaultMetadataKeys are the header fields kept from a Gutenberg preamble.
var DefaultMetadataKeys = []string{"title", "author", "release date", "last updated", "language"}

// DefaultEndMarkers mark where the narrative stops and the license text begins.
var DefaultEndMarkers = []string{
	"End of Project Gutenberg",
	"*** END OF THE PROJECT GUTENBERG",
	"*** END OF THIS PROJECT GUTENBERG",
}

// Options configures a Segmenter.
type Options struct {
	// Protagonist is matched as a whole word inside PERSON spans, so "Fogg" is
	// also found in "Phileas Fogg" but not in "Foggy".
	Protagonist  string
	EndMarkers   []string
	MetadataKeys []string
	// Workers bounds concurrent paragraph annotation. Zero means GOMAXPROCS.
	Workers int
}

// Segmenter splits raw text into chapters and annotated paragraphs.
type Segmenter struct {
	annotator   domain.Annotator
	endMarkers  []string
	keys        map[string]struct{}
	workers     int
	protagonist *regexp.Regexp

	metadataLine *regexp.Regexp
	heading      *regexp.Regexp
	blankLine    *regexp.Regexp
}

// New creates a Segmenter that annotates paragraphs with annotator.
func New(annotator domain.Annotator, opts Options) *Segmenter {
	if len(opts.EndMarkers) == 0 {
		opts.EndMarkers = DefaultEndMarkers
	}
	if len(opts.MetadataKeys) == 0 {
		opts.MetadataKeys = DefaultMetadataKeys
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	keys := make(map[string]struct{}, len(opts.MetadataKeys))
	for _, k := range opts.MetadataKeys {
		keys[strings.ToLower(strings.TrimSpace(k))] = struct{}{}
	}
	s := &Segmenter{
		annotator:    annotator,
		endMarkers:   opts.EndMarkers,
		keys:         keys,
		workers:      opts.Workers,
		metadataLine: regexp.MustCompile(`(?m)^([^:\n]+): (.*)$`),
		heading:      regexp.MustCompile(`(?im)^[ \t]*chapter[ \t]+\S+`),
		blankLine:    regexp.MustCompile(`\n[ \t]*\n`),
	}
	if p := strings.TrimSpace(opts.Protagonist); p != "" {
		s.protagonist = regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`)
	}
	return s
}

// Segment builds a Document from raw text.
func (s *Segmenter) Segment(ctx context.Context, text string) (domain.Document, error) {
	text = normalizeNewlines(text)
	doc := domain.Document{Metadata: s.Metadata(text)}

	raw := s.Chapters(text)
	type job struct {
		chapter, index int
		text           string
	}
	var jobs []job
	for ci, ch := range raw {
		for _, p := range ch.Paragraphs {
			jobs = append(jobs, job{chapter: ci, index: len(jobs), text: p})
		}
	}

	paragraphs := make([]domain.Paragraph, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := s.annotate(j.text)
			if err != nil {
				return fmt.Errorf("chapter %d paragraph %d: %w", j.chapter, j.index, err)
			}
			p.Chapter = j.chapter
			p.Index = j.index
			paragraphs[j.index] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Document{}, err
	}

	doc.Chapters = make([]domain.Chapter, len(raw))
	next := 0
	for ci, ch := range raw {
		n := len(ch.Paragraphs)
		doc.Chapters[ci] = domain.Chapter{
			Index:      ci,
			Header:     ch.Header,
			Paragraphs: paragraphs[next : next+n : next+n],
		}
		next += n
	}
	return doc, nil
}

// Metadata returns whitelisted "Key: Value" header fields, keyed in lower case.
// A key that appears more than once keeps its last value.
func (s *Segmenter) Metadata(text string) map[string]string {
	out := make(map[string]string)
	for _, m := range s.metadataLine.FindAllStringSubmatch(normalizeNewlines(text), -1) {
		key := strings.ToLower(strings.TrimSpace(m[1]))
		if _, ok := s.keys[key]; !ok {
			continue
		}
		out[key] = strings.TrimSpace(m[2])
	}
	return out
}

// RawChapter is a chapter before annotation.
type RawChapter struct {
	Header     string
	Paragraphs []string
}

// Chapters cuts the narrative at the first end marker and splits it on chapter
// headings. Text before the first heading is dropped.
func (s *Segmenter) Chapters(text string) []RawChapter {
	text = s.stripTrailer(normalizeNewlines(text))

	locs := s.heading.FindAllStringIndex(text, -1)
	chapters := make([]RawChapter, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		chapters = append(chapters, s.splitChapter(text[loc[1]:end]))
	}
	return chapters
}

func (s *Segmenter) splitChapter(block string) RawChapter {
	var ch RawChapter
	for _, part := range s.blankLine.Split(strings.TrimSpace(block), -1) {
		p := collapse(part)
		if p == "" {
			continue
		}
		if ch.Header == "" && ch.Paragraphs == nil {
			ch.Header = p
			ch.Paragraphs = []string{}
			continue
		}
		ch.Paragraphs = append(ch.Paragraphs, p)
	}
	return ch
}

func (s *Segmenter) stripTrailer(text string) string {
	cut := len(text)
	for _, m := range s.endMarkers {
		if i := strings.Index(text, m); i >= 0 && i < cut {
			cut = i
		}
	}
	return text[:cut]
}

func (s *Segmenter) annotate(text string) (domain.Paragraph, error) {
	ann, err := s.annotator.Annotate(text)
	if err != nil {
		return domain.Paragraph{}, err
	}
	p := domain.Paragraph{Text: text, Lemmas: ann.Lemmas}
	for _, e := range ann.Entities {
		switch {
		case e.Label.IsPlace():
			p.Locations = append(p.Locations, e.Span)
		case e.Label == domain.LabelPerson:
			p.People = append(p.People, e.Span)
			if s.protagonist != nil && s.protagonist.MatchString(e.Span) {
				p.MentionsProtagonist = true
			}
		}
	}
	return p, nil
}

func collapse(block string) string {
	return strings.TrimSpace(strings.ReplaceAll(block, "\n", " "))
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
