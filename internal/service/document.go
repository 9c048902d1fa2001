package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"geotext/internal/chunker"
	"geotext/internal/domain"
	"geotext/internal/embedding"
	"geotext/internal/embedding/lsi"
	"geotext/internal/embedding/tfidf"
	"geotext/internal/logging"
	"geotext/internal/relevance"
	"geotext/internal/resolver"
	"geotext/internal/vectorstore"
	"geotext/internal/vectorstore/memory"
)

// DefaultMinScore is the similarity below which Search reports no match.
const DefaultMinScore = 0.01

// Deps are the collaborators of a Document. Embedder and Vectors are optional.
type Deps struct {
	Segmenter *chunker.Segmenter
	Annotator domain.Annotator
	Resolver  *resolver.Resolver
	Store     domain.LocationStore
	Filter    *relevance.Filter
	Embedder  embedding.Embedder
	Vectors   vectorstore.Storage
}

// Options tunes a Document.
type Options struct {
	// MinScore is the search threshold. Zero means DefaultMinScore.
	MinScore float64
}

// Document is a segmented, annotated and indexed text.
type Document struct {
	doc       domain.Document
	annotator domain.Annotator
	resolver  *resolver.Resolver
	store     domain.LocationStore
	filter    *relevance.Filter
	embedder  embedding.Embedder
	vectors   vectorstore.Storage
	minScore  float64
	indexed   bool
}

var _ domain.DocumentService = (*Document)(nil)

// NewDocument segments text, annotates its paragraphs and builds the search index.
// A text too short to yield any index terms still produces a Document; Search
// then always returns the empty match.
func NewDocument(ctx context.Context, text string, deps Deps, opts Options) (*Document, error) {
	if deps.Segmenter == nil || deps.Annotator == nil {
		return nil, fmt.Errorf("segmenter and annotator are required: %w", domain.ErrInvalidInput)
	}
	if deps.Embedder == nil {
		deps.Embedder = lsi.New(lsi.Options{Filter: tfidf.DefaultFilter()})
	}
	if deps.Vectors == nil {
		deps.Vectors = memory.NewStorage()
	}
	if deps.Filter == nil {
		deps.Filter = relevance.New(relevance.DefaultRule())
	}
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}

	doc, err := deps.Segmenter.Segment(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("segmenting document: %w", err)
	}

	d := &Document{
		doc:       doc,
		annotator: deps.Annotator,
		resolver:  deps.Resolver,
		store:     deps.Store,
		filter:    deps.Filter,
		embedder:  deps.Embedder,
		vectors:   deps.Vectors,
		minScore:  opts.MinScore,
	}
	if err := d.buildIndex(); err != nil {
		return nil, err
	}
	logging.Info("Document loaded",
		"title", doc.Metadata["title"],
		"chapters", len(doc.Chapters),
		"paragraphs", len(doc.Paragraphs()),
		"indexed", d.indexed,
	)
	return d, nil
}

func (d *Document) buildIndex() error {
	paragraphs := d.doc.Paragraphs()
	corpus := make([][]string, len(paragraphs))
	for i, p := range paragraphs {
		corpus[i] = p.Lemmas
	}

	if err := d.embedder.Prepare(corpus); err != nil {
		if errors.Is(err, embedding.ErrEmptyDictionary) {
			logging.Warn("No index terms survived filtering, search disabled", "paragraphs", len(paragraphs))
			return nil
		}
		return fmt.Errorf("preparing %s embedder: %w", d.embedder.Name(), err)
	}
	if err := d.vectors.Init(d.embedder.Dimension()); err != nil {
		return fmt.Errorf("initializing vector store: %w", err)
	}
	if err := d.vectors.Clear(); err != nil {
		return fmt.Errorf("clearing vector store: %w", err)
	}
	vectors := make([][]float64, len(paragraphs))
	for i, p := range paragraphs {
		vec, err := d.embedder.Embed(p.Lemmas)
		if err != nil {
			return fmt.Errorf("embedding paragraph %d: %w", p.Index, err)
		}
		vectors[i] = vec
	}
	if err := d.vectors.Upsert(paragraphs, vectors); err != nil {
		return fmt.Errorf("storing paragraph vectors: %w", err)
	}
	d.indexed = true
	logging.Debug("Index built", "embedder", d.embedder.Name(), "dimension", d.embedder.Dimension())
	return nil
}

// Metadata returns the whitelisted header fields.
func (d *Document) Metadata() map[string]string {
	out := make(map[string]string, len(d.doc.Metadata))
	for k, v := range d.doc.Metadata {
		out[k] = v
	}
	return out
}

// Chapters returns the chapters in reading order.
func (d *Document) Chapters() []domain.Chapter { return d.doc.Chapters }

// Paragraphs returns every paragraph in reading order.
func (d *Document) Paragraphs() []domain.Paragraph { return d.doc.Paragraphs() }

// Mentions counts place mentions keyed by name and protagonist co-occurrence.
func (d *Document) Mentions() map[domain.MentionKey]int {
	counts := make(map[domain.MentionKey]int)
	for _, p := range d.doc.Paragraphs() {
		for _, loc := range p.Locations {
			counts[domain.MentionKey{Name: loc, Protagonist: p.MentionsProtagonist}]++
		}
	}
	return counts
}

// Locations resolves every mentioned place and reports the significant ones.
// Names the geocoder does not know are logged and left out. Any other failure
// aborts the report and satisfies errors.Is(err, domain.ErrTransient).
func (d *Document) Locations(ctx context.Context) ([]domain.LocationReport, error) {
	if d.resolver == nil || d.store == nil {
		return nil, fmt.Errorf("location resolution is not configured: %w", domain.ErrInvalidInput)
	}
	mentions := d.Mentions()

	names := make([]string, 0, len(mentions))
	seen := make(map[string]struct{}, len(mentions))
	for key := range mentions {
		if _, ok := seen[key.Name]; ok {
			continue
		}
		seen[key.Name] = struct{}{}
		names = append(names, key.Name)
	}
	sort.Strings(names)

	records := make(map[string]domain.LocationRecord, len(names))
	for _, name := range names {
		res := d.resolver.Resolve(ctx, name)
		switch res.Kind {
		case resolver.Resolved:
			records[name] = res.Record
		case resolver.NotFound:
			if !res.Cached {
				if _, err := d.resolver.MarkUnknown(ctx, name); err != nil {
					return nil, &domain.TransientError{Op: "mark unknown", Name: name, Err: err}
				}
			}
			logging.Warn("Location could not be found", "name", name)
		default:
			return nil, fmt.Errorf("resolving locations: %w", res.Err())
		}
	}

	significant, err := d.filter.SignificantNames(ctx, d.store)
	if err != nil {
		return nil, &domain.TransientError{Op: "filter locations", Err: err}
	}

	report := make([]domain.LocationReport, 0, len(mentions))
	for key, count := range mentions {
		rec, ok := records[key.Name]
		if !ok {
			continue
		}
		if _, ok := significant[key.Name]; !ok {
			continue
		}
		report = append(report, domain.LocationReport{
			Location:       key.Name,
			Count:          count,
			Lon:            rec.Lon,
			Lat:            rec.Lat,
			Class:          rec.Class,
			Type:           rec.Type,
			HasProtagonist: key.Protagonist,
		})
	}
	sort.Slice(report, func(i, j int) bool {
		a, b := report[i], report[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		return !a.HasProtagonist && b.HasProtagonist
	})
	return report, nil
}

// Search returns the paragraph most similar to phrase, or the empty match when
// nothing scores at least the configured threshold. Failures are logged and
// reported as the empty match.
func (d *Document) Search(ctx context.Context, phrase string) domain.SearchResult {
	if !d.indexed || ctx.Err() != nil {
		return domain.SearchResult{}
	}
	lemmas, err := d.annotator.Lemmatize(phrase)
	if err != nil {
		logging.Warn("Could not lemmatize query", "phrase", phrase, "error", err)
		return domain.SearchResult{}
	}
	vec, err := d.embedder.Embed(lemmas)
	if err != nil {
		logging.Warn("Could not embed query", "phrase", phrase, "error", err)
		return domain.SearchResult{}
	}
	res, err := d.vectors.Search(vec, 1)
	if err != nil {
		logging.Warn("Vector search failed", "phrase", phrase, "error", err)
		return domain.SearchResult{}
	}
	if len(res) == 0 || res[0].Score < d.minScore {
		return domain.SearchResult{}
	}
	return res[0]
}

// Topics returns up to n topics of the index, nil when the embedder has none.
func (d *Document) Topics(n int) []domain.Topic {
	tm, ok := d.embedder.(embedding.TopicModel)
	if !d.indexed || !ok {
		return nil
	}
	return tm.Topics(n)
}
