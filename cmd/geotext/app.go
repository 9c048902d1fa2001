package main

import (
	"context"
	"fmt"
	"time"

	"geotext/internal/annotate"
	"geotext/internal/chunker"
	"geotext/internal/config"
	"geotext/internal/domain"
	"geotext/internal/embedding"
	"geotext/internal/embedding/lsi"
	"geotext/internal/embedding/tfidf"
	"geotext/internal/geocode"
	"geotext/internal/logging"
	"geotext/internal/relevance"
	"geotext/internal/resolver"
	"geotext/internal/service"
	"geotext/internal/store/bolt"
	"geotext/internal/store/memory"
	"geotext/internal/store/sqlite"
	vectors "geotext/internal/vectorstore/memory"
)

// app holds the components assembled from the configuration.
type app struct {
	cfg       *config.AppConfig
	store     domain.LocationStore
	resolver  *resolver.Resolver
	annotator domain.Annotator
	segmenter *chunker.Segmenter
	filter    *relevance.Filter
}

// newApp opens the store and builds every collaborator. A store that cannot be
// opened is fatal.
func newApp(cfg *config.AppConfig) (*app, error) {
	st := openStore(cfg.Store)

	geo, err := geocode.NewClient(geocode.Config{
		BaseURL:           cfg.Geocoder.BaseURL,
		UserAgent:         cfg.Geocoder.UserAgent,
		Email:             cfg.Geocoder.Email,
		Timeout:           time.Duration(cfg.Geocoder.TimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.Geocoder.RequestsPerSecond,
		MaxRetries:        cfg.Geocoder.MaxRetries,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("geocoder init failed: %w", err)
	}

	ann, err := newAnnotator(cfg.Annotator)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		cfg:   cfg,
		store: st,
		resolver: resolver.New(st, geo, resolver.Options{
			Timeout: time.Duration(cfg.Geocoder.TimeoutSecs) * time.Second,
		}),
		annotator: ann,
		segmenter: chunker.New(ann, chunker.Options{
			Protagonist:  cfg.Segmenter.Protagonist,
			EndMarkers:   cfg.Segmenter.EndMarkers,
			MetadataKeys: cfg.Segmenter.MetadataKeys,
			Workers:      cfg.Segmenter.Workers,
		}),
		filter: relevance.New(relevance.Rule{
			MinGroupCount:   cfg.Filter.MinGroupCount,
			ExcludedTypes:   cfg.Filter.ExcludedTypes,
			ExcludedClasses: cfg.Filter.ExcludedClasses,
			AllowedClasses:  cfg.Filter.AllowedClasses,
			AllowedTypes:    cfg.Filter.AllowedTypes,
		}),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logging.Warn("Closing store", "error", err)
	}
}

func openStore(sc config.StoreConfig) domain.LocationStore {
	if sc.Type == "memory" {
		logging.Warn("Using in-memory store, resolved locations will not persist")
		return memory.NewStore()
	}
	path := sc.Path
	if path == "" {
		p, err := config.DefaultStorePath(sc.Type)
		if err != nil {
			logging.Fatal("Cannot determine store path", "error", err)
		}
		path = p
	}

	var (
		st  domain.LocationStore
		err error
	)
	switch sc.Type {
	case "sqlite", "":
		st, err = sqlite.NewStore(path)
	case "bolt":
		st, err = bolt.NewStore(path)
	default:
		logging.Fatal("Unknown store type", "type", sc.Type)
	}
	if err != nil {
		logging.Fatal("Store init failed", "type", sc.Type, "path", path, "error", err)
	}
	logging.Debug("Store opened", "type", sc.Type, "path", path)
	return st
}

func newAnnotator(ac config.AnnotatorConfig) (domain.Annotator, error) {
	switch ac.Type {
	case "prose", "":
		patterns := make([]annotate.Pattern, 0, len(ac.Patterns))
		for _, p := range ac.Patterns {
			patterns = append(patterns, annotate.Pattern{Label: domain.ParseLabel(p.Label), Pattern: p.Pattern})
		}
		ann, err := annotate.New(annotate.Options{Patterns: patterns})
		if err != nil {
			return nil, fmt.Errorf("annotator init failed: %w", err)
		}
		return ann, nil
	default:
		return nil, fmt.Errorf("unknown annotator: %s", ac.Type)
	}
}

func newEmbedder(ic config.IndexConfig) (embedding.Embedder, error) {
	filter := tfidf.Filter{NoBelowFraction: ic.NoBelowFraction, NoAbove: ic.NoAbove, KeepN: ic.KeepN}
	switch ic.Type {
	case "lsi", "":
		return lsi.New(lsi.Options{NumTopics: ic.NumTopics, Filter: filter}), nil
	case "tfidf":
		return tfidf.NewEmbedder(filter), nil
	default:
		return nil, fmt.Errorf("unknown index type: %s", ic.Type)
	}
}

// loadDocument reads src and builds an indexed Document.
func (a *app) loadDocument(ctx context.Context, src string) (*service.Document, error) {
	text, err := service.ReadSource(ctx, src)
	if err != nil {
		return nil, err
	}
	emb, err := newEmbedder(a.cfg.Index)
	if err != nil {
		return nil, err
	}
	return service.NewDocument(ctx, text, service.Deps{
		Segmenter: a.segmenter,
		Annotator: a.annotator,
		Resolver:  a.resolver,
		Store:     a.store,
		Filter:    a.filter,
		Embedder:  emb,
		Vectors:   vectors.NewStorage(),
	}, service.Options{MinScore: a.cfg.Index.MinScore})
}
