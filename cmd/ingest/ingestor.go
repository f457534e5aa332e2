package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CulinaraAI/culinara-engine/engine/domain"
	"github.com/CulinaraAI/culinara-engine/engine/semantic"
	"github.com/CulinaraAI/culinara-engine/pkg/fn"
)

// RecipeDocument is one recipe as published by scrapers and backfill jobs.
type RecipeDocument struct {
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	PrepTime     string   `json:"prep_time,omitempty"`
	CookTime     string   `json:"cook_time,omitempty"`
	TotalTime    string   `json:"total_time,omitempty"`
	Servings     string   `json:"servings,omitempty"`
	Calories     string   `json:"calories,omitempty"`
	SourceURL    string   `json:"source_url"`
}

// IngestEvent is the message consumed from the ingest subject.
type IngestEvent struct {
	Source  string           `json:"source"`
	Recipes []RecipeDocument `json:"recipes"`
}

const (
	embedWorkers = 4
	upsertChunk  = 64
)

var embedRetry = fn.RetryOpts{MaxAttempts: 3, InitialWait: 500 * time.Millisecond, MaxWait: 5 * time.Second, Jitter: true}

type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type recipeStore interface {
	Upsert(ctx context.Context, records []semantic.Record) error
	DeleteBySource(ctx context.Context, sourceURL string) error
}

type ingestor struct {
	embed  embedder
	store  recipeStore
	logger *slog.Logger
}

// Process embeds and stores every recipe in the event. It returns how many
// documents were stored and how many failed; a failed document never blocks
// the rest of the event.
func (g *ingestor) Process(ctx context.Context, ev IngestEvent) (stored, failed int) {
	docs := fn.Filter(ev.Recipes, func(d RecipeDocument) bool {
		return d.Title != "" && d.SourceURL != ""
	})
	failed += len(ev.Recipes) - len(docs)

	// Replace any previous points for the sources in this event.
	for _, src := range fn.Unique(fn.Map(docs, func(d RecipeDocument) string { return d.SourceURL })) {
		if err := g.store.DeleteBySource(ctx, src); err != nil {
			g.logger.Warn("ingest: delete previous points failed", "source", src, "err", err)
		}
	}

	results := fn.ParMap(docs, embedWorkers, func(doc RecipeDocument) fn.Result[semantic.Record] {
		return g.embedDocument(ctx, doc)
	})

	var records []semantic.Record
	for i, r := range results {
		rec, err := r.Unwrap()
		if err != nil {
			failed++
			mDocsFailed.Inc()
			g.logger.Warn("ingest: embed failed", "title", docs[i].Title, "err", err)
			continue
		}
		records = append(records, rec)
	}

	for _, chunk := range fn.Chunk(records, upsertChunk) {
		start := time.Now()
		res := fn.Retry(ctx, embedRetry, func(ctx context.Context) fn.Result[struct{}] {
			return fn.FromPair(struct{}{}, g.store.Upsert(ctx, chunk))
		})
		mUpsertDur.Since(start)
		if _, err := res.Unwrap(); err != nil {
			failed += len(chunk)
			mDocsFailed.Add(int64(len(chunk)))
			g.logger.Error("ingest: upsert failed", "count", len(chunk), "err", err)
			continue
		}
		stored += len(chunk)
		mDocsTotal.Add(int64(len(chunk)))
	}
	return stored, failed
}

func (g *ingestor) embedDocument(ctx context.Context, doc RecipeDocument) fn.Result[semantic.Record] {
	start := time.Now()
	res := fn.Retry(ctx, embedRetry, func(ctx context.Context) fn.Result[[]float32] {
		return fn.FromPair(g.embed.Embed(ctx, embedText(doc)))
	})
	mEmbedDur.Since(start)

	vec, err := res.Unwrap()
	if err != nil {
		return fn.Err[semantic.Record](err)
	}
	return fn.Ok(recordFromDocument(doc, vec))
}

// embedText builds the string that gets embedded: the same title plus
// ingredients plus instructions shape the query side scans.
func embedText(doc RecipeDocument) string {
	parts := []string{doc.Title}
	parts = append(parts, strings.Join(doc.Ingredients, ", "))
	parts = append(parts, strings.Join(doc.Instructions, " "))
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func recordFromDocument(doc RecipeDocument, vec []float32) semantic.Record {
	rec := semantic.Record{
		ID:           uuid.NewString(),
		Embedding:    vec,
		Title:        doc.Title,
		Ingredients:  doc.Ingredients,
		Instructions: doc.Instructions,
		SourceURL:    doc.SourceURL,
		Facts: domain.RecipeFacts{
			PrepTime:  doc.PrepTime,
			CookTime:  doc.CookTime,
			TotalTime: doc.TotalTime,
			Servings:  doc.Servings,
		},
	}
	if doc.Calories != "" {
		rec.Facts.Nutrition = map[string]string{"calories": doc.Calories}
	}
	return rec
}
