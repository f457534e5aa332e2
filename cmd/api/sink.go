package main

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/CulinaraAI/culinara-engine/engine/answer"
	"github.com/CulinaraAI/culinara-engine/engine/domain"
	"github.com/CulinaraAI/culinara-engine/pkg/natsutil"
)

// recipeDocument mirrors the ingest worker's wire format.
type recipeDocument struct {
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

type ingestEvent struct {
	Source  string           `json:"source"`
	Recipes []recipeDocument `json:"recipes"`
}

// natsSink publishes served-result events and feeds web-sourced candidates
// back into the ingest pipeline, so the next query for the same dish is
// answered from the database.
type natsSink struct {
	nc             *nats.Conn
	resultsSubject string
	ingestSubject  string
}

func (s *natsSink) PublishResult(ctx context.Context, ev answer.ResultEvent) error {
	if docs := webDocuments(ev.Candidates); len(docs) > 0 {
		if err := natsutil.Publish(ctx, s.nc, s.ingestSubject, ingestEvent{
			Source:  "api-web-fallback",
			Recipes: docs,
		}); err != nil {
			return err
		}
	}
	return natsutil.Publish(ctx, s.nc, s.resultsSubject, ev)
}

// webDocuments converts the served web candidates into ingest documents.
// Database candidates are already stored and are skipped.
func webDocuments(candidates []domain.Candidate) []recipeDocument {
	var docs []recipeDocument
	for _, c := range candidates {
		if c.Source != domain.SourceWeb || c.Title == "" || c.SourceID == "" {
			continue
		}
		docs = append(docs, recipeDocument{
			Title:        c.Title,
			Ingredients:  c.Ingredients,
			Instructions: c.Instructions,
			PrepTime:     c.Facts.PrepTime,
			CookTime:     c.Facts.CookTime,
			TotalTime:    c.Facts.TotalTime,
			Servings:     c.Facts.Servings,
			Calories:     c.Facts.Nutrition["calories"],
			SourceURL:    c.SourceID,
		})
	}
	return docs
}
