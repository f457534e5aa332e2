package semantic

import "github.com/CulinaraAI/culinara-engine/engine/domain"

// Record is one stored recipe with its embedding.
type Record struct {
	ID           string
	Embedding    []float32
	Title        string
	Ingredients  []string
	Instructions []string
	Facts        domain.RecipeFacts
	SourceURL    string
}

// Hit is a single similarity-search result.
type Hit struct {
	Record
	Score float32
}

// Candidate converts a hit into a database-sourced candidate. The raw
// similarity score is clamped to [0,1]; keyword boosting happens upstream.
func (h Hit) Candidate() domain.Candidate {
	score := float64(h.Score)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	sourceID := h.ID
	if h.SourceURL != "" {
		sourceID = h.SourceURL
	}
	return domain.Candidate{
		Title:        h.Title,
		Ingredients:  h.Ingredients,
		Instructions: h.Instructions,
		SourceID:     sourceID,
		Facts:        h.Facts,
		Score:        score,
		Source:       domain.SourceDatabase,
	}
}
