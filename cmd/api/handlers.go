package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/CulinaraAI/culinara-engine/engine/domain"
	"github.com/CulinaraAI/culinara-engine/pkg/fn"
)

// recipeAnswerer is what the handlers need from the answer service.
type recipeAnswerer interface {
	Answer(ctx context.Context, q domain.Query) (domain.Response, error)
	Search(ctx context.Context, q domain.Query) ([]domain.Candidate, domain.Provenance, error)
}

// PreferencesPayload is the optional preferences block in requests.
type PreferencesPayload struct {
	Diets      []string `json:"diets,omitempty"`
	SkillLevel string   `json:"skill_level,omitempty"`
	Servings   int      `json:"servings,omitempty"`
	Goal       string   `json:"goal,omitempty"`
}

// ChatRequest is the JSON body for POST /api/chat and /api/search.
type ChatRequest struct {
	Message     string             `json:"message"`
	Preferences PreferencesPayload `json:"preferences"`
}

// RecipePayload is one recipe candidate in a response.
type RecipePayload struct {
	Title        string            `json:"title"`
	Ingredients  []string          `json:"ingredients,omitempty"`
	Instructions []string          `json:"instructions,omitempty"`
	Source       string            `json:"source,omitempty"`
	Origin       string            `json:"origin"`
	Score        float64           `json:"score"`
	Rank         int               `json:"rank"`
	PrepTime     string            `json:"prep_time,omitempty"`
	CookTime     string            `json:"cook_time,omitempty"`
	TotalTime    string            `json:"total_time,omitempty"`
	Servings     string            `json:"servings,omitempty"`
	Nutrition    map[string]string `json:"nutrition,omitempty"`
}

// ProvenancePayload reports which retrieval stages produced results.
type ProvenancePayload struct {
	UsedDatabase bool `json:"used_database"`
	UsedWeb      bool `json:"used_web"`
}

// ChatResponse is the JSON response for POST /api/chat.
type ChatResponse struct {
	Answer     string            `json:"answer"`
	Recipes    []RecipePayload   `json:"recipes"`
	Facts      []string          `json:"facts,omitempty"`
	Provenance ProvenancePayload `json:"provenance"`
	Degraded   bool              `json:"degraded,omitempty"`
}

// SearchResponse is the JSON response for POST /api/search.
type SearchResponse struct {
	Recipes    []RecipePayload   `json:"recipes"`
	Provenance ProvenancePayload `json:"provenance"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleChat(svc recipeAnswerer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, ok := decodeQuery(w, r)
		if !ok {
			return
		}

		resp, err := svc.Answer(r.Context(), q)
		if err != nil {
			writeQueryError(w, logger, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ChatResponse{
			Answer:     resp.Narrative,
			Recipes:    fn.Map(resp.Candidates, recipePayload),
			Facts:      resp.Facts,
			Provenance: ProvenancePayload(resp.Provenance),
			Degraded:   resp.Degraded,
		})
	}
}

func handleSearch(svc recipeAnswerer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, ok := decodeQuery(w, r)
		if !ok {
			return
		}

		candidates, prov, err := svc.Search(r.Context(), q)
		if err != nil {
			writeQueryError(w, logger, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SearchResponse{
			Recipes:    fn.Map(candidates, recipePayload),
			Provenance: ProvenancePayload(prov),
		})
	}
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (domain.Query, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return domain.Query{}, false
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return domain.Query{}, false
	}

	return domain.Query{
		Text: req.Message,
		Prefs: domain.Preferences{
			Diets: fn.Map(req.Preferences.Diets, func(s string) domain.DietTag {
				return domain.NormalizeDietTag(domain.DietTag(s))
			}),
			SkillLevel: req.Preferences.SkillLevel,
			Servings:   req.Preferences.Servings,
			Goal:       req.Preferences.Goal,
		},
	}, true
}

// writeQueryError maps validation failures to 400 and everything else to 500.
// The answer service absorbs backend outages, so a 500 here is a real bug.
func writeQueryError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Error())
		return
	}
	logger.Error("answer failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func recipePayload(c domain.Candidate) RecipePayload {
	return RecipePayload{
		Title:        c.Title,
		Ingredients:  c.Ingredients,
		Instructions: c.Instructions,
		Source:       c.SourceID,
		Origin:       string(c.Source),
		Score:        c.Score,
		Rank:         c.Rank,
		PrepTime:     c.Facts.PrepTime,
		CookTime:     c.Facts.CookTime,
		TotalTime:    c.Facts.TotalTime,
		Servings:     c.Facts.Servings,
		Nutrition:    c.Facts.Nutrition,
	}
}
