package semantic

import (
	"context"
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/CulinaraAI/culinara-engine/engine/domain"
)

// failingPoints stands in for an unreachable Qdrant backend.
type failingPoints struct {
	pb.PointsClient
}

func (failingPoints) Search(context.Context, *pb.SearchPoints, ...grpc.CallOption) (*pb.SearchResponse, error) {
	return nil, errors.New("connection refused")
}

func TestSearchWrapsStoreUnavailable(t *testing.T) {
	s := &Store{points: failingPoints{}, collection: "recipes"}

	_, err := s.Search(context.Background(), []float32{0.1, 0.2}, 5, 0)

	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	rec := Record{
		Title:        "Miso Ramen",
		Ingredients:  []string{"noodles", "miso paste", "scallions"},
		Instructions: []string{"Simmer broth.", "Cook noodles.", "Assemble."},
		SourceURL:    "https://example.com/miso-ramen",
		Facts: domain.RecipeFacts{
			PrepTime:  "PT15M",
			CookTime:  "PT20M",
			TotalTime: "PT35M",
			Servings:  "2",
			Nutrition: map[string]string{"calories": "540"},
		},
	}

	got := recordFromPayload(recordPayload(rec))

	if got.Title != rec.Title || got.SourceURL != rec.SourceURL {
		t.Errorf("title/source mismatch: %+v", got)
	}
	if len(got.Ingredients) != 3 || got.Ingredients[1] != "miso paste" {
		t.Errorf("ingredients mismatch: %v", got.Ingredients)
	}
	if len(got.Instructions) != 3 || got.Instructions[2] != "Assemble." {
		t.Errorf("instructions mismatch: %v", got.Instructions)
	}
	if got.Facts.PrepTime != "PT15M" || got.Facts.CookTime != "PT20M" ||
		got.Facts.TotalTime != "PT35M" || got.Facts.Servings != "2" {
		t.Errorf("facts mismatch: %+v", got.Facts)
	}
	if got.Facts.Nutrition["calories"] != "540" {
		t.Errorf("calories mismatch: %v", got.Facts.Nutrition)
	}
}

func TestPayloadOmitsEmptyFacts(t *testing.T) {
	payload := recordPayload(Record{Title: "Toast"})
	for _, key := range []string{"prep_time", "cook_time", "total_time", "servings", "calories"} {
		if _, ok := payload[key]; ok {
			t.Errorf("empty fact %q should be omitted", key)
		}
	}
}

func TestHitCandidate(t *testing.T) {
	h := Hit{
		Record: Record{
			ID:        "abc-123",
			Title:     "Shakshuka",
			SourceURL: "https://example.com/shakshuka",
		},
		Score: 0.82,
	}

	c := h.Candidate()

	if c.Source != domain.SourceDatabase {
		t.Errorf("source = %q, want database", c.Source)
	}
	if c.SourceID != "https://example.com/shakshuka" {
		t.Errorf("source id = %q", c.SourceID)
	}
	if c.Score < 0.81 || c.Score > 0.83 {
		t.Errorf("score = %v", c.Score)
	}
}

func TestHitCandidateClampsScore(t *testing.T) {
	h := Hit{Record: Record{ID: "x", Title: "Overflow"}, Score: 1.3}
	if c := h.Candidate(); c.Score != 1 {
		t.Errorf("score = %v, want clamped to 1", c.Score)
	}
	h.Score = -0.1
	if c := h.Candidate(); c.Score != 0 {
		t.Errorf("score = %v, want clamped to 0", c.Score)
	}
}
