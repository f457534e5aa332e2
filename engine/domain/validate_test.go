package domain

import (
	"errors"
	"testing"
)

func TestValidateQuery_Valid(t *testing.T) {
	q := Query{
		Text: "vegan dinner under 30 minutes",
		Prefs: Preferences{
			Diets:    []DietTag{DietVegan, "Gluten Free"},
			Servings: 4,
		},
	}
	if err := ValidateQuery(q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateQuery_Empty(t *testing.T) {
	err := ValidateQuery(Query{Text: "   "})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "text" {
		t.Errorf("expected ValidationError on text, got %#v", err)
	}
}

func TestValidateQuery_TooShort(t *testing.T) {
	err := ValidateQuery(Query{Text: "  ok "})
	if !errors.Is(err, ErrQueryTooShort) {
		t.Fatalf("expected ErrQueryTooShort, got %v", err)
	}
}

func TestValidateQuery_UnknownDiet(t *testing.T) {
	err := ValidateQuery(Query{
		Text:  "quick pasta",
		Prefs: Preferences{Diets: []DietTag{"carnivore"}},
	})
	if !errors.Is(err, ErrUnknownDietTag) {
		t.Fatalf("expected ErrUnknownDietTag, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "diets" {
		t.Errorf("expected ValidationError on diets, got %#v", err)
	}
}

func TestValidateQuery_Servings(t *testing.T) {
	err := ValidateQuery(Query{
		Text:  "family roast",
		Prefs: Preferences{Servings: -1},
	})
	if !errors.Is(err, ErrInvalidServings) {
		t.Fatalf("expected ErrInvalidServings, got %v", err)
	}
}

func TestNormalizeDietTag(t *testing.T) {
	cases := map[DietTag]DietTag{
		"Non-Vegetarian": DietNonVegetarian,
		"Low Carb":       DietLowCarb,
		"GLUTEN_FREE":    DietGlutenFree,
		" keto ":         DietKeto,
	}
	for in, want := range cases {
		if got := NormalizeDietTag(in); got != want {
			t.Errorf("NormalizeDietTag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCandidateNormalizedTitle(t *testing.T) {
	c := Candidate{Title: "  Grilled   Chicken\tSalad "}
	if got := c.NormalizedTitle(); got != "grilled chicken salad" {
		t.Errorf("NormalizedTitle = %q", got)
	}
}

func TestCandidateSearchText(t *testing.T) {
	c := Candidate{Title: "Pasta Primavera", Ingredients: []string{"Pasta", "Basil"}}
	want := "pasta primavera pasta basil"
	if got := c.SearchText(); got != want {
		t.Errorf("SearchText = %q, want %q", got, want)
	}
}
