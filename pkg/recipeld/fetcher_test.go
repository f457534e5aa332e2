package recipeld

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CulinaraAI/culinara-engine/engine/domain"
)

const recipeHTML = `<!doctype html>
<html><head>
<title>Pad Thai Recipe - Serious Eats</title>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Recipe",
  "name": "Pad Thai",
  "recipeIngredient": ["8 oz rice noodles", "2 tbsp tamarind paste", "2 eggs"],
  "recipeInstructions": [
    {"@type": "HowToStep", "text": "Soak the noodles."},
    {"@type": "HowToStep", "text": "Stir-fry everything."}
  ],
  "prepTime": "PT20M",
  "cookTime": "PT10M",
  "totalTime": "PT30M",
  "recipeYield": "4",
  "nutrition": {"@type": "NutritionInformation", "calories": "520 kcal"}
}
</script>
</head><body><h1>Pad Thai</h1></body></html>`

const graphHTML = `<html><head>
<script type="application/ld+json">
{"@graph": [
  {"@type": "WebPage", "name": "ignore me"},
  {"@type": ["Recipe", "NewsArticle"], "name": "Shakshuka",
   "recipeIngredient": ["tomatoes", "eggs"],
   "recipeInstructions": "Simmer and crack eggs in."}
]}
</script></head></html>`

const collectionHTML = `<html><head>
<title>25 Best Weeknight Dinner Recipes</title>
</head><body>
<a href="/recipes/pad-thai">Pad Thai</a>
<a href="https://example.com/recipes/larb">Larb</a>
<a href="https://other.example.org/recipes/offsite">Offsite</a>
<a href="/about-us">About</a>
<a href="/recipes/pad-thai">Pad Thai again</a>
</body></html>`

func TestParseRecipeJSONLD(t *testing.T) {
	page, err := Parse(recipeHTML, "https://www.seriouseats.com/pad-thai")
	if err != nil {
		t.Fatal(err)
	}

	if page.Title != "Pad Thai" {
		t.Errorf("title = %q", page.Title)
	}
	if len(page.Ingredients) != 3 || page.Ingredients[1] != "2 tbsp tamarind paste" {
		t.Errorf("ingredients = %v", page.Ingredients)
	}
	if len(page.Instructions) != 2 || page.Instructions[0] != "Soak the noodles." {
		t.Errorf("instructions = %v", page.Instructions)
	}
	if page.Facts.TotalTime != "PT30M" || page.Facts.Servings != "4" {
		t.Errorf("facts = %+v", page.Facts)
	}
	if page.Facts.Nutrition["calories"] != "520 kcal" {
		t.Errorf("nutrition = %v", page.Facts.Nutrition)
	}
	if page.IsCollection {
		t.Error("single recipe flagged as collection")
	}
}

func TestParseRecipeInGraph(t *testing.T) {
	page, err := Parse(graphHTML, "https://example.com/shakshuka")
	if err != nil {
		t.Fatal(err)
	}
	if page.Title != "Shakshuka" {
		t.Errorf("title = %q", page.Title)
	}
	if len(page.Instructions) != 1 || page.Instructions[0] != "Simmer and crack eggs in." {
		t.Errorf("instructions = %v", page.Instructions)
	}
}

func TestParseCollectionPage(t *testing.T) {
	page, err := Parse(collectionHTML, "https://example.com/dinner-ideas")
	if err != nil {
		t.Fatal(err)
	}

	if !page.IsCollection {
		t.Fatal("roundup page not detected as collection")
	}
	want := []string{
		"https://example.com/recipes/pad-thai",
		"https://example.com/recipes/larb",
	}
	if len(page.Links) != len(want) {
		t.Fatalf("links = %v", page.Links)
	}
	for i := range want {
		if page.Links[i] != want[i] {
			t.Errorf("links[%d] = %q, want %q", i, page.Links[i], want[i])
		}
	}
}

func TestParseNoRecipeMarkup(t *testing.T) {
	_, err := Parse("<html><title>A Blog Post</title></html>", "https://example.com/post")
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
}

func TestIsCollection(t *testing.T) {
	cases := []struct {
		url, title string
		want       bool
	}{
		{"https://example.com/collections/soups", "Soups", true},
		{"https://example.com/pad-thai", "Pad Thai", false},
		{"https://example.com/x", "30 Quick Weeknight Dinner Recipes", true},
		{"https://example.com/x", "Best Lasagna", true},
		{"https://example.com/x", "Our Favorite Summer Dishes", true},
		{"https://example.com/x", "Classic Beef Lasagna", false},
	}
	for _, c := range cases {
		if got := IsCollection(c.url, c.title); got != c.want {
			t.Errorf("IsCollection(%q, %q) = %v, want %v", c.url, c.title, got, c.want)
		}
	}
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(0)
	_, err := f.Fetch(context.Background(), srv.URL+"/gone")
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
}

func TestFetchParsesLiveResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(recipeHTML))
	}))
	defer srv.Close()

	f := NewFetcher(0)
	page, err := f.Fetch(context.Background(), srv.URL+"/pad-thai")
	if err != nil {
		t.Fatal(err)
	}
	if page.Title != "Pad Thai" {
		t.Errorf("title = %q", page.Title)
	}
}
