// Package recipeld fetches recipe pages and extracts structured data from
// schema.org/Recipe JSON-LD blocks, which nearly every recipe site embeds.
// Pages without recipe markup are classified as collection pages (link
// roundups worth expanding) or rejected.
package recipeld

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/CulinaraAI/culinara-engine/engine/domain"
	"github.com/CulinaraAI/culinara-engine/engine/scrape"
	"github.com/CulinaraAI/culinara-engine/pkg/fn"
)

const maxBodyBytes = 4 << 20

const maxCollectionLinks = 20

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

// Fetcher downloads and parses one recipe page per call.
type Fetcher struct {
	http *http.Client
}

// NewFetcher creates a Fetcher. The per-request timeout usually comes from
// the scrape coordinator's context; the client timeout is a backstop.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{http: &http.Client{Timeout: timeout}}
}

// Fetch implements the scrape stage's page fetcher.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (scrape.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return scrape.Page{}, fmt.Errorf("recipeld: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.http.Do(req)
	if err != nil {
		return scrape.Page{}, fmt.Errorf("recipeld: fetch %s: %w: %v", pageURL, domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return scrape.Page{}, fmt.Errorf("recipeld: fetch %s: %w: status %d", pageURL, domain.ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return scrape.Page{}, fmt.Errorf("recipeld: read %s: %w", pageURL, err)
	}

	return Parse(string(body), pageURL)
}

// Parse extracts a recipe or collection page from raw HTML.
func Parse(html, pageURL string) (scrape.Page, error) {
	for _, block := range jsonLDBlocks(html) {
		var data any
		if err := json.Unmarshal([]byte(block), &data); err != nil {
			continue
		}
		if recipe, ok := findRecipe(data); ok {
			return pageFromRecipe(recipe), nil
		}
	}

	title := pageTitle(html)
	if IsCollection(pageURL, title) {
		return scrape.Page{
			Title:        title,
			IsCollection: true,
			Links:        collectionLinks(html, pageURL),
		}, nil
	}

	return scrape.Page{}, fmt.Errorf("recipeld: %s: %w: no recipe markup", pageURL, domain.ErrFetchFailed)
}

// findRecipe walks a decoded JSON-LD document for a schema.org Recipe node.
// Documents may be a single object, a top-level array, or an @graph.
func findRecipe(data any) (map[string]any, bool) {
	switch v := data.(type) {
	case map[string]any:
		if typeIs(v["@type"], "Recipe") {
			return v, true
		}
		if graph, ok := v["@graph"]; ok {
			return findRecipe(graph)
		}
	case []any:
		for _, item := range v {
			if recipe, ok := findRecipe(item); ok {
				return recipe, true
			}
		}
	}
	return nil, false
}

func typeIs(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return t == want
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func pageFromRecipe(data map[string]any) scrape.Page {
	page := scrape.Page{
		Title:        stringField(data["name"]),
		Ingredients:  stringList(data["recipeIngredient"]),
		Instructions: instructionList(data["recipeInstructions"]),
		Facts: domain.RecipeFacts{
			PrepTime:  stringField(data["prepTime"]),
			CookTime:  stringField(data["cookTime"]),
			TotalTime: stringField(data["totalTime"]),
			Servings:  stringField(data["recipeYield"]),
		},
	}
	if page.Title == "" {
		page.Title = "Recipe"
	}
	if nutrition, ok := data["nutrition"].(map[string]any); ok {
		if cal := stringField(nutrition["calories"]); cal != "" {
			page.Facts.Nutrition = map[string]string{"calories": cal}
		}
	}
	return page
}

// stringField renders a JSON-LD scalar (string, number, or first list
// element) as a string.
func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		if len(t) > 0 {
			return stringField(t[0])
		}
	}
	return ""
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{strings.TrimSpace(t)}
	case []any:
		var out []string
		for _, item := range t {
			if s := stringField(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// instructionList handles the three forms recipeInstructions takes in the
// wild: a plain string, a list of strings, or a list of HowToStep objects
// (possibly nested inside HowToSection itemListElement groups).
func instructionList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{strings.TrimSpace(t)}
	case []any:
		var out []string
		for _, item := range t {
			switch step := item.(type) {
			case string:
				if s := strings.TrimSpace(step); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				if nested, ok := step["itemListElement"]; ok {
					out = append(out, instructionList(nested)...)
					continue
				}
				if text := stringField(step["text"]); text != "" {
					out = append(out, text)
				}
			}
		}
		return out
	}
	return nil
}

// collectionLinks extracts same-host recipe links from a roundup page.
func collectionLinks(html, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []string
	for _, m := range hrefRe.FindAllStringSubmatch(html, -1) {
		href := strings.TrimSpace(m[1])
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		if resolved.Host != base.Host {
			continue
		}
		if !strings.Contains(strings.ToLower(resolved.Path), "recipe") {
			continue
		}
		resolved.Fragment = ""
		if resolved.String() == pageURL {
			continue
		}
		links = append(links, resolved.String())
	}

	links = fn.Unique(links)
	if len(links) > maxCollectionLinks {
		links = links[:maxCollectionLinks]
	}
	return links
}
