// Package relevance provides keyword heuristics shared by the database and
// web candidate stages: query-term extraction, score boosting for vector
// hits, and the overlap score assigned to freshly scraped pages (which carry
// no vector similarity).
package relevance

import "strings"

var stopWords = map[string]bool{
	"how": true, "to": true, "make": true, "recipe": true, "recipes": true,
	"for": true, "a": true, "an": true, "the": true, "with": true,
	"and": true, "or": true, "of": true, "in": true, "some": true,
	"what": true, "whats": true, "good": true, "best": true, "easy": true,
	"quick": true, "dinner": true, "lunch": true, "breakfast": true,
}

// commonIngredients are terms treated as hard requirements when they appear
// in a query: a hit that lacks them is penalized rather than boosted.
var commonIngredients = map[string]bool{
	"chicken": true, "beef": true, "pork": true, "lamb": true, "fish": true,
	"salmon": true, "tuna": true, "shrimp": true, "prawn": true,
	"paneer": true, "tofu": true, "tempeh": true, "seitan": true,
	"cheese": true, "mozzarella": true, "cheddar": true, "feta": true, "ricotta": true,
	"mushroom": true, "eggplant": true, "zucchini": true, "tomato": true,
	"potato": true, "onion": true, "garlic": true,
	"rice": true, "pasta": true, "noodle": true, "bread": true,
}

// ingredientConflicts marks protein swaps that must never be surfaced: a user
// asking for chicken does not want the tofu rendition.
var ingredientConflicts = map[string][]string{
	"chicken": {"tofu", "paneer", "vegetarian", "vegan"},
	"paneer":  {"chicken", "beef", "pork"},
	"tofu":    {"chicken", "beef", "pork"},
}

const (
	conflictPenalty = -0.3
	missingPenalty  = -0.2
	perTermBoost    = 0.03
	maxBoost        = 0.15
)

// Terms extracts significant lower-cased query terms, dropping stop words
// and anything shorter than three characters.
func Terms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, "?.,!;:'\"")
		if len(w) > 2 && !stopWords[w] {
			terms = append(terms, w)
		}
	}
	return terms
}

// IngredientTerms filters Terms down to recognised ingredient words.
func IngredientTerms(terms []string) []string {
	var out []string
	for _, t := range terms {
		if commonIngredients[t] {
			out = append(out, t)
		}
	}
	return out
}

// Boost computes the score adjustment for a database hit against the scanned
// candidate text, and whether the hit is a plausible keyword match at all.
// Conflicting proteins and missing required ingredients penalize and mark the
// hit implausible; otherwise term overlap earns a small capped boost.
func Boost(terms, ingredientTerms []string, text string) (float64, bool) {
	for _, ing := range ingredientTerms {
		for _, conflict := range ingredientConflicts[ing] {
			if strings.Contains(text, conflict) {
				return conflictPenalty, false
			}
		}
	}
	for _, ing := range ingredientTerms {
		if !strings.Contains(text, ing) {
			return missingPenalty, false
		}
	}

	matches := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			matches++
		}
	}
	boost := float64(matches) * perTermBoost
	if boost > maxBoost {
		boost = maxBoost
	}
	return boost, true
}

// WebScore assigns a [0,1] relevance score to a scraped candidate from query
// term overlap. Scraped pages have no vector similarity, so this heuristic is
// all the ranker gets.
func WebScore(query, text string) float64 {
	terms := Terms(query)
	if len(terms) == 0 {
		return 0.5
	}
	matches := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			matches++
		}
	}
	return Clamp(0.35 + 0.6*float64(matches)/float64(len(terms)))
}

// Clamp bounds a score to [0,1].
func Clamp(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
