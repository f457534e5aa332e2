// Package domain defines core domain types, constants, and validation for the
// Culinara answer pipeline. It acts as the validation gate at pipeline entry points.
package domain

import "strings"

// DietTag identifies a dietary restriction requested by the user.
type DietTag string

const (
	DietVegan         DietTag = "vegan"
	DietVegetarian    DietTag = "vegetarian"
	DietNonVegetarian DietTag = "non-vegetarian"
	DietKeto          DietTag = "keto"
	DietLowCarb       DietTag = "low-carb"
	DietGlutenFree    DietTag = "gluten-free"
	DietDairyFree     DietTag = "dairy-free"
	DietPaleo         DietTag = "paleo"
)

// ValidDietTags is the set of recognised diet tags.
var ValidDietTags = map[DietTag]bool{
	DietVegan: true, DietVegetarian: true, DietNonVegetarian: true,
	DietKeto: true, DietLowCarb: true, DietGlutenFree: true,
	DietDairyFree: true, DietPaleo: true,
}

// Preferences carries optional structured constraints alongside a query.
type Preferences struct {
	Diets      []DietTag `json:"diets,omitempty"`
	SkillLevel string    `json:"skill_level,omitempty"`
	Servings   int       `json:"servings,omitempty"`
	Goal       string    `json:"goal,omitempty"`
}

// Query is a user recipe question. Immutable once received.
type Query struct {
	Text  string      `json:"text"`
	Prefs Preferences `json:"prefs"`
}

// Source tags where a candidate came from.
type Source string

const (
	SourceDatabase Source = "database"
	SourceWeb      Source = "web"
)

// RecipeFacts holds structured metadata extracted for a recipe.
type RecipeFacts struct {
	PrepTime  string            `json:"prep_time,omitempty"`
	CookTime  string            `json:"cook_time,omitempty"`
	TotalTime string            `json:"total_time,omitempty"`
	Servings  string            `json:"servings,omitempty"`
	Nutrition map[string]string `json:"nutrition,omitempty"`
}

// Candidate is one retrieved recipe considered for the response. Candidates
// are value objects: a source stage creates them and nothing mutates them
// afterwards except the ranker attaching the final rank.
type Candidate struct {
	Title        string      `json:"title"`
	Ingredients  []string    `json:"ingredients"`
	Instructions []string    `json:"instructions"`
	SourceID     string      `json:"source_id"` // DB record id or URL
	Facts        RecipeFacts `json:"facts"`
	Score        float64     `json:"score"` // always in [0,1]
	Source       Source      `json:"source"`
	Rank         int         `json:"rank,omitempty"`
}

// NormalizedTitle is the dedup key: lower-cased with whitespace collapsed.
func (c Candidate) NormalizedTitle() string {
	return strings.Join(strings.Fields(strings.ToLower(c.Title)), " ")
}

// SearchText returns the lower-cased title plus ingredient text, the blob the
// dietary filter and relevance heuristics scan.
func (c Candidate) SearchText() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(c.Title))
	for _, ing := range c.Ingredients {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(ing))
	}
	return b.String()
}

// Provenance summarises which sources contributed to a response.
type Provenance struct {
	UsedDatabase bool `json:"used_database"`
	UsedWeb      bool `json:"used_web"`
}

// Response is the assembled answer for one query. Narrative and Facts may be
// empty on total generation failure; the candidate list may be empty when
// nothing was found. All of these are valid, non-exceptional states.
type Response struct {
	Narrative  string      `json:"narrative"`
	Candidates []Candidate `json:"candidates"`
	Facts      []string    `json:"facts"`
	Provenance Provenance  `json:"provenance"`
	Degraded   bool        `json:"degraded"` // deadline overrun or generation fallback
}
