// Package diet evaluates dietary-compatibility rules over recipe candidates.
// Rules are a fixed table of pure predicates keyed by diet tag; all requested
// tags must pass (logical AND), with one documented precedence exception for
// the non-vegetarian + carb-restricted combination.
package diet

import (
	"strings"

	"github.com/CulinaraAI/culinara-engine/engine/domain"
)

// Ingredient marker lists. Matching is naive substring scanning over the
// lower-cased title + ingredient blob, same as the upstream rule set.
var (
	meatMarkers = []string{
		"chicken", "beef", "pork", "lamb", "mutton", "bacon", "steak",
		"turkey", "ham", "sausage", "pepperoni", "meatball", "duck",
		"fish", "salmon", "tuna", "shrimp", "prawn", "anchovy", "crab",
	}
	dairyMarkers = []string{
		"milk", "cheese", "butter", "cream", "yogurt", "ghee", "paneer",
		"parmesan", "mozzarella", "cheddar", "feta", "ricotta",
	}
	eggMarkers   = []string{"egg"}
	honeyMarkers = []string{"honey"}

	// Strong high-carb markers trip even the relaxed carb rule.
	strongCarbMarkers = []string{
		"pasta", "bread", "noodle", "flour", "spaghetti", "macaroni",
		"tortilla", "bagel", "crouton",
	}
	// Moderate carbs are tolerated when the user explicitly asked for meat.
	moderateCarbMarkers = []string{"rice", "potato", "corn", "quinoa", "oat"}

	glutenMarkers = []string{
		"pasta", "bread", "noodle", "flour", "wheat", "barley", "rye",
		"spaghetti", "macaroni", "crouton", "cracker", "bagel",
	}
	legumeMarkers = []string{"bean", "lentil", "chickpea", "peanut", "soy"}
	sugarMarkers  = []string{"sugar", "syrup"}
)

// substitutePhrases are keto/low-carb stand-ins that contain a carb word but
// are not the real thing. They are blanked out before marker scanning so a
// cauliflower rice bowl is not rejected for the "rice" in its name.
var substitutePhrases = []string{
	"cauliflower rice", "zucchini noodle", "shirataki noodle",
	"almond flour", "coconut flour",
	// not substitutions, but the same false-substring hazard
	"eggplant", "butternut",
}

// rule reports whether the scanned text satisfies one diet tag.
type rule func(text string) bool

var rules = map[domain.DietTag]rule{
	domain.DietVegan: func(t string) bool {
		return !containsAny(t, meatMarkers) && !containsAny(t, dairyMarkers) &&
			!containsAny(t, eggMarkers) && !containsAny(t, honeyMarkers)
	},
	domain.DietVegetarian: func(t string) bool {
		return !containsAny(t, meatMarkers)
	},
	domain.DietNonVegetarian: func(t string) bool {
		return containsAny(t, meatMarkers)
	},
	domain.DietKeto:    strictCarbRule,
	domain.DietLowCarb: strictCarbRule,
	domain.DietGlutenFree: func(t string) bool {
		return !containsAny(t, glutenMarkers)
	},
	domain.DietDairyFree: func(t string) bool {
		return !containsAny(t, dairyMarkers)
	},
	domain.DietPaleo: func(t string) bool {
		return !containsAny(t, strongCarbMarkers) && !containsAny(t, moderateCarbMarkers) &&
			!containsAny(t, dairyMarkers) && !containsAny(t, legumeMarkers) &&
			!containsAny(t, sugarMarkers)
	},
}

func strictCarbRule(t string) bool {
	return !containsAny(t, strongCarbMarkers) && !containsAny(t, moderateCarbMarkers)
}

// relaxedCarbRule applies when the user requested both non-vegetarian and a
// carb-restrictive tag: reject only dishes that are strongly high-carb AND
// meatless, so a steak with rice still makes the list. This reproduces the
// upstream product decision of never surfacing meatless dishes to users who
// explicitly asked for meat.
func relaxedCarbRule(t string) bool {
	return !(containsAny(t, strongCarbMarkers) && !containsAny(t, meatMarkers))
}

// Accepts reports whether a candidate satisfies every requested diet tag.
// Unknown tags are ignored (validation rejects them upstream). Pure and
// stateless; safe for concurrent use.
func Accepts(c domain.Candidate, diets []domain.DietTag) bool {
	if len(diets) == 0 {
		return true
	}

	requested := make(map[domain.DietTag]bool, len(diets))
	for _, d := range diets {
		requested[domain.NormalizeDietTag(d)] = true
	}

	relaxCarbs := requested[domain.DietNonVegetarian] &&
		(requested[domain.DietKeto] || requested[domain.DietLowCarb])

	text := neutralizeSubstitutes(c.SearchText())

	for tag := range requested {
		r, ok := rules[tag]
		if !ok {
			continue
		}
		if relaxCarbs && (tag == domain.DietKeto || tag == domain.DietLowCarb) {
			r = relaxedCarbRule
		}
		if !r(text) {
			return false
		}
	}
	return true
}

// Filter returns the candidates that pass Accepts, preserving order.
func Filter(candidates []domain.Candidate, diets []domain.DietTag) []domain.Candidate {
	if len(diets) == 0 {
		return candidates
	}
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if Accepts(c, diets) {
			out = append(out, c)
		}
	}
	return out
}

func neutralizeSubstitutes(text string) string {
	for _, p := range substitutePhrases {
		text = strings.ReplaceAll(text, p, " ")
	}
	return text
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
