package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minQueryLength = 3
	maxServings    = 100
)

// ValidateQuery validates a recipe query. A non-nil error means the caller
// violated the contract (programmer/input error), not an environmental fault.
func ValidateQuery(q Query) error {
	text := strings.TrimSpace(q.Text)

	if text == "" {
		return NewValidationError("text", text, ErrInvalidQuery)
	}
	if utf8.RuneCountInString(text) < minQueryLength {
		return NewValidationError("text", text, ErrQueryTooShort)
	}

	for _, tag := range q.Prefs.Diets {
		if !ValidDietTags[NormalizeDietTag(tag)] {
			return NewValidationError("diets", string(tag), ErrUnknownDietTag)
		}
	}

	if q.Prefs.Servings < 0 || q.Prefs.Servings > maxServings {
		return NewValidationError("servings", fmt.Sprintf("%d", q.Prefs.Servings), ErrInvalidServings)
	}

	return nil
}

// NormalizeDietTag maps user spellings like "Non-Vegetarian" or "low carb"
// onto the canonical tag constants.
func NormalizeDietTag(tag DietTag) DietTag {
	s := strings.ToLower(strings.TrimSpace(string(tag)))
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, " ", "-")
	return DietTag(s)
}
