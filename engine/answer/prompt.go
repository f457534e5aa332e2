package answer

import (
	"fmt"
	"strings"

	"github.com/CulinaraAI/culinara-engine/engine/domain"
	"github.com/CulinaraAI/culinara-engine/engine/pantry"
)

const maxFacts = 5

// maxPromptIngredients keeps candidate blocks small enough for low-token
// local models.
const maxPromptIngredients = 8

func buildSummaryPrompt(q domain.Query, final []domain.Candidate) string {
	var b strings.Builder
	b.WriteString("You are a friendly cooking assistant. A user asked: ")
	b.WriteString(quote(q.Text))
	b.WriteString("\n")
	if prefs := describePrefs(q.Prefs); prefs != "" {
		b.WriteString("Their preferences: ")
		b.WriteString(prefs)
		b.WriteString("\n")
	}
	b.WriteString("\nRecommend the recipes below in a short, conversational answer. ")
	b.WriteString("Mention each recipe by name, say why it fits the question, and cite where it came from. ")
	b.WriteString("Do not invent recipes that are not listed.\n\n")
	for i, c := range final {
		writeCandidateBlock(&b, i+1, c)
	}
	return b.String()
}

func buildFactsPrompt(q domain.Query, final []domain.Candidate, pairings []pantry.Pairing) string {
	var b strings.Builder
	b.WriteString("Give up to 3 short, interesting cooking facts or tips relevant to these recipes. ")
	b.WriteString("One fact per line, starting with \"- \". No preamble.\n\n")
	b.WriteString("The user asked: ")
	b.WriteString(quote(q.Text))
	b.WriteString("\n\nRecipes:\n")
	for _, c := range final {
		b.WriteString("- ")
		b.WriteString(c.Title)
		b.WriteString("\n")
	}
	if len(pairings) > 0 {
		b.WriteString("\nKnown ingredient pairings worth mentioning:\n")
		for _, p := range pairings {
			fmt.Fprintf(&b, "- %s pairs with %s", p.Ingredient, p.PairsWith)
			if p.Note != "" {
				fmt.Fprintf(&b, " (%s)", p.Note)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeCandidateBlock(b *strings.Builder, n int, c domain.Candidate) {
	fmt.Fprintf(b, "Recipe %d: %s\n", n, c.Title)
	if c.SourceID != "" {
		fmt.Fprintf(b, "Source: %s\n", c.SourceID)
	}
	if len(c.Ingredients) > 0 {
		ing := c.Ingredients
		if len(ing) > maxPromptIngredients {
			ing = ing[:maxPromptIngredients]
		}
		fmt.Fprintf(b, "Key ingredients: %s\n", strings.Join(ing, ", "))
	}
	if c.Facts.TotalTime != "" {
		fmt.Fprintf(b, "Total time: %s\n", c.Facts.TotalTime)
	}
	if c.Facts.Servings != "" {
		fmt.Fprintf(b, "Servings: %s\n", c.Facts.Servings)
	}
	b.WriteString("\n")
}

func describePrefs(p domain.Preferences) string {
	var parts []string
	if len(p.Diets) > 0 {
		tags := make([]string, len(p.Diets))
		for i, d := range p.Diets {
			tags[i] = string(d)
		}
		parts = append(parts, strings.Join(tags, ", "))
	}
	if p.SkillLevel != "" {
		parts = append(parts, p.SkillLevel+" cook")
	}
	if p.Servings > 0 {
		parts = append(parts, fmt.Sprintf("cooking for %d", p.Servings))
	}
	if p.Goal != "" {
		parts = append(parts, "goal: "+p.Goal)
	}
	return strings.Join(parts, "; ")
}

// parseFacts extracts bullet or numbered lines from generated text, dropping
// blanks and capping the list.
func parseFacts(text string) []string {
	var facts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		line = trimNumbering(line)
		if line == "" {
			continue
		}
		facts = append(facts, line)
		if len(facts) == maxFacts {
			break
		}
	}
	return facts
}

// trimNumbering strips a leading "1." or "2)" style prefix.
func trimNumbering(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}

// fallbackNarrative is served when every generation provider failed. It is
// plain but correct: the candidates themselves are still good.
func fallbackNarrative(final []domain.Candidate) string {
	titles := make([]string, len(final))
	for i, c := range final {
		titles[i] = c.Title
	}
	if len(titles) == 1 {
		return fmt.Sprintf("I found a recipe for you: %s.", titles[0])
	}
	return fmt.Sprintf("I found %d recipes for you: %s.", len(titles), strings.Join(titles, "; "))
}

func noResultsNarrative(q domain.Query) string {
	if len(q.Prefs.Diets) > 0 {
		return "I couldn't find any recipes matching your question and dietary preferences. " +
			"Try rephrasing, or relax one of the dietary filters."
	}
	return "I couldn't find any recipes matching your question. Try rephrasing it or asking about a different dish."
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `'`) + `"`
}

// webQuery prefixes the user's diet tags onto the search text; the web search
// engine has no other channel for preferences.
func webQuery(q domain.Query) string {
	if len(q.Prefs.Diets) == 0 {
		return q.Text
	}
	tags := make([]string, len(q.Prefs.Diets))
	for i, d := range q.Prefs.Diets {
		tags[i] = string(d)
	}
	return strings.Join(tags, " ") + " " + q.Text
}
