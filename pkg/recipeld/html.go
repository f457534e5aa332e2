package recipeld

import (
	"regexp"
	"strings"
)

var (
	jsonLDRe = regexp.MustCompile(`(?is)<script[^>]*type\s*=\s*["']application/ld\+json["'][^>]*>(.*?)</script>`)
	titleRe  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	h1Re     = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	hrefRe   = regexp.MustCompile(`(?i)href\s*=\s*"([^"]+)"`)
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	spaceRe  = regexp.MustCompile(`\s+`)

	// numberListRe matches roundup titles like "15 easy recipes" or
	// "30 quick dishes".
	numberListRe = regexp.MustCompile(`\d+\s+(easy|quick|best|top|vegan|vegetarian)?\s*(recipes|dishes|meals|snacks)`)
)

var collectionURLMarkers = []string{
	"/collection/", "/collections/",
	"/roundup/", "/roundups/",
	"/ideas/", "/browse/", "/gallery/",
	"/recipes/category/",
}

var collectionTitleMarkers = []string{
	"collection", "roundup",
	"best ", "top ",
	"easy recipes", "quick recipes",
	"dinner recipes", "lunch recipes", "breakfast recipes",
	"vegetarian recipes", "vegan recipes",
	"batch cooking recipes",
	"30-minute", "minute meal",
}

// IsCollection reports whether a page is a recipe roundup rather than a
// single recipe, judged from its URL and title.
func IsCollection(pageURL, title string) bool {
	urlLower := strings.ToLower(pageURL)
	for _, marker := range collectionURLMarkers {
		if strings.Contains(urlLower, marker) {
			return true
		}
	}

	if title == "" {
		return false
	}
	titleLower := strings.ToLower(title)
	if strings.HasSuffix(titleLower, " recipes") || strings.HasSuffix(titleLower, " dishes") {
		return true
	}
	for _, marker := range collectionTitleMarkers {
		if strings.Contains(titleLower, marker) {
			return true
		}
	}
	return numberListRe.MatchString(titleLower)
}

func jsonLDBlocks(html string) []string {
	var blocks []string
	for _, m := range jsonLDRe.FindAllStringSubmatch(html, -1) {
		blocks = append(blocks, m[1])
	}
	return blocks
}

func pageTitle(html string) string {
	if m := titleRe.FindStringSubmatch(html); m != nil {
		if t := cleanText(m[1]); t != "" {
			return t
		}
	}
	if m := h1Re.FindStringSubmatch(html); m != nil {
		return cleanText(m[1])
	}
	return ""
}

func cleanText(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#x27;", "'", "&quot;", `"`, "&nbsp;", " ").Replace(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
