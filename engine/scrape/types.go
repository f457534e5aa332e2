package scrape

import (
	"context"
	"time"

	"github.com/CulinaraAI/culinara-engine/engine/domain"
)

// Task is one URL to fetch plus how it was discovered. Depth 0 means the URL
// came from web search; depth 1 means it was found on a collection page.
// Depth never exceeds maxDepth.
type Task struct {
	URL   string
	Depth int
}

// maxDepth caps collection-page expansion to one level to bound fan-out.
const maxDepth = 1

// Page is the parsed result of fetching one URL. Either a single recipe, or a
// collection page enumerating links to recipes.
type Page struct {
	Title        string
	Ingredients  []string
	Instructions []string
	Facts        domain.RecipeFacts
	IsCollection bool
	Links        []string // populated only for collection pages
}

// WebSearcher turns free text into candidate recipe URLs. Implemented
// elsewhere (e.g. pkg/websearch); an empty result is a valid non-error
// outcome.
type WebSearcher interface {
	Search(ctx context.Context, text string, limit int) ([]string, error)
}

// PageFetcher fetches and parses one recipe page. Failures and timeouts are
// expected, recoverable outcomes.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Options configures a scrape run.
type Options struct {
	// Workers bounds how many fetches run at once.
	Workers int
	// FetchTimeout bounds each individual page fetch.
	FetchTimeout time.Duration
	// Budget bounds the whole stage; on exhaustion whatever completed is
	// returned and stragglers are abandoned.
	Budget time.Duration
	// SearchLimit is how many seed URLs to request from the web searcher.
	SearchLimit int
	// ExpandLimit caps how many links are scheduled from one collection page.
	ExpandLimit int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Workers:      5,
		FetchTimeout: 15 * time.Second,
		Budget:       25 * time.Second,
		SearchLimit:  5,
		ExpandLimit:  5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = d.FetchTimeout
	}
	if o.Budget <= 0 {
		o.Budget = d.Budget
	}
	if o.SearchLimit <= 0 {
		o.SearchLimit = d.SearchLimit
	}
	if o.ExpandLimit <= 0 {
		o.ExpandLimit = d.ExpandLimit
	}
	return o
}
