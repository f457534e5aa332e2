// Package scrape fans out over candidate recipe URLs with a bounded worker
// pool. Fetches run under per-task timeouts and the whole stage under a
// wall-clock budget; failed fetches are logged and excluded without
// disturbing siblings, and collection pages are expanded one level deep.
package scrape

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/CulinaraAI/culinara-engine/engine/domain"
	"github.com/CulinaraAI/culinara-engine/engine/relevance"
	"github.com/CulinaraAI/culinara-engine/pkg/resilience"
)

// Coordinator runs the web-fallback scraping stage.
type Coordinator struct {
	search  WebSearcher
	fetch   PageFetcher
	limiter *rate.Limiter
	breaker *resilience.Breaker
	opts    Options
	logger  *slog.Logger
}

// New creates a Coordinator. limiter and breaker are optional; when set they
// pace page fetches and guard the web search call respectively.
func New(search WebSearcher, fetch PageFetcher, limiter *rate.Limiter, breaker *resilience.Breaker, opts Options, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		search:  search,
		fetch:   fetch,
		limiter: limiter,
		breaker: breaker,
		opts:    opts.withDefaults(),
		logger:  logger,
	}
}

// Scrape searches the web for the query and scrapes the resulting URLs.
// Search failure is an expected outcome and yields an empty result.
func (c *Coordinator) Scrape(ctx context.Context, query string) []domain.Candidate {
	seeds, err := c.searchSeeds(ctx, query)
	if err != nil {
		c.logger.Warn("scrape: web search unavailable", "err", err)
		return nil
	}
	if len(seeds) == 0 {
		c.logger.Info("scrape: web search returned no urls", "query", query)
		return nil
	}
	return c.ScrapeURLs(ctx, query, seeds)
}

func (c *Coordinator) searchSeeds(ctx context.Context, query string) ([]string, error) {
	if c.breaker == nil {
		return c.search.Search(ctx, query, c.opts.SearchLimit)
	}
	var seeds []string
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		seeds, err = c.search.Search(ctx, query, c.opts.SearchLimit)
		return err
	})
	return seeds, err
}

// ScrapeURLs fans out over seed URLs with a bounded worker pool. The stage
// returns whatever completed within the budget; stragglers are abandoned and
// their late results discarded. Completion order of workers is unspecified.
func (c *Coordinator) ScrapeURLs(ctx context.Context, query string, seeds []string) []domain.Candidate {
	if len(seeds) == 0 {
		return nil
	}

	ctx, span := otel.Tracer("engine/scrape").Start(ctx, "scrape.urls")
	defer span.End()

	stageCtx, cancel := context.WithTimeout(ctx, c.opts.Budget)
	defer cancel()

	// Capacity covers every seed plus one expansion wave per seed, so
	// enqueue never blocks a worker.
	tasks := make(chan Task, len(seeds)*(1+c.opts.ExpandLimit))
	var pending sync.WaitGroup

	enqueue := func(t Task) {
		pending.Add(1)
		select {
		case tasks <- t:
		default:
			// Queue sizing makes this unreachable; guard anyway.
			pending.Done()
			c.logger.Warn("scrape: task queue full, dropping", "url", t.URL)
		}
	}

	var mu sync.Mutex
	var results []domain.Candidate
	collect := func(cand domain.Candidate) {
		mu.Lock()
		results = append(results, cand)
		mu.Unlock()
	}

	for _, u := range seeds {
		enqueue(Task{URL: u, Depth: 0})
	}

	for i := 0; i < c.opts.Workers; i++ {
		go func() {
			for t := range tasks {
				c.runTask(stageCtx, query, t, enqueue, collect)
				pending.Done()
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		pending.Wait()
		close(tasks)
		close(done)
	}()

	select {
	case <-done:
	case <-stageCtx.Done():
		c.logger.Warn("scrape: stage budget exhausted, returning partial results",
			"budget", c.opts.Budget)
	}

	mu.Lock()
	out := make([]domain.Candidate, len(results))
	copy(out, results)
	mu.Unlock()

	c.logger.Info("scrape: stage complete", "seeds", len(seeds), "candidates", len(out))
	return out
}

// runTask fetches one URL under the per-task timeout. A failed or timed-out
// fetch is logged and excluded; it never aborts sibling tasks.
func (c *Coordinator) runTask(ctx context.Context, query string, t Task, enqueue func(Task), collect func(domain.Candidate)) {
	if ctx.Err() != nil {
		return // budget already exhausted, abandon
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()

	page, err := c.fetch.Fetch(fetchCtx, t.URL)
	if err != nil {
		c.logger.Warn("scrape: fetch failed", "url", t.URL, "depth", t.Depth, "err", err)
		return
	}

	if page.IsCollection {
		if t.Depth >= maxDepth {
			c.logger.Debug("scrape: collection page at max depth, skipping", "url", t.URL)
			return
		}
		n := 0
		for _, link := range page.Links {
			if n >= c.opts.ExpandLimit {
				break
			}
			enqueue(Task{URL: link, Depth: t.Depth + 1})
			n++
		}
		c.logger.Info("scrape: expanded collection page", "url", t.URL, "links", n)
		return
	}

	collect(c.candidateFromPage(query, t.URL, page))
}

func (c *Coordinator) candidateFromPage(query, url string, page Page) domain.Candidate {
	cand := domain.Candidate{
		Title:        page.Title,
		Ingredients:  page.Ingredients,
		Instructions: page.Instructions,
		SourceID:     url,
		Facts:        page.Facts,
		Source:       domain.SourceWeb,
	}
	cand.Score = relevance.WebScore(query, cand.SearchText())
	return cand
}
