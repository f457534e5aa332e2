// Package answer orchestrates one natural-language recipe question end to
// end: embedding, vector search, web-scrape fallback, dietary filtering,
// ranking, and narrative generation. Every dependency outage short of an
// invalid query degrades the answer instead of failing the request.
package answer

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/CulinaraAI/culinara-engine/engine/diet"
	"github.com/CulinaraAI/culinara-engine/engine/domain"
	"github.com/CulinaraAI/culinara-engine/engine/genchain"
	"github.com/CulinaraAI/culinara-engine/engine/pantry"
	"github.com/CulinaraAI/culinara-engine/engine/rank"
	"github.com/CulinaraAI/culinara-engine/engine/relevance"
	"github.com/CulinaraAI/culinara-engine/engine/semantic"
	"github.com/CulinaraAI/culinara-engine/pkg/fn"
	"github.com/CulinaraAI/culinara-engine/pkg/metrics"
)

// Embedder turns query text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RecipeSearcher is the vector-store read path.
type RecipeSearcher interface {
	Search(ctx context.Context, embedding []float32, topK int, threshold float32) ([]semantic.Hit, error)
}

// WebScraper produces web-sourced candidates when the database comes up dry.
type WebScraper interface {
	Scrape(ctx context.Context, query string) []domain.Candidate
}

// Generator runs the provider fallback chain for one prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) genchain.Result
}

// PairingSource looks up complementary ingredients for the facts prompt.
type PairingSource interface {
	Pairings(ctx context.Context, ingredients []string, limit int) ([]pantry.Pairing, error)
}

// ResultEvent is published after filtering and ranking so downstream
// consumers (re-ingestion, analytics) see what was served for a query.
type ResultEvent struct {
	Query      string             `json:"query"`
	Candidates []domain.Candidate `json:"candidates"`
	Degraded   bool               `json:"degraded"`
	AnsweredAt time.Time          `json:"answered_at"`
}

// EventSink receives served-result events. Publishing is best effort.
type EventSink interface {
	PublishResult(ctx context.Context, ev ResultEvent) error
}

// Options tunes the answer pipeline.
type Options struct {
	// TopK is how many vector hits to request before filtering.
	TopK int
	// Threshold is the minimum similarity score for a database hit.
	Threshold float32
	// MinDBResults is how many surviving database candidates make the web
	// stage unnecessary.
	MinDBResults int
	// ResultLimit caps the candidates returned to the caller.
	ResultLimit int
	// SoftDeadline is advisory: a request running past it is flagged
	// degraded and logged, never cancelled. Stage budgets and provider
	// timeouts are the hard bounds.
	SoftDeadline time.Duration
	// PairingLimit caps pairing-graph rows folded into the facts prompt.
	PairingLimit int
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		TopK:         10,
		Threshold:    0.45,
		MinDBResults: 1,
		ResultLimit:  3,
		SoftDeadline: 8 * time.Second,
		PairingLimit: 4,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TopK <= 0 {
		o.TopK = d.TopK
	}
	if o.Threshold <= 0 {
		o.Threshold = d.Threshold
	}
	if o.MinDBResults <= 0 {
		o.MinDBResults = d.MinDBResults
	}
	if o.ResultLimit <= 0 {
		o.ResultLimit = d.ResultLimit
	}
	if o.SoftDeadline <= 0 {
		o.SoftDeadline = d.SoftDeadline
	}
	if o.PairingLimit <= 0 {
		o.PairingLimit = d.PairingLimit
	}
	return o
}

type pipelineMetrics struct {
	answers     *metrics.Counter
	webFallback *metrics.Counter
	degraded    *metrics.Counter
	duration    *metrics.Histogram
}

func newPipelineMetrics(reg *metrics.Registry) *pipelineMetrics {
	if reg == nil {
		reg = metrics.New()
	}
	return &pipelineMetrics{
		answers:     reg.Counter("culinara_answers_total", "Answered queries"),
		webFallback: reg.Counter("culinara_web_fallback_total", "Queries that needed the web stage"),
		degraded:    reg.Counter("culinara_degraded_total", "Answers served degraded"),
		duration:    reg.Histogram("culinara_answer_duration_seconds", "End-to-end answer latency", nil),
	}
}

// Service answers recipe queries.
type Service struct {
	embed    Embedder
	store    RecipeSearcher
	scraper  WebScraper
	gen      Generator
	pairings PairingSource // optional
	sink     EventSink     // optional
	opts     Options
	logger   *slog.Logger
	metrics  *pipelineMetrics
}

// New creates a Service. pairings and sink may be nil; reg may be nil for an
// unexported throwaway registry (tests).
func New(embed Embedder, store RecipeSearcher, scraper WebScraper, gen Generator,
	pairings PairingSource, sink EventSink, opts Options, reg *metrics.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embed:    embed,
		store:    store,
		scraper:  scraper,
		gen:      gen,
		pairings: pairings,
		sink:     sink,
		opts:     opts.withDefaults(),
		logger:   logger,
		metrics:  newPipelineMetrics(reg),
	}
}

// Answer runs the full pipeline for one query. The only error path is query
// validation; every backend outage is absorbed into a degraded or empty
// response.
func (s *Service) Answer(ctx context.Context, q domain.Query) (domain.Response, error) {
	if err := domain.ValidateQuery(q); err != nil {
		return domain.Response{}, err
	}

	ctx, span := otel.Tracer("engine/answer").Start(ctx, "answer.query")
	defer span.End()

	start := time.Now()
	defer s.metrics.duration.Since(start)
	s.metrics.answers.Inc()

	final, prov := s.retrieve(ctx, q)

	var resp domain.Response
	if len(final) == 0 {
		resp = domain.Response{
			Narrative:  noResultsNarrative(q),
			Provenance: prov,
		}
	} else {
		resp = s.compose(ctx, q, final)
		resp.Provenance = prov
	}

	s.markDeadline(&resp, start)
	if resp.Degraded {
		s.metrics.degraded.Inc()
	}
	s.publish(ctx, q, resp)
	return resp, nil
}

// markDeadline applies the advisory deadline: a late answer is flagged and
// logged but still served in full. Stage budgets and provider timeouts are
// the hard bounds; nothing in flight is cancelled here.
func (s *Service) markDeadline(resp *domain.Response, start time.Time) {
	if elapsed := time.Since(start); elapsed > s.opts.SoftDeadline {
		resp.Degraded = true
		s.logger.Warn("answer: soft deadline exceeded",
			"elapsed", elapsed, "deadline", s.opts.SoftDeadline)
	}
}

// Search runs retrieval only: embed, vector search, web fallback, dietary
// filter, rank. It is the pipeline behind GET-style search endpoints that
// want candidates without a generated narrative.
func (s *Service) Search(ctx context.Context, q domain.Query) ([]domain.Candidate, domain.Provenance, error) {
	if err := domain.ValidateQuery(q); err != nil {
		return nil, domain.Provenance{}, err
	}

	ctx, span := otel.Tracer("engine/answer").Start(ctx, "answer.search")
	defer span.End()

	start := time.Now()
	final, prov := s.retrieve(ctx, q)
	if elapsed := time.Since(start); elapsed > s.opts.SoftDeadline {
		s.logger.Warn("answer: soft deadline exceeded",
			"elapsed", elapsed, "deadline", s.opts.SoftDeadline)
	}
	return final, prov, nil
}

// retrieve produces the final ranked candidate list and its provenance.
func (s *Service) retrieve(ctx context.Context, q domain.Query) ([]domain.Candidate, domain.Provenance) {
	terms := relevance.Terms(q.Text)
	ingredientTerms := relevance.IngredientTerms(terms)

	var prov domain.Provenance

	dbCands := s.searchDatabase(ctx, q.Text, terms, ingredientTerms)
	prov.UsedDatabase = len(dbCands) > 0

	var webCands []domain.Candidate
	if len(dbCands) < s.opts.MinDBResults {
		s.metrics.webFallback.Inc()
		webCands = s.scraper.Scrape(ctx, webQuery(q))
		prov.UsedWeb = len(webCands) > 0
	}

	final := rank.Merge(
		diet.Filter(dbCands, q.Prefs.Diets),
		diet.Filter(webCands, q.Prefs.Diets),
		s.opts.ResultLimit,
	)
	return final, prov
}

// searchDatabase embeds the query and runs the vector search, applying
// keyword boosts and dropping hits that conflict with a requested protein.
// Any outage returns no candidates.
func (s *Service) searchDatabase(ctx context.Context, query string, terms, ingredientTerms []string) []domain.Candidate {
	embedding, err := s.embed.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("answer: embedding unavailable, skipping database stage", "err", err)
		return nil
	}

	hits, err := s.store.Search(ctx, embedding, s.opts.TopK, s.opts.Threshold)
	if err != nil {
		s.logger.Warn("answer: vector search unavailable", "err", err)
		return nil
	}

	var out []domain.Candidate
	for _, h := range hits {
		c := h.Candidate()
		adj, plausible := relevance.Boost(terms, ingredientTerms, c.SearchText())
		if !plausible {
			continue
		}
		c.Score = relevance.Clamp(c.Score + adj)
		out = append(out, c)
	}
	return out
}

// compose generates the narrative and trivia facts concurrently over the
// final candidates. Generation failure never drops the candidates; the
// response falls back to a template narrative and is marked degraded.
func (s *Service) compose(ctx context.Context, q domain.Query, final []domain.Candidate) domain.Response {
	pairings := s.lookupPairings(ctx, final)

	summaryPrompt := buildSummaryPrompt(q, final)
	factsPrompt := buildFactsPrompt(q, final, pairings)

	results := fn.FanOut(
		func() genchain.Result { return s.gen.Generate(ctx, summaryPrompt) },
		func() genchain.Result { return s.gen.Generate(ctx, factsPrompt) },
	)
	summary, factsRes := results[0], results[1]

	resp := domain.Response{Candidates: final}
	if summary.OK {
		resp.Narrative = summary.Text
	} else {
		resp.Narrative = fallbackNarrative(final)
		resp.Degraded = true
	}
	if factsRes.OK {
		resp.Facts = parseFacts(factsRes.Text)
	}
	if ctx.Err() != nil {
		resp.Degraded = true
	}
	return resp
}

// lookupPairings collects pairing rows for the served ingredients. The graph
// is optional; failures are logged and skipped.
func (s *Service) lookupPairings(ctx context.Context, final []domain.Candidate) []pantry.Pairing {
	if s.pairings == nil || len(final) == 0 {
		return nil
	}
	pairings, err := s.pairings.Pairings(ctx, final[0].Ingredients, s.opts.PairingLimit)
	if err != nil {
		s.logger.Warn("answer: pairing lookup failed, facts prompt unenriched", "err", err)
		return nil
	}
	return pairings
}

func (s *Service) publish(ctx context.Context, q domain.Query, resp domain.Response) {
	if s.sink == nil {
		return
	}
	ev := ResultEvent{
		Query:      q.Text,
		Candidates: resp.Candidates,
		Degraded:   resp.Degraded,
		AnsweredAt: time.Now().UTC(),
	}
	if err := s.sink.PublishResult(ctx, ev); err != nil {
		s.logger.Warn("answer: result event publish failed", "err", err)
	}
}
