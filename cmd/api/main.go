// Package main implements the Culinara API server: the HTTP surface over the
// recipe answer pipeline.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/time/rate"

	"github.com/CulinaraAI/culinara-engine/engine/answer"
	"github.com/CulinaraAI/culinara-engine/engine/genchain"
	"github.com/CulinaraAI/culinara-engine/engine/pantry"
	"github.com/CulinaraAI/culinara-engine/engine/scrape"
	"github.com/CulinaraAI/culinara-engine/engine/semantic"
	"github.com/CulinaraAI/culinara-engine/pkg/config"
	"github.com/CulinaraAI/culinara-engine/pkg/metrics"
	"github.com/CulinaraAI/culinara-engine/pkg/mid"
	"github.com/CulinaraAI/culinara-engine/pkg/ollama"
	"github.com/CulinaraAI/culinara-engine/pkg/recipeld"
	"github.com/CulinaraAI/culinara-engine/pkg/resilience"
	"github.com/CulinaraAI/culinara-engine/pkg/websearch"
)

const maxRequestBody = 64 << 10

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(envOr("CONFIG_PATH", "config.yaml"))
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(cfg *config.AppConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Vector store ---
	store, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()
	if err := store.EnsureCollection(ctx, cfg.Qdrant.Dims); err != nil {
		// The answer pipeline degrades to web scraping while the store is
		// down, so boot anyway.
		logger.Warn("qdrant collection not ready", "err", err)
	}

	// --- Embeddings ---
	embedder := ollama.NewEmbedClient(cfg.Ollama.URL, cfg.Ollama.EmbedModel)

	// --- Web scrape stage ---
	searcher := websearch.New(websearch.Options{RequestsPerSecond: 1})
	fetcher := recipeld.NewFetcher(0)
	fetchLimiter := rate.NewLimiter(rate.Limit(2), 2)
	searchBreaker := resilience.NewBreaker(resilience.DefaultBreakerOpts)
	scraper := scrape.New(searcher, fetcher, fetchLimiter, searchBreaker, scrape.DefaultOptions(), logger)

	// --- Generation chain ---
	chain, err := buildChain(cfg, logger)
	if err != nil {
		return err
	}

	// --- Pairing graph (optional) ---
	var pairings answer.PairingSource
	if driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URI, neo4j.BasicAuth(cfg.Neo4j.User, cfg.Neo4j.Password, "")); err != nil {
		logger.Warn("neo4j unavailable, pairing enrichment disabled", "err", err)
	} else {
		defer driver.Close(ctx)
		pairings = pantry.New(driver)
	}

	// --- Result event sink (optional) ---
	var sink answer.EventSink
	if nc, err := nats.Connect(cfg.NATS.URL, nats.Name("culinara-api")); err != nil {
		logger.Warn("nats unavailable, result events disabled", "err", err)
	} else {
		defer nc.Drain()
		sink = &natsSink{
			nc:             nc,
			resultsSubject: cfg.NATS.ResultsSubject,
			ingestSubject:  cfg.NATS.IngestSubject,
		}
	}

	reg := metrics.New()
	svc := answer.New(embedder, store, scraper, chain, pairings, sink, answer.DefaultOptions(), reg, logger)

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/chat", handleChat(svc, logger))
	mux.HandleFunc("POST /api/search", handleSearch(svc, logger))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.Server.CORSOrigin),
		mid.OTel("culinara-api"),
		mid.MaxBody(maxRequestBody),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// buildChain assembles the generation fallback order: an OpenAI-compatible
// backend first when configured, local Ollama always last.
func buildChain(cfg *config.AppConfig, logger *slog.Logger) (*genchain.Chain, error) {
	var providers []genchain.Provider

	if cfg.OpenAI.APIKey != "" || cfg.OpenAI.BaseURL != "" {
		gen, err := genchain.NewOpenAI(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		if err != nil {
			return nil, fmt.Errorf("openai provider: %w", err)
		}
		providers = append(providers, genchain.Provider{Name: "openai", Generator: gen, Timeout: 6 * time.Second})
	}

	gen, err := genchain.NewOllama(cfg.Ollama.URL, cfg.Ollama.GenModel)
	if err != nil {
		return nil, fmt.Errorf("ollama provider: %w", err)
	}
	providers = append(providers, genchain.Provider{Name: "ollama", Generator: gen, Timeout: 10 * time.Second})

	return genchain.New(providers, logger), nil
}
