// Command ingest consumes recipe documents from NATS, embeds them with
// Ollama, and writes them to the Qdrant recipe collection. Re-publishing a
// source URL replaces its previous points.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/CulinaraAI/culinara-engine/engine/semantic"
	"github.com/CulinaraAI/culinara-engine/pkg/metrics"
	"github.com/CulinaraAI/culinara-engine/pkg/natsutil"
	"github.com/CulinaraAI/culinara-engine/pkg/ollama"
)

var met = metrics.New()

var (
	mDocsTotal  = met.Counter("culinara_ingest_docs_total", "Recipe documents stored")
	mDocsFailed = met.Counter("culinara_ingest_docs_failed_total", "Recipe documents that failed embedding or storage")
	mBatches    = met.Counter("culinara_ingest_batches_total", "Ingest events processed")
	mEmbedDur   = met.Histogram("culinara_ingest_embed_duration_seconds", "Per-document embed latency", nil)
	mUpsertDur  = met.Histogram("culinara_ingest_upsert_duration_seconds", "Per-chunk vector store write latency", nil)
	mEventDocs  = met.Histogram("culinara_ingest_event_docs", "Documents per ingest event", []float64{1, 5, 10, 25, 50, 100, 250})
)

const vectorDims = 768 // nomic-embed-text

func main() {
	var (
		natsURL     = flag.String("nats", "nats://localhost:4222", "NATS server URL")
		subject     = flag.String("subject", "recipes.ingest", "subject carrying ingest events")
		ollamaURL   = flag.String("ollama", "http://localhost:11434", "Ollama base URL")
		ollamaModel = flag.String("model", "nomic-embed-text", "Ollama embedding model")
		qdrantAddr  = flag.String("qdrant", "localhost:6334", "Qdrant gRPC address")
		collection  = flag.String("collection", "recipes", "Qdrant collection name")
		metricsPort = flag.Int("metrics-port", 9091, "metrics listen port")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	met.ServeAsync(*metricsPort)

	store, err := semantic.New(*qdrantAddr, *collection)
	if err != nil {
		logger.Error("qdrant connect failed", "err", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.EnsureCollection(ctx, vectorDims); err != nil {
		logger.Error("qdrant ensure collection failed", "err", err)
		os.Exit(1)
	}
	logger.Info("connected to qdrant", "collection", *collection, "dims", vectorDims)

	embedder := ollama.NewEmbedClient(*ollamaURL, *ollamaModel)
	logger.Info("using ollama embeddings", "model", *ollamaModel)

	nc, err := nats.Connect(*natsURL, nats.Name("culinara-ingest"))
	if err != nil {
		logger.Error("nats connect failed", "err", err)
		os.Exit(1)
	}
	defer nc.Drain()

	ing := &ingestor{embed: embedder, store: store, logger: logger}

	sub, err := natsutil.Subscribe(nc, *subject, func(ctx context.Context, ev IngestEvent) {
		mBatches.Inc()
		mEventDocs.Observe(float64(len(ev.Recipes)))

		start := time.Now()
		stored, failed := ing.Process(ctx, ev)
		logger.Info("ingest event processed",
			"source", ev.Source,
			"stored", stored,
			"failed", failed,
			"duration", time.Since(start),
		)
	})
	if err != nil {
		logger.Error("subscribe failed", "subject", *subject, "err", err)
		os.Exit(1)
	}
	defer sub.Drain()

	logger.Info("ingest worker started", "subject", *subject)
	<-ctx.Done()
	logger.Info("shutting down")
}
