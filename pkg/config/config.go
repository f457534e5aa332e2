// Package config loads application configuration from an optional YAML file
// with environment variable overrides. Environment always wins so container
// deployments can skip the file entirely.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// QdrantConfig contains connection details for the recipe vector store.
type QdrantConfig struct {
	Addr       string `yaml:"addr"`
	Collection string `yaml:"collection"`
	Dims       int    `yaml:"dims"`
}

// OllamaConfig configures the local Ollama server used for embeddings and
// fallback generation.
type OllamaConfig struct {
	URL        string `yaml:"url"`
	EmbedModel string `yaml:"embed_model"`
	GenModel   string `yaml:"gen_model"`
}

// OpenAIConfig configures the primary OpenAI-compatible generation backend.
// An empty APIKey disables the provider and the chain starts at Ollama.
type OpenAIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// NATSConfig configures the event bus.
type NATSConfig struct {
	URL            string `yaml:"url"`
	ResultsSubject string `yaml:"results_subject"`
	IngestSubject  string `yaml:"ingest_subject"`
}

// Neo4jConfig configures the optional pairing graph.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Server ServerConfig `yaml:"server"`
	Qdrant QdrantConfig `yaml:"qdrant"`
	Ollama OllamaConfig `yaml:"ollama"`
	OpenAI OpenAIConfig `yaml:"openai"`
	NATS   NATSConfig   `yaml:"nats"`
	Neo4j  Neo4jConfig  `yaml:"neo4j"`
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist, then applies environment overrides.
func Load(path string) (*AppConfig, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func defaults() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{Port: "8080", CORSOrigin: "*"},
		Qdrant: QdrantConfig{Addr: "localhost:6334", Collection: "recipes", Dims: 768},
		Ollama: OllamaConfig{
			URL:        "http://localhost:11434",
			EmbedModel: "nomic-embed-text",
			GenModel:   "llama3.1",
		},
		OpenAI: OpenAIConfig{Model: "gpt-4o-mini"},
		NATS: NATSConfig{
			URL:            "nats://localhost:4222",
			ResultsSubject: "recipes.results",
			IngestSubject:  "recipes.ingest",
		},
		Neo4j: Neo4jConfig{URI: "neo4j://localhost:7687", User: "neo4j", Password: "password"},
	}
}

func applyEnv(cfg *AppConfig) {
	override(&cfg.Server.Port, "PORT")
	override(&cfg.Server.CORSOrigin, "CORS_ORIGIN")
	override(&cfg.Qdrant.Addr, "QDRANT_ADDR")
	override(&cfg.Qdrant.Collection, "QDRANT_COLLECTION")
	overrideInt(&cfg.Qdrant.Dims, "QDRANT_DIMS")
	override(&cfg.Ollama.URL, "OLLAMA_URL")
	override(&cfg.Ollama.EmbedModel, "OLLAMA_EMBED_MODEL")
	override(&cfg.Ollama.GenModel, "OLLAMA_GEN_MODEL")
	override(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	override(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	override(&cfg.OpenAI.Model, "OPENAI_MODEL")
	override(&cfg.NATS.URL, "NATS_URL")
	override(&cfg.NATS.ResultsSubject, "NATS_RESULTS_SUBJECT")
	override(&cfg.NATS.IngestSubject, "NATS_INGEST_SUBJECT")
	override(&cfg.Neo4j.URI, "NEO4J_URI")
	override(&cfg.Neo4j.User, "NEO4J_USER")
	override(&cfg.Neo4j.Password, "NEO4J_PASS")
}

func override(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func overrideInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}
