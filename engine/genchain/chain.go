// Package genchain drives an ordered chain of text-generation providers.
// Each attempt runs under its own timeout; an error or timeout advances to
// the next provider rather than retrying the same one. Generation failure is
// never fatal to a request; callers substitute a safe default.
package genchain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/CulinaraAI/culinara-engine/engine/domain"
)

// TextGenerator is one opaque text-generation backend.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Provider is a descriptor in the fallback order. Adding or removing
// providers requires no control-flow changes, only a different list.
type Provider struct {
	Name      string
	Generator TextGenerator
	Timeout   time.Duration
}

// DefaultAttemptTimeout bounds a provider attempt when none is configured.
const DefaultAttemptTimeout = 5 * time.Second

// Result is the outcome of one chain run. OK is false only after every
// provider was exhausted, in which case Err carries ErrAllProvidersFailed.
type Result struct {
	Text     string
	Provider string
	OK       bool
	Err      error
}

// Chain tries providers in fixed order until one succeeds.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// New creates a Chain over the given provider order.
func New(providers []Provider, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{providers: providers, logger: logger}
}

// Generate runs the chain for one prompt. It always terminates within the
// sum of the per-provider timeouts, even against a backend that ignores its
// context: attempts run in their own goroutine and are abandoned on timeout.
func (c *Chain) Generate(ctx context.Context, prompt string) Result {
	for _, p := range c.providers {
		text, err := c.attempt(ctx, p, prompt)
		if err != nil {
			c.logger.Warn("genchain: provider failed, trying next",
				"provider", p.Name, "err", err)
			continue
		}
		if text == "" {
			c.logger.Warn("genchain: provider returned empty text, trying next",
				"provider", p.Name)
			continue
		}
		return Result{Text: text, Provider: p.Name, OK: true}
	}
	c.logger.Error("genchain: all providers exhausted", "providers", len(c.providers))
	return Result{Err: domain.ErrAllProvidersFailed}
}

func (c *Chain) attempt(ctx context.Context, p Provider, prompt string) (string, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		text, err := p.Generator.GenerateText(attemptCtx, prompt)
		ch <- outcome{strings.TrimSpace(text), err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrProviderFailed, o.err)
		}
		return o.text, nil
	case <-attemptCtx.Done():
		return "", domain.ErrProviderTimeout
	}
}
