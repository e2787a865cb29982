package embed

import (
	"context"
	"fmt"
	"strings"
)

// ProviderType names a concrete Embedder implementation.
type ProviderType string

const (
	// ProviderOllama embeds via Ollama's HTTP API.
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic embeds via the deterministic hash-projection embedder.
	// Always available; used as the terminal link of the fallback chain
	// and for BM25-only indexing where no real model is wanted.
	ProviderStatic ProviderType = "static"
)

// String returns the string representation of ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// ParseProvider converts a string to a ProviderType, defaulting to Ollama
// for anything unrecognized.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static":
		return ProviderStatic
	default:
		return ProviderOllama
	}
}

// ValidProviders returns all valid provider names.
func ValidProviders() []string {
	return []string{string(ProviderOllama), string(ProviderStatic)}
}

// IsValidProvider checks if a provider name is valid.
func IsValidProvider(s string) bool {
	for _, p := range ValidProviders() {
		if strings.ToLower(s) == p {
			return true
		}
	}
	return false
}

// FallbackChain tries a sequence of embedders in order and uses the
// first whose Available reports true. It satisfies Embedder itself, so
// the batcher and the rest of the indexing pipeline see a single logical
// embedder regardless of how many candidates are configured.
type FallbackChain struct {
	candidates []Embedder
	active     Embedder
}

var _ Embedder = (*FallbackChain)(nil)

// NewFallbackChain builds a chain over candidates, selecting the first
// available one eagerly so Dimensions/ModelName are answerable
// immediately. Returns an error if none are available.
func NewFallbackChain(ctx context.Context, candidates ...Embedder) (*FallbackChain, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("fallback chain requires at least one embedder")
	}

	c := &FallbackChain{candidates: candidates}
	if err := c.selectActive(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *FallbackChain) selectActive(ctx context.Context) error {
	for _, candidate := range c.candidates {
		if candidate.Available(ctx) {
			c.active = candidate
			return nil
		}
	}
	return fmt.Errorf("no embedder in the fallback chain is available")
}

// Embed embeds a single text using the currently active embedder,
// re-selecting on failure in case the active embedder has since become
// unavailable (e.g. Ollama was stopped mid-run).
func (c *FallbackChain) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.active.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}
	if reselectErr := c.selectActive(ctx); reselectErr != nil {
		return nil, err
	}
	return c.active.Embed(ctx, text)
}

// EmbedBatch embeds a batch using the currently active embedder. A batch
// failure propagates to the whole batch rather than retrying
// per-element; callers (the Batcher) already fan the error out to every
// request in the batch.
func (c *FallbackChain) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := c.active.EmbedBatch(ctx, texts)
	if err == nil {
		return vecs, nil
	}
	if reselectErr := c.selectActive(ctx); reselectErr != nil {
		return nil, err
	}
	return c.active.EmbedBatch(ctx, texts)
}

// Dimensions returns the active embedder's dimension.
func (c *FallbackChain) Dimensions() int {
	return c.active.Dimensions()
}

// ModelName returns the active embedder's model identifier.
func (c *FallbackChain) ModelName() string {
	return c.active.ModelName()
}

// Available reports whether any candidate in the chain is available.
func (c *FallbackChain) Available(ctx context.Context) bool {
	for _, candidate := range c.candidates {
		if candidate.Available(ctx) {
			return true
		}
	}
	return false
}

// Close closes every candidate embedder in the chain.
func (c *FallbackChain) Close() error {
	var firstErr error
	for _, candidate := range c.candidates {
		if err := candidate.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewEmbedder builds the default Embedder for a provider tag: Ollama
// (falling back to the static embedder if Ollama is unreachable) or
// static directly. Query-embedding caching wraps the result unless
// useCache is false.
func NewEmbedder(ctx context.Context, provider ProviderType, model string, host string, useCache bool) (Embedder, error) {
	var embedder Embedder
	var err error

	switch provider {
	case ProviderStatic:
		embedder = NewStaticEmbedder()
	default:
		embedder, err = newOllamaWithStaticFallback(ctx, model, host)
	}
	if err != nil {
		return nil, err
	}

	if useCache {
		embedder = NewCachedEmbedderWithDefaults(embedder)
	}
	return embedder, nil
}

func newOllamaWithStaticFallback(ctx context.Context, model, host string) (Embedder, error) {
	cfg := DefaultOllamaConfig()
	if model != "" {
		cfg.Model = model
	}
	if host != "" {
		cfg.Host = host
	}

	ollama, err := NewOllamaEmbedder(ctx, cfg)
	if err != nil {
		return NewFallbackChain(ctx, NewStaticEmbedder())
	}
	return NewFallbackChain(ctx, ollama, NewStaticEmbedder())
}
