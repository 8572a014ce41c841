package embed

import (
	"strings"

	"github.com/docqa-dev/docqa/internal/config"
	"github.com/docqa-dev/docqa/internal/errors"
)

// New creates an Embedder from configuration, wrapped with LRU caching.
func New(cfg config.EmbeddingsConfig) (Embedder, error) {
	var inner Embedder

	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		inner = NewOllamaEmbedder(OllamaEmbedderConfig{
			Host:       cfg.OllamaHost,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
			Timeout:    cfg.Timeout,
		})
	case "static":
		inner = NewStaticEmbedder()
	default:
		return nil, errors.InvalidConfiguration("embeddings.provider must be 'ollama' or 'static'").
			WithDetail("provider", cfg.Provider)
	}

	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
