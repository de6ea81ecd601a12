package ai

import (
	"fmt"
	"strings"

	"github.com/xxxsen/medrag/internal/config"
)

// BuildFromConfig instantiates the configured providers and wires the
// embedder and reranker chains. The reranker is nil when none is configured.
func BuildFromConfig(cfg config.AIConfig, dimensions int) (IEmbedder, IGenerator, error) {
	providers := make(map[string]IProvider, len(cfg.Providers))
	for _, item := range cfg.Providers {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = item.Type
		}
		if _, ok := providers[name]; ok {
			return nil, nil, fmt.Errorf("duplicate ai provider name: %s", name)
		}
		p, err := NewProvider(item.Type, item.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("init ai provider %s: %w", name, err)
		}
		providers[name] = p
	}
	embedders := make([]EmbedderEntry, 0, len(cfg.Embedder))
	for _, ref := range cfg.Embedder {
		p, ok := providers[ref.Provider]
		if !ok {
			return nil, nil, fmt.Errorf("embedder references unknown provider: %s", ref.Provider)
		}
		embedders = append(embedders, EmbedderEntry{
			Name:     ref.Provider + ":" + ref.Model,
			Embedder: NewEmbedder(p, ref.Model, dimensions),
		})
	}
	generators := make([]GeneratorEntry, 0, len(cfg.Reranker))
	for _, ref := range cfg.Reranker {
		p, ok := providers[ref.Provider]
		if !ok {
			return nil, nil, fmt.Errorf("reranker references unknown provider: %s", ref.Provider)
		}
		generators = append(generators, GeneratorEntry{
			Name:      ref.Provider + ":" + ref.Model,
			Generator: NewGenerator(p, ref.Model),
		})
	}
	return NewGroupEmbedder(embedders), NewGroupGenerator(generators), nil
}
