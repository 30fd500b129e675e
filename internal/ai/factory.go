package ai

import (
	"context"
	"fmt"
)

// NewGenerator selects the provider implementation named by cfg.Kind.
func NewGenerator(ctx context.Context, cfg ProviderConfig) (Generator, error) {
	switch cfg.Kind {
	case KindOllama:
		p, err := NewOllamaProvider(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindGemini:
		p, err := NewGeminiProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}
