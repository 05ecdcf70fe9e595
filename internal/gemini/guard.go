package gemini

import (
	"context"
	"fmt"

	"github.com/deusflow/engtrends/internal/cache"
	"github.com/deusflow/engtrends/internal/ratelimit"
)

// Guarded answers repeated prompts from a cache and stops calling the
// model once the request budget is spent.
type Guarded struct {
	gen    Generator
	cache  *cache.Cache[string]
	budget *ratelimit.Budget
}

func NewGuarded(gen Generator, c *cache.Cache[string], b *ratelimit.Budget) *Guarded {
	return &Guarded{gen: gen, cache: c, budget: b}
}

func (g *Guarded) Generate(ctx context.Context, prompt string) (string, error) {
	key := cache.Key(model, prompt)
	if text, ok := g.cache.Get(key); ok {
		g.budget.RecordCacheHit()
		return text, nil
	}

	if err := g.budget.Use(); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	text, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	g.cache.Set(key, text)
	return text, nil
}
