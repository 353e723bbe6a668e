package ai

import (
	"context"
	"strings"

	"github.com/sidlawliet/whiteroom-mentor/internal/config"
)

// NewDefaultRegistry registers every built-in provider using cfg. Providers
// are constructed lazily, so a missing key only fails when that provider is
// selected.
func NewDefaultRegistry(cfg config.Config, persona *Persona) *Registry {
	reg := NewRegistry()

	pick := func(model, def string) string {
		if m := strings.TrimSpace(model); m != "" {
			return m
		}
		return def
	}

	reg.Register("gemini", func(ctx context.Context, model string) (Provider, error) {
		p, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, pick(model, cfg.GeminiModel))
		if err != nil {
			return nil, err
		}
		p.Persona = persona
		return p, nil
	})
	reg.Register("ollama", func(ctx context.Context, model string) (Provider, error) {
		_ = ctx
		p := NewOllamaProvider(cfg.OllamaBaseURL, pick(model, cfg.OllamaModel))
		p.Persona = persona
		return p, nil
	})
	reg.Register("openrouter", func(ctx context.Context, model string) (Provider, error) {
		_ = ctx
		p := NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey,
			pick(model, cfg.OpenRouterModel), cfg.OpenRouterSiteURL, cfg.OpenRouterAppName)
		p.Persona = persona
		return p, nil
	})
	reg.Register("openai", func(ctx context.Context, model string) (Provider, error) {
		_ = ctx
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, configError("openai", "api key is required")
		}
		p := NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, pick(model, cfg.OpenAIModel))
		p.Persona = persona
		return p, nil
	})
	reg.Register("anthropic", func(ctx context.Context, model string) (Provider, error) {
		_ = ctx
		if strings.TrimSpace(cfg.AnthropicAPIKey) == "" {
			return nil, configError("anthropic", "api key is required")
		}
		p := NewAnthropicProvider(cfg.AnthropicAPIKey, pick(model, cfg.AnthropicModel))
		p.Persona = persona
		return p, nil
	})
	return reg
}
