// internal/article/generator.go
package article

import (
	"context"
	"strings"
	"time"

	"github.com/Corphon/yt2blog/internal/config"
	apperrors "github.com/Corphon/yt2blog/internal/errors"
	"github.com/Corphon/yt2blog/internal/llm"
	"github.com/Corphon/yt2blog/internal/utils"
)

// Generator turns a transcript into an article with a language model.
type Generator struct {
	provider     llm.Provider
	providerName string
	model        string
	language     string
	readyState   string
	logger       *utils.Logger
}

// NewGenerator creates the configured provider from the default registry. A
// provider that cannot be initialized leaves the generator not ready; Generate
// then fails with a validation error.
func NewGenerator(cfg *config.Config, logger *utils.Logger) *Generator {
	g := &Generator{
		providerName: cfg.LLM.Provider,
		model:        cfg.LLM.Model,
		language:     cfg.Article.Language,
		logger:       logger,
	}

	provider, err := llm.GetProvider(cfg.LLM.Provider, map[string]string{
		"api_key":       cfg.LLM.APIKey,
		"default_model": cfg.LLM.Model,
		"base_url":      cfg.LLM.BaseURL,
	})
	if err != nil {
		g.readyState = err.Error()
		logger.Warn("language model provider not ready", map[string]interface{}{
			"provider": cfg.LLM.Provider,
			"error":    err.Error(),
		})
		return g
	}

	g.provider = provider
	g.readyState = "ready"
	return g
}

// NewGeneratorWithProvider wraps an already initialized provider.
func NewGeneratorWithProvider(provider llm.Provider, language string, logger *utils.Logger) *Generator {
	return &Generator{
		provider:     provider,
		providerName: provider.GetName(),
		language:     language,
		readyState:   "ready",
		logger:       logger,
	}
}

// IsReady reports whether a provider is available.
func (g *Generator) IsReady() bool {
	return g.provider != nil
}

// ReadyState describes the provider state for health checks.
func (g *Generator) ReadyState() string {
	return g.readyState
}

// ProviderName returns the configured provider name.
func (g *Generator) ProviderName() string {
	return g.providerName
}

// Generate sends one completion request and returns the response text unchanged.
func (g *Generator) Generate(ctx context.Context, transcript, title string) (string, error) {
	if g.provider == nil {
		return "", apperrors.NewValidationError("language model is not configured: "+g.readyState, nil)
	}
	if strings.TrimSpace(transcript) == "" {
		return "", apperrors.NewValidationError("transcript is empty", nil)
	}

	start := time.Now()
	resp, err := g.provider.CompleteText(ctx, llm.CompletionRequest{
		Prompt: BuildPrompt(transcript, title, g.language),
		Model:  g.model,
	})
	if err != nil {
		return "", apperrors.NewUpstreamError("article generation failed", err).WithCode("GENERATION_FAILED")
	}

	g.logger.Info("article generated", map[string]interface{}{
		"provider": resp.ProviderName,
		"model":    resp.ModelName,
		"tokens":   resp.TokensUsed,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})
	return resp.Text, nil
}
