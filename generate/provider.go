package generate

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config selects and configures a generation backend.
type Config struct {
	Provider          string
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerMinute int
}

// New builds the configured backend wrapped in a rate limiter.
func New(ctx context.Context, cfg Config, logger *zap.SugaredLogger) (Generator, error) {
	var g Generator
	switch cfg.Provider {
	case ProviderOpenAI, "":
		g = NewOpenAI(OpenAIConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
			Logger:  logger,
		})
	case ProviderGemini:
		gem, err := NewGemini(ctx, cfg.APIKey, logger)
		if err != nil {
			return nil, err
		}
		g = gem
	default:
		return nil, errors.WithHint(
			errors.Newf("unknown generation provider %q", cfg.Provider),
			"set generation.provider to \"openai\" or \"gemini\"",
		)
	}
	return NewLimited(g, cfg.RequestsPerMinute), nil
}
