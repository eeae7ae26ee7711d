package transcription

import (
	"github.com/dictameal/backend/internal/config"
)

// NewProvider builds the configured provider, wrapped in a FallbackProvider
// when fallback is enabled and points somewhere else.
func NewProvider(cfg config.TranscriptionConfig, whisperBaseURL, openAIKey, groqKey string) Provider {
	primary := newProvider(ProviderType(cfg.Provider), cfg.Model, cfg, whisperBaseURL, openAIKey, groqKey)

	if cfg.FallbackEnabled && cfg.FallbackProvider != "" && cfg.FallbackProvider != cfg.Provider {
		// The configured model belongs to the primary; the fallback uses its own default.
		secondary := newProvider(ProviderType(cfg.FallbackProvider), "", cfg, whisperBaseURL, openAIKey, groqKey)
		return NewFallbackProvider(primary, secondary)
	}

	return primary
}

func newProvider(kind ProviderType, model string, cfg config.TranscriptionConfig, whisperBaseURL, openAIKey, groqKey string) Provider {
	switch kind {
	case ProviderOpenAI:
		return NewOpenAIProvider(openAIKey, model, cfg.Timeout)
	case ProviderGroq:
		return NewGroqProvider(groqKey, model, cfg.Timeout)
	default:
		return NewLocalProvider(whisperBaseURL, model, cfg.Timeout)
	}
}
