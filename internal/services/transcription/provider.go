package transcription

import (
	"context"
)

type ProviderType string

const (
	ProviderLocal  ProviderType = "local"
	ProviderOpenAI ProviderType = "openai"
	ProviderGroq   ProviderType = "groq"
)

// Provider turns an audio file on disk into text.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
