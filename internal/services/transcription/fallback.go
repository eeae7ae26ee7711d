package transcription

import (
	"context"
	"log/slog"

	"github.com/dictameal/backend/internal/errors"
)

// FallbackProvider tries primary first and only moves to secondary when the
// primary failure is retryable.
type FallbackProvider struct {
	primary   Provider
	secondary Provider
}

func NewFallbackProvider(primary, secondary Provider) *FallbackProvider {
	return &FallbackProvider{
		primary:   primary,
		secondary: secondary,
	}
}

func (f *FallbackProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	result, err := f.primary.Transcribe(ctx, audioPath)
	if err == nil {
		return result, nil
	}

	if !isRetryableError(err) || ctx.Err() != nil {
		slog.InfoContext(ctx, "Primary transcription provider failed, not attempting fallback",
			"error", err.Error(),
			"audio_path", audioPath)
		return "", err
	}

	slog.InfoContext(ctx, "Primary transcription provider failed with retryable error, attempting fallback",
		"primary_error", err.Error(),
		"audio_path", audioPath)

	result, fallbackErr := f.secondary.Transcribe(ctx, audioPath)
	if fallbackErr != nil {
		slog.ErrorContext(ctx, "Both transcription providers failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
			"audio_path", audioPath)
		return "", errors.NewTranscriptionError(
			"both primary and secondary providers failed",
			"PROVIDER_FALLBACK_FAILED",
			fallbackErr,
		)
	}

	slog.InfoContext(ctx, "Fallback transcription provider succeeded", "audio_path", audioPath)
	return result, nil
}

// isRetryableError treats unclassified errors as transient.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := errors.As(err); ok {
		return appErr.IsRetryable()
	}
	return true
}
