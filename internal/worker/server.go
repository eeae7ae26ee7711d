package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// NewServer creates an asynq server. Failed tasks are logged here and
// reported to Sentry by the Instrument middleware.
func NewServer(redisURL string, concurrency int) (*asynq.Server, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if concurrency < 1 {
		concurrency = 2
	}

	return asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				slog.ErrorContext(ctx, "Task failed",
					"task_type", task.Type(),
					"retry", retried,
					"max_retry", maxRetry,
					"error", err)
			}),
		},
	), nil
}

// NewServeMux routes task types to processor handlers behind Instrument.
func NewServeMux(p *TranscriptionProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(Instrument)
	mux.HandleFunc(TypeTranscribeAudio, p.HandleTranscribeAudio)
	return mux
}
