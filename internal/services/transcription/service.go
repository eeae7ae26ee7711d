package transcription

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/semaphore"

	"github.com/dictameal/backend/internal/errors"
	"github.com/dictameal/backend/internal/metrics"
	"github.com/dictameal/backend/internal/sentry"
)

// Service runs transcriptions off the request goroutine with a bounded
// number in flight. Every upload is staged into a temp file that is removed
// once the provider is done with it.
type Service struct {
	provider  Provider
	sem       *semaphore.Weighted
	normalize bool
	tempDir   string
}

type Option func(*Service)

// WithNormalize converts uploads to 16 kHz mono WAV before transcription.
func WithNormalize(enabled bool) Option {
	return func(s *Service) { s.normalize = enabled }
}

// WithTempDir stages uploads under dir instead of os.TempDir.
func WithTempDir(dir string) Option {
	return func(s *Service) { s.tempDir = dir }
}

func NewService(provider Provider, maxConcurrent int, opts ...Option) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	s := &Service{
		provider: provider,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type result struct {
	text string
	err  error
}

// Transcribe stages r and waits for the text or for ctx to end, whichever
// comes first. filename only contributes its extension.
func (s *Service) Transcribe(ctx context.Context, r io.Reader, filename string) (string, error) {
	path, err := s.stage(r, filename)
	if err != nil {
		return "", err
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		os.Remove(path)
		return "", cancelled(err)
	}

	results := make(chan result, 1)
	go func() {
		text, err := s.process(ctx, path)
		results <- result{text: text, err: err}
	}()

	select {
	case res := <-results:
		if res.err != nil {
			if ctx.Err() != nil {
				return "", cancelled(ctx.Err())
			}
			return "", res.err
		}
		return strings.TrimSpace(res.text), nil
	case <-ctx.Done():
		return "", cancelled(ctx.Err())
	}
}

// process owns path and the semaphore slot acquired for it.
func (s *Service) process(ctx context.Context, path string) (text string, err error) {
	defer s.sem.Release(1)
	defer os.Remove(path)
	defer func() {
		if r := recover(); r != nil {
			sentry.HubFromContext(ctx).Recover(r)
			err = errors.NewInternalError("transcription worker panicked", fmt.Errorf("%v", r))
		}
	}()

	metrics.TranscriptionInFlight.Add(ctx, 1)
	defer metrics.TranscriptionInFlight.Add(ctx, -1)

	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("outcome", outcome)))
	}()

	audioPath := path
	if s.normalize {
		normalized, err := NormalizeAudio(ctx, path)
		if err != nil {
			return "", err
		}
		defer os.Remove(normalized)
		audioPath = normalized
	}

	text, err = s.provider.Transcribe(ctx, audioPath)
	if err != nil {
		slog.ErrorContext(ctx, "Transcription failed", "error", err)
		return "", err
	}
	slog.InfoContext(ctx, "Transcription completed",
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds())
	return text, nil
}

// stage copies r into a temp file. On failure nothing is left behind.
func (s *Service) stage(r io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".audio"
	}
	f, err := os.CreateTemp(s.tempDir, "upload-*"+ext)
	if err != nil {
		return "", errors.NewTranscriptionError("failed to create temp file", "UPLOAD_STAGING_ERROR", err)
	}
	path := f.Name()

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", errors.NewTranscriptionError("failed to stage upload", "UPLOAD_STAGING_ERROR", err)
	}
	if n == 0 {
		os.Remove(path)
		return "", errors.NewBadRequestError("audio upload is empty", "EMPTY_AUDIO", "Record some audio and try again.")
	}
	return path, nil
}

// cancelled maps a context error. 499 is the de-facto "client closed
// request" status.
func cancelled(err error) *errors.AppError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		appErr := errors.NewTranscriptionError("transcription timed out", "TRANSCRIPTION_TIMEOUT", err)
		appErr.StatusCode = 504
		return appErr
	}
	appErr := errors.NewTranscriptionError("transcription cancelled", "TRANSCRIPTION_CANCELLED", err)
	appErr.StatusCode = 499
	return appErr
}
