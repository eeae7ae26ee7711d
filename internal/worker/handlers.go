package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dictameal/backend/internal/cache"
	apperrors "github.com/dictameal/backend/internal/errors"
)

// Transcriber is satisfied by transcription.Service.
type Transcriber interface {
	Transcribe(ctx context.Context, r io.Reader, filename string) (string, error)
}

type TranscriptionProcessor struct {
	transcriber Transcriber
	jobs        cache.JobStore
	now         func() time.Time
}

func NewTranscriptionProcessor(transcriber Transcriber, jobs cache.JobStore) *TranscriptionProcessor {
	return &TranscriptionProcessor{
		transcriber: transcriber,
		jobs:        jobs,
		now:         time.Now,
	}
}

func (p *TranscriptionProcessor) HandleTranscribeAudio(ctx context.Context, t *asynq.Task) error {
	var payload TranscribeAudioPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	jobID := payload.JobID
	job, err := p.jobs.Get(ctx, jobID)
	if errors.Is(err, cache.ErrJobNotFound) {
		// Expired or never recorded: nobody can read the result.
		slog.WarnContext(ctx, "Dropping transcription for unknown job", "job_id", jobID)
		return nil
	}
	if err != nil {
		return err
	}
	if job.Done() {
		return nil
	}

	slog.InfoContext(ctx, "Processing transcription job", "job_id", jobID, "bytes", len(payload.Audio))
	p.update(ctx, &job, cache.JobProcessing, "", "")

	text, err := p.transcriber.Transcribe(ctx, bytes.NewReader(payload.Audio), payload.Filename)
	if err != nil {
		if retryable(ctx, err) {
			p.update(ctx, &job, cache.JobQueued, "", err.Error())
			return err
		}
		p.update(ctx, &job, cache.JobFailed, "", err.Error())
		slog.ErrorContext(ctx, "Transcription job failed", "job_id", jobID, "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	p.update(ctx, &job, cache.JobCompleted, text, "")
	slog.InfoContext(ctx, "Transcription job completed", "job_id", jobID, "chars", len(text))
	return nil
}

// retryable reports whether asynq should try again: the failure is transient
// and retries remain.
func retryable(ctx context.Context, err error) bool {
	appErr, ok := apperrors.As(err)
	if ok && !appErr.IsRetryable() {
		return false
	}
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		maxRetry = MaxTranscribeRetries
	}
	return retried < maxRetry
}

func (p *TranscriptionProcessor) update(ctx context.Context, job *cache.Job, status cache.JobStatus, text, errMsg string) {
	job.Status = status
	job.Text = text
	job.Error = errMsg
	job.UpdatedAt = p.now().UTC()
	if err := p.jobs.Save(ctx, *job); err != nil {
		slog.ErrorContext(ctx, "Failed to save job status", "job_id", job.ID, "status", status, "error", err)
	}
}
