package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/dictameal/backend/internal/cache"
	apperrors "github.com/dictameal/backend/internal/errors"
)

// Enqueuer is the part of *asynq.Client the queue needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// JobQueue records transcription jobs and hands them to the worker.
type JobQueue struct {
	client  Enqueuer
	jobs    cache.JobStore
	timeout time.Duration
	now     func() time.Time
}

// NewJobQueue creates a queue. timeout bounds a single task attempt.
func NewJobQueue(client Enqueuer, jobs cache.JobStore, timeout time.Duration) *JobQueue {
	return &JobQueue{
		client:  client,
		jobs:    jobs,
		timeout: timeout,
		now:     time.Now,
	}
}

// Submit stores a queued job and enqueues the audio for transcription.
func (q *JobQueue) Submit(ctx context.Context, filename string, audio []byte) (cache.Job, error) {
	if len(audio) == 0 {
		return cache.Job{}, apperrors.NewBadRequestError("audio upload is empty", "EMPTY_AUDIO", "Record some audio and try again.")
	}

	now := q.now().UTC()
	job := cache.Job{
		ID:        uuid.NewString(),
		Status:    cache.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.jobs.Save(ctx, job); err != nil {
		return cache.Job{}, apperrors.NewStorageError("failed to record job", "JOB_SAVE_ERROR", err)
	}

	task, err := NewTranscribeAudioTask(TranscribeAudioPayload{
		JobID:    job.ID,
		Filename: filename,
		Audio:    audio,
	}, q.timeout)
	if err != nil {
		return cache.Job{}, apperrors.NewInternalError("failed to build task", err)
	}

	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		job.Status = cache.JobFailed
		job.Error = "could not enqueue job"
		job.UpdatedAt = q.now().UTC()
		if saveErr := q.jobs.Save(ctx, job); saveErr != nil {
			slog.ErrorContext(ctx, "Failed to mark job failed", "job_id", job.ID, "error", saveErr)
		}
		return cache.Job{}, apperrors.NewStorageError("failed to enqueue job", "JOB_ENQUEUE_ERROR", err)
	}

	slog.InfoContext(ctx, "Transcription job enqueued", "job_id", job.ID, "queue", info.Queue, "bytes", len(audio))
	return job, nil
}

// Get returns the current record for id.
func (q *JobQueue) Get(ctx context.Context, id string) (cache.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return cache.Job{}, apperrors.NewBadRequestError("invalid job id", "INVALID_JOB_ID", "Use the job_id returned on submission.")
	}
	job, err := q.jobs.Get(ctx, id)
	if errors.Is(err, cache.ErrJobNotFound) {
		return cache.Job{}, apperrors.NewNotFoundError("job not found", "JOB_NOT_FOUND", "Jobs expire 24 hours after submission.")
	}
	if err != nil {
		return cache.Job{}, apperrors.NewStorageError("failed to load job", "JOB_LOAD_ERROR", err)
	}
	return job, nil
}
