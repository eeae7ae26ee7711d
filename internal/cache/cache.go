package cache

import (
	"context"
	"errors"
	"time"
)

// JobStatus is the lifecycle state of a background transcription.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// DefaultJobTTL bounds how long finished job records stay readable.
const DefaultJobTTL = 24 * time.Hour

// ErrJobNotFound is returned when the job never existed or has expired.
var ErrJobNotFound = errors.New("job not found")

type Job struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	Text      string    `json:"text,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Done reports whether the job reached a terminal state.
func (j Job) Done() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// JobStore persists job records between the API and the worker.
type JobStore interface {
	// Save writes the whole record and refreshes its TTL.
	Save(ctx context.Context, job Job) error

	// Get returns ErrJobNotFound when the key is absent or expired.
	Get(ctx context.Context, id string) (Job, error)
}
