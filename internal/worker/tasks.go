package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeTranscribeAudio = "transcribe:audio"

	// MaxTranscribeRetries covers transient provider outages.
	MaxTranscribeRetries = 3
)

// TranscribeAudioPayload carries the upload itself so the worker needs no
// shared filesystem with the API.
type TranscribeAudioPayload struct {
	JobID    string `json:"job_id"`
	Filename string `json:"filename"`
	Audio    []byte `json:"audio"`
}

func NewTranscribeAudioTask(payload TranscribeAudioPayload, timeout time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.MaxRetry(MaxTranscribeRetries), asynq.TaskID(payload.JobID)}
	if timeout > 0 {
		opts = append(opts, asynq.Timeout(timeout))
	}
	return asynq.NewTask(TypeTranscribeAudio, data, opts...), nil
}
