package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dictameal/backend/internal/cache"
	apperrors "github.com/dictameal/backend/internal/errors"
)

type TranscriptionResponse struct {
	Text string `json:"text"`
}

type JobSubmittedResponse struct {
	JobID  string          `json:"job_id"`
	Status cache.JobStatus `json:"status"`
}

// HandleTranscribe turns an uploaded recording into text synchronously.
func (s *Server) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.transcriber == nil {
		writeError(w, r, unavailable("transcription"))
		return
	}

	file, header, err := audioUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer file.Close()

	text, err := s.transcriber.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TranscriptionResponse{Text: text})
}

// HandleSubmitTranscriptionJob queues a recording for the background worker.
func (s *Server) HandleSubmitTranscriptionJob(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		writeError(w, r, unavailable("background transcription"))
		return
	}

	file, header, err := audioUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, apperrors.NewBadRequestError("failed to read upload", "UPLOAD_READ_ERROR", "Try uploading again."))
		return
	}

	job, err := s.jobs.Submit(r.Context(), header.Filename, audio)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, JobSubmittedResponse{JobID: job.ID, Status: job.Status})
}

func (s *Server) HandleJobStatus(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		writeError(w, r, unavailable("background transcription"))
		return
	}

	job, err := s.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// audioUpload returns the multipart "file" part, bounded to maxAudioBody.
func audioUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBody+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, apperrors.NewBadRequestError("audio file too large", "AUDIO_TOO_LARGE", "Uploads are limited to 25 MiB.")
		}
		return nil, nil, apperrors.NewBadRequestError("expected a multipart form", "INVALID_UPLOAD", "Send the recording as multipart field \"file\".")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, apperrors.NewBadRequestError("missing file field", "MISSING_FILE", "Send the recording as multipart field \"file\".")
	}
	if header.Size > maxAudioBody {
		file.Close()
		return nil, nil, apperrors.NewBadRequestError("audio file too large", "AUDIO_TOO_LARGE", "Uploads are limited to 25 MiB.")
	}
	return file, header, nil
}
