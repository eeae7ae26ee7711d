package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dictameal/backend/internal/errors"
	"github.com/dictameal/backend/internal/httpclient"
)

const (
	DefaultLocalModel  = "Systran/faster-whisper-small"
	DefaultOpenAIModel = "gpt-4o-mini-transcribe"
	DefaultGroqModel   = "whisper-large-v3-turbo"

	openAIBaseURL = "https://api.openai.com/v1"
	groqBaseURL   = "https://api.groq.com/openai/v1"

	maxErrorBody = 4096
)

// WhisperProvider talks to any OpenAI-compatible /audio/transcriptions
// endpoint: a self-hosted whisper server, OpenAI or Groq.
type WhisperProvider struct {
	name       string
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewWhisperProvider builds a provider against baseURL. apiKey may be empty
// for servers that do not authenticate.
func NewWhisperProvider(name, baseURL, model, apiKey string, timeout time.Duration) *WhisperProvider {
	if timeout == 0 {
		timeout = 3 * time.Minute
	}
	return &WhisperProvider{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: httpclient.New(timeout),
	}
}

// NewLocalProvider targets a self-hosted whisper server.
func NewLocalProvider(baseURL, model string, timeout time.Duration) *WhisperProvider {
	if model == "" {
		model = DefaultLocalModel
	}
	return NewWhisperProvider(string(ProviderLocal), baseURL, model, "", timeout)
}

func NewOpenAIProvider(apiKey, model string, timeout time.Duration) *WhisperProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return NewWhisperProvider(string(ProviderOpenAI), openAIBaseURL, model, apiKey, timeout)
}

func NewGroqProvider(apiKey, model string, timeout time.Duration) *WhisperProvider {
	if model == "" {
		model = DefaultGroqModel
	}
	return NewWhisperProvider(string(ProviderGroq), groqBaseURL, model, apiKey, timeout)
}

// Name returns the provider label used in logs and metrics.
func (p *WhisperProvider) Name() string {
	return p.name
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Text string `json:"text"`
	} `json:"segments"`
}

func (r transcriptionResponse) joined() string {
	if strings.TrimSpace(r.Text) != "" || len(r.Segments) == 0 {
		return strings.TrimSpace(r.Text)
	}
	parts := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Transcribe uploads audioPath and returns the recognised text.
func (p *WhisperProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	audioFile, err := os.Open(audioPath)
	if err != nil {
		return "", errors.NewTranscriptionError("failed to open audio file", "AUDIO_FILE_ERROR", err)
	}
	defer audioFile.Close()

	// Stream the multipart body so large recordings are never held in memory.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, audioFile); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := writer.WriteField("model", p.model); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := writer.WriteField("response_format", "json"); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	ctx = httpclient.WithProvider(ctx, "whisper-"+p.name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/audio/transcriptions", pr)
	if err != nil {
		pr.Close()
		return "", errors.NewTranscriptionError("failed to create transcription request", "WHISPER_REQUEST_ERROR", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", errors.NewTranscriptionError(
			fmt.Sprintf("failed to call %s transcription API", p.name), "WHISPER_UNREACHABLE", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", statusError(p.name, resp.StatusCode, body)
	}

	var out transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.NewTranscriptionError("failed to parse transcription response", "WHISPER_PARSE_ERROR", err)
	}
	return out.joined(), nil
}

// statusError keeps upstream 5xx and 429 retryable. Other 4xx mean the
// request itself was rejected and another attempt would fail the same way.
func statusError(name string, status int, body []byte) *errors.AppError {
	msg := fmt.Sprintf("%s transcription API error (status %d): %s", name, status, strings.TrimSpace(string(body)))
	if status >= 500 || status == http.StatusTooManyRequests {
		return errors.NewTranscriptionError(msg, "WHISPER_HTTP_ERROR", nil)
	}
	appErr := errors.NewTranscriptionError(msg, "WHISPER_REJECTED", nil)
	appErr.StatusCode = http.StatusUnprocessableEntity
	appErr.Recovery = "Check the audio format and the transcription provider credentials."
	return appErr
}
