package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/dictameal/backend/internal/errors"
	"github.com/dictameal/backend/internal/httpclient"
	"github.com/dictameal/backend/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const providerName = "ollama"

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

// Client talks to an Ollama server.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	listTimeout time.Duration
}

// NewClient creates a client for baseURL. generateTimeout bounds a whole
// completion, listTimeout bounds the model listing.
func NewClient(baseURL string, generateTimeout, listTimeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  httpclient.New(generateTimeout),
		listTimeout: listTimeout,
	}
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns the names of the locally installed models in the
// order the server lists them.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if c.listTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.listTimeout)
		defer cancel()
	}
	ctx = httpclient.WithProvider(ctx, providerName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("ollama tags error (status %d): %s", resp.StatusCode, string(body))
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags response: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

type generateRequest struct {
	Model  string          `json:"model"`
	Prompt string          `json:"prompt"`
	Format json.RawMessage `json:"format,omitempty"`
	Stream bool            `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Thinking string `json:"thinking"`
}

// Complete runs a single non-streaming generation and returns the raw text.
// Reasoning models sometimes leave response empty and put their output in
// thinking, which is used as the fallback. The text is not interpreted.
// Every failure is a COMPLETION_ERROR.
func (c *Client) Complete(ctx context.Context, prompt, model string, format json.RawMessage) (string, error) {
	ctx = httpclient.WithProvider(ctx, providerName)

	body, err := json.Marshal(generateRequest{
		Model:  model,
		Prompt: prompt,
		Format: format,
		Stream: false,
	})
	if err != nil {
		return "", apperrors.NewCompletionError("failed to encode generate request", "OLLAMA_REQUEST", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewCompletionError("failed to create generate request", "OLLAMA_REQUEST", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.CompletionDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("model", model),
	))
	if err != nil {
		return "", apperrors.NewCompletionError("ollama is unreachable", "OLLAMA_UNREACHABLE", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", apperrors.NewCompletionError(
			fmt.Sprintf("ollama generate error (status %d)", resp.StatusCode),
			"OLLAMA_STATUS",
			fmt.Errorf("%s", strings.TrimSpace(string(errBody))),
		)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.NewCompletionError("failed to decode generate response", "OLLAMA_ENVELOPE", err)
	}

	if out.Response != "" {
		return out.Response, nil
	}
	return out.Thinking, nil
}
