// Package llm wraps the Ollama HTTP API: health probing and streaming
// token generation over newline-delimited JSON.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrUnreachable is returned when the Ollama server cannot be reached.
var ErrUnreachable = errors.New("llm server unreachable")

// ModelMissingError is returned when the configured model is not installed
// on the Ollama server.
type ModelMissingError struct {
	Model string
}

func (e *ModelMissingError) Error() string {
	return fmt.Sprintf("model %q is not installed", e.Model)
}

// healthTimeout bounds the /api/tags probe.
const healthTimeout = 5 * time.Second

// Client talks to one Ollama server about one configured model.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a new Ollama client. The HTTP client carries no global
// timeout: generation streams are bounded per-token by the caller's context.
func NewClient(baseURL, model string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{},
		logger:  logger.With("component", "llm_client"),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// StreamChunk is one unit of a streaming generation.
type StreamChunk struct {
	Content string
	Done    bool
}

type generatePayload struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateLine struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// GenerateStream starts a streaming generation and returns a chunk channel
// plus an error channel. Both close when the stream ends; at most one error
// is sent. Cancelling ctx aborts the stream.
func (c *Client) GenerateStream(ctx context.Context, system, prompt string) (<-chan StreamChunk, <-chan error) {
	chunks := make(chan StreamChunk, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		body, err := json.Marshal(generatePayload{
			Model:  c.model,
			System: system,
			Prompt: prompt,
			Stream: true,
		})
		if err != nil {
			errs <- fmt.Errorf("failed to encode generate request: %w", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/generate", bytes.NewReader(body))
		if err != nil {
			errs <- fmt.Errorf("failed to build generate request: %w", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			errs <- fmt.Errorf("%w: %s", ErrUnreachable, err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			errs <- &ModelMissingError{Model: c.model}
			return
		}
		if resp.StatusCode != http.StatusOK {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			errs <- fmt.Errorf("generate request failed with status %d: %s",
				resp.StatusCode, strings.TrimSpace(string(payload)))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			raw := bytes.TrimSpace(scanner.Bytes())
			if len(raw) == 0 {
				continue
			}

			var line generateLine
			if err := json.Unmarshal(raw, &line); err != nil {
				// One malformed line does not kill the stream.
				c.logger.Warn("skipping malformed stream line", "error", err)
				continue
			}
			if line.Error != "" {
				errs <- fmt.Errorf("generate stream error: %s", line.Error)
				return
			}

			select {
			case chunks <- StreamChunk{Content: line.Response, Done: line.Done}:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
			if line.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
			errs <- fmt.Errorf("generate stream interrupted: %w", err)
		}
	}()

	return chunks, errs
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Health checks that the server answers and that the configured model is
// installed. Returns ErrUnreachable or ModelMissingError accordingly.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to build tags request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: tags request returned status %d", ErrUnreachable, resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("failed to decode tags response: %w", err)
	}

	// Ollama tags carry variants like "llama3.1:70b-instruct-q4"; a prefix
	// match on the configured name is how the CLI resolves models too.
	for _, m := range tags.Models {
		if m.Name == c.model || strings.HasPrefix(m.Name, c.model) {
			return nil
		}
	}
	return &ModelMissingError{Model: c.model}
}
