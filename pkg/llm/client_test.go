package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, chunks <-chan StreamChunk, errs <-chan error) ([]string, error) {
	t.Helper()
	var tokens []string
	for chunk := range chunks {
		if chunk.Content != "" {
			tokens = append(tokens, chunk.Content)
		}
	}
	return tokens, <-errs
}

func TestGenerateStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"response":"こん","done":false}`)
		fmt.Fprintln(w, `not json at all`)
		fmt.Fprintln(w, `{"response":"にちは","done":false}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "llama3.1:70b", slog.Default())
	chunks, errs := client.GenerateStream(context.Background(), "system", "hello")

	tokens, err := collect(t, chunks, errs)
	require.NoError(t, err)
	assert.Equal(t, []string{"こん", "にちは"}, tokens)
}

func TestGenerateStreamModelMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "llama3.1:70b", slog.Default())
	chunks, errs := client.GenerateStream(context.Background(), "", "hello")

	_, err := collect(t, chunks, errs)
	var missing *ModelMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "llama3.1:70b", missing.Model)
}

func TestGenerateStreamUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "llama3.1:70b", slog.Default())
	chunks, errs := client.GenerateStream(context.Background(), "", "hello")

	_, err := collect(t, chunks, errs)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestGenerateStreamInlineError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"partial","done":false}`)
		fmt.Fprintln(w, `{"error":"out of memory"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "llama3.1:70b", slog.Default())
	chunks, errs := client.GenerateStream(context.Background(), "", "hello")

	tokens, err := collect(t, chunks, errs)
	assert.Equal(t, []string{"partial"}, tokens)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of memory")
}

func TestGenerateStreamCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"first","done":false}`)
		w.(http.Flusher).Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(server.URL, "llama3.1:70b", slog.Default())
	chunks, errs := client.GenerateStream(ctx, "", "hello")

	first := <-chunks
	assert.Equal(t, "first", first.Content)
	cancel()

	for range chunks {
	}
	err := <-errs
	if err != nil {
		assert.True(t, errors.Is(err, context.Canceled) || errors.Is(err, ErrUnreachable))
	}
}

func TestHealth(t *testing.T) {
	t.Run("model installed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			fmt.Fprintln(w, `{"models":[{"name":"llama3.1:70b-instruct-q4"},{"name":"mistral:7b"}]}`)
		}))
		defer server.Close()

		client := NewClient(server.URL, "llama3.1:70b", slog.Default())
		assert.NoError(t, client.Health(context.Background()))
	})

	t.Run("model missing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, `{"models":[{"name":"mistral:7b"}]}`)
		}))
		defer server.Close()

		client := NewClient(server.URL, "llama3.1:70b", slog.Default())
		var missing *ModelMissingError
		assert.ErrorAs(t, client.Health(context.Background()), &missing)
	})

	t.Run("server down", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", "llama3.1:70b", slog.Default())
		assert.ErrorIs(t, client.Health(context.Background()), ErrUnreachable)
	})
}
