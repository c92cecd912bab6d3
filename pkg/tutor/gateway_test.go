package tutor

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotoba-lab/sensei/pkg/llm"
	"github.com/kotoba-lab/sensei/pkg/models"
)

type fakeStore struct {
	level  string
	recent []string
	weak   []string
}

func (f *fakeStore) GetMeta(ctx context.Context, key string) (string, error) {
	return f.level, nil
}

func (f *fakeStore) RecentSurfaces(ctx context.Context, limit int) ([]string, error) {
	return f.recent, nil
}

func (f *fakeStore) WeakestSurfaces(ctx context.Context, limit int) ([]string, error) {
	return f.weak, nil
}

type fakeGenerator struct {
	tokens []string
	err    error
	hang   bool

	gotSystem string
	gotPrompt string
}

func (f *fakeGenerator) GenerateStream(ctx context.Context, system, prompt string) (<-chan llm.StreamChunk, <-chan error) {
	f.gotSystem = system
	f.gotPrompt = prompt

	chunks := make(chan llm.StreamChunk, len(f.tokens)+1)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)
		if f.hang {
			<-ctx.Done()
			return
		}
		for _, token := range f.tokens {
			chunks <- llm.StreamChunk{Content: token}
		}
		if f.err != nil {
			errs <- f.err
			return
		}
		chunks <- llm.StreamChunk{Done: true}
	}()
	return chunks, errs
}

func (f *fakeGenerator) Health(ctx context.Context) error { return nil }

func (f *fakeGenerator) Model() string { return "llama3.1:70b" }

func drain(t *testing.T, events <-chan Event) ([]string, error) {
	t.Helper()
	var tokens []string
	for event := range events {
		if event.Err != nil {
			return tokens, event.Err
		}
		tokens = append(tokens, event.Token)
	}
	return tokens, nil
}

func TestStreamTokens(t *testing.T) {
	gen := &fakeGenerator{tokens: []string{"こん", "にちは", "!"}}
	store := &fakeStore{level: "N4", recent: []string{"水", "火"}, weak: []string{"経済"}}
	gw := NewGateway(gen, store, slog.Default())

	events, err := gw.Stream(context.Background(), models.TutorRequest{Message: "teach me", Mode: "TEACH"})
	require.NoError(t, err)

	tokens, streamErr := drain(t, events)
	require.NoError(t, streamErr)
	assert.Equal(t, []string{"こん", "にちは", "!"}, tokens)

	assert.Equal(t, "teach me", gen.gotPrompt)
	assert.Contains(t, gen.gotSystem, "Mode: TEACH")
	assert.Contains(t, gen.gotSystem, "JLPT focus level: N4")
	assert.Contains(t, gen.gotSystem, "水, 火")
	assert.Contains(t, gen.gotSystem, "経済")
}

func TestStreamValidation(t *testing.T) {
	gw := NewGateway(&fakeGenerator{}, &fakeStore{}, slog.Default())

	_, err := gw.Stream(context.Background(), models.TutorRequest{Message: ""})
	assert.Error(t, err)

	_, err = gw.Stream(context.Background(), models.TutorRequest{Message: "hi", Mode: "TRANSLATE"})
	assert.Error(t, err)
}

func TestStreamLevelOverride(t *testing.T) {
	gen := &fakeGenerator{tokens: []string{"ok"}}
	store := &fakeStore{level: "N5"}
	gw := NewGateway(gen, store, slog.Default())

	level := "N2"
	events, err := gw.Stream(context.Background(), models.TutorRequest{Message: "hi", Level: &level})
	require.NoError(t, err)
	_, _ = drain(t, events)

	assert.Contains(t, gen.gotSystem, "JLPT focus level: N2")
}

func TestStreamGeneratorError(t *testing.T) {
	gen := &fakeGenerator{tokens: []string{"partial"}, err: llm.ErrUnreachable}
	gw := NewGateway(gen, &fakeStore{}, slog.Default())

	events, err := gw.Stream(context.Background(), models.TutorRequest{Message: "hi"})
	require.NoError(t, err)

	tokens, streamErr := drain(t, events)
	assert.Equal(t, []string{"partial"}, tokens)
	assert.ErrorIs(t, streamErr, llm.ErrUnreachable)
}

func TestStreamCancellation(t *testing.T) {
	gen := &fakeGenerator{hang: true}
	gw := NewGateway(gen, &fakeStore{}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	events, err := gw.Stream(ctx, models.TutorRequest{Message: "hi"})
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-events:
		assert.False(t, open, "expected channel to close after cancellation")
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate after cancellation")
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "tutor-unavailable", ErrorCode(llm.ErrUnreachable))
	assert.Equal(t, "model-missing:llama3.1:70b", ErrorCode(&llm.ModelMissingError{Model: "llama3.1:70b"}))
	assert.Equal(t, "response-timed-out", ErrorCode(ErrResponseTimeout))
	assert.Equal(t, "tutor-unavailable", ErrorCode(context.Canceled))
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(ModeQuiz, Context{JLPTLevel: "N5"})
	assert.True(t, strings.HasPrefix(prompt, "You are Sensei"))
	assert.Contains(t, prompt, "Mode: QUIZ")
	assert.NotContains(t, prompt, "{level}")

	teach := BuildSystemPrompt(ModeTeach, Context{JLPTLevel: "N3"})
	assert.Contains(t, teach, "appropriate for N3")
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeChat, mode)

	mode, err = ParseMode("quiz")
	require.NoError(t, err)
	assert.Equal(t, ModeQuiz, mode)

	_, err = ParseMode("TRANSLATE")
	assert.Error(t, err)
}
