// Package tutor assembles learner-aware prompts and streams LLM responses
// for the AI tutor endpoint.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kotoba-lab/sensei/pkg/llm"
	"github.com/kotoba-lab/sensei/pkg/models"
)

// ErrResponseTimeout is returned when the model stops producing tokens for
// longer than the per-token deadline.
var ErrResponseTimeout = errors.New("tutor response timed out")

const (
	// tokenTimeout is the maximum silence between two tokens before the
	// stream is abandoned.
	tokenTimeout = 120 * time.Second

	recentWordCount = 10
	weakWordCount   = 5
)

// ContextStore is the slice of storage the tutor needs to build learner
// context.
type ContextStore interface {
	GetMeta(ctx context.Context, key string) (string, error)
	RecentSurfaces(ctx context.Context, limit int) ([]string, error)
	WeakestSurfaces(ctx context.Context, limit int) ([]string, error)
}

// Generator is the streaming LLM surface the gateway drives. Satisfied by
// *llm.Client.
type Generator interface {
	GenerateStream(ctx context.Context, system, prompt string) (<-chan llm.StreamChunk, <-chan error)
	Health(ctx context.Context) error
	Model() string
}

// Event is one unit of a tutor stream: either a text token or a terminal
// error. After an Err event the channel closes.
type Event struct {
	Token string
	Err   error
}

// Gateway builds prompts from learner state and streams tutor responses.
type Gateway struct {
	gen    Generator
	store  ContextStore
	logger *slog.Logger
}

// NewGateway creates a new Gateway
func NewGateway(gen Generator, store ContextStore, logger *slog.Logger) *Gateway {
	return &Gateway{gen: gen, store: store, logger: logger.With("component", "tutor")}
}

// Health reports whether the LLM backend is reachable with the configured
// model installed.
func (g *Gateway) Health(ctx context.Context) error {
	return g.gen.Health(ctx)
}

// Model returns the configured model name.
func (g *Gateway) Model() string {
	return g.gen.Model()
}

// Stream validates the request, assembles learner context, and streams the
// tutor response. Token events arrive until the model finishes; a failure
// mid-stream surfaces as one final Err event.
func (g *Gateway) Stream(ctx context.Context, req models.TutorRequest) (<-chan Event, error) {
	if req.Message == "" {
		return nil, fmt.Errorf("message is required")
	}
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}

	tctx := g.buildContext(ctx, req.Level)
	system := BuildSystemPrompt(mode, tctx)

	events := make(chan Event, 100)
	go g.pump(ctx, system, req.Message, events)
	return events, nil
}

// buildContext reads the three learner-state inputs concurrently. Storage
// failures degrade to an emptier prompt rather than failing the chat.
func (g *Gateway) buildContext(ctx context.Context, levelOverride *string) Context {
	tctx := Context{JLPTLevel: string(models.LevelN5)}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		level, err := g.store.GetMeta(egCtx, models.MetaKeyJLPTFocus)
		if err == nil && level != "" {
			tctx.JLPTLevel = level
		}
		return nil
	})
	eg.Go(func() error {
		words, err := g.store.RecentSurfaces(egCtx, recentWordCount)
		if err != nil {
			g.logger.Warn("failed to load recent words for tutor context", "error", err)
			return nil
		}
		tctx.RecentWords = words
		return nil
	})
	eg.Go(func() error {
		words, err := g.store.WeakestSurfaces(egCtx, weakWordCount)
		if err != nil {
			g.logger.Warn("failed to load weak words for tutor context", "error", err)
			return nil
		}
		tctx.WeakWords = words
		return nil
	})
	_ = eg.Wait()

	if levelOverride != nil && *levelOverride != "" {
		tctx.JLPTLevel = *levelOverride
	}
	return tctx
}

// pump forwards generation chunks as events, enforcing the per-token
// silence deadline.
func (g *Gateway) pump(ctx context.Context, system, prompt string, events chan<- Event) {
	defer close(events)

	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks, errs := g.gen.GenerateStream(genCtx, system, prompt)

	timer := time.NewTimer(tokenTimeout)
	defer timer.Stop()

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				if errs != nil {
					if err := <-errs; err != nil {
						g.emitErr(ctx, events, err)
					}
				}
				return
			}
			if chunk.Content != "" {
				select {
				case events <- Event{Token: chunk.Content}:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Done {
				return
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(tokenTimeout)

		case err := <-errs:
			if err != nil {
				g.emitErr(ctx, events, err)
				return
			}
			// Error channel closed without an error: drain remaining chunks.
			errs = nil

		case <-timer.C:
			g.logger.Warn("tutor stream timed out waiting for a token")
			g.emitErr(ctx, events, ErrResponseTimeout)
			return

		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) emitErr(ctx context.Context, events chan<- Event, err error) {
	select {
	case events <- Event{Err: err}:
	case <-ctx.Done():
	}
}

// ErrorCode maps a stream failure to the stable error token sent to the
// client inside the SSE stream.
func ErrorCode(err error) string {
	var missing *llm.ModelMissingError
	switch {
	case errors.Is(err, llm.ErrUnreachable):
		return "tutor-unavailable"
	case errors.As(err, &missing):
		return "model-missing:" + missing.Model
	case errors.Is(err, ErrResponseTimeout), errors.Is(err, context.DeadlineExceeded):
		return "response-timed-out"
	default:
		return "tutor-unavailable"
	}
}
