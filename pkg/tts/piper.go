// Package tts synthesizes Japanese speech offline by driving the Piper TTS
// binary as a subprocess: text in on stdin, WAV bytes out on stdout.
package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxTextLength is the synthesis input ceiling in Unicode codepoints,
	// enforced before the subprocess is spawned.
	MaxTextLength = 500

	// synthesisTimeout bounds one Piper invocation.
	synthesisTimeout = 30 * time.Second
)

var (
	// ErrEmptyText is returned when the input is empty after trimming.
	ErrEmptyText = errors.New("tts text must not be empty")

	// ErrTextTooLong is returned when the input exceeds MaxTextLength.
	ErrTextTooLong = fmt.Errorf("tts text exceeds %d characters", MaxTextLength)

	// ErrUnavailable is returned when the Piper binary or voice model is
	// missing or the subprocess fails.
	ErrUnavailable = errors.New("tts unavailable")
)

// Synthesizer runs Piper for one configured voice.
type Synthesizer struct {
	binary     string
	modelPath  string
	configPath string
	logger     *slog.Logger
}

// NewSynthesizer creates a new Synthesizer. configPath defaults to the
// model path plus ".json" when empty.
func NewSynthesizer(binary, modelPath, configPath string, logger *slog.Logger) *Synthesizer {
	if configPath == "" {
		configPath = modelPath + ".json"
	}
	return &Synthesizer{
		binary:     binary,
		modelPath:  modelPath,
		configPath: configPath,
		logger:     logger.With("component", "tts"),
	}
}

// Synthesize converts text to WAV audio bytes.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return nil, ErrTextTooLong
	}

	binary, err := s.resolveBinary()
	if err != nil {
		return nil, err
	}
	if err := s.checkModel(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, synthesisTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary,
		"--model", s.modelPath,
		"--config", s.configPath,
		"--output_file", "-")
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			s.logger.Error("piper failed", "error", err, "stderr", msg)
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: synthesis timed out after %s", ErrUnavailable, synthesisTimeout)
		}
		return nil, fmt.Errorf("%w: piper exited: %s", ErrUnavailable, err)
	}

	wav := stdout.Bytes()
	if len(wav) == 0 {
		return nil, fmt.Errorf("%w: piper produced no audio", ErrUnavailable)
	}

	s.logger.Debug("synthesized speech",
		"chars", utf8.RuneCountInString(text),
		"bytes", len(wav),
		"duration", time.Since(start))
	return wav, nil
}

// Available reports whether the Piper binary and voice model both exist.
func (s *Synthesizer) Available() bool {
	if _, err := s.resolveBinary(); err != nil {
		return false
	}
	return s.checkModel() == nil
}

// resolveBinary finds the Piper executable, consulting PATH for bare names.
func (s *Synthesizer) resolveBinary() (string, error) {
	if !filepath.IsAbs(s.binary) {
		found, err := exec.LookPath(s.binary)
		if err != nil {
			return "", fmt.Errorf("%w: piper binary %q not found in PATH", ErrUnavailable, s.binary)
		}
		return found, nil
	}
	if _, err := os.Stat(s.binary); err != nil {
		return "", fmt.Errorf("%w: piper binary not found at %s", ErrUnavailable, s.binary)
	}
	return s.binary, nil
}

func (s *Synthesizer) checkModel() error {
	if _, err := os.Stat(s.modelPath); err != nil {
		return fmt.Errorf("%w: voice model not found at %s", ErrUnavailable, s.modelPath)
	}
	return nil
}
