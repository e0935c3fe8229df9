// Package tts shells out to the Coqui TTS CLI for speech synthesis.
package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"dubber/internal/config"
	"dubber/internal/services"
)

// Service synthesizes speech clips via the tts CLI.
type Service struct {
	cfg           config.TTS
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a TTS service with the given configuration.
func NewService(cfg config.TTS) *Service {
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Voice returns the configured voice model for logging.
func (s *Service) Voice() string {
	return s.cfg.Voice
}

// Synthesize renders text as a WAV clip at dest. An empty voice falls back
// to the configured voice model.
func (s *Service) Synthesize(ctx context.Context, text, voice, dest string) error {
	if strings.TrimSpace(text) == "" {
		return services.Wrap(services.ErrValidation, "tts", "synthesize", "text required", nil)
	}
	if dest == "" {
		return services.Wrap(services.ErrValidation, "tts", "synthesize", "destination path required", nil)
	}
	if strings.TrimSpace(voice) == "" {
		voice = s.cfg.Voice
	}

	args := []string{
		"--text", text,
		"--model_name", voice,
		"--out_path", dest,
	}
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "tts", "synthesize", "tts invocation failed", err)
	}
	if _, err := os.Stat(dest); err != nil {
		return services.Wrap(services.ErrExternalTool, "tts", "synthesize", "tts produced no output clip", err)
	}
	return nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
