// Package whisper shells out to the whisper CLI for speech recognition.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"dubber/internal/config"
	"dubber/internal/language"
	"dubber/internal/services"
)

// Recognition tasks supported by the whisper CLI.
const (
	TaskTranscribe = "transcribe"
	TaskTranslate  = "translate"
)

// Service provides transcription via the whisper CLI.
type Service struct {
	cfg           config.Whisper
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a whisper service with the given configuration.
func NewService(cfg config.Whisper) *Service {
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model size for logging.
func (s *Service) Model() string {
	return s.cfg.ModelSize
}

// Segment is one recognized span of speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is the parsed output of one recognition run.
type Result struct {
	Language string
	Segments []Segment
	JSONPath string
}

// Transcribe runs whisper over a WAV file and parses its JSON output.
// language may be empty for auto-detection. task selects between native
// transcription and whisper's built-in translate-to-English mode.
func (s *Service) Transcribe(ctx context.Context, source, outputDir, lang, task string) (Result, error) {
	var result Result

	if source == "" {
		return result, services.Wrap(services.ErrValidation, "whisper", "transcribe", "source path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	args := s.buildArgs(source, outputDir, lang, task)
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "whisper", "transcribe", "whisper invocation failed", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	result.JSONPath = filepath.Join(outputDir, baseName+".json")

	payload, err := loadPayload(result.JSONPath)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "whisper", "transcribe", "whisper produced no readable output", err)
	}
	result.Language = payload.Language
	result.Segments = payload.Segments
	return result, nil
}

func (s *Service) buildArgs(source, outputDir, lang, task string) []string {
	args := []string{
		source,
		"--model", s.cfg.ModelSize,
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if code := language.Normalize(lang); code != "" {
		args = append(args, "--language", code)
	}
	if task == TaskTranslate {
		args = append(args, "--task", TaskTranslate)
	}
	return args
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

type payload struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

func loadPayload(jsonPath string) (payload, error) {
	var p payload
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse whisper json: %w", err)
	}
	return p, nil
}
