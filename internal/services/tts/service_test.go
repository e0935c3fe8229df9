package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"dubber/internal/config"
	"dubber/internal/services"
)

func newTestService() *Service {
	return NewService(config.TTS{Binary: "tts", Voice: "tts_models/fr/css10/vits"})
}

func TestSynthesizeBuildsArgsAndVerifiesOutput(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "0001.wav")
	svc := newTestService()

	var gotArgs []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotArgs = append([]string{name}, args...)
		return os.WriteFile(dest, []byte("pcm"), 0o644)
	})

	if err := svc.Synthesize(context.Background(), "bonjour", "", dest); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	for _, want := range []string{"tts", "--text", "bonjour", "--model_name", "tts_models/fr/css10/vits", "--out_path", dest} {
		if !slices.Contains(gotArgs, want) {
			t.Errorf("args missing %q: %v", want, gotArgs)
		}
	}
}

func TestSynthesizeVoiceOverride(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "0001.wav")
	svc := newTestService()

	var gotArgs []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotArgs = args
		return os.WriteFile(dest, []byte("pcm"), 0o644)
	})

	if err := svc.Synthesize(context.Background(), "hallo", "tts_models/de/thorsten/vits", dest); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	idx := slices.Index(gotArgs, "--model_name")
	if idx < 0 || gotArgs[idx+1] != "tts_models/de/thorsten/vits" {
		t.Errorf("voice override not applied: %v", gotArgs)
	}
}

func TestSynthesizeFailsWhenNoClipWritten(t *testing.T) {
	svc := newTestService()
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return nil // succeeds without writing the clip
	})
	err := svc.Synthesize(context.Background(), "bonjour", "", filepath.Join(t.TempDir(), "0001.wav"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestSynthesizeCommandFailure(t *testing.T) {
	svc := newTestService()
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("voice model missing")
	})
	err := svc.Synthesize(context.Background(), "bonjour", "", filepath.Join(t.TempDir(), "0001.wav"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestSynthesizeValidation(t *testing.T) {
	svc := newTestService()
	if err := svc.Synthesize(context.Background(), "  ", "", "out.wav"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty text, got %v", err)
	}
	if err := svc.Synthesize(context.Background(), "bonjour", "", ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty dest, got %v", err)
	}
}
