package stage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dubber/internal/logging"
)

func TestRunWritesMarkerAndSkipsSecondRun(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "audio.wav")
	runner := NewRunner(logging.NewNop())

	calls := 0
	body := func(ctx context.Context) error {
		calls++
		return os.WriteFile(output, []byte("pcm"), 0o644)
	}

	if err := runner.Run(context.Background(), "extracting_audio", []string{output}, body); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := os.Stat(MarkerPath(output)); err != nil {
		t.Fatalf("marker not written: %v", err)
	}

	if err := runner.Run(context.Background(), "extracting_audio", []string{output}, body); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if calls != 1 {
		t.Errorf("body invoked %d times, want 1", calls)
	}
}

func TestRunRerunsWhenMarkerIsStale(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "audio.wav")
	if err := os.WriteFile(MarkerPath(output), nil, 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	runner := NewRunner(logging.NewNop())

	calls := 0
	err := runner.Run(context.Background(), "extracting_audio", []string{output}, func(ctx context.Context) error {
		calls++
		return os.WriteFile(output, []byte("pcm"), 0o644)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Errorf("body invoked %d times, want 1", calls)
	}
}

func TestRunWrapsBodyErrorInFailure(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "audio.wav")
	runner := NewRunner(logging.NewNop())

	boom := errors.New("whisper exploded")
	err := runner.Run(context.Background(), "transcribing", []string{output}, func(ctx context.Context) error {
		return boom
	})
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *Failure, got %T: %v", err, err)
	}
	if failure.Stage != "transcribing" {
		t.Errorf("failure stage = %q", failure.Stage)
	}
	if !errors.Is(err, boom) {
		t.Errorf("failure does not wrap cause: %v", err)
	}
	if _, statErr := os.Stat(MarkerPath(output)); !os.IsNotExist(statErr) {
		t.Error("marker written for failed stage")
	}
}

func TestRunFailsWhenOutputMissing(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "audio.wav")
	runner := NewRunner(logging.NewNop())

	err := runner.Run(context.Background(), "extracting_audio", []string{output}, func(ctx context.Context) error {
		return nil
	})
	if err == nil {
		t.Fatal("Run succeeded without the declared output")
	}
}

func TestRunHonorsCancelledContext(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "audio.wav")
	runner := NewRunner(logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := runner.Run(ctx, "extracting_audio", []string{output}, func(ctx context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("body invoked %d times on cancelled context", calls)
	}
}
