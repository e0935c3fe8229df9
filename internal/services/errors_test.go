package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarkerAndCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "muxing", "render", "ffmpeg mux failed", cause)

	if !errors.Is(err, ErrExternalTool) {
		t.Error("marker lost")
	}
	if !errors.Is(err, cause) {
		t.Error("cause lost")
	}
	msg := err.Error()
	for _, want := range []string{"muxing", "render", "ffmpeg mux failed", "exit status 1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q: %s", want, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrValidation, "jobs", "submit", "target language required", nil)
	if !errors.Is(err, ErrValidation) {
		t.Error("marker lost")
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Errorf("nil marker should default to ErrExternalTool: %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Errorf("empty detail placeholder missing: %v", err)
	}
}

func TestContextValues(t *testing.T) {
	ctx := WithJobID(context.Background(), "job-1")
	ctx = WithStage(ctx, "transcribing")
	ctx = WithRequestID(ctx, "req-9")

	if got, ok := JobIDFromContext(ctx); !ok || got != "job-1" {
		t.Errorf("job id = %q, %v", got, ok)
	}
	if got, ok := StageFromContext(ctx); !ok || got != "transcribing" {
		t.Errorf("stage = %q, %v", got, ok)
	}
	if got, ok := RequestIDFromContext(ctx); !ok || got != "req-9" {
		t.Errorf("request id = %q, %v", got, ok)
	}
	if _, ok := JobIDFromContext(context.Background()); ok {
		t.Error("job id present on empty context")
	}
}
