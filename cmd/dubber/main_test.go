package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubber/internal/jobs"
	"dubber/internal/pipeline"
)

func TestConfigInitWritesSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cmd := newConfigInitCommand()
	cmd.SetArgs([]string{"--path", path})
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("sample not written: %v", err)
	}
	if !strings.Contains(buf.String(), path) {
		t.Errorf("output does not mention target path: %q", buf.String())
	}

	// Second run must refuse without --overwrite.
	cmd = newConfigInitCommand()
	cmd.SetArgs([]string{"--path", path})
	cmd.SetOut(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("config init overwrote existing file")
	}

	cmd = newConfigInitCommand()
	cmd.SetArgs([]string{"--path", path, "--overwrite"})
	cmd.SetOut(&bytes.Buffer{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestJobFlagsMapToOptions(t *testing.T) {
	flags := jobFlags{
		targetLanguage: "fr",
		sourceLanguage: "english",
		action:         pipeline.ActionTranslate,
		modelSize:      "medium",
		voice:          "tts_models/fr/css10/vits",
		subtitlesOnly:  true,
		burnIn:         true,
		noSubtitles:    false,
	}
	opts := flags.options()
	if opts.TargetLanguage != "fr" || opts.Language != "english" {
		t.Errorf("languages = %q/%q", opts.Language, opts.TargetLanguage)
	}
	if opts.Action != pipeline.ActionTranslate || opts.ModelSize != "medium" {
		t.Errorf("action/model = %q/%q", opts.Action, opts.ModelSize)
	}
	if !opts.EmitSubtitles || !opts.SubtitlesOnly || !opts.BurnInSubtitles {
		t.Errorf("booleans = %+v", opts)
	}

	flags.noSubtitles = true
	if flags.options().EmitSubtitles {
		t.Error("--no-subtitles must clear EmitSubtitles")
	}
}

func TestRenderJobTable(t *testing.T) {
	out := renderJobTable([]jobs.Job{
		{ID: "0123456789abcdef", InputPath: "/media/movie.mp4", Status: pipeline.StatusCompleted, Progress: 100, Message: "done"},
	})
	for _, want := range []string{"01234567", "movie.mp4", "completed", "100%"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0123456789abcdef") {
		t.Error("job id not shortened")
	}
}

func TestRenderArtifactTableSkipsMissing(t *testing.T) {
	out := renderArtifactTable(jobs.Job{SubtitlePath: "/w/j/movie.srt"})
	if !strings.Contains(out, "movie.srt") {
		t.Errorf("table missing subtitle row:\n%s", out)
	}
	if strings.Contains(out, "bundle") {
		t.Errorf("table lists absent artifacts:\n%s", out)
	}
}
