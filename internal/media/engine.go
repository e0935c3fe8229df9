// Package media wraps the ffmpeg and ffprobe binaries behind the operations
// the pipeline needs: audio extraction, duration probing, and final muxing.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"dubber/internal/config"
	"dubber/internal/logging"
	"dubber/internal/services"
)

type commandRunner func(ctx context.Context, name string, args ...string) (string, error)

// Engine executes media operations by invoking ffmpeg and ffprobe.
type Engine struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
	run     commandRunner
}

// NewEngine constructs a media engine from configuration.
func NewEngine(cfg *config.Config, logger *slog.Logger) *Engine {
	return &Engine{
		ffmpeg:  cfg.Media.FFmpegBinary,
		ffprobe: cfg.Media.FFprobeBinary,
		logger:  logging.NewComponentLogger(logger, "media"),
		run:     runCommand,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (e *Engine) WithCommandRunner(r commandRunner) {
	if e != nil && r != nil {
		e.run = r
	}
}

// ExtractAudio demuxes the source's audio into a mono 16kHz PCM WAV file,
// the input format the recognition engine expects.
func (e *Engine) ExtractAudio(ctx context.Context, source, dest string) error {
	if _, err := os.Stat(source); err != nil {
		return services.Wrap(services.ErrNotFound, "media", "extract audio", "source media not found", err)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	e.logger.Debug("extracting audio",
		logging.String("source", source),
		logging.String("dest", dest))
	if _, err := e.run(ctx, e.ffmpeg, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "media", "extract audio", "ffmpeg audio extraction failed", err)
	}
	return nil
}

// Duration probes the container duration of a media file in seconds.
func (e *Engine) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	out, err := e.run(ctx, e.ffprobe, args...)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "media", "probe duration", "ffprobe failed", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "media", "probe duration",
			fmt.Sprintf("unparseable ffprobe output %q", strings.TrimSpace(out)), err)
	}
	return seconds, nil
}

// MuxRequest describes a mux operation. AudioPath replaces the source's audio
// track when set; SubtitlePath burns cues into the video when set. At least
// one of the two must be provided.
type MuxRequest struct {
	VideoPath    string
	AudioPath    string
	SubtitlePath string
	Dest         string
}

// subtitleStyle matches the burn-in rendering used for dubbed output:
// translucent boxed background behind the text.
const subtitleStyle = "OutlineColour=&H40000000,BorderStyle=3"

// Mux renders the final video. The video stream is re-encoded only when a
// subtitle burn-in requires it; audio is always encoded to AAC.
func (e *Engine) Mux(ctx context.Context, req MuxRequest) error {
	if req.AudioPath == "" && req.SubtitlePath == "" {
		return services.Wrap(services.ErrValidation, "media", "mux", "nothing to mux: no audio or subtitle input", nil)
	}
	if _, err := os.Stat(req.VideoPath); err != nil {
		return services.Wrap(services.ErrNotFound, "media", "mux", "source video not found", err)
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", req.VideoPath,
	}
	if req.AudioPath != "" {
		args = append(args, "-i", req.AudioPath,
			"-map", "0:v:0",
			"-map", "1:a:0")
	}
	if req.SubtitlePath != "" {
		args = append(args,
			"-vf", fmt.Sprintf("subtitles=%s:force_style='%s'", req.SubtitlePath, subtitleStyle),
			"-c:v", "libx264")
	} else {
		args = append(args, "-c:v", "copy")
	}
	args = append(args, "-c:a", "aac", "-shortest", req.Dest)

	e.logger.Debug("muxing output",
		logging.String("video", req.VideoPath),
		logging.Bool("replace_audio", req.AudioPath != ""),
		logging.Bool("burn_subtitles", req.SubtitlePath != ""))
	if _, err := e.run(ctx, e.ffmpeg, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "media", "mux", "ffmpeg mux failed", err)
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
