// Package pipeline orchestrates the dubbing stages for one job: extract
// audio, transcribe, translate, synthesize and align a dub track, mux the
// final video, and package the artifacts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"dubber/internal/audio"
	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/media"
	"dubber/internal/services"
	"dubber/internal/stage"
	"dubber/internal/subtitles"
)

// ProgressFunc receives status transitions as a job advances.
type ProgressFunc func(status Status, percent int, message string)

// Result lists the artifacts a completed run produced. Paths are set only for
// artifacts that exist and are part of the requested output.
type Result struct {
	DetectedLanguage       string
	SubtitlePath           string
	TranslatedSubtitlePath string
	DubTrackPath           string
	VideoPath              string
	BundlePath             string
	Message                string
}

// Pipeline runs the dubbing stage sequence with a fixed set of engines.
type Pipeline struct {
	engines Engines
	runner  *stage.Runner
	logger  *slog.Logger
}

// New constructs a pipeline.
func New(engines Engines, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		engines: engines,
		runner:  stage.NewRunner(logger),
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run processes input inside workDir according to opts. Progress is reported
// through report (which may be nil). Completed stages leave markers in
// workDir, so rerunning over the same directory resumes after the last
// finished stage.
func (p *Pipeline) Run(ctx context.Context, input, workDir string, opts Options, report ProgressFunc) (Result, error) {
	var result Result
	if report == nil {
		report = func(Status, int, string) {}
	}
	if err := opts.Validate(); err != nil {
		return result, err
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return result, fmt.Errorf("pipeline: ensure work dir: %w", err)
	}
	paths := artifacts{dir: workDir, base: fileutil.BaseName(input)}
	logger := logging.WithContext(ctx, p.logger)

	// Audio extraction.
	report(StatusExtractingAudio, 10, "Extracting audio")
	err := p.runner.Run(ctx, string(StatusExtractingAudio), []string{paths.audioPath()}, func(ctx context.Context) error {
		if seconds, err := p.engines.Media.Duration(ctx, input); err != nil {
			logger.Warn("source duration probe failed", logging.Error(err))
		} else {
			logger.Info("source probed", logging.Float64("seconds", seconds))
		}
		return p.engines.Media.ExtractAudio(ctx, input, paths.audioPath())
	})
	if err != nil {
		return result, err
	}

	// Transcription. The whisper CLI loads its model on startup, so the
	// loading_model status precedes the exec.
	report(StatusLoadingModel, 30, "Loading recognition model")
	report(StatusTranscribing, 40, "Transcribing audio")
	transcribeOutputs := []string{paths.subtitlePath(), paths.languagePath()}
	err = p.runner.Run(ctx, string(StatusTranscribing), transcribeOutputs, func(ctx context.Context) error {
		return p.transcribe(ctx, paths, opts)
	})
	if err != nil {
		return result, err
	}
	detected, err := os.ReadFile(paths.languagePath())
	if err != nil {
		return result, fmt.Errorf("pipeline: read detected language: %w", err)
	}
	result.DetectedLanguage = strings.TrimSpace(string(detected))
	if opts.EmitSubtitles {
		result.SubtitlePath = paths.subtitlePath()
	}

	// Translation. Skipped only for subtitle-only runs without a target.
	dubSubtitlePath := paths.subtitlePath()
	if opts.TargetLanguage != "" {
		report(StatusTranslating, 50, "Translating subtitles")
		translatedPath := paths.translatedSubtitlePath(opts.TargetLanguage)
		source := p.translationSource(opts, result.DetectedLanguage)
		err = p.runner.Run(ctx, string(StatusTranslating), []string{translatedPath}, func(ctx context.Context) error {
			return p.translate(ctx, paths.subtitlePath(), translatedPath, source, opts.TargetLanguage)
		})
		if err != nil {
			return result, err
		}
		dubSubtitlePath = translatedPath
		if opts.EmitSubtitles {
			result.TranslatedSubtitlePath = translatedPath
		}
	}

	if opts.SubtitlesOnly {
		result.Message = "Subtitles generated"
		report(StatusCompleted, 100, result.Message)
		return result, nil
	}

	// Synthesis and alignment produce the continuous dub track.
	report(StatusSynthesizing, 70, "Synthesizing speech")
	err = p.runner.Run(ctx, string(StatusSynthesizing), []string{paths.dubTrackPath()}, func(ctx context.Context) error {
		return p.synthesizeTrack(ctx, paths, dubSubtitlePath, opts.Voice, report)
	})
	if err != nil {
		return result, err
	}
	result.DubTrackPath = paths.dubTrackPath()

	// Mux. Failure after the subtitle artifact exists on disk degrades
	// instead of failing the job, whether or not the run emits it.
	subtitlesOnDisk := fileExists(paths.subtitlePath()) || fileExists(dubSubtitlePath)
	report(StatusMuxing, 85, "Rendering dubbed video")
	err = p.runner.Run(ctx, string(StatusMuxing), []string{paths.videoPath()}, func(ctx context.Context) error {
		req := media.MuxRequest{
			VideoPath: input,
			AudioPath: paths.dubTrackPath(),
			Dest:      paths.videoPath(),
		}
		if opts.BurnInSubtitles {
			req.SubtitlePath = dubSubtitlePath
		}
		return p.engines.Media.Mux(ctx, req)
	})
	if err != nil {
		if ctx.Err() != nil || !subtitlesOnDisk {
			return result, err
		}
		result.Message = "Video rendering failed; subtitles are still available"
		logger.Warn("continuing without video output", logging.Error(err))
	} else {
		result.VideoPath = paths.videoPath()
		report(StatusMuxing, 90, "Video rendered")
	}

	// Packaging. The source video ships inside the bundle alongside the
	// generated artifacts.
	report(StatusPackaging, 95, "Packaging artifacts")
	err = p.runner.Run(ctx, string(StatusPackaging), []string{paths.bundlePath()}, func(ctx context.Context) error {
		return writeBundle(paths.bundlePath(), []string{
			input,
			result.VideoPath,
			result.DubTrackPath,
			result.SubtitlePath,
			result.TranslatedSubtitlePath,
		})
	})
	if err != nil {
		if ctx.Err() != nil || !subtitlesOnDisk {
			return result, err
		}
		result.Message = strings.TrimSpace(result.Message + " Packaging failed; artifacts remain unbundled.")
		logger.Warn("continuing without bundle", logging.Error(err))
	} else {
		result.BundlePath = paths.bundlePath()
	}

	if result.Message == "" {
		result.Message = "Processing complete"
	}
	report(StatusCompleted, 100, result.Message)
	return result, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (p *Pipeline) transcribe(ctx context.Context, paths artifacts, opts Options) error {
	task := ActionTranscribe
	if opts.Action == ActionTranslate {
		task = ActionTranslate
	}
	rec, err := p.engines.Recognizer.Transcribe(ctx, paths.audioPath(), opts.Language, task)
	if err != nil {
		return err
	}

	doc := &subtitles.Document{}
	index := 1
	for _, seg := range rec.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" || seg.End <= seg.Start {
			continue
		}
		doc.Cues = append(doc.Cues, subtitles.Cue{Index: index, Start: seg.Start, End: seg.End, Text: text})
		index++
	}
	if len(doc.Cues) == 0 {
		return services.Wrap(services.ErrValidation, "pipeline", "transcribe", "no speech recognized in source audio", nil)
	}
	if err := subtitles.Save(doc, paths.subtitlePath()); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(paths.languagePath(), []byte(rec.Language+"\n"), 0o644)
}

// translationSource picks the source language passed to the translator.
// Whisper's translate action already produced English text.
func (p *Pipeline) translationSource(opts Options, detected string) string {
	if opts.Action == ActionTranslate {
		return "en"
	}
	if opts.Language != "" {
		return opts.Language
	}
	return detected
}

func (p *Pipeline) translate(ctx context.Context, srcPath, dstPath, source, target string) error {
	doc, err := subtitles.Load(srcPath)
	if err != nil {
		return err
	}
	out, err := subtitles.MapText(doc, func(text string) (string, error) {
		return p.engines.Translator.Translate(ctx, text, source, target)
	})
	if err != nil {
		return err
	}
	return subtitles.Save(out, dstPath)
}

// synthesizeTrack renders one clip per cue, pads clips that run short of
// their cue window with trailing silence (overruns are never truncated), and
// concatenates them in cue order. Per-cue clips are removed after the track
// is written.
func (p *Pipeline) synthesizeTrack(ctx context.Context, paths artifacts, subtitlePath, voice string, report ProgressFunc) error {
	doc, err := subtitles.Load(subtitlePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(paths.clipsDir(), 0o755); err != nil {
		return fmt.Errorf("pipeline: ensure clips dir: %w", err)
	}

	clips := make([]string, 0, len(doc.Cues))
	for i, cue := range doc.Cues {
		clip := paths.clipPath(i + 1)
		text := strings.Join(strings.Fields(cue.Text), " ")
		if err := p.engines.Synthesizer.Synthesize(ctx, text, voice, clip); err != nil {
			return err
		}
		measured, err := audio.Duration(clip)
		if err != nil {
			return err
		}
		if measured < cue.Duration() {
			if err := audio.AppendSilence(clip, cue.Duration()-measured); err != nil {
				return err
			}
		}
		clips = append(clips, clip)
	}

	report(StatusAligning, 80, "Aligning dub track")
	if err := audio.Concat(paths.dubTrackPath(), clips); err != nil {
		return err
	}
	return os.RemoveAll(paths.clipsDir())
}
