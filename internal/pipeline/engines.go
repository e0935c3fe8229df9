package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"dubber/internal/config"
	"dubber/internal/media"
	"dubber/internal/services/translate"
	"dubber/internal/services/tts"
	"dubber/internal/services/whisper"
)

// Recognition is the output of one speech-recognition run.
type Recognition struct {
	Language string
	Segments []whisper.Segment
}

// Recognizer converts speech audio to timed text segments.
type Recognizer interface {
	Transcribe(ctx context.Context, audioPath, language, task string) (Recognition, error)
}

// Translator converts text between languages.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Synthesizer renders text as a WAV clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, dest string) error
}

// MediaEngine covers the ffmpeg-backed operations the pipeline needs.
type MediaEngine interface {
	ExtractAudio(ctx context.Context, source, dest string) error
	Duration(ctx context.Context, path string) (float64, error)
	Mux(ctx context.Context, req media.MuxRequest) error
}

// Engines bundles the external collaborators behind the pipeline.
type Engines struct {
	Recognizer  Recognizer
	Translator  Translator
	Synthesizer Synthesizer
	Media       MediaEngine
}

// DefaultEngines wires the production engine clients from configuration.
func DefaultEngines(cfg *config.Config, logger *slog.Logger) Engines {
	return Engines{
		Recognizer: &whisperRecognizer{svc: whisper.NewService(cfg.Whisper)},
		Translator: translate.NewClient(translate.Config{
			BaseURL:        cfg.Translation.BaseURL,
			APIKey:         cfg.Translation.APIKey,
			TimeoutSeconds: cfg.Translation.TimeoutSeconds,
		}),
		Synthesizer: tts.NewService(cfg.TTS),
		Media:       media.NewEngine(cfg, logger),
	}
}

type whisperRecognizer struct {
	svc *whisper.Service
}

func (r *whisperRecognizer) Transcribe(ctx context.Context, audioPath, lang, task string) (Recognition, error) {
	result, err := r.svc.Transcribe(ctx, audioPath, filepath.Dir(audioPath), lang, task)
	if err != nil {
		return Recognition{}, err
	}
	return Recognition{Language: result.Language, Segments: result.Segments}, nil
}
