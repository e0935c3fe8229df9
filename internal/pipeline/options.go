package pipeline

import (
	"fmt"

	"dubber/internal/config"
	"dubber/internal/language"
	"dubber/internal/services"
)

// Status tracks a job through the pipeline state machine.
type Status string

const (
	StatusQueued          Status = "queued"
	StatusExtractingAudio Status = "extracting_audio"
	StatusLoadingModel    Status = "loading_model"
	StatusTranscribing    Status = "transcribing"
	StatusTranslating     Status = "translating"
	StatusSynthesizing    Status = "synthesizing"
	StatusAligning        Status = "aligning"
	StatusMuxing          Status = "muxing"
	StatusPackaging       Status = "packaging"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

// Recognition actions.
const (
	ActionTranscribe = "transcribe"
	ActionTranslate  = "translate"
)

// Options selects the work a job performs. The zero value is not usable;
// call Validate before running.
type Options struct {
	// ModelSize overrides the configured whisper model when set.
	ModelSize string
	// Language is the spoken language of the source; empty or "auto" lets
	// the recognizer detect it.
	Language string
	// TargetLanguage is the dub/subtitle output language.
	TargetLanguage string
	// Action selects native transcription or whisper's translate-to-English.
	Action string
	// Voice overrides the configured synthesis voice when set.
	Voice string

	EmitSubtitles   bool
	SubtitlesOnly   bool
	BurnInSubtitles bool
}

// Validate normalizes language codes and rejects unusable combinations.
func (o *Options) Validate() error {
	if o.Action == "" {
		o.Action = ActionTranscribe
	}
	if o.Action != ActionTranscribe && o.Action != ActionTranslate {
		return services.Wrap(services.ErrValidation, "pipeline", "options",
			fmt.Sprintf("unknown action %q", o.Action), nil)
	}
	if o.ModelSize != "" && !config.ValidModelSize(o.ModelSize) {
		return services.Wrap(services.ErrValidation, "pipeline", "options",
			fmt.Sprintf("unknown model size %q", o.ModelSize), nil)
	}

	if normalized := language.Normalize(o.Language); normalized != "" {
		o.Language = normalized
	} else if o.Language != "" && o.Language != "auto" {
		return services.Wrap(services.ErrValidation, "pipeline", "options",
			fmt.Sprintf("unrecognized source language %q", o.Language), nil)
	} else {
		o.Language = ""
	}

	if o.TargetLanguage != "" {
		normalized := language.Normalize(o.TargetLanguage)
		if normalized == "" {
			return services.Wrap(services.ErrValidation, "pipeline", "options",
				fmt.Sprintf("unrecognized target language %q", o.TargetLanguage), nil)
		}
		o.TargetLanguage = normalized
	}

	if o.SubtitlesOnly {
		// Subtitle-only runs always keep their subtitle artifacts.
		o.EmitSubtitles = true
	} else if o.TargetLanguage == "" {
		return services.Wrap(services.ErrValidation, "pipeline", "options",
			"target language required for dubbing", nil)
	}
	return nil
}
