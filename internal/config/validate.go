package config

import (
	"errors"
	"strings"
)

var validModelSizes = map[string]struct{}{
	"tiny":   {},
	"base":   {},
	"small":  {},
	"medium": {},
	"large":  {},
}

// ValidModelSize reports whether size names a known whisper model.
func ValidModelSize(size string) bool {
	_, ok := validModelSizes[strings.ToLower(strings.TrimSpace(size))]
	return ok
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWhisper(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	return c.validateMedia()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	return nil
}

func (c *Config) validateWhisper() error {
	if strings.TrimSpace(c.Whisper.Binary) == "" {
		return errors.New("whisper.binary must be set")
	}
	if _, ok := validModelSizes[strings.ToLower(strings.TrimSpace(c.Whisper.ModelSize))]; !ok {
		return errors.New("whisper.model_size must be one of tiny, base, small, medium, large")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if strings.TrimSpace(c.Translation.BaseURL) == "" {
		return errors.New("translation.base_url must be set")
	}
	if c.Translation.TimeoutSeconds <= 0 {
		return errors.New("translation.timeout_seconds must be positive")
	}
	if strings.TrimSpace(c.Translation.TargetLanguage) == "" {
		return errors.New("translation.target_language must be set")
	}
	return nil
}

func (c *Config) validateTTS() error {
	if strings.TrimSpace(c.TTS.Binary) == "" {
		return errors.New("tts.binary must be set")
	}
	if strings.TrimSpace(c.TTS.Voice) == "" {
		return errors.New("tts.voice must be set")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if strings.TrimSpace(c.Media.FFmpegBinary) == "" {
		return errors.New("media.ffmpeg_binary must be set")
	}
	if strings.TrimSpace(c.Media.FFprobeBinary) == "" {
		return errors.New("media.ffprobe_binary must be set")
	}
	return nil
}
