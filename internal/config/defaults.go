package config

const (
	defaultWorkspaceDir       = "~/.local/share/dubber/workspace"
	defaultLogDir             = "~/.local/share/dubber/logs"
	defaultWhisperBinary      = "whisper"
	defaultWhisperModelSize   = "small"
	defaultTranslationBaseURL = "http://127.0.0.1:5000"
	defaultTranslationTimeout = 120
	defaultTargetLanguage     = "fr"
	defaultTTSBinary          = "tts"
	defaultTTSVoice           = "tts_models/fr/css10/vits"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
		},
		Whisper: Whisper{
			Binary:    defaultWhisperBinary,
			ModelSize: defaultWhisperModelSize,
		},
		Translation: Translation{
			BaseURL:        defaultTranslationBaseURL,
			TimeoutSeconds: defaultTranslationTimeout,
			TargetLanguage: defaultTargetLanguage,
		},
		TTS: TTS{
			Binary: defaultTTSBinary,
			Voice:  defaultTTSVoice,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
