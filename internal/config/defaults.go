package config

const (
	defaultOutputDir      = "~/.local/share/dubber/output"
	defaultLogDir         = "~/.local/share/dubber/logs"
	defaultSourceLanguage = "en"
	defaultTargetLanguage = "tr"
	defaultMaxHeight      = 720
	defaultWhisperModel   = "base"
	defaultTranslator     = "google"
	defaultOpenAIModel    = "gpt-3.5-turbo"
	defaultOpenAIBase     = "https://api.openai.com/v1"
	defaultCloneModel     = "tts_models/multilingual/multi-dataset/xtts_v2"
	defaultCoquiModel     = "tts_models/multilingual/multi-dataset/your_tts"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Languages: Languages{
			Source: defaultSourceLanguage,
			Target: defaultTargetLanguage,
		},
		Download: Download{
			MaxHeight: defaultMaxHeight,
		},
		Transcription: Transcription{
			Model: defaultWhisperModel,
		},
		Translation: Translation{
			Engine:      defaultTranslator,
			OpenAIModel: defaultOpenAIModel,
			OpenAIBase:  defaultOpenAIBase,
		},
		Synthesis: Synthesis{
			CloneModel: defaultCloneModel,
			CoquiModel: defaultCoquiModel,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
