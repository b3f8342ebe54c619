package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	HistoryDB string `toml:"history_db"`
}

// Languages contains the default language pair for dubbing runs.
type Languages struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
}

// Download contains configuration for the acquisition stage.
type Download struct {
	// MaxHeight caps the video resolution requested from yt-dlp (e.g. 720).
	MaxHeight int `toml:"max_height"`
	// TimeoutSeconds bounds a single download attempt. 0 disables the limit.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Transcription contains configuration for the speech-to-text stage.
type Transcription struct {
	// Model is the Whisper model size (tiny, base, small, medium, large).
	Model string `toml:"model"`
	// OpenAIAPIKey enables the hosted transcription fallback engine.
	OpenAIAPIKey string `toml:"openai_api_key"`
}

// Translation contains configuration for the text translation stage.
type Translation struct {
	// Engine selects the preferred translator: "google" or "openai".
	Engine       string `toml:"engine"`
	OpenAIAPIKey string `toml:"openai_api_key"`
	OpenAIModel  string `toml:"openai_model"`
	OpenAIBase   string `toml:"openai_base_url"`
}

// Synthesis contains configuration for the text-to-speech stage.
type Synthesis struct {
	// Engine selects the preferred synthesizer: "voice_clone", "coqui" or
	// "gtts". Empty uses the default chain.
	Engine string `toml:"engine"`
	// ReferenceAudio is the speaker sample required by the voice-clone engine.
	ReferenceAudio string `toml:"reference_audio"`
	// NoFallback pins synthesis to exactly the selected engine.
	NoFallback bool `toml:"no_fallback"`
	CloneModel string `toml:"clone_model"`
	CoquiModel string `toml:"coqui_model"`
}

// Engines contains cross-role engine execution settings.
type Engines struct {
	// AttemptTimeoutSeconds is the soft limit per engine attempt. 0 disables it.
	AttemptTimeoutSeconds int `toml:"attempt_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dubber.
//
// Configuration sections by subsystem:
//   - Paths: output, log, and history database locations
//   - Languages: default source/target pair
//   - Download: acquisition resolution and timeout
//   - Transcription: Whisper model and hosted fallback credentials
//   - Translation: preferred translator and OpenAI connection settings
//   - Synthesis: preferred TTS engine, voice-clone reference audio, models
//   - Engines: per-attempt soft timeout shared by all roles
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Languages     Languages     `toml:"languages"`
	Download      Download      `toml:"download"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	Synthesis     Synthesis     `toml:"synthesis"`
	Engines       Engines       `toml:"engines"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dubber/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dubber.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media validation.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// YtdlpBinary returns the yt-dlp executable name.
func (c *Config) YtdlpBinary() string {
	return "yt-dlp"
}

// WhisperBinary returns the Whisper CLI executable name.
func (c *Config) WhisperBinary() string {
	return "whisper"
}

// TTSBinary returns the Coqui TTS CLI executable name.
func (c *Config) TTSBinary() string {
	return "tts"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
