package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLanguages()
	c.normalizeTranslation()
	if err := c.normalizeSynthesis(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = filepath.Join(c.Paths.LogDir, "history.db")
	} else if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeLanguages() {
	c.Languages.Source = strings.ToLower(strings.TrimSpace(c.Languages.Source))
	c.Languages.Target = strings.ToLower(strings.TrimSpace(c.Languages.Target))
	if c.Languages.Source == "" {
		c.Languages.Source = defaultSourceLanguage
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperModel
	}
	if strings.TrimSpace(c.Transcription.OpenAIAPIKey) == "" {
		c.Transcription.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.Engine = strings.ToLower(strings.TrimSpace(c.Translation.Engine))
	if c.Translation.Engine == "" {
		c.Translation.Engine = defaultTranslator
	}
	if strings.TrimSpace(c.Translation.OpenAIAPIKey) == "" {
		c.Translation.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if strings.TrimSpace(c.Translation.OpenAIModel) == "" {
		c.Translation.OpenAIModel = defaultOpenAIModel
	}
	c.Translation.OpenAIBase = strings.TrimRight(strings.TrimSpace(c.Translation.OpenAIBase), "/")
	if c.Translation.OpenAIBase == "" {
		c.Translation.OpenAIBase = defaultOpenAIBase
	}
}

func (c *Config) normalizeSynthesis() error {
	c.Synthesis.Engine = strings.ToLower(strings.TrimSpace(c.Synthesis.Engine))
	if ref := strings.TrimSpace(c.Synthesis.ReferenceAudio); ref != "" {
		expanded, err := expandPath(ref)
		if err != nil {
			return fmt.Errorf("synthesis.reference_audio: %w", err)
		}
		c.Synthesis.ReferenceAudio = expanded
	} else {
		c.Synthesis.ReferenceAudio = ""
	}
	if strings.TrimSpace(c.Synthesis.CloneModel) == "" {
		c.Synthesis.CloneModel = defaultCloneModel
	}
	if strings.TrimSpace(c.Synthesis.CoquiModel) == "" {
		c.Synthesis.CoquiModel = defaultCoquiModel
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
