package config

import (
	"errors"
	"fmt"

	"dubber/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLanguages(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	if err := c.validateEngines(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLanguages() error {
	if c.Languages.Source == "" {
		return errors.New("languages.source must be set")
	}
	if language.ToISO2(c.Languages.Source) == "" {
		return fmt.Errorf("languages.source %q is not a recognized language code", c.Languages.Source)
	}
	if c.Languages.Target != "" && language.ToISO2(c.Languages.Target) == "" {
		return fmt.Errorf("languages.target %q is not a recognized language code", c.Languages.Target)
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.MaxHeight <= 0 {
		return errors.New("download.max_height must be positive")
	}
	if c.Download.TimeoutSeconds < 0 {
		return errors.New("download.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	switch c.Translation.Engine {
	case "google", "openai":
	default:
		return fmt.Errorf("translation.engine %q is not supported (google, openai)", c.Translation.Engine)
	}
	if c.Translation.Engine == "openai" && c.Translation.OpenAIAPIKey == "" {
		return errors.New("translation.openai_api_key is required when translation.engine is openai (or set OPENAI_API_KEY)")
	}
	return nil
}

func (c *Config) validateSynthesis() error {
	switch c.Synthesis.Engine {
	case "", "voice_clone", "coqui", "gtts":
	default:
		return fmt.Errorf("synthesis.engine %q is not supported (voice_clone, coqui, gtts)", c.Synthesis.Engine)
	}
	if c.Synthesis.Engine == "voice_clone" && c.Synthesis.ReferenceAudio == "" {
		return errors.New("synthesis.reference_audio is required when synthesis.engine is voice_clone")
	}
	if c.Synthesis.NoFallback && c.Synthesis.Engine == "" {
		return errors.New("synthesis.no_fallback requires synthesis.engine to be set")
	}
	return nil
}

func (c *Config) validateEngines() error {
	if c.Engines.AttemptTimeoutSeconds < 0 {
		return errors.New("engines.attempt_timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (console, json)", c.Logging.Format)
	}
	return nil
}
