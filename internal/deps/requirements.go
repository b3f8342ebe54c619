package deps

import "dubber/internal/config"

// ForConfig lists the external tools the pipeline can invoke with the given
// configuration. Tools with hosted fallbacks are optional.
func ForConfig(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Audio extraction and final mux",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Media inspection",
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.YtdlpBinary(),
			Description: "Video download",
			Optional:    true,
		},
		{
			Name:        "Whisper",
			Command:     cfg.WhisperBinary(),
			Description: "Local speech-to-text",
			Optional:    true,
		},
		{
			Name:        "Coqui TTS",
			Command:     cfg.TTSBinary(),
			Description: "Local speech synthesis and voice cloning",
			Optional:    true,
		},
	}
}
