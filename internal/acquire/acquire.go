// Package acquire downloads the source video for a run. yt-dlp handles
// streaming sites; a direct HTTP download is the baseline for plain file
// URLs.
package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"

	"dubber/internal/engine"
	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/services"
)

// Engine names in fallback order.
const (
	EngineYtdlp = "yt-dlp"
	EngineHTTP  = "http"
)

// Service downloads source videos.
type Service struct {
	ytdlpBinary   string
	maxHeight     int
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
	downloader    *httpDownloader
}

// NewService creates an acquisition service. maxHeight caps the requested
// video resolution for yt-dlp.
func NewService(ytdlpBinary string, maxHeight int, showProgress bool, logger *slog.Logger) *Service {
	if strings.TrimSpace(ytdlpBinary) == "" {
		ytdlpBinary = "yt-dlp"
	}
	if maxHeight <= 0 {
		maxHeight = 720
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		ytdlpBinary: ytdlpBinary,
		maxHeight:   maxHeight,
		logger:      logger,
		downloader:  &httpDownloader{showProgress: showProgress},
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// WithHTTPClient swaps the HTTP client used by the direct download engine
// (for testing).
func (s *Service) WithHTTPClient(client httpDoer) {
	s.downloader.client = client
}

// ValidateURL rejects empty or non-HTTP source URLs before any engine runs.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return services.Wrap(services.ErrInputMissing, string(engine.RoleAcquire), "validate", "source URL required", nil)
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return services.Wrap(services.ErrInputMissing, string(engine.RoleAcquire), "validate",
			fmt.Sprintf("source URL %q is not an http(s) URL", raw), err)
	}
	return nil
}

// DownloadWithYtdlp fetches the video via yt-dlp, capped at the configured
// height.
func (s *Service) DownloadWithYtdlp(ctx context.Context, sourceURL, dest string) error {
	partial := fileutil.TempSibling(dest)
	defer fileutil.DiscardPartial(partial)

	args := ytdlpArgs(sourceURL, s.maxHeight, partial)
	if err := s.run(ctx, s.ytdlpBinary, args...); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleAcquire), EngineYtdlp, "download failed", err)
	}
	if !fileutil.NonEmptyFile(partial) {
		return services.Wrap(services.ErrExecution, string(engine.RoleAcquire), EngineYtdlp, "yt-dlp produced no output", nil)
	}
	if err := fileutil.MoveInto(partial, dest); err != nil {
		return services.Wrap(services.ErrExecution, string(engine.RoleAcquire), EngineYtdlp, "finalize download", err)
	}
	return nil
}

// DownloadDirect streams the URL body to dest. This is the baseline engine
// for URLs that point straight at a media file.
func (s *Service) DownloadDirect(ctx context.Context, sourceURL, dest string) error {
	return s.downloader.fetch(ctx, sourceURL, dest)
}

// Candidates returns the acquisition chain for the selector. The direct
// HTTP engine is the guaranteed baseline and stays last.
func (s *Service) Candidates(sourceURL, dest string) []engine.Candidate {
	return []engine.Candidate{
		{
			Name: EngineYtdlp,
			Run: func(ctx context.Context) error {
				return s.DownloadWithYtdlp(ctx, sourceURL, dest)
			},
		},
		{
			Name: EngineHTTP,
			Run: func(ctx context.Context) error {
				return s.DownloadDirect(ctx, sourceURL, dest)
			},
		},
	}
}

// Descriptors lists the acquisition engines in fallback order.
func Descriptors() []engine.Descriptor {
	return []engine.Descriptor{
		{Role: engine.RoleAcquire, Name: EngineYtdlp, Summary: "yt-dlp download capped at the configured height"},
		{Role: engine.RoleAcquire, Name: EngineHTTP, Hosted: true, Summary: "direct HTTP download of file URLs"},
	}
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func ytdlpArgs(sourceURL string, maxHeight int, dest string) []string {
	return []string{
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		"-f", fmt.Sprintf("best[height<=%d]", maxHeight),
		"-o", dest,
		"--",
		sourceURL,
	}
}
