package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dubber/internal/acquire"
	"dubber/internal/artifact"
	"dubber/internal/config"
	"dubber/internal/extract"
	"dubber/internal/language"
	"dubber/internal/mux"
	"dubber/internal/pipeline"
	"dubber/internal/preflight"
	"dubber/internal/runstore"
	"dubber/internal/synthesize"
	"dubber/internal/transcribe"
	"dubber/internal/translate"
)

type runOptions struct {
	sourceLang     string
	targetLang     string
	ttsEngine      string
	referenceAudio string
	noFallback     bool
	maxHeight      int
	skipPreflight  bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Download a video and produce a dubbed copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDubbing(cmd, ctx, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.sourceLang, "source", "", "Source language code (default from config)")
	cmd.Flags().StringVar(&opts.targetLang, "target", "", "Target language code (default from config)")
	cmd.Flags().StringVar(&opts.ttsEngine, "tts", "", "Preferred synthesis engine: voice_clone, coqui or gtts")
	cmd.Flags().StringVar(&opts.referenceAudio, "reference-audio", "", "Speaker sample for voice cloning")
	cmd.Flags().BoolVar(&opts.noFallback, "no-fallback", false, "Fail instead of falling back to another synthesis engine")
	cmd.Flags().IntVar(&opts.maxHeight, "max-height", 0, "Resolution cap for the download (default from config)")
	cmd.Flags().BoolVar(&opts.skipPreflight, "skip-preflight", false, "Skip environment checks before the run")

	return cmd
}

func runDubbing(cmd *cobra.Command, ctx *commandContext, url string, opts *runOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	settings, err := resolveRunSettings(cfg, opts)
	if err != nil {
		return err
	}
	if err := acquire.ValidateURL(url); err != nil {
		return err
	}

	runID := uuid.NewString()[:8]

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "dubber.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return errors.New("another dubber run is already in progress")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	logPath := filepath.Join(cfg.Paths.LogDir, "run-"+runID+".log")
	logger, err := ctx.newLogger(logPath)
	if err != nil {
		return err
	}

	if !opts.skipPreflight {
		results := preflight.RunAll(cmd.Context(), cfg, settings.referenceAudio)
		if failed := preflight.Failed(results); len(failed) > 0 {
			for _, result := range failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "preflight: %s: %s\n", result.Name, result.Detail)
			}
			return fmt.Errorf("%d preflight check(s) failed", len(failed))
		}
	}

	store, err := runstore.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.StartRun(cmd.Context(), runID, url, settings.sourceLang, settings.targetLang); err != nil {
		return err
	}

	runCfg := pipeline.RunConfiguration{
		RunID:           runID,
		SourceURL:       url,
		SourceLang:      settings.sourceLang,
		TargetLang:      settings.targetLang,
		ReferenceAudio:  settings.referenceAudio,
		SynthesisOrder:  synthesize.DefaultOrder(settings.ttsEngine, settings.noFallback),
		AttemptTimeout:  time.Duration(cfg.Engines.AttemptTimeoutSeconds) * time.Second,
		DownloadTimeout: time.Duration(cfg.Download.TimeoutSeconds) * time.Second,
		Artifacts:       artifact.NewStore(filepath.Join(cfg.Paths.OutputDir, "run-"+runID)),
	}

	showProgress := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	svcs := pipeline.Services{
		Acquire:    acquire.NewService(cfg.YtdlpBinary(), settings.maxHeight, showProgress, logger),
		Extract:    extract.NewService(cfg.FFmpegBinary(), logger),
		Transcribe: transcribe.NewService(cfg.WhisperBinary(), cfg.Transcription.Model, cfg.Transcription.OpenAIAPIKey, "", logger),
		Translate:  translate.NewService(cfg.Translation.Engine, cfg.Translation.OpenAIAPIKey, cfg.Translation.OpenAIModel, cfg.Translation.OpenAIBase, logger),
		Synthesize: synthesize.NewService(cfg.TTSBinary(), cfg.Synthesis.CloneModel, cfg.Synthesis.CoquiModel, settings.referenceAudio, logger),
		Mux:        mux.NewService(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger),
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %s (%s -> %s)\n", runID, url, settings.sourceLang, settings.targetLang)

	orch := pipeline.New(runCfg, svcs, logger, store)
	report, runErr := orch.Run(cmd.Context())
	if runErr != nil {
		stage := "unknown"
		var stageErr *pipeline.StageError
		if errors.As(runErr, &stageErr) {
			stage = string(stageErr.Stage)
		}
		if err := store.FailRun(cmd.Context(), runID, stage, runErr.Error()); err != nil {
			logger.Warn("failed to record run failure", "error", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Run %s failed at %s stage. Log: %s\n", runID, stage, logPath)
		return runErr
	}

	if err := store.FinishRun(cmd.Context(), runID, report.FinalPath); err != nil {
		logger.Warn("failed to record run completion", "error", err)
	}

	printRunReport(cmd, report)
	return nil
}

type runSettings struct {
	sourceLang     string
	targetLang     string
	ttsEngine      string
	referenceAudio string
	noFallback     bool
	maxHeight      int
}

// resolveRunSettings merges command-line flags over the configured defaults.
func resolveRunSettings(cfg *config.Config, opts *runOptions) (runSettings, error) {
	settings := runSettings{
		sourceLang:     cfg.Languages.Source,
		targetLang:     cfg.Languages.Target,
		ttsEngine:      cfg.Synthesis.Engine,
		referenceAudio: cfg.Synthesis.ReferenceAudio,
		noFallback:     opts.noFallback || cfg.Synthesis.NoFallback,
		maxHeight:      cfg.Download.MaxHeight,
	}

	if value := strings.TrimSpace(opts.sourceLang); value != "" {
		settings.sourceLang = strings.ToLower(value)
	}
	if value := strings.TrimSpace(opts.targetLang); value != "" {
		settings.targetLang = strings.ToLower(value)
	}
	if value := strings.TrimSpace(opts.ttsEngine); value != "" {
		settings.ttsEngine = strings.ToLower(value)
	}
	if value := strings.TrimSpace(opts.referenceAudio); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return runSettings{}, fmt.Errorf("reference audio: %w", err)
		}
		settings.referenceAudio = expanded
	}
	if opts.maxHeight > 0 {
		settings.maxHeight = opts.maxHeight
	}

	for _, code := range []string{settings.sourceLang, settings.targetLang} {
		if !language.Known(code) {
			return runSettings{}, fmt.Errorf("unsupported language %q", code)
		}
	}
	switch settings.ttsEngine {
	case "", synthesize.EngineVoiceClone, synthesize.EngineCoqui, synthesize.EngineGTTS:
	default:
		return runSettings{}, fmt.Errorf("unknown synthesis engine %q", settings.ttsEngine)
	}
	if settings.ttsEngine == synthesize.EngineVoiceClone && settings.referenceAudio == "" {
		return runSettings{}, errors.New("voice_clone requires --reference-audio or synthesis.reference_audio")
	}

	return settings, nil
}

func printRunReport(cmd *cobra.Command, report *pipeline.RunReport) {
	rows := make([][]string, 0, len(report.Stages))
	for _, stage := range report.Stages {
		size := "-"
		if bytes := stage.Artifact.SizeBytes(); bytes > 0 {
			size = humanize.IBytes(uint64(bytes))
		}
		rows = append(rows, []string{
			string(stage.Stage),
			stage.Engine,
			stage.Elapsed.Round(time.Millisecond).String(),
			size,
		})
	}
	table := renderTable(
		[]string{"Stage", "Engine", "Elapsed", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	)
	fmt.Fprint(cmd.OutOrStdout(), table)
	fmt.Fprintf(cmd.OutOrStdout(), "Finished in %s: %s\n", report.Total.Round(time.Millisecond), report.FinalPath)
}
