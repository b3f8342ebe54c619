package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"dubber/internal/acquire"
	"dubber/internal/artifact"
	"dubber/internal/engine"
	"dubber/internal/extract"
	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/mux"
	"dubber/internal/runstore"
	"dubber/internal/services"
	"dubber/internal/synthesize"
	"dubber/internal/transcribe"
	"dubber/internal/translate"
)

// Services bundles the per-stage engine services the orchestrator drives.
type Services struct {
	Acquire    *acquire.Service
	Extract    *extract.Service
	Transcribe *transcribe.Service
	Translate  *translate.Service
	Synthesize *synthesize.Service
	Mux        *mux.Service
}

// EventRecorder receives every engine attempt for the run history trail.
type EventRecorder interface {
	RecordEvent(ctx context.Context, event runstore.Event) error
}

// Orchestrator runs the pipeline stages in order, one blocking engine
// invocation at a time.
type Orchestrator struct {
	cfg      RunConfiguration
	svcs     Services
	logger   *slog.Logger
	recorder EventRecorder
	state    State
}

// New creates an orchestrator for one run. recorder may be nil.
func New(cfg RunConfiguration, svcs Services, logger *slog.Logger, recorder EventRecorder) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:      cfg,
		svcs:     svcs,
		logger:   logger,
		recorder: recorder,
		state:    StateIdle,
	}
}

// State returns the orchestrator's current position in the run.
func (o *Orchestrator) State() State {
	return o.state
}

type stagePlan struct {
	role       engine.Role
	state      State
	output     artifact.Kind
	timeout    time.Duration
	validate   func(ctx context.Context) error
	candidates []engine.Candidate
}

// Run executes every stage in order. On the first stage exhaustion the run
// stops with a *StageError; artifacts of later stages are never created.
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	ctx = services.WithRunID(ctx, o.cfg.RunID)
	logger := logging.WithContext(ctx, o.logger)

	if err := o.cfg.Artifacts.EnsureDir(); err != nil {
		o.state = StateFailed
		return nil, &StageError{Stage: engine.RoleAcquire, Err: err}
	}

	caps := map[engine.Capability]bool{
		engine.CapReferenceAudio: fileutil.NonEmptyFile(o.cfg.ReferenceAudio),
	}

	report := &RunReport{RunID: o.cfg.RunID}
	runStart := time.Now()
	logger.Info("run started",
		slog.String(logging.FieldEventType, "run_start"),
		slog.String("source_url", o.cfg.SourceURL),
		slog.String("source_lang", o.cfg.SourceLang),
		slog.String("target_lang", o.cfg.TargetLang))

	for _, plan := range o.plan(caps) {
		stageReport, err := o.runStage(ctx, caps, plan)
		if err != nil {
			o.state = StateFailed
			return nil, &StageError{Stage: plan.role, Err: err}
		}
		report.Stages = append(report.Stages, *stageReport)
	}

	o.state = StateDone
	report.Total = time.Since(runStart)
	report.FinalPath = o.cfg.Artifacts.Resolve(artifact.KindFinalVideo)
	logger.Info("run completed",
		slog.String(logging.FieldEventType, "run_done"),
		slog.Duration("total", report.Total),
		slog.String("output", report.FinalPath))
	return report, nil
}

func (o *Orchestrator) runStage(ctx context.Context, caps map[engine.Capability]bool, plan stagePlan) (*StageReport, error) {
	o.state = plan.state
	stageCtx := services.WithStage(ctx, string(plan.role))
	logger := logging.WithContext(stageCtx, o.logger)
	logger.Info("stage started", slog.String(logging.FieldEventType, "stage_start"))

	attemptTimeout := o.cfg.AttemptTimeout
	if plan.timeout > 0 {
		attemptTimeout = plan.timeout
	}
	selector := &engine.Selector{
		Role:           plan.role,
		AttemptTimeout: attemptTimeout,
		ValidateInput:  plan.validate,
		Logger:         o.logger,
		Observer: func(event engine.AttemptEvent) {
			o.record(stageCtx, event)
		},
	}

	start := time.Now()
	winner, err := selector.Run(stageCtx, caps, plan.candidates)
	if err != nil {
		logger.Error("stage failed", logging.Error(err))
		return nil, err
	}

	produced := artifact.Artifact{
		Kind:       plan.output,
		Path:       o.cfg.Artifacts.Resolve(plan.output),
		ProducedBy: string(plan.role),
	}
	if !produced.Ready() {
		err := services.Wrap(services.ErrExecution, string(plan.role), winner, "stage reported success without output", nil)
		logger.Error("stage failed", logging.Error(err))
		return nil, err
	}

	elapsed := time.Since(start)
	logger.Info("stage completed",
		slog.String(logging.FieldEventType, "stage_done"),
		slog.String(logging.FieldEngine, winner),
		slog.Duration("elapsed", elapsed),
		slog.String("output_size", humanize.IBytes(uint64(produced.SizeBytes()))))

	return &StageReport{Stage: plan.role, Engine: winner, Elapsed: elapsed, Artifact: produced}, nil
}

func (o *Orchestrator) plan(caps map[engine.Capability]bool) []stagePlan {
	store := o.cfg.Artifacts
	videoPath := store.Resolve(artifact.KindVideo)
	rawAudioPath := store.Resolve(artifact.KindRawAudio)
	transcriptPath := store.Resolve(artifact.KindTranscript)
	translationPath := store.Resolve(artifact.KindTranslation)
	dubbedAudioPath := store.Resolve(artifact.KindDubbedAudio)
	finalPath := store.Resolve(artifact.KindFinalVideo)

	return []stagePlan{
		{
			role:    engine.RoleAcquire,
			state:   StateAcquiring,
			output:  artifact.KindVideo,
			timeout: o.cfg.DownloadTimeout,
			validate: func(context.Context) error {
				return acquire.ValidateURL(o.cfg.SourceURL)
			},
			candidates: o.svcs.Acquire.Candidates(o.cfg.SourceURL, videoPath),
		},
		{
			role:       engine.RoleExtract,
			state:      StateExtracting,
			output:     artifact.KindRawAudio,
			validate:   o.requireArtifact(engine.RoleExtract, artifact.KindVideo),
			candidates: o.svcs.Extract.Candidates(videoPath, rawAudioPath),
		},
		{
			role:       engine.RoleTranscribe,
			state:      StateTranscribing,
			output:     artifact.KindTranscript,
			validate:   o.requireArtifact(engine.RoleTranscribe, artifact.KindRawAudio),
			candidates: o.svcs.Transcribe.Candidates(rawAudioPath, o.cfg.SourceLang, transcriptPath),
		},
		{
			role:       engine.RoleTranslate,
			state:      StateTranslating,
			output:     artifact.KindTranslation,
			validate:   o.requireArtifact(engine.RoleTranslate, artifact.KindTranscript),
			candidates: o.svcs.Translate.Candidates(transcriptPath, o.cfg.SourceLang, o.cfg.TargetLang, translationPath),
		},
		{
			role:       engine.RoleSynthesize,
			state:      StateSynthesizing,
			output:     artifact.KindDubbedAudio,
			validate:   o.requireArtifact(engine.RoleSynthesize, artifact.KindTranslation),
			candidates: o.svcs.Synthesize.Candidates(o.synthesisOrder(), translationPath, o.cfg.TargetLang, dubbedAudioPath),
		},
		{
			role:       engine.RoleMux,
			state:      StateMuxing,
			output:     artifact.KindFinalVideo,
			validate:   o.requireArtifacts(engine.RoleMux, artifact.KindVideo, artifact.KindDubbedAudio),
			candidates: o.svcs.Mux.Candidates(videoPath, dubbedAudioPath, finalPath),
		},
	}
}

func (o *Orchestrator) synthesisOrder() []string {
	if len(o.cfg.SynthesisOrder) > 0 {
		return o.cfg.SynthesisOrder
	}
	return synthesize.DefaultOrder("", false)
}

func (o *Orchestrator) requireArtifact(role engine.Role, kind artifact.Kind) func(ctx context.Context) error {
	return o.requireArtifacts(role, kind)
}

func (o *Orchestrator) requireArtifacts(role engine.Role, kinds ...artifact.Kind) func(ctx context.Context) error {
	return func(context.Context) error {
		for _, kind := range kinds {
			path := o.cfg.Artifacts.Resolve(kind)
			if !fileutil.NonEmptyFile(path) {
				return services.Wrap(services.ErrInputMissing, string(role), "validate",
					fmt.Sprintf("required input %q missing or empty", path), nil)
			}
		}
		return nil
	}
}

func (o *Orchestrator) record(ctx context.Context, event engine.AttemptEvent) {
	if o.recorder == nil {
		return
	}
	detail := ""
	if event.Err != nil {
		detail = event.Err.Error()
	}
	stored := runstore.Event{
		RunID:   o.cfg.RunID,
		Stage:   string(event.Role),
		Engine:  event.Engine,
		Outcome: string(event.Outcome),
		Detail:  detail,
		Elapsed: event.Elapsed,
	}
	if err := o.recorder.RecordEvent(ctx, stored); err != nil {
		logging.WithContext(ctx, o.logger).Warn("failed to record engine event", logging.Error(err))
	}
}
