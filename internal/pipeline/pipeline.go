// Package pipeline drives a dubbing run through its six stages, strictly
// forward: acquire, extract, transcribe, translate, synthesize, mux.
package pipeline

import (
	"time"

	"dubber/internal/artifact"
	"dubber/internal/engine"
)

// State names the orchestrator's position in the run.
type State string

const (
	StateIdle         State = "idle"
	StateAcquiring    State = "acquiring"
	StateExtracting   State = "extracting"
	StateTranscribing State = "transcribing"
	StateTranslating  State = "translating"
	StateSynthesizing State = "synthesizing"
	StateMuxing       State = "muxing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// RunConfiguration is the immutable input to one run, built by the CLI
// layer before the pipeline starts.
type RunConfiguration struct {
	RunID          string
	SourceURL      string
	SourceLang     string
	TargetLang     string
	ReferenceAudio string
	SynthesisOrder []string
	// AttemptTimeout is the soft per-attempt limit shared by every stage.
	// 0 disables it.
	AttemptTimeout time.Duration
	// DownloadTimeout overrides AttemptTimeout for the acquire stage.
	DownloadTimeout time.Duration
	Artifacts       *artifact.Store
}

// StageReport summarizes one completed stage.
type StageReport struct {
	Stage    engine.Role
	Engine   string
	Elapsed  time.Duration
	Artifact artifact.Artifact
}

// RunReport summarizes a finished run.
type RunReport struct {
	RunID     string
	Stages    []StageReport
	Total     time.Duration
	FinalPath string
}

// StageError reports which stage terminated the run.
type StageError struct {
	Stage engine.Role
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
