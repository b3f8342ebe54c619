// Package engine implements ordered engine selection with fallback. A stage
// declares an ordered chain of candidate engines; the selector runs them in
// priority order until one succeeds or the chain is exhausted.
package engine

import (
	"fmt"
	"time"
)

// Role names the pipeline stage an engine chain serves.
type Role string

const (
	RoleAcquire    Role = "acquire"
	RoleExtract    Role = "extract"
	RoleTranscribe Role = "transcribe"
	RoleTranslate  Role = "translate"
	RoleSynthesize Role = "synthesize"
	RoleMux        Role = "mux"
)

// Capability identifies a runtime precondition an engine needs beyond its
// binary being installed.
type Capability string

const (
	// CapReferenceAudio is required by voice cloning engines.
	CapReferenceAudio Capability = "reference-audio"
)

// Descriptor describes one engine for status output. The order of a
// descriptor slice is the fallback order.
type Descriptor struct {
	Role     Role
	Name     string
	Hosted   bool
	Requires []Capability
	Summary  string
}

// Outcome classifies one selector attempt.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// AttemptEvent reports the result of one candidate attempt. Events are
// emitted in chain order, one per candidate considered.
type AttemptEvent struct {
	Role    Role
	Engine  string
	Outcome Outcome
	Err     error
	Elapsed time.Duration
}

// ExhaustedError reports that a chain produced no winner. It wraps the
// error from the final candidate considered, whether it failed or was
// skipped.
type ExhaustedError struct {
	Role     Role
	Attempts int
	Skipped  int
	Last     error
}

func (e *ExhaustedError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("%s: all %d engines skipped: %v", e.Role, e.Skipped, e.Last)
	}
	return fmt.Sprintf("%s: all %d engines failed: %v", e.Role, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}
