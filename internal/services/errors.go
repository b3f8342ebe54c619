package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInputMissing marks a stage whose required input artifact is absent or
	// empty. Never retried against the same engine.
	ErrInputMissing = errors.New("input missing")
	// ErrEngineUnavailable marks an engine whose runtime dependency (binary,
	// model weights, API key) is not present.
	ErrEngineUnavailable = errors.New("engine unavailable")
	// ErrExecution marks an external process that exited non-zero or a remote
	// call that failed mid-flight.
	ErrExecution = errors.New("engine execution failed")
	// ErrTimeout marks an engine attempt that exceeded its soft limit.
	ErrTimeout = errors.New("timeout")
	// ErrConfiguration marks an unusable run configuration detected before any
	// engine work starts.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes engine context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, engine, operation, message string, err error) error {
	detail := buildDetail(engine, operation, message)
	if marker == nil {
		marker = ErrExecution
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fallbackable reports whether the error should trigger the next candidate
// engine rather than abort the stage outright. Configuration errors cannot be
// recovered by trying another engine.
func Fallbackable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrConfiguration)
}

// Classify maps an error onto the sentinel that tagged it, defaulting to
// ErrExecution for untagged failures.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInputMissing):
		return ErrInputMissing
	case errors.Is(err, ErrEngineUnavailable):
		return ErrEngineUnavailable
	case errors.Is(err, ErrTimeout):
		return ErrTimeout
	case errors.Is(err, ErrConfiguration):
		return ErrConfiguration
	default:
		return ErrExecution
	}
}

func buildDetail(engine, operation, message string) string {
	parts := make([]string, 0, 3)
	if engine = strings.TrimSpace(engine); engine != "" {
		parts = append(parts, engine)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "engine failure"
	}
	return strings.Join(parts, ": ")
}
