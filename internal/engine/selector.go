package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dubber/internal/logging"
	"dubber/internal/services"
)

// Candidate is one engine in a fallback chain. Run must write its output to
// the stage's agreed artifact path and return nil only on full success.
type Candidate struct {
	Name     string
	Requires []Capability
	Run      func(ctx context.Context) error
}

// Selector runs an ordered candidate chain for one role.
type Selector struct {
	Role Role

	// AttemptTimeout bounds each individual attempt. Zero means the attempt
	// runs until the parent context is done.
	AttemptTimeout time.Duration

	// ValidateInput runs once before the first candidate. When it fails no
	// candidate is invoked and its error is returned unchanged.
	ValidateInput func(ctx context.Context) error

	Logger   *slog.Logger
	Observer func(event AttemptEvent)
}

// Run tries each candidate in order and returns the name of the first one
// that succeeds. Candidates whose required capabilities are absent from caps
// are skipped without being invoked. When every candidate fails or is
// skipped, the returned error is an *ExhaustedError wrapping the error of
// the final attempt.
func (s *Selector) Run(ctx context.Context, caps map[Capability]bool, candidates []Candidate) (string, error) {
	logger := s.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithContext(ctx, logger)

	if s.ValidateInput != nil {
		if err := s.ValidateInput(ctx); err != nil {
			return "", err
		}
	}
	if len(candidates) == 0 {
		return "", services.Wrap(services.ErrConfiguration, string(s.Role), "select", "no engines configured", nil)
	}

	var last error
	attempts := 0
	skipped := 0
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return "", services.Wrap(services.ErrTimeout, string(s.Role), candidate.Name, "aborted before attempt", err)
		}

		if missing, ok := unmetCapability(candidate, caps); !ok {
			err := services.Wrap(services.ErrEngineUnavailable, string(s.Role), candidate.Name,
				"missing capability "+string(missing), nil)
			last = err
			skipped++
			s.emit(AttemptEvent{Role: s.Role, Engine: candidate.Name, Outcome: OutcomeSkipped, Err: err})
			logger.Warn("engine skipped",
				slog.String(logging.FieldEngine, candidate.Name),
				slog.String("capability", string(missing)))
			continue
		}

		attempts++
		start := time.Now()
		err := s.attempt(ctx, candidate)
		elapsed := time.Since(start)
		if err == nil {
			s.emit(AttemptEvent{Role: s.Role, Engine: candidate.Name, Outcome: OutcomeSucceeded, Elapsed: elapsed})
			logger.Info("engine succeeded",
				slog.String(logging.FieldEngine, candidate.Name),
				slog.Duration("elapsed", elapsed))
			return candidate.Name, nil
		}

		last = err
		s.emit(AttemptEvent{Role: s.Role, Engine: candidate.Name, Outcome: OutcomeFailed, Err: err, Elapsed: elapsed})
		if !services.Fallbackable(err) {
			logger.Error("engine failed, not retryable",
				slog.String(logging.FieldEngine, candidate.Name),
				logging.Error(err))
			return "", err
		}
		if i < len(candidates)-1 {
			logger.Warn("engine failed, falling back",
				slog.String(logging.FieldEngine, candidate.Name),
				slog.String("next", candidates[i+1].Name),
				logging.Error(err))
		} else {
			logger.Error("engine failed",
				slog.String(logging.FieldEngine, candidate.Name),
				logging.Error(err))
		}
	}

	if last == nil {
		last = services.Wrap(services.ErrEngineUnavailable, string(s.Role), "select", "no engine attempted", nil)
	}
	return "", &ExhaustedError{Role: s.Role, Attempts: attempts, Skipped: skipped, Last: last}
}

func (s *Selector) attempt(ctx context.Context, candidate Candidate) error {
	// The engine name rides on the context so downstream logging carries it.
	attemptCtx := services.WithEngine(ctx, candidate.Name)
	if s.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(attemptCtx, s.AttemptTimeout)
		defer cancel()
	}
	err := candidate.Run(attemptCtx)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return services.Wrap(services.ErrTimeout, string(s.Role), candidate.Name, "attempt timed out", err)
	}
	return err
}

func (s *Selector) emit(event AttemptEvent) {
	if s.Observer != nil {
		s.Observer(event)
	}
}

func unmetCapability(candidate Candidate, caps map[Capability]bool) (Capability, bool) {
	for _, required := range candidate.Requires {
		if !caps[required] {
			return required, false
		}
	}
	return "", true
}
