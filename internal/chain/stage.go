package chain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/54b3r/docqa-go/internal/logging"
)

// Observer receives the outcome of every stage run. Implementations must be
// safe for concurrent use.
type Observer interface {
	// ObserveStage is called once per Run with the stage name, its wall-clock
	// duration, and the error it returned (nil on success).
	ObserveStage(stage string, elapsed time.Duration, err error)
}

// StageOption customises a stage created by [Stage].
type StageOption func(*stageConfig)

type stageConfig struct {
	observer Observer
}

// WithObserver attaches obs to the stage.
func WithObserver(obs Observer) StageOption {
	return func(c *stageConfig) {
		c.observer = obs
	}
}

// named wraps a link with a stage identity.
type named[I, O any] struct {
	name  string
	inner Chain[I, O]
	cfg   stageConfig
}

// Stage gives inner a name. Failures of inner are wrapped in an
// [ExecutionError] carrying that name, unless the failure already is one, in
// which case it is returned unmodified so the innermost stage is reported.
// Resources owned by inner remain releasable through composition.
func Stage[I, O any](name string, inner Chain[I, O], opts ...StageOption) Chain[I, O] {
	s := &named[I, O]{name: name, inner: inner}
	for _, opt := range opts {
		opt(&s.cfg)
	}
	return s
}

// Run executes the wrapped link.
func (s *named[I, O]) Run(ctx context.Context, input I) (O, error) {
	log := logging.FromContext(ctx)
	log.Debug("stage start", slog.String("stage", s.name))

	start := time.Now()
	out, err := s.inner.Run(ctx, input)
	elapsed := time.Since(start)

	if s.cfg.observer != nil {
		s.cfg.observer.ObserveStage(s.name, elapsed, err)
	}

	if err != nil {
		log.Warn("stage failed",
			slog.String("stage", s.name),
			slog.Duration("duration", elapsed),
			slog.Any("error", err),
		)
		var ee *ExecutionError
		if errors.As(err, &ee) {
			var zero O
			return zero, err
		}
		var zero O
		return zero, &ExecutionError{Stage: s.name, Err: err}
	}

	log.Debug("stage done", slog.String("stage", s.name), slog.Duration("duration", elapsed))
	return out, nil
}

func (s *named[I, O]) resources() []io.Closer {
	return resourcesOf(s.inner)
}
