package flow

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/BTreeMap/MoodPipe/internal/models"
	"github.com/BTreeMap/MoodPipe/internal/riddle"
)

// DefaultGenerationTimeout bounds one reframe generation request.
const DefaultGenerationTimeout = 10 * time.Second

// ReframeGenerator produces a short reframing message for a reason and detail.
type ReframeGenerator interface {
	GenerateReframe(ctx context.Context, reason, detail string) (string, error)
}

// Steps holds the collaborators shared by every dialogue step.
type Steps struct {
	reframer   ReframeGenerator
	riddles    riddle.Source
	genTimeout time.Duration
	observer   Observer
	registry   map[models.StepName]StepFunc
}

// StepsOption configures Steps.
type StepsOption func(*Steps)

// WithReframeGenerator sets the text generator used by the reframe loop.
// Without one, the canned suggestion is always used.
func WithReframeGenerator(g ReframeGenerator) StepsOption {
	return func(s *Steps) { s.reframer = g }
}

// WithRiddleSource sets the riddle source.
func WithRiddleSource(src riddle.Source) StepsOption {
	return func(s *Steps) { s.riddles = src }
}

// WithGenerationTimeout bounds each generation request.
func WithGenerationTimeout(d time.Duration) StepsOption {
	return func(s *Steps) {
		if d > 0 {
			s.genTimeout = d
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) StepsOption {
	return func(s *Steps) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewSteps creates the step set.
func NewSteps(opts ...StepsOption) *Steps {
	s := &Steps{genTimeout: DefaultGenerationTimeout, observer: noopObserver{}}
	for _, opt := range opts {
		opt(s)
	}
	s.registry = map[models.StepName]StepFunc{
		models.StepResolveMood:    s.ResolveMood,
		models.StepReasonResponse: s.ReasonResponse,
		models.StepPickReason:     s.PickReason,
		models.StepSupportFlow:    s.SupportFlow,
		models.StepReframeFlow:    s.ReframeFlow,
		models.StepStoredMood:     s.StoredMood,
		models.StepRestart:        s.Restart,
		models.StepFetchRiddle:    s.FetchRiddle,
		models.StepValidateRiddle: s.ValidateRiddle,
		models.StepResetRiddle:    s.ResetRiddle,
	}
	slog.Debug("Flow steps created", "reframer", s.reframer != nil, "riddles", s.riddles != nil, "genTimeout", s.genTimeout)
	return s
}

// Lookup returns the step registered under name.
func (s *Steps) Lookup(name models.StepName) (StepFunc, bool) {
	fn, ok := s.registry[name]
	return fn, ok
}

// Names returns every registered step name, sorted.
func (s *Steps) Names() []models.StepName {
	names := make([]models.StepName, 0, len(s.registry))
	for n := range s.registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// generateWithFallback runs gen under timeout and returns fallback() on any
// failure. The second return value reports whether generated text was used.
func generateWithFallback(ctx context.Context, timeout time.Duration, gen func(context.Context) (string, error), fallback func() string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	text, err := gen(ctx)
	if err != nil {
		slog.Warn("Flow generation failed, using fallback", "error", err)
		return fallback(), false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		slog.Warn("Flow generation returned empty text, using fallback")
		return fallback(), false
	}
	return text, true
}
