// Package flow implements the mood check-in dialogue: the individual steps,
// the router that picks a step for an inbound message, and the turn loop
// that applies each step's proposals and honours follow-ups.
package flow

import (
	"context"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

// Result is everything a step proposes for one invocation.
type Result struct {
	// Messages are emitted in order.
	Messages []models.OutboundMessage `json:"messages"`
	// Patch is applied after Reset.
	Patch models.Patch `json:"patch,omitempty"`
	// Reset asks the host to clear the whole conversation state.
	Reset bool `json:"reset,omitempty"`
	// FollowUp names a step to run in the same turn, if any.
	FollowUp models.StepName `json:"follow_up,omitempty"`
	// Diagnostic is appended to the diagnostic log, best-effort.
	Diagnostic *models.UserStateEntry `json:"diagnostic,omitempty"`
}

// StepFunc is a single dialogue step. It is a pure function of the state
// snapshot and the inbound message, apart from collaborator calls.
type StepFunc func(ctx context.Context, state models.ConversationState, msg models.InboundMessage) Result

// IsNoop reports whether the step proposed nothing at all.
func (r Result) IsNoop() bool {
	return len(r.Messages) == 0 && len(r.Patch) == 0 && !r.Reset && r.FollowUp == "" && r.Diagnostic == nil
}

func (r *Result) say(template string) {
	r.Messages = append(r.Messages, models.TemplateMessage(template))
}

func (r *Result) sayText(text string) {
	r.Messages = append(r.Messages, models.TextMessage(text))
}

// Observer receives flow events for metrics.
type Observer interface {
	ObserveStep(step models.StepName)
	ObserveGenerationFallback(cause string)
	ObserveRiddleOutcome(outcome string)
}

type noopObserver struct{}

func (noopObserver) ObserveStep(models.StepName)      {}
func (noopObserver) ObserveGenerationFallback(string) {}
func (noopObserver) ObserveRiddleOutcome(string)      {}
