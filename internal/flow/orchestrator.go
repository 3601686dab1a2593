package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

// MaxFollowUps bounds the re-dispatches honoured within one turn.
const MaxFollowUps = 2

var (
	// ErrUnknownStep is returned for a step name with no registered step.
	ErrUnknownStep = errors.New("unknown step")
	// ErrFollowUpLimit is returned when a turn chains more follow-ups than MaxFollowUps.
	ErrFollowUpLimit = errors.New("follow-up limit exceeded")
)

// DiagnosticLog receives the append-only mood/reason records.
type DiagnosticLog interface {
	Append(ctx context.Context, entry models.UserStateEntry) error
}

// Turn is the outcome of one inbound message.
type Turn struct {
	State    models.ConversationState `json:"state"`
	Messages []models.OutboundMessage `json:"messages"`
	Steps    []models.StepName        `json:"steps"`
}

// Orchestrator routes inbound messages to steps and runs the turn loop.
type Orchestrator struct {
	steps       *Steps
	diagnostics DiagnosticLog
	now         func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithDiagnosticLog sets where diagnostic entries are appended.
func WithDiagnosticLog(l DiagnosticLog) OrchestratorOption {
	return func(o *Orchestrator) { o.diagnostics = l }
}

// WithClock overrides the clock used to stamp diagnostic entries.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an Orchestrator over steps.
func NewOrchestrator(steps *Steps, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{steps: steps, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Steps returns the step set the orchestrator dispatches to.
func (o *Orchestrator) Steps() *Steps {
	return o.steps
}

// HandleMessage processes one inbound message against state.
func (o *Orchestrator) HandleMessage(ctx context.Context, conversationID string, state models.ConversationState, msg models.InboundMessage) (Turn, error) {
	msg = msg.Normalize()
	if err := msg.Validate(); err != nil {
		return Turn{State: state, Messages: []models.OutboundMessage{}}, fmt.Errorf("invalid inbound message: %w", err)
	}

	step, ok := Route(state, msg)
	if !ok {
		slog.Debug("Orchestrator HandleMessage no route", "conversationID", conversationID, "intent", msg.IntentName)
		return Turn{State: state, Messages: []models.OutboundMessage{}}, nil
	}

	// slot mapping: a mood intent fills the mood slot before the resolver runs
	if step == models.StepResolveMood && msg.HasText() {
		if mood, ok := models.MoodFromIntent(msg.IntentName); ok {
			state.Mood = mood
		}
	}

	slog.Debug("Orchestrator HandleMessage routed", "conversationID", conversationID, "intent", msg.IntentName, "step", step)
	return o.Run(ctx, conversationID, step, state, msg)
}

// Run executes step and any follow-ups it requests.
func (o *Orchestrator) Run(ctx context.Context, conversationID string, step models.StepName, state models.ConversationState, msg models.InboundMessage) (Turn, error) {
	turn := Turn{State: state, Messages: []models.OutboundMessage{}}
	for hop := 0; step != ""; hop++ {
		if hop > MaxFollowUps {
			slog.Warn("Orchestrator Run follow-up limit reached", "conversationID", conversationID, "step", step)
			return turn, fmt.Errorf("%w: %s", ErrFollowUpLimit, step)
		}
		fn, ok := o.steps.Lookup(step)
		if !ok {
			return turn, fmt.Errorf("%w: %s", ErrUnknownStep, step)
		}

		o.steps.observer.ObserveStep(step)
		res := fn(ctx, turn.State, msg)
		next, err := o.apply(ctx, conversationID, turn.State, res)
		if err != nil {
			slog.Error("Orchestrator Run invalid patch", "conversationID", conversationID, "step", step, "error", err)
			return turn, fmt.Errorf("step %s: %w", step, err)
		}
		turn.State = next
		turn.Messages = append(turn.Messages, res.Messages...)
		turn.Steps = append(turn.Steps, step)
		step = res.FollowUp
	}
	return turn, nil
}

// apply resets, patches and records a step result.
func (o *Orchestrator) apply(ctx context.Context, conversationID string, state models.ConversationState, res Result) (models.ConversationState, error) {
	if res.Reset {
		state = models.ConversationState{}
	}
	next, err := state.Apply(res.Patch)
	if err != nil {
		return state, err
	}
	if res.Diagnostic != nil {
		o.record(ctx, conversationID, *res.Diagnostic)
	}
	return next, nil
}

// record appends a diagnostic entry; failures are logged and dropped.
func (o *Orchestrator) record(ctx context.Context, conversationID string, entry models.UserStateEntry) {
	if o.diagnostics == nil {
		return
	}
	entry.ID = uuid.NewString()
	entry.ConversationID = conversationID
	entry.Timestamp = o.now().UTC()
	if err := o.diagnostics.Append(ctx, entry); err != nil {
		slog.Warn("Orchestrator diagnostic append failed", "conversationID", conversationID, "error", err)
	}
}
