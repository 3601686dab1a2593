package flow

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/MoodPipe/internal/models"
	"github.com/BTreeMap/MoodPipe/internal/reasons"
	"github.com/BTreeMap/MoodPipe/internal/responses"
)

// ReasonResponse handles the answer to "do you know why you feel this way?".
func (s *Steps) ReasonResponse(ctx context.Context, state models.ConversationState, msg models.InboundMessage) Result {
	if !msg.HasText() {
		return Result{}
	}
	var r Result
	switch msg.IntentName {
	case models.IntentDeny:
		r.say(responses.UtterAcknowledgeUneasy)
		if state.Mood == models.MoodAngry {
			r.say(responses.UtterOverviewReasonsAngry)
		} else {
			r.say(responses.UtterOverviewReasonsSad)
		}
		r.Patch.Clear(models.FieldExpectFreeReason)
	case models.IntentAffirm:
		r.say(responses.UtterAskReasonAfterAffirm)
		r.Patch.SetBool(models.FieldExpectFreeReason, true)
	}
	return r
}

// PickReason captures the reason from the slot, a reason entity or, when the
// user was just invited to explain, their free text.
func (s *Steps) PickReason(ctx context.Context, state models.ConversationState, msg models.InboundMessage) Result {
	if !msg.HasText() {
		return Result{}
	}
	if !state.ExpectFreeReason && msg.IntentName != models.IntentPickReason {
		return Result{}
	}

	reason := state.Reason
	if reason == "" {
		// first entity wins; duplicates are ignored
		reason, _ = msg.FirstEntity(models.EntityReason)
	}
	if reason == "" && state.ExpectFreeReason && msg.IntentName != models.IntentAffirm && msg.IntentName != models.IntentDeny {
		reason = msg.TrimmedText()
	}

	var r Result
	if reason == models.ReasonDontKnow {
		r.say(responses.UtterReasonUnknownExercise)
		r.say(responses.UtterReasonUnknownAskLater)
		r.Patch.Clear(models.FieldReason)
		r.Patch.Clear(models.FieldSupportStage)
		r.Patch.Clear(models.FieldExpectFreeReason)
		return r
	}
	if reason == "" {
		return r
	}

	friendly := reasons.FriendlyReason(reason)
	slog.Debug("Flow PickReason captured", "mood", state.Mood, "reason", friendly)
	r.Patch.Set(models.FieldReason, friendly)
	r.Patch.Clear(models.FieldExpectFreeReason)
	r.FollowUp = models.StepSupportFlow
	r.Diagnostic = &models.UserStateEntry{Mood: string(state.Mood), Reason: friendly}
	return r
}
