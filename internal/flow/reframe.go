package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/BTreeMap/MoodPipe/internal/models"
	"github.com/BTreeMap/MoodPipe/internal/reasons"
	"github.com/BTreeMap/MoodPipe/internal/responses"
	"github.com/BTreeMap/MoodPipe/internal/util"
)

// AnotherAngleText introduces an alternate reframe after a deny.
const AnotherAngleText = "Let's try another angle."

const defaultReframeReason = "this situation"

// commandPrefix marks raw command payloads such as "/ask_reframe".
const commandPrefix = "/"

// cleanDetail picks the detail to reframe: the stored detail, else the user's
// text, else the reason. Command payloads fall back to the reason.
func cleanDetail(userText, stored, reason string) string {
	candidate := stored
	if candidate == "" {
		candidate = userText
	}
	if candidate == "" {
		candidate = reason
	}
	candidate = strings.TrimSpace(candidate)
	if strings.HasPrefix(candidate, commandPrefix) {
		return util.Humanize(reason)
	}
	return util.Humanize(candidate)
}

// reframeText asks the generator for a reframe and falls back to the canned
// suggestion for the reason.
func (s *Steps) reframeText(ctx context.Context, reason, detail string) string {
	fallback := func() string { return reasons.SuggestActivity(reason) }
	if s.reframer == nil {
		s.observer.ObserveGenerationFallback("unconfigured")
		return fallback()
	}
	text, generated := generateWithFallback(ctx, s.genTimeout, func(ctx context.Context) (string, error) {
		return s.reframer.GenerateReframe(ctx, reason, detail)
	}, fallback)
	if !generated {
		s.observer.ObserveGenerationFallback("error")
	}
	return text
}

// ReframeFlow runs the open-ended reframe loop. It only ends on an affirm in
// the wrap stage; new free text restarts the loop with that text as detail.
func (s *Steps) ReframeFlow(ctx context.Context, state models.ConversationState, msg models.InboundMessage) Result {
	reason := state.Reason
	if reason == "" {
		reason = defaultReframeReason
	}
	text := msg.TrimmedText()

	var r Result
	switch state.ReframeStage {
	case models.ReframeStageUnset, models.ReframeStageReframe:
		detail := cleanDetail(text, state.ReasonDetail, reason)
		r.sayText(s.reframeText(ctx, reason, detail))
		r.say(responses.UtterStageContinueQuestion)
		r.Patch.Set(models.FieldReframeStage, string(models.ReframeStageWrap))
		r.Patch.Set(models.FieldReasonDetail, detail)
	case models.ReframeStageWrap:
		switch {
		case msg.IntentName == models.IntentAffirm:
			r.say(responses.UtterSupportDone)
			r.Patch.Clear(models.FieldReframeStage)
			r.Patch.Clear(models.FieldReasonDetail)
			slog.Debug("Flow ReframeFlow wrapped up", "reason", reason)
		case msg.IntentName == models.IntentDeny:
			detail := cleanDetail(text, state.ReasonDetail, reason)
			r.sayText(AnotherAngleText)
			r.sayText(s.reframeText(ctx, reason, detail))
			r.say(responses.UtterStageContinueQuestion)
			r.Patch.Set(models.FieldReframeStage, string(models.ReframeStageWrap))
			r.Patch.Set(models.FieldReasonDetail, detail)
		case text != "":
			// the new text replaces the stored detail
			r.Patch.Set(models.FieldReasonDetail, cleanDetail(text, "", reason))
			r.Patch.Set(models.FieldReframeStage, string(models.ReframeStageReframe))
			r.FollowUp = models.StepReframeFlow
		default:
			r.say(responses.UtterStageContinueQuestion)
		}
	}
	return r
}
