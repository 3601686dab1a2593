package flow

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/MoodPipe/internal/models"
	"github.com/BTreeMap/MoodPipe/internal/responses"
)

var stageTemplates = map[models.SupportStage]string{
	models.StageCommonGround: responses.UtterStageCommonGround,
	models.StageAcceptance:   responses.UtterStageAcceptance,
	models.StageAnalysis:     responses.UtterStageAnalysis,
	models.StageNuance:       responses.UtterStageNuance,
}

// pauseTexts acknowledge a deny at each stage.
var pauseTexts = map[models.SupportStage]string{
	models.StageCommonGround: "No worries — we can pause here. If you want to try later, I'll be here.",
	models.StageAcceptance:   "That's okay. We can pause anytime. If you want to continue later, tell me and we can pick it up.",
	models.StageAnalysis:     "Totally fine — we can stop here for now.",
	models.StageNuance:       "That's okay — if you want to keep exploring another time, I'll be right here.",
}

// SupportFlow advances the four-stage support dialogue:
// common_ground, acceptance, analysis, nuance, then completion.
// A deny at any stage pauses the dialogue and keeps the mood.
func (s *Steps) SupportFlow(ctx context.Context, state models.ConversationState, msg models.InboundMessage) Result {
	if !msg.HasText() {
		return Result{}
	}
	var r Result
	intent := msg.IntentName

	if state.SupportCompleted {
		if mood, ok := models.MoodFromIntent(intent); ok {
			r.Patch.Clear(models.FieldSupportStage)
			r.Patch.Clear(models.FieldReason)
			r.Patch.Clear(models.FieldSupportCompleted)
			r.Patch.Set(models.FieldMood, string(mood))
			r.Patch.Set(models.FieldLastMood, string(mood))
			r.FollowUp = models.StepResolveMood
			slog.Debug("Flow SupportFlow mood switch after completion", "mood", mood)
			return r
		}
	}

	stage := state.SupportStage
	if stage == models.StageUnset {
		if state.Reason == "" {
			return r
		}
		r.enterStage(models.StageCommonGround)
		return r
	}

	switch intent {
	case models.IntentAffirm:
		next := stage.Next()
		if next == models.StageUnset {
			r.say(responses.UtterSupportDoneCheckMood)
			r.Patch.Clear(models.FieldSupportStage)
			r.Patch.Clear(models.FieldReason)
			r.Patch.SetBool(models.FieldSupportCompleted, true)
			slog.Debug("Flow SupportFlow completed", "mood", state.Mood)
			return r
		}
		r.enterStage(next)
	case models.IntentDeny:
		r.sayText(pauseTexts[stage])
		r.Patch.Clear(models.FieldSupportStage)
		r.Patch.Clear(models.FieldReason)
		slog.Debug("Flow SupportFlow paused", "stage", stage)
	default:
		// replay without advancing
		r.enterStage(stage)
	}
	return r
}

func (r *Result) enterStage(stage models.SupportStage) {
	r.say(stageTemplates[stage])
	r.say(responses.UtterStageContinueQuestion)
	r.Patch.Set(models.FieldSupportStage, string(stage))
}
