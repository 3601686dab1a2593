package flow

import (
	"github.com/BTreeMap/MoodPipe/internal/models"
)

// Route picks the step that handles msg in state. It returns false when no
// step applies and the turn is a no-op.
func Route(state models.ConversationState, msg models.InboundMessage) (models.StepName, bool) {
	intent := msg.IntentName

	switch intent {
	case models.IntentRestart:
		return models.StepRestart, true
	case models.IntentPlayRiddle:
		return models.StepFetchRiddle, true
	case models.IntentResetRiddle, models.IntentStopRiddle:
		return models.StepResetRiddle, true
	}
	if state.RiddleActive() {
		return models.StepValidateRiddle, true
	}

	switch {
	case intent == models.IntentAskStoredMood:
		return models.StepStoredMood, true
	case models.IsMoodIntent(intent):
		return models.StepResolveMood, true
	case intent == models.IntentAskReframe:
		return models.StepReframeFlow, true
	}

	if intent == models.IntentAffirm || intent == models.IntentDeny {
		switch {
		case state.SupportStage != models.StageUnset:
			return models.StepSupportFlow, true
		case state.ReframeStage != models.ReframeStageUnset:
			return models.StepReframeFlow, true
		case state.Mood != models.MoodUnset && state.Reason == "":
			return models.StepReasonResponse, true
		}
	}

	if intent == models.IntentPickReason || state.ExpectFreeReason {
		return models.StepPickReason, true
	}

	if msg.HasText() {
		switch {
		case state.ReframeStage != models.ReframeStageUnset:
			return models.StepReframeFlow, true
		case state.SupportStage != models.StageUnset:
			return models.StepSupportFlow, true
		}
	}

	if state.Mood == models.MoodUnset {
		return models.StepResolveMood, true
	}
	return "", false
}
