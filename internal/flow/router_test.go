package flow

import (
	"testing"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

func TestRoute(t *testing.T) {
	riddleOpen := models.ConversationState{RiddleQuestion: "q", RiddleAnswer: "a", Mood: models.MoodSad}
	tests := []struct {
		name  string
		state models.ConversationState
		msg   models.InboundMessage
		want  models.StepName
	}{
		{"restart beats everything", riddleOpen, msg(models.IntentRestart, "restart"), models.StepRestart},
		{"play riddle", models.ConversationState{}, msg(models.IntentPlayRiddle, "riddle"), models.StepFetchRiddle},
		{"stop riddle", riddleOpen, msg(models.IntentStopRiddle, "stop"), models.StepResetRiddle},
		{"reset riddle", riddleOpen, msg(models.IntentResetRiddle, "reset"), models.StepResetRiddle},
		{"guess while riddle open", riddleOpen, msg(models.IntentMoodHappy, "happy"), models.StepValidateRiddle},
		{"stored mood", models.ConversationState{}, msg(models.IntentAskStoredMood, "what did I say"), models.StepStoredMood},
		{"mood intent", models.ConversationState{}, msg(models.IntentMoodSad, "sad"), models.StepResolveMood},
		{"mood after completion", models.ConversationState{Mood: models.MoodSad, SupportCompleted: true}, msg(models.IntentMoodHappy, "better"), models.StepResolveMood},
		{"ask reframe", models.ConversationState{Mood: models.MoodSad}, msg(models.IntentAskReframe, "reframe"), models.StepReframeFlow},
		{"affirm in support", models.ConversationState{Mood: models.MoodSad, Reason: "x", SupportStage: models.StageAcceptance}, msg(models.IntentAffirm, "yes"), models.StepSupportFlow},
		{"deny in reframe", models.ConversationState{ReframeStage: models.ReframeStageWrap}, msg(models.IntentDeny, "no"), models.StepReframeFlow},
		{"affirm after mood", models.ConversationState{Mood: models.MoodSad}, msg(models.IntentAffirm, "yes"), models.StepReasonResponse},
		{"deny while expecting reason", models.ConversationState{Mood: models.MoodSad, ExpectFreeReason: true}, msg(models.IntentDeny, "no"), models.StepReasonResponse},
		{"pick reason", models.ConversationState{Mood: models.MoodSad}, msg(models.IntentPickReason, "tired"), models.StepPickReason},
		{"free reason", models.ConversationState{Mood: models.MoodSad, ExpectFreeReason: true}, msg(models.IntentFallback, "school"), models.StepPickReason},
		{"detail in reframe", models.ConversationState{Mood: models.MoodSad, ReframeStage: models.ReframeStageWrap}, msg(models.IntentFallback, "more"), models.StepReframeFlow},
		{"text in support", models.ConversationState{Mood: models.MoodSad, Reason: "x", SupportStage: models.StageNuance}, msg(models.IntentFallback, "hmm"), models.StepSupportFlow},
		{"no mood yet", models.ConversationState{}, msg(models.IntentGreet, "hi"), models.StepResolveMood},
		{"affirm without mood", models.ConversationState{}, msg(models.IntentAffirm, "yes"), models.StepResolveMood},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Route(tt.state, tt.msg)
			if !ok || got != tt.want {
				t.Errorf("expected %q, got %q (ok=%v)", tt.want, got, ok)
			}
		})
	}
}

func TestRoute_NoStep(t *testing.T) {
	state := models.ConversationState{Mood: models.MoodHappy, LastMood: models.MoodHappy}
	if step, ok := Route(state, msg(models.IntentGreet, "hi")); ok {
		t.Errorf("expected no route, got %q", step)
	}
}
