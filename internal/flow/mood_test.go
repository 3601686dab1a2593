package flow

import (
	"context"
	"slices"
	"testing"

	"github.com/BTreeMap/MoodPipe/internal/models"
	"github.com/BTreeMap/MoodPipe/internal/responses"
)

func TestResolveMood_ByIntent(t *testing.T) {
	tests := []struct {
		intent string
		mood   models.Mood
		want   []string
	}{
		{models.IntentMoodHappy, models.MoodHappy, []string{responses.UtterReflectMoodHappy}},
		{models.IntentMoodSad, models.MoodSad, []string{responses.UtterReflectMoodSad, responses.UtterReasonWhyUpset}},
		{models.IntentMoodAngry, models.MoodAngry, []string{responses.UtterReflectMoodAngry, responses.UtterReasonWhyUpset}},
	}
	s := NewSteps()
	for _, tt := range tests {
		t.Run(tt.intent, func(t *testing.T) {
			res := s.ResolveMood(context.Background(), models.ConversationState{}, msg(tt.intent, "I feel it"))
			if got := templates(res.Messages); !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			state := applyResult(t, models.ConversationState{}, res)
			if state.Mood != tt.mood || state.LastMood != tt.mood {
				t.Errorf("expected mood/last_mood %q, got %q/%q", tt.mood, state.Mood, state.LastMood)
			}
			if res.FollowUp != "" {
				t.Errorf("unexpected follow-up %q", res.FollowUp)
			}
		})
	}
}

func TestResolveMood_SlotWinsAndIsLowercased(t *testing.T) {
	s := NewSteps()
	state := models.ConversationState{Mood: "Angry"}
	res := s.ResolveMood(context.Background(), state, msg(models.IntentMoodHappy, "happy"))
	if len(res.Messages) == 0 || res.Messages[0].Template != responses.UtterReflectMoodAngry {
		t.Fatalf("expected angry intro, got %v", templates(res.Messages))
	}
	next := applyResult(t, state, res)
	if next.Mood != models.MoodAngry {
		t.Errorf("expected normalized mood angry, got %q", next.Mood)
	}
}

func TestResolveMood_ReturningVariant(t *testing.T) {
	s := NewSteps()
	state := models.ConversationState{Mood: models.MoodSad, SupportCompleted: true}
	res := s.ResolveMood(context.Background(), state, msg(models.IntentMoodSad, "still sad"))
	want := []string{responses.UtterFollowupMoodSad, responses.UtterReasonWhyUpset}
	if got := templates(res.Messages); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	next := applyResult(t, state, res)
	if next.SupportCompleted {
		t.Error("expected support_completed to be consumed")
	}
	if next.LastMood != models.MoodSad {
		t.Errorf("expected last_mood sad, got %q", next.LastMood)
	}
}

func TestResolveMood_Unresolved(t *testing.T) {
	s := NewSteps()
	res := s.ResolveMood(context.Background(), models.ConversationState{}, msg(models.IntentGreet, "hello"))
	if len(res.Messages) != 1 || res.Messages[0].Text != ClarifyMoodText {
		t.Errorf("expected clarification, got %v", templates(res.Messages))
	}
	if len(res.Patch) != 0 {
		t.Errorf("expected no state change, got %v", res.Patch)
	}
}

func TestUserTextGuard(t *testing.T) {
	s := NewSteps()
	state := models.ConversationState{Mood: models.MoodSad, Reason: "being tired", SupportStage: models.StageAcceptance, ExpectFreeReason: true}
	blank := msg(models.IntentAffirm, "   ")
	for name, step := range map[string]StepFunc{
		"resolve":     s.ResolveMood,
		"reason":      s.ReasonResponse,
		"pick reason": s.PickReason,
		"support":     s.SupportFlow,
		"stored mood": s.StoredMood,
		"restart":     s.Restart,
	} {
		if res := step(context.Background(), state, blank); !res.IsNoop() {
			t.Errorf("%s: expected no-op on blank text, got %+v", name, res)
		}
	}
}

func TestStoredMood(t *testing.T) {
	s := NewSteps()
	res := s.StoredMood(context.Background(), models.ConversationState{LastMood: models.MoodAngry}, msg(models.IntentAskStoredMood, "how did I feel?"))
	want := "I have stored that you felt angry. If you'd like, we can explore that more."
	if len(res.Messages) != 1 || res.Messages[0].Text != want {
		t.Errorf("expected %q, got %v", want, templates(res.Messages))
	}

	res = s.StoredMood(context.Background(), models.ConversationState{}, msg(models.IntentAskStoredMood, "how did I feel?"))
	if len(res.Messages) != 1 || res.Messages[0].Text != NoStoredMoodText {
		t.Errorf("expected no-record text, got %v", templates(res.Messages))
	}
	if len(res.Patch) != 0 {
		t.Error("stored mood must not change state")
	}
}

func TestRestart(t *testing.T) {
	s := NewSteps()
	res := s.Restart(context.Background(), models.ConversationState{Mood: models.MoodSad}, msg(models.IntentRestart, "start over"))
	if !res.Reset {
		t.Error("expected a full reset")
	}
	if res.FollowUp != models.StepResolveMood {
		t.Errorf("expected follow-up to the resolver, got %q", res.FollowUp)
	}
	if got := templates(res.Messages); !slices.Equal(got, []string{responses.UtterRestartOK}) {
		t.Errorf("unexpected messages %v", got)
	}
}
