package flow

import (
	"context"
	"slices"
	"testing"

	"github.com/BTreeMap/MoodPipe/internal/models"
	"github.com/BTreeMap/MoodPipe/internal/responses"
)

func TestReasonResponse(t *testing.T) {
	s := NewSteps()
	tests := []struct {
		name       string
		mood       models.Mood
		intent     string
		want       []string
		wantExpect bool
	}{
		{"deny sad", models.MoodSad, models.IntentDeny, []string{responses.UtterAcknowledgeUneasy, responses.UtterOverviewReasonsSad}, false},
		{"deny angry", models.MoodAngry, models.IntentDeny, []string{responses.UtterAcknowledgeUneasy, responses.UtterOverviewReasonsAngry}, false},
		{"deny unknown mood", models.MoodHappy, models.IntentDeny, []string{responses.UtterAcknowledgeUneasy, responses.UtterOverviewReasonsSad}, false},
		{"affirm", models.MoodSad, models.IntentAffirm, []string{responses.UtterAskReasonAfterAffirm}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := models.ConversationState{Mood: tt.mood, ExpectFreeReason: !tt.wantExpect}
			res := s.ReasonResponse(context.Background(), state, msg(tt.intent, "whatever"))
			if got := templates(res.Messages); !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			next := applyResult(t, state, res)
			if next.ExpectFreeReason != tt.wantExpect {
				t.Errorf("expected expect_free_reason=%v, got %v", tt.wantExpect, next.ExpectFreeReason)
			}
		})
	}

	if res := s.ReasonResponse(context.Background(), models.ConversationState{Mood: models.MoodSad}, msg(models.IntentMoodSad, "sad")); !res.IsNoop() {
		t.Errorf("expected no-op for other intents, got %+v", res)
	}
}

func TestPickReason_FreeText(t *testing.T) {
	s := NewSteps()
	state := models.ConversationState{Mood: models.MoodSad, ExpectFreeReason: true}
	res := s.PickReason(context.Background(), state, msg(models.IntentFallback, "  school test tomorrow "))

	next := applyResult(t, state, res)
	if next.Reason != "school test tomorrow" {
		t.Errorf("expected reason from free text, got %q", next.Reason)
	}
	if next.ExpectFreeReason {
		t.Error("expected expect_free_reason cleared")
	}
	if res.FollowUp != models.StepSupportFlow {
		t.Errorf("expected follow-up to support flow, got %q", res.FollowUp)
	}
	if res.Diagnostic == nil || res.Diagnostic.Mood != "sad" || res.Diagnostic.Reason != "school test tomorrow" {
		t.Errorf("unexpected diagnostic entry %+v", res.Diagnostic)
	}
}

func TestPickReason_Gate(t *testing.T) {
	s := NewSteps()
	state := models.ConversationState{Mood: models.MoodSad}
	if res := s.PickReason(context.Background(), state, msg(models.IntentFallback, "random text")); !res.IsNoop() {
		t.Errorf("stray text must not become a reason, got %+v", res)
	}
}

func TestPickReason_EntityAndSlotPriority(t *testing.T) {
	s := NewSteps()
	m := msg(models.IntentPickReason, "/pick_reason")
	m.Entities = []models.Entity{
		{Entity: models.EntityReason, Value: "worry_school"},
		{Entity: models.EntityReason, Value: "tired"},
	}

	res := s.PickReason(context.Background(), models.ConversationState{Mood: models.MoodSad}, m)
	next := applyResult(t, models.ConversationState{Mood: models.MoodSad}, res)
	if next.Reason != "worrying about school" {
		t.Errorf("expected friendly first entity, got %q", next.Reason)
	}

	slot := models.ConversationState{Mood: models.MoodSad, Reason: "feeling ignored"}
	res = s.PickReason(context.Background(), slot, m)
	next = applyResult(t, slot, res)
	if next.Reason != "feeling ignored" {
		t.Errorf("expected existing reason to win, got %q", next.Reason)
	}

	unknown := msg(models.IntentPickReason, "other")
	unknown.Entities = []models.Entity{{Entity: models.EntityReason, Value: "lost_my_dog"}}
	res = s.PickReason(context.Background(), models.ConversationState{}, unknown)
	if got := applyResult(t, models.ConversationState{}, res).Reason; got != "lost my dog" {
		t.Errorf("expected humanized unknown code, got %q", got)
	}
}

func TestPickReason_DontKnow(t *testing.T) {
	s := NewSteps()
	state := models.ConversationState{Mood: models.MoodAngry, ExpectFreeReason: true, SupportStage: models.StageCommonGround, Reason: ""}
	m := msg(models.IntentPickReason, "I don't know")
	m.Entities = []models.Entity{{Entity: models.EntityReason, Value: models.ReasonDontKnow}}

	res := s.PickReason(context.Background(), state, m)
	want := []string{responses.UtterReasonUnknownExercise, responses.UtterReasonUnknownAskLater}
	if got := templates(res.Messages); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	next := applyResult(t, state, res)
	if next.Reason != "" || next.SupportStage != models.StageUnset || next.ExpectFreeReason {
		t.Errorf("expected reason, stage and expect cleared, got %+v", next)
	}
	if next.Mood != models.MoodAngry {
		t.Errorf("expected mood preserved, got %q", next.Mood)
	}
	if res.FollowUp != "" || res.Diagnostic != nil {
		t.Error("dont_know must not continue to the support flow")
	}
}

func TestPickReason_AffirmIsNotAReason(t *testing.T) {
	s := NewSteps()
	state := models.ConversationState{Mood: models.MoodSad, ExpectFreeReason: true}
	if res := s.PickReason(context.Background(), state, msg(models.IntentAffirm, "yes")); !res.IsNoop() {
		t.Errorf("expected no-op, got %+v", res)
	}
}
