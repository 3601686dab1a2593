package flow

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/BTreeMap/MoodPipe/internal/models"
	"github.com/BTreeMap/MoodPipe/internal/reasons"
	"github.com/BTreeMap/MoodPipe/internal/responses"
)

func TestCleanDetail(t *testing.T) {
	tests := []struct {
		name, text, stored, reason, want string
	}{
		{"stored wins", "new text", "stored_detail", "being tired", "stored detail"},
		{"text when nothing stored", " my_test ", "", "being tired", "my test"},
		{"reason as last resort", "", "", "worry_school", "worry school"},
		{"command payload", "/ask_reframe", "", "missing_someone", "missing someone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanDetail(tt.text, tt.stored, tt.reason); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestReframeFlow_Start(t *testing.T) {
	gen := &mockReframer{text: "  Try one small step.  "}
	s := NewSteps(WithReframeGenerator(gen))
	state := models.ConversationState{Reason: "worrying about school"}

	res := s.ReframeFlow(context.Background(), state, msg(models.IntentAskReframe, "can you help me see it differently"))
	want := []string{"text:Try one small step.", responses.UtterStageContinueQuestion}
	if got := templates(res.Messages); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	next := applyResult(t, state, res)
	if next.ReframeStage != models.ReframeStageWrap {
		t.Errorf("expected wrap, got %q", next.ReframeStage)
	}
	if next.ReasonDetail != "can you help me see it differently" {
		t.Errorf("unexpected detail %q", next.ReasonDetail)
	}
	if len(gen.reasons) != 1 || gen.reasons[0] != "worrying about school" {
		t.Errorf("unexpected generator reasons %v", gen.reasons)
	}
}

func TestReframeFlow_Fallbacks(t *testing.T) {
	tests := []struct {
		name  string
		opts  []StepsOption
		cause string
	}{
		{"no generator", nil, "unconfigured"},
		{"generator error", []StepsOption{WithReframeGenerator(&mockReframer{err: errors.New("boom")})}, "error"},
		{"empty reply", []StepsOption{WithReframeGenerator(&mockReframer{text: "   "})}, "error"},
		{"timeout", []StepsOption{WithReframeGenerator(&mockReframer{block: true}), WithGenerationTimeout(10 * time.Millisecond)}, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := newCountingObserver()
			s := NewSteps(append(tt.opts, WithObserver(obs))...)
			state := models.ConversationState{Reason: "being tired"}
			res := s.ReframeFlow(context.Background(), state, msg(models.IntentAskReframe, "/ask_reframe"))
			if len(res.Messages) == 0 || res.Messages[0].Text != reasons.SuggestActivity("being tired") {
				t.Errorf("expected canned suggestion, got %v", templates(res.Messages))
			}
			if obs.fallbacks[tt.cause] != 1 {
				t.Errorf("expected one %s fallback, got %v", tt.cause, obs.fallbacks)
			}
			if next := applyResult(t, state, res); next.ReasonDetail != "being tired" {
				t.Errorf("expected command payload replaced by reason, got %q", next.ReasonDetail)
			}
		})
	}
}

func TestReframeFlow_DefaultReason(t *testing.T) {
	gen := &mockReframer{text: "ok"}
	s := NewSteps(WithReframeGenerator(gen))
	s.ReframeFlow(context.Background(), models.ConversationState{}, msg(models.IntentAskReframe, ""))
	if len(gen.reasons) != 1 || gen.reasons[0] != "this situation" || gen.details[0] != "this situation" {
		t.Errorf("expected default reason and detail, got %v / %v", gen.reasons, gen.details)
	}
}

func TestReframeFlow_Wrap(t *testing.T) {
	wrap := models.ConversationState{Reason: "missing someone", ReframeStage: models.ReframeStageWrap, ReasonDetail: "my friend moved"}

	t.Run("affirm ends the loop", func(t *testing.T) {
		s := NewSteps()
		res := s.ReframeFlow(context.Background(), wrap, msg(models.IntentAffirm, "yes"))
		if got := templates(res.Messages); !slices.Equal(got, []string{responses.UtterSupportDone}) {
			t.Errorf("unexpected messages %v", got)
		}
		next := applyResult(t, wrap, res)
		if next.ReframeStage != models.ReframeStageUnset || next.ReasonDetail != "" {
			t.Errorf("expected reframe state cleared, got %+v", next)
		}
	})

	t.Run("deny tries another angle", func(t *testing.T) {
		gen := &mockReframer{text: "Another thought."}
		s := NewSteps(WithReframeGenerator(gen))
		res := s.ReframeFlow(context.Background(), wrap, msg(models.IntentDeny, "no"))
		want := []string{"text:" + AnotherAngleText, "text:Another thought.", responses.UtterStageContinueQuestion}
		if got := templates(res.Messages); !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
		next := applyResult(t, wrap, res)
		if next.ReframeStage != models.ReframeStageWrap {
			t.Errorf("deny must not end the loop, got %q", next.ReframeStage)
		}
		if gen.details[0] != "my friend moved" {
			t.Errorf("expected stored detail reused, got %q", gen.details[0])
		}
	})

	t.Run("new detail loops back", func(t *testing.T) {
		s := NewSteps()
		res := s.ReframeFlow(context.Background(), wrap, msg(models.IntentFallback, "we used to walk to school"))
		if len(res.Messages) != 0 {
			t.Errorf("expected no messages before re-dispatch, got %v", templates(res.Messages))
		}
		if res.FollowUp != models.StepReframeFlow {
			t.Errorf("expected re-dispatch to reframe, got %q", res.FollowUp)
		}
		next := applyResult(t, wrap, res)
		if next.ReframeStage != models.ReframeStageReframe || next.ReasonDetail != "we used to walk to school" {
			t.Errorf("unexpected state %+v", next)
		}
	})

	t.Run("blank text re-prompts", func(t *testing.T) {
		s := NewSteps()
		res := s.ReframeFlow(context.Background(), wrap, msg(models.IntentFallback, " "))
		if got := templates(res.Messages); !slices.Equal(got, []string{responses.UtterStageContinueQuestion}) {
			t.Errorf("unexpected messages %v", got)
		}
		if len(res.Patch) != 0 || res.FollowUp != "" {
			t.Error("blank text must not change state")
		}
	})
}
