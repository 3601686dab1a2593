package flow

import (
	"context"
	"fmt"
	"testing"

	"github.com/BTreeMap/MoodPipe/internal/models"
	"github.com/BTreeMap/MoodPipe/internal/riddle"
)

func openRiddle() models.ConversationState {
	return models.ConversationState{
		RiddleQuestion:    "What gets wetter the more it dries?",
		RiddleAnswer:      "A towel",
		RiddleTriggerText: "tell me a riddle",
	}
}

func TestFetchRiddle_Success(t *testing.T) {
	obs := newCountingObserver()
	src := &mockRiddleSource{riddle: riddle.Riddle{Question: "What has keys?", Answer: "A piano"}}
	s := NewSteps(WithRiddleSource(src), WithObserver(obs))
	state := models.ConversationState{Guess: "old", RiddleAttempts: 2}

	res := s.FetchRiddle(context.Background(), state, msg(models.IntentPlayRiddle, " tell me a riddle "))
	if len(res.Messages) != 1 || res.Messages[0].Text != "Certainly! Here's your riddle:\n\nWhat has keys?" {
		t.Errorf("unexpected messages %v", templates(res.Messages))
	}
	next := applyResult(t, state, res)
	if next.RiddleQuestion != "What has keys?" || next.RiddleAnswer != "A piano" {
		t.Errorf("riddle not stored: %+v", next)
	}
	if next.RiddleAttempts != 0 || next.Guess != "" || next.RiddleTriggerText != "tell me a riddle" {
		t.Errorf("unexpected session fields %+v", next)
	}
	if obs.riddles[OutcomeFetched] != 1 {
		t.Errorf("expected fetched outcome, got %v", obs.riddles)
	}
}

func TestFetchRiddle_Failures(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{riddle.ErrMissingAPIKey, RiddleMissingKeyText},
		{fmt.Errorf("%w: dial tcp", riddle.ErrUnreachable), RiddleUnreachableText},
		{fmt.Errorf("%w: empty list", riddle.ErrMalformed), RiddleMalformedText},
		{riddle.ErrIncomplete, RiddleIncompleteText},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			s := NewSteps(WithRiddleSource(&mockRiddleSource{err: tt.err}))
			res := s.FetchRiddle(context.Background(), models.ConversationState{}, msg(models.IntentPlayRiddle, "riddle"))
			if len(res.Messages) != 1 || res.Messages[0].Text != tt.want {
				t.Errorf("expected %q, got %v", tt.want, templates(res.Messages))
			}
			if len(res.Patch) != 0 {
				t.Errorf("expected no state change, got %v", res.Patch)
			}
		})
	}

	res := NewSteps().FetchRiddle(context.Background(), models.ConversationState{}, msg(models.IntentPlayRiddle, "riddle"))
	if len(res.Messages) != 1 || res.Messages[0].Text != RiddleMissingKeyText {
		t.Errorf("expected missing key text without a source, got %v", templates(res.Messages))
	}
}

func TestValidateRiddle_TowelOnFirstAttempt(t *testing.T) {
	s := NewSteps()
	state := openRiddle()
	res := s.ValidateRiddle(context.Background(), state, msg(models.IntentFallback, "towel"))
	if len(res.Messages) != 1 || res.Messages[0].Text != RiddleCorrectText {
		t.Fatalf("expected success, got %v", templates(res.Messages))
	}
	next := applyResult(t, state, res)
	if next.RiddleAttempts != 1 {
		t.Errorf("expected attempt count 1, got %d", next.RiddleAttempts)
	}
	if next.RiddleActive() || next.RiddleTriggerText != "" {
		t.Errorf("expected session retired, got %+v", next)
	}
	if next.Guess != "towel" {
		t.Errorf("expected guess recorded, got %q", next.Guess)
	}
}

func TestValidateRiddle_AttemptBudget(t *testing.T) {
	obs := newCountingObserver()
	s := NewSteps(WithObserver(obs))
	state := openRiddle()
	want := []string{
		"No. Try again! (2 tries left)",
		"No. Try again! (1 try left)",
		"Nope — third try. The answer was: A towel.",
	}
	for i, guess := range []string{"a sponge", "the sea", "rain"} {
		if !state.RiddleActive() {
			t.Fatalf("session retired early at guess %d", i+1)
		}
		res := s.ValidateRiddle(context.Background(), state, msg(models.IntentFallback, guess))
		if len(res.Messages) != 1 || res.Messages[0].Text != want[i] {
			t.Errorf("guess %d: expected %q, got %v", i+1, want[i], templates(res.Messages))
		}
		state = applyResult(t, state, res)
		if state.RiddleAttempts != i+1 {
			t.Errorf("guess %d: expected attempts %d, got %d", i+1, i+1, state.RiddleAttempts)
		}
	}
	if state.RiddleActive() {
		t.Error("expected session cleared after the third wrong guess")
	}
	if obs.riddles[OutcomeRetry] != 2 || obs.riddles[OutcomeRevealed] != 1 {
		t.Errorf("unexpected outcomes %v", obs.riddles)
	}
}

func TestValidateRiddle_CorrectOnAnyAttempt(t *testing.T) {
	s := NewSteps()
	for wrong := 0; wrong < MaxRiddleAttempts; wrong++ {
		state := openRiddle()
		state.RiddleAttempts = wrong
		res := s.ValidateRiddle(context.Background(), state, msg(models.IntentFallback, "it's a towel"))
		if len(res.Messages) != 1 || res.Messages[0].Text != RiddleCorrectText {
			t.Errorf("after %d wrong guesses: expected success, got %v", wrong, templates(res.Messages))
		}
	}
}

func TestValidateRiddle_IgnoredGuesses(t *testing.T) {
	s := NewSteps()
	state := openRiddle()
	for name, m := range map[string]models.InboundMessage{
		"trigger text": msg(models.IntentFallback, " tell me a riddle"),
		"blank":        msg(models.IntentFallback, "  "),
		"play intent":  msg(models.IntentPlayRiddle, "another one"),
	} {
		if res := s.ValidateRiddle(context.Background(), state, m); !res.IsNoop() {
			t.Errorf("%s: expected no-op, got %+v", name, res)
		}
	}
	if res := s.ValidateRiddle(context.Background(), models.ConversationState{}, msg(models.IntentFallback, "towel")); !res.IsNoop() {
		t.Error("expected no-op without an open riddle")
	}
}

func TestResetRiddle(t *testing.T) {
	s := NewSteps()
	state := openRiddle()
	state.RiddleAttempts = 2
	state.Guess = "rain"
	state.Mood = models.MoodHappy
	next := applyResult(t, state, s.ResetRiddle(context.Background(), state, msg(models.IntentStopRiddle, "stop")))
	want := models.ConversationState{Mood: models.MoodHappy}
	if next != want {
		t.Errorf("expected only riddle fields cleared, got %+v", next)
	}
}
