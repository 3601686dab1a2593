package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/MoodPipe/internal/models"
	"github.com/BTreeMap/MoodPipe/internal/riddle"
)

// MaxRiddleAttempts is the number of guesses allowed per riddle.
const MaxRiddleAttempts = 3

// Riddle session messages.
const (
	RiddleCorrectText     = "Yes! That's correct."
	RiddleMissingKeyText  = "Riddle API key is missing on the server."
	RiddleUnreachableText = "I couldn't reach the riddle service right now. Try again later."
	RiddleMalformedText   = "I didn't get a valid riddle back. Try again."
	RiddleIncompleteText  = "That riddle response was incomplete. Try again."
)

// Riddle outcomes reported to the observer.
const (
	OutcomeFetched     = "fetched"
	OutcomeFetchFailed = "fetch_failed"
	OutcomeSolved      = "solved"
	OutcomeRetry       = "retry"
	OutcomeRevealed    = "revealed"
)

// fetchFailureText maps a riddle source failure to its user-facing message.
func fetchFailureText(err error) string {
	switch {
	case errors.Is(err, riddle.ErrMissingAPIKey):
		return RiddleMissingKeyText
	case errors.Is(err, riddle.ErrMalformed):
		return RiddleMalformedText
	case errors.Is(err, riddle.ErrIncomplete):
		return RiddleIncompleteText
	}
	return RiddleUnreachableText
}

// FetchRiddle starts a riddle session.
func (s *Steps) FetchRiddle(ctx context.Context, state models.ConversationState, msg models.InboundMessage) Result {
	var r Result
	if s.riddles == nil {
		s.observer.ObserveRiddleOutcome(OutcomeFetchFailed)
		r.sayText(RiddleMissingKeyText)
		return r
	}
	rd, err := s.riddles.FetchRiddle(ctx)
	if err != nil {
		slog.Warn("Flow FetchRiddle failed", "error", err)
		s.observer.ObserveRiddleOutcome(OutcomeFetchFailed)
		r.sayText(fetchFailureText(err))
		return r
	}
	s.observer.ObserveRiddleOutcome(OutcomeFetched)
	r.sayText("Certainly! Here's your riddle:\n\n" + rd.Question)
	r.Patch.Set(models.FieldRiddleQuestion, rd.Question)
	r.Patch.Set(models.FieldRiddleAnswer, rd.Answer)
	r.Patch.SetInt(models.FieldRiddleAttempts, 0)
	r.Patch.Clear(models.FieldGuess)
	r.Patch.Set(models.FieldRiddleTriggerText, msg.TrimmedText())
	return r
}

// ValidateRiddle checks one guess against the open riddle.
func (s *Steps) ValidateRiddle(ctx context.Context, state models.ConversationState, msg models.InboundMessage) Result {
	var r Result
	if !state.RiddleActive() || msg.IntentName == models.IntentPlayRiddle {
		return r
	}
	guess := msg.TrimmedText()
	if guess == "" || guess == strings.TrimSpace(state.RiddleTriggerText) {
		return r
	}

	attempts := state.RiddleAttempts + 1
	match := riddle.Match(guess, state.RiddleAnswer)
	slog.Debug("Flow ValidateRiddle", "attempt", attempts, "exact", match.Exact, "substring", match.Substring, "tokens", match.Tokens)

	r.Patch.SetInt(models.FieldRiddleAttempts, attempts)
	switch {
	case match.Correct():
		s.observer.ObserveRiddleOutcome(OutcomeSolved)
		r.sayText(RiddleCorrectText)
		r.Patch.Set(models.FieldGuess, guess)
		r.retireRiddle()
	case attempts < MaxRiddleAttempts:
		s.observer.ObserveRiddleOutcome(OutcomeRetry)
		left := MaxRiddleAttempts - attempts
		unit := "tries"
		if left == 1 {
			unit = "try"
		}
		r.sayText(fmt.Sprintf("No. Try again! (%d %s left)", left, unit))
		r.Patch.Clear(models.FieldGuess)
	default:
		s.observer.ObserveRiddleOutcome(OutcomeRevealed)
		r.sayText(fmt.Sprintf("Nope — third try. The answer was: %s.", state.RiddleAnswer))
		r.Patch.Set(models.FieldGuess, guess)
		r.retireRiddle()
	}
	return r
}

// retireRiddle closes the session but keeps the attempt count.
func (r *Result) retireRiddle() {
	r.Patch.Clear(models.FieldRiddleQuestion)
	r.Patch.Clear(models.FieldRiddleAnswer)
	r.Patch.Clear(models.FieldRiddleTriggerText)
}

// ResetRiddle clears every riddle field.
func (s *Steps) ResetRiddle(ctx context.Context, state models.ConversationState, msg models.InboundMessage) Result {
	var r Result
	r.Patch.Clear(models.FieldRiddleQuestion)
	r.Patch.Clear(models.FieldRiddleAnswer)
	r.Patch.Clear(models.FieldRiddleAttempts)
	r.Patch.Clear(models.FieldGuess)
	r.Patch.Clear(models.FieldRiddleTriggerText)
	return r
}
