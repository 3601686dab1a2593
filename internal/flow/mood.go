package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/MoodPipe/internal/models"
	"github.com/BTreeMap/MoodPipe/internal/responses"
)

// ClarifyMoodText asks the user to restate their mood.
const ClarifyMoodText = "I didn't catch that — can you tell me how you feel?"

// NoStoredMoodText answers the stored mood query before any mood was set.
const NoStoredMoodText = "I don't have a record of how you were feeling yet. Would you like to tell me?"

var introTemplates = map[models.Mood]string{
	models.MoodHappy: responses.UtterReflectMoodHappy,
	models.MoodSad:   responses.UtterReflectMoodSad,
	models.MoodAngry: responses.UtterReflectMoodAngry,
}

var followupTemplates = map[models.Mood]string{
	models.MoodHappy: responses.UtterFollowupMoodHappy,
	models.MoodSad:   responses.UtterFollowupMoodSad,
	models.MoodAngry: responses.UtterFollowupMoodAngry,
}

// resolveMood prefers a recognized mood slot over the inbound intent.
func resolveMood(state models.ConversationState, intent string) (models.Mood, bool) {
	if m := models.Mood(strings.ToLower(strings.TrimSpace(string(state.Mood)))); m.IsKnown() {
		return m, true
	}
	return models.MoodFromIntent(intent)
}

// ResolveMood greets the reported mood, or asks again when none can be found.
func (s *Steps) ResolveMood(ctx context.Context, state models.ConversationState, msg models.InboundMessage) Result {
	if !msg.HasText() {
		return Result{}
	}
	var r Result
	mood, ok := resolveMood(state, msg.IntentName)
	if !ok {
		slog.Debug("Flow ResolveMood unresolved", "intent", msg.IntentName)
		r.sayText(ClarifyMoodText)
		return r
	}

	if state.SupportCompleted {
		r.say(followupTemplates[mood])
		r.Patch.Clear(models.FieldSupportCompleted)
	} else {
		r.say(introTemplates[mood])
	}
	if mood.IsUpset() {
		r.say(responses.UtterReasonWhyUpset)
	}
	r.Patch.Set(models.FieldMood, string(mood))
	r.Patch.Set(models.FieldLastMood, string(mood))
	slog.Debug("Flow ResolveMood resolved", "mood", mood, "returning", state.SupportCompleted)
	return r
}

// StoredMood reports the last mood the user shared.
func (s *Steps) StoredMood(ctx context.Context, state models.ConversationState, msg models.InboundMessage) Result {
	if !msg.HasText() {
		return Result{}
	}
	var r Result
	if state.LastMood != models.MoodUnset {
		r.sayText(fmt.Sprintf("I have stored that you felt %s. If you'd like, we can explore that more.", state.LastMood))
	} else {
		r.sayText(NoStoredMoodText)
	}
	return r
}

// Restart clears the conversation and asks for the mood again.
func (s *Steps) Restart(ctx context.Context, state models.ConversationState, msg models.InboundMessage) Result {
	if !msg.HasText() {
		return Result{}
	}
	var r Result
	r.say(responses.UtterRestartOK)
	r.Reset = true
	r.FollowUp = models.StepResolveMood
	return r
}
