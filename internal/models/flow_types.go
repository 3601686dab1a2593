// Package models defines flow type definitions to avoid circular imports.
package models

// Mood is the user's reported emotional state.
type Mood string

// SupportStage is one phase of the staged support dialogue.
type SupportStage string

// ReframeStage tracks the reframe sub-dialogue.
type ReframeStage string

// StepName identifies a dialogue step that can be dispatched or re-dispatched.
type StepName string

// Mood constants. The zero value means unset.
const (
	MoodUnset Mood = ""
	MoodHappy Mood = "happy"
	MoodSad   Mood = "sad"
	MoodAngry Mood = "angry"
)

// Support stage constants, in dialogue order.
const (
	StageUnset        SupportStage = ""
	StageCommonGround SupportStage = "common_ground"
	StageAcceptance   SupportStage = "acceptance"
	StageAnalysis     SupportStage = "analysis"
	StageNuance       SupportStage = "nuance"
)

// Reframe stage constants.
const (
	ReframeStageUnset   ReframeStage = ""
	ReframeStageReframe ReframeStage = "reframe"
	ReframeStageWrap    ReframeStage = "wrap"
)

// Intent names produced by the host NLU.
const (
	IntentAffirm        = "affirm"
	IntentDeny          = "deny"
	IntentMoodHappy     = "mood_happy"
	IntentMoodSad       = "mood_sad"
	IntentMoodAngry     = "mood_angry"
	IntentPickReason    = "pick_reason"
	IntentAskStoredMood = "ask_stored_mood"
	IntentAskReframe    = "ask_reframe"
	IntentRestart       = "restart"
	IntentPlayRiddle    = "play_riddle"
	IntentResetRiddle   = "reset_riddle"
	IntentStopRiddle    = "stop_riddle"
	IntentGreet         = "greet"
	IntentFallback      = "nlu_fallback"
)

// EntityReason is the entity type carrying a picked reason code.
const EntityReason = "reason"

// ReasonDontKnow is the sentinel reason code for "I don't know why".
const ReasonDontKnow = "dont_know"

// Step name constants.
const (
	StepResolveMood    StepName = "resolve_mood"
	StepReasonResponse StepName = "handle_reason_response"
	StepPickReason     StepName = "handle_pick_reason"
	StepSupportFlow    StepName = "handle_support_flow"
	StepReframeFlow    StepName = "handle_reframe_flow"
	StepStoredMood     StepName = "get_stored_mood"
	StepRestart        StepName = "restart_conversation"
	StepFetchRiddle    StepName = "fetch_riddle"
	StepValidateRiddle StepName = "validate_riddle"
	StepResetRiddle    StepName = "reset_riddle"
)

// moodIntents maps mood-selection intents to moods.
var moodIntents = map[string]Mood{
	IntentMoodHappy: MoodHappy,
	IntentMoodSad:   MoodSad,
	IntentMoodAngry: MoodAngry,
}

// MoodFromIntent returns the mood selected by a mood intent.
func MoodFromIntent(intent string) (Mood, bool) {
	m, ok := moodIntents[intent]
	return m, ok
}

// IsMoodIntent reports whether the intent selects a mood.
func IsMoodIntent(intent string) bool {
	_, ok := moodIntents[intent]
	return ok
}

// IsKnown reports whether m is one of the recognized moods.
func (m Mood) IsKnown() bool {
	switch m {
	case MoodHappy, MoodSad, MoodAngry:
		return true
	}
	return false
}

// IsUpset reports whether the mood warrants asking for a reason.
func (m Mood) IsUpset() bool {
	return m == MoodSad || m == MoodAngry
}

// Next returns the stage that follows s, or StageUnset after nuance.
func (s SupportStage) Next() SupportStage {
	switch s {
	case StageUnset:
		return StageCommonGround
	case StageCommonGround:
		return StageAcceptance
	case StageAcceptance:
		return StageAnalysis
	case StageAnalysis:
		return StageNuance
	}
	return StageUnset
}

// IsValid reports whether s is a known stage (including unset).
func (s SupportStage) IsValid() bool {
	switch s {
	case StageUnset, StageCommonGround, StageAcceptance, StageAnalysis, StageNuance:
		return true
	}
	return false
}

// IsValid reports whether s is a known reframe stage (including unset).
func (s ReframeStage) IsValid() bool {
	switch s {
	case ReframeStageUnset, ReframeStageReframe, ReframeStageWrap:
		return true
	}
	return false
}
