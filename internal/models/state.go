// Package models defines state management structures for MoodPipe flows.
package models

import "fmt"

// Field names a slot of the conversation state.
type Field string

// Conversation state field constants.
const (
	FieldMood              Field = "mood"
	FieldLastMood          Field = "last_mood"
	FieldReason            Field = "reason"
	FieldReasonDetail      Field = "reason_detail"
	FieldExpectFreeReason  Field = "expect_free_reason"
	FieldSupportStage      Field = "support_stage"
	FieldSupportCompleted  Field = "support_completed"
	FieldReframeStage      Field = "reframe_stage"
	FieldRiddleQuestion    Field = "riddle_question"
	FieldRiddleAnswer      Field = "riddle_answer"
	FieldRiddleAttempts    Field = "riddle_attempts"
	FieldRiddleTriggerText Field = "riddle_trigger_text"
	FieldGuess             Field = "guess"
)

// ConversationState is the host-owned slot set of one conversation.
// Zero values mean unset. Steps read it by value and propose changes as a Patch.
type ConversationState struct {
	Mood              Mood         `json:"mood,omitempty"`
	LastMood          Mood         `json:"last_mood,omitempty"`
	Reason            string       `json:"reason,omitempty"`
	ReasonDetail      string       `json:"reason_detail,omitempty"`
	ExpectFreeReason  bool         `json:"expect_free_reason,omitempty"`
	SupportStage      SupportStage `json:"support_stage,omitempty"`
	SupportCompleted  bool         `json:"support_completed,omitempty"`
	ReframeStage      ReframeStage `json:"reframe_stage,omitempty"`
	RiddleQuestion    string       `json:"riddle_question,omitempty"`
	RiddleAnswer      string       `json:"riddle_answer,omitempty"`
	RiddleAttempts    int          `json:"riddle_attempts,omitempty"`
	RiddleTriggerText string       `json:"riddle_trigger_text,omitempty"`
	Guess             string       `json:"guess,omitempty"`
}

// RiddleActive reports whether a riddle session is open.
func (s ConversationState) RiddleActive() bool {
	return s.RiddleQuestion != "" && s.RiddleAnswer != ""
}

// Mutation is one proposed change to a state field. A nil Value clears the field.
type Mutation struct {
	Field Field       `json:"field"`
	Value interface{} `json:"value"`
}

// Patch is an ordered list of mutations, applied front to back.
type Patch []Mutation

// Set proposes setting a string-valued field.
func (p *Patch) Set(f Field, v string) {
	*p = append(*p, Mutation{Field: f, Value: v})
}

// SetBool proposes setting a boolean field.
func (p *Patch) SetBool(f Field, v bool) {
	*p = append(*p, Mutation{Field: f, Value: v})
}

// SetInt proposes setting an integer field.
func (p *Patch) SetInt(f Field, v int) {
	*p = append(*p, Mutation{Field: f, Value: v})
}

// Clear proposes resetting a field to unset.
func (p *Patch) Clear(f Field) {
	*p = append(*p, Mutation{Field: f})
}

// Get returns the last proposed mutation for f, if any.
func (p Patch) Get(f Field) (Mutation, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Field == f {
			return p[i], true
		}
	}
	return Mutation{}, false
}

// Apply returns a copy of s with the patch applied in order.
func (s ConversationState) Apply(p Patch) (ConversationState, error) {
	for _, m := range p {
		if err := s.apply(m); err != nil {
			return s, err
		}
	}
	return s, nil
}

func (s *ConversationState) apply(m Mutation) error {
	switch m.Field {
	case FieldMood:
		v, err := stringValue(m)
		s.Mood = Mood(v)
		return err
	case FieldLastMood:
		v, err := stringValue(m)
		s.LastMood = Mood(v)
		return err
	case FieldReason:
		v, err := stringValue(m)
		s.Reason = v
		return err
	case FieldReasonDetail:
		v, err := stringValue(m)
		s.ReasonDetail = v
		return err
	case FieldSupportStage:
		v, err := stringValue(m)
		if err == nil && !SupportStage(v).IsValid() {
			return fmt.Errorf("%w: %s=%q", ErrInvalidFieldValue, m.Field, v)
		}
		s.SupportStage = SupportStage(v)
		return err
	case FieldReframeStage:
		v, err := stringValue(m)
		if err == nil && !ReframeStage(v).IsValid() {
			return fmt.Errorf("%w: %s=%q", ErrInvalidFieldValue, m.Field, v)
		}
		s.ReframeStage = ReframeStage(v)
		return err
	case FieldRiddleQuestion:
		v, err := stringValue(m)
		s.RiddleQuestion = v
		return err
	case FieldRiddleAnswer:
		v, err := stringValue(m)
		s.RiddleAnswer = v
		return err
	case FieldRiddleTriggerText:
		v, err := stringValue(m)
		s.RiddleTriggerText = v
		return err
	case FieldGuess:
		v, err := stringValue(m)
		s.Guess = v
		return err
	case FieldExpectFreeReason:
		v, err := boolValue(m)
		s.ExpectFreeReason = v
		return err
	case FieldSupportCompleted:
		v, err := boolValue(m)
		s.SupportCompleted = v
		return err
	case FieldRiddleAttempts:
		v, err := intValue(m)
		if err == nil && v < 0 {
			return fmt.Errorf("%w: %s=%d", ErrInvalidFieldValue, m.Field, v)
		}
		s.RiddleAttempts = v
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, m.Field)
}

func stringValue(m Mutation) (string, error) {
	switch v := m.Value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	}
	return "", fmt.Errorf("%w: %s expects a string, got %T", ErrInvalidFieldValue, m.Field, m.Value)
}

func boolValue(m Mutation) (bool, error) {
	switch v := m.Value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	}
	return false, fmt.Errorf("%w: %s expects a bool, got %T", ErrInvalidFieldValue, m.Field, m.Value)
}

func intValue(m Mutation) (int, error) {
	switch v := m.Value.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case float64:
		// JSON numbers decode as float64
		if v != float64(int(v)) {
			break
		}
		return int(v), nil
	}
	return 0, fmt.Errorf("%w: %s expects an integer, got %v", ErrInvalidFieldValue, m.Field, m.Value)
}
