package models

import (
	"fmt"
	"strings"
)

// Entity is a structured value extracted by the host NLU.
type Entity struct {
	Entity string `json:"entity"`
	Value  string `json:"value"`
}

// InboundMessage is one user turn as classified by the host runtime.
type InboundMessage struct {
	IntentName string   `json:"intent_name"`
	Entities   []Entity `json:"entities"`
	Text       string   `json:"text"`
}

// Validate checks the message against the input limits.
func (m InboundMessage) Validate() error {
	if len(m.Text) > MaxMessageTextLength {
		return ErrMessageTextTooLong
	}
	if len(m.IntentName) > MaxIntentNameLength {
		return ErrIntentNameTooLong
	}
	if len(m.Entities) > MaxEntitiesCount {
		return ErrTooManyEntities
	}
	for i, e := range m.Entities {
		if strings.TrimSpace(e.Entity) == "" {
			return fmt.Errorf("entity %d: %w", i, ErrEmptyEntityName)
		}
	}
	return nil
}

// Normalize returns a copy with a trimmed intent name and a non-nil entity list.
func (m InboundMessage) Normalize() InboundMessage {
	m.IntentName = strings.TrimSpace(m.IntentName)
	if m.Entities == nil {
		m.Entities = []Entity{}
	}
	return m
}

// TrimmedText returns the message text without surrounding whitespace.
func (m InboundMessage) TrimmedText() string {
	return strings.TrimSpace(m.Text)
}

// HasText reports whether the message carries any non-blank user text.
func (m InboundMessage) HasText() bool {
	return m.TrimmedText() != ""
}

// FirstEntity returns the value of the first entity of the given type.
func (m InboundMessage) FirstEntity(name string) (string, bool) {
	for _, e := range m.Entities {
		if e.Entity == name && e.Value != "" {
			return e.Value, true
		}
	}
	return "", false
}

// OutboundMessage is either a named template or literal text; exactly one is set.
type OutboundMessage struct {
	Template string `json:"template,omitempty"`
	Text     string `json:"text,omitempty"`
}

// TemplateMessage emits a templated response by name.
func TemplateMessage(name string) OutboundMessage {
	return OutboundMessage{Template: name}
}

// TextMessage emits literal text.
func TextMessage(text string) OutboundMessage {
	return OutboundMessage{Text: text}
}

// IsTemplate reports whether the message refers to a named template.
func (o OutboundMessage) IsTemplate() bool {
	return o.Template != ""
}
