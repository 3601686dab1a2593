// Package models defines the core data structures for MoodPipe.
//
// It includes the conversation state, inbound/outbound message shapes and the
// API response envelope, which are shared across modules.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Validation constants for input validation
const (
	// MaxMessageTextLength defines the maximum allowed length for inbound message text
	MaxMessageTextLength = 4096
	// MaxIntentNameLength defines the maximum allowed length for an intent name
	MaxIntentNameLength = 128
	// MaxEntitiesCount defines the maximum number of entities accepted on one message
	MaxEntitiesCount = 32
)

// Error variables for better error handling and testability
var (
	ErrMessageTextTooLong = errors.New("message text exceeds maximum length")
	ErrIntentNameTooLong  = errors.New("intent name exceeds maximum length")
	ErrTooManyEntities    = errors.New("too many entities")
	ErrEmptyEntityName    = errors.New("entity name cannot be empty")
	ErrUnknownField       = errors.New("unknown conversation state field")
	ErrInvalidFieldValue  = errors.New("invalid value for conversation state field")
)

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

// UserStateEntry is one record of the append-only diagnostic log.
type UserStateEntry struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Mood           string    `json:"mood"`
	Reason         string    `json:"reason"`
}

// String renders the entry in the tab-separated log line format.
func (e UserStateEntry) String() string {
	return fmt.Sprintf("%s\tmood=%s\treason=%s", e.Timestamp.UTC().Format(time.RFC3339Nano), e.Mood, e.Reason)
}
