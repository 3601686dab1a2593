package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// ensureID assigns a random ID to entries recorded without one.
func ensureID(e models.UserStateEntry) models.UserStateEntry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return e
}

// scanEntries reads user_state_log rows.
func scanEntries(rows *sql.Rows) ([]models.UserStateEntry, error) {
	var out []models.UserStateEntry
	for rows.Next() {
		var e models.UserStateEntry
		var conversationID sql.NullString
		if err := rows.Scan(&e.ID, &conversationID, &e.Timestamp, &e.Mood, &e.Reason); err != nil {
			return nil, fmt.Errorf("scan diagnostic entry failed: %w", err)
		}
		e.ConversationID = conversationID.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate diagnostic rows: %w", err)
	}
	return out, nil
}
