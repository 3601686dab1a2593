package flow

import (
	"context"
	"sync"
	"testing"

	"github.com/BTreeMap/MoodPipe/internal/models"
	"github.com/BTreeMap/MoodPipe/internal/riddle"
)

// mockReframer records calls and returns a fixed reply.
type mockReframer struct {
	text    string
	err     error
	block   bool
	reasons []string
	details []string
}

func (m *mockReframer) GenerateReframe(ctx context.Context, reason, detail string) (string, error) {
	m.reasons = append(m.reasons, reason)
	m.details = append(m.details, detail)
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.text, m.err
}

type mockRiddleSource struct {
	riddle riddle.Riddle
	err    error
}

func (m *mockRiddleSource) FetchRiddle(ctx context.Context) (riddle.Riddle, error) {
	return m.riddle, m.err
}

type mockDiagnosticLog struct {
	mu      sync.Mutex
	entries []models.UserStateEntry
	err     error
}

func (m *mockDiagnosticLog) Append(ctx context.Context, e models.UserStateEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

type countingObserver struct {
	steps     map[models.StepName]int
	fallbacks map[string]int
	riddles   map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		steps:     make(map[models.StepName]int),
		fallbacks: make(map[string]int),
		riddles:   make(map[string]int),
	}
}

func (c *countingObserver) ObserveStep(step models.StepName)       { c.steps[step]++ }
func (c *countingObserver) ObserveGenerationFallback(cause string) { c.fallbacks[cause]++ }
func (c *countingObserver) ObserveRiddleOutcome(outcome string)    { c.riddles[outcome]++ }

func msg(intent, text string) models.InboundMessage {
	return models.InboundMessage{IntentName: intent, Text: text}
}

// applyResult applies a step result the way the turn loop does.
func applyResult(t *testing.T, state models.ConversationState, res Result) models.ConversationState {
	t.Helper()
	if res.Reset {
		state = models.ConversationState{}
	}
	next, err := state.Apply(res.Patch)
	if err != nil {
		t.Fatalf("patch did not apply: %v", err)
	}
	return next
}

func templates(msgs []models.OutboundMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.IsTemplate() {
			out = append(out, m.Template)
		} else {
			out = append(out, "text:"+m.Text)
		}
	}
	return out
}
