package genai

import (
	"context"
	"fmt"
)

// reframeInstruction is the coaching brief sent with every reframe request.
const reframeInstruction = "You are a brief, supportive coach. Reframe the situation to reduce distress " +
	"and suggest one concrete, calming next step. Keep it to 2 short sentences. "

// rephraseInstruction asks for a reworded bot reply that keeps its meaning.
const rephraseInstruction = "Rephrase the following chatbot reply for a young person. Keep the meaning, " +
	"the warmth and any question it asks. Reply with the rephrased text only."

// Generator is the part of Client used by the reframer and rephraser.
type Generator interface {
	GeneratePromptWithContext(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Reframer produces short supportive reframing messages.
type Reframer struct {
	gen Generator
}

// NewReframer creates a Reframer backed by gen.
func NewReframer(gen Generator) *Reframer {
	return &Reframer{gen: gen}
}

// ReframePrompt builds the single-message prompt for a reason and detail.
func ReframePrompt(reason, detail string) string {
	if detail == "" {
		detail = reason
	}
	return fmt.Sprintf("%sReason: %s. Detail: %s.", reframeInstruction, reason, detail)
}

// GenerateReframe asks the model for a reframe of reason and detail.
func (r *Reframer) GenerateReframe(ctx context.Context, reason, detail string) (string, error) {
	return r.gen.GeneratePromptWithContext(ctx, "", ReframePrompt(reason, detail))
}

// Rephraser rewords authored responses.
type Rephraser struct {
	gen Generator
}

// NewRephraser creates a Rephraser backed by gen.
func NewRephraser(gen Generator) *Rephraser {
	return &Rephraser{gen: gen}
}

// Rephrase returns a reworded version of text.
func (r *Rephraser) Rephrase(ctx context.Context, text string) (string, error) {
	return r.gen.GeneratePromptWithContext(ctx, rephraseInstruction, text)
}
