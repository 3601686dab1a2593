package responses

import (
	"context"
	"log/slog"
	"time"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

// DefaultRephraseTimeout bounds one rephrase call.
const DefaultRephraseTimeout = 4 * time.Second

// Rephraser rewords authored text.
type Rephraser interface {
	Rephrase(ctx context.Context, text string) (string, error)
}

// Renderer turns outbound messages into user-facing text.
type Renderer struct {
	catalog   *Catalog
	rephraser Rephraser
	timeout   time.Duration
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRephraser enables rephrasing of templated responses.
func WithRephraser(r Rephraser) RendererOption {
	return func(rd *Renderer) { rd.rephraser = r }
}

// WithRephraseTimeout bounds each rephrase call.
func WithRephraseTimeout(d time.Duration) RendererOption {
	return func(rd *Renderer) {
		if d > 0 {
			rd.timeout = d
		}
	}
}

// NewRenderer creates a Renderer over catalog.
func NewRenderer(catalog *Catalog, opts ...RendererOption) *Renderer {
	r := &Renderer{catalog: catalog, timeout: DefaultRephraseTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render resolves each message to text. Templates are filled from state and,
// when a rephraser is configured, reworded; literal text passes through as-is.
// Unknown templates are logged and skipped.
func (r *Renderer) Render(ctx context.Context, msgs []models.OutboundMessage, state models.ConversationState) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if !m.IsTemplate() {
			out = append(out, m.Text)
			continue
		}
		text, err := r.catalog.Text(m.Template, state)
		if err != nil {
			slog.Error("Renderer.Render: template lookup failed", "template", m.Template, "error", err)
			continue
		}
		out = append(out, r.rephrase(ctx, m.Template, text))
	}
	return out
}

func (r *Renderer) rephrase(ctx context.Context, name, text string) string {
	if r.rephraser == nil {
		return text
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	alt, err := r.rephraser.Rephrase(ctx, text)
	if err != nil || alt == "" {
		slog.Debug("Renderer.rephrase: using authored text", "template", name, "error", err)
		return text
	}
	return alt
}
