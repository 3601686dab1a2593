// Package responses renders named response templates into text.
//
// Templates are authored in YAML; an embedded default catalog ships with the
// binary and can be replaced at startup.
package responses

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

// Template names emitted by the dialogue steps.
const (
	UtterReflectMoodHappy      = "utter_reflect_mood_happy"
	UtterReflectMoodSad        = "utter_reflect_mood_sad"
	UtterReflectMoodAngry      = "utter_reflect_mood_angry"
	UtterFollowupMoodHappy     = "utter_followup_mood_happy"
	UtterFollowupMoodSad       = "utter_followup_mood_sad"
	UtterFollowupMoodAngry     = "utter_followup_mood_angry"
	UtterReasonWhyUpset        = "utter_reason_why_you_feel_upset_question"
	UtterAcknowledgeUneasy     = "utter_acknowledge_uneasy_feeling"
	UtterOverviewReasonsSad    = "utter_overview_common_reasons_sad"
	UtterOverviewReasonsAngry  = "utter_overview_common_reasons_angry"
	UtterAskReasonAfterAffirm  = "utter_ask_reason_after_affirm"
	UtterReasonUnknownExercise = "utter_reason_unknown_exercise"
	UtterReasonUnknownAskLater = "utter_reason_unknown_ask_later"
	UtterStageCommonGround     = "utter_stage_common_ground"
	UtterStageAcceptance       = "utter_stage_acceptance"
	UtterStageAnalysis         = "utter_stage_analysis"
	UtterStageNuance           = "utter_stage_nuance"
	UtterStageContinueQuestion = "utter_stage_continue_question"
	UtterSupportDoneCheckMood  = "utter_support_done_check_mood"
	UtterSupportDone           = "utter_support_done"
	UtterRestartOK             = "utter_restart_ok"
)

// Required lists every template a catalog must define.
var Required = []string{
	UtterReflectMoodHappy, UtterReflectMoodSad, UtterReflectMoodAngry,
	UtterFollowupMoodHappy, UtterFollowupMoodSad, UtterFollowupMoodAngry,
	UtterReasonWhyUpset, UtterAcknowledgeUneasy,
	UtterOverviewReasonsSad, UtterOverviewReasonsAngry,
	UtterAskReasonAfterAffirm, UtterReasonUnknownExercise, UtterReasonUnknownAskLater,
	UtterStageCommonGround, UtterStageAcceptance, UtterStageAnalysis, UtterStageNuance,
	UtterStageContinueQuestion, UtterSupportDoneCheckMood, UtterSupportDone, UtterRestartOK,
}

// ErrUnknownTemplate is returned when a template name is not in the catalog.
var ErrUnknownTemplate = errors.New("unknown response template")

//go:embed responses.yml
var defaultCatalogYAML []byte

type catalogFile struct {
	Responses map[string]string `yaml:"responses"`
}

// Catalog maps template names to authored text.
type Catalog struct {
	templates map[string]string
}

// LoadCatalog parses a YAML catalog and checks that all required templates exist.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse response catalog: %w", err)
	}

	var missing []string
	for _, name := range Required {
		if strings.TrimSpace(f.Responses[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("response catalog missing templates: %s", strings.Join(missing, ", "))
	}

	slog.Debug("Response catalog loaded", "templates", len(f.Responses))
	return &Catalog{templates: f.Responses}, nil
}

// LoadCatalogFile loads a catalog from a YAML file.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open response catalog %s: %w", path, err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalogYAML))
}

// Text fills a template's slots from state.
func (c *Catalog) Text(name string, state models.ConversationState) (string, error) {
	if !c.Has(name) {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return slotReplacer(state).Replace(c.templates[name]), nil
}

// Has reports whether the catalog defines name.
func (c *Catalog) Has(name string) bool {
	_, ok := c.templates[name]
	return ok
}

func slotReplacer(state models.ConversationState) *strings.Replacer {
	return strings.NewReplacer(
		"{mood}", orDefault(string(state.Mood), "this way"),
		"{last_mood}", orDefault(string(state.LastMood), "this way"),
		"{reason}", orDefault(state.Reason, "this"),
	)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
