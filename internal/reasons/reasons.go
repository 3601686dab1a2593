// Package reasons maps reason codes to conversational phrasing and to canned
// coping suggestions used when no generated text is available.
package reasons

import (
	"slices"
	"strings"

	"github.com/BTreeMap/MoodPipe/internal/util"
)

// friendly holds the phrasing for the reason codes offered by the pick list.
var friendly = map[string]string{
	"tired":               "being tired",
	"missing_someone":     "missing someone",
	"change_in_routine":   "something changed at home",
	"worry_school":        "worrying about school",
	"dont_know":           "not sure",
	"frustration":         "feeling frustrated",
	"someone_bothered_me": "someone upset you",
	"feeling_ignored":     "feeling ignored",
	"overstimulation":     "a noisy or overwhelming place",
}

// FriendlyReason turns a reason code into friendlier phrasing.
// Unknown codes and free text fall back to replacing underscores with spaces.
func FriendlyReason(reason string) string {
	if f, ok := friendly[reason]; ok {
		return f
	}
	return util.Humanize(reason)
}

// Codes returns the known reason codes, sorted.
func Codes() []string {
	codes := make([]string, 0, len(friendly))
	for c := range friendly {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return codes
}

type suggestion struct {
	keywords []string
	text     string
}

// suggestions are checked in order; the first keyword hit wins.
var suggestions = []suggestion{
	{
		keywords: []string{"miss"},
		text: "Since you're missing someone, try this: place a photo or memory item nearby, take five 4-6 breaths (inhale 4, exhale 6), " +
			"send them a short note or voice message, and plan one small check-in time so you feel connected.",
	},
	{
		keywords: []string{"tired", "sleep"},
		text:     "Your body might need a reset: roll your shoulders, take five slow belly breaths, and stretch your neck gently side to side.",
	},
	{
		keywords: []string{"school"},
		text:     "Worried about school? Jot one small task you can finish today, then take a 3-3-3 breath (inhale 3, hold 3, exhale 3) before starting.",
	},
	{
		keywords: []string{"home", "routine", "change"},
		text:     "When things change at home, anchor yourself: press your feet into the floor, breathe in for 4 and out for 6, and name one thing that still feels steady.",
	},
	{
		keywords: []string{"angry", "frustrat"},
		text:     "For the anger: squeeze your fists, release, then try box breathing (4 in, 4 hold, 4 out, 4 hold) for three rounds.",
	},
}

// GroundingExercise is suggested when no keyword matches.
const GroundingExercise = "Let's ground together: place a hand on your belly, take five slow breaths, and notice one thing you can see, hear, and feel right now."

// SuggestActivity returns a short, concrete next step tied to the reason.
func SuggestActivity(reason string) string {
	r := strings.ToLower(reason)
	for _, s := range suggestions {
		for _, kw := range s.keywords {
			if strings.Contains(r, kw) {
				return s.text
			}
		}
	}
	return GroundingExercise
}
