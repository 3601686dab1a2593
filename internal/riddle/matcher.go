// Package riddle provides the riddle answer matcher and the client for the
// external riddle source.
package riddle

import (
	"slices"
	"strings"

	"github.com/BTreeMap/MoodPipe/internal/util"
)

// stopWords are dropped before comparing token sets.
var stopWords = map[string]bool{
	"a":         true,
	"an":        true,
	"the":       true,
	"my":        true,
	"your":      true,
	"everyone":  true,
	"everybody": true,
	"has":       true,
	"have":      true,
	"one":       true,
	"is":        true,
	"are":       true,
	"its":       true,
	"it's":      true,
	"to":        true,
	"of":        true,
}

// MatchResult carries the three independent equivalence signals.
type MatchResult struct {
	Exact     bool `json:"exact"`
	Substring bool `json:"substring"`
	Tokens    bool `json:"tokens"`
}

// Correct reports whether any signal matched.
func (r MatchResult) Correct() bool {
	return r.Exact || r.Substring || r.Tokens
}

// Match compares a guess against the known answer.
func Match(guess, answer string) MatchResult {
	g := util.NormalizeRiddleText(guess)
	a := util.NormalizeRiddleText(answer)

	var r MatchResult
	if g != "" && a != "" {
		r.Exact = g == a
		r.Substring = strings.Contains(a, g) || strings.Contains(g, a)
	}

	gc := coreTokens(guess)
	ac := coreTokens(answer)
	if len(gc) > 0 && len(ac) > 0 {
		r.Tokens = slices.Equal(gc, ac) || equalSet(gc, ac)
	}
	return r
}

func coreTokens(s string) []string {
	var out []string
	for _, tok := range util.TokenizeRiddleText(s) {
		if !stopWords[tok] {
			out = append(out, tok)
		}
	}
	return out
}

func equalSet(a, b []string) bool {
	sa := make(map[string]struct{}, len(a))
	for _, t := range a {
		sa[t] = struct{}{}
	}
	sb := make(map[string]struct{}, len(b))
	for _, t := range b {
		sb[t] = struct{}{}
	}
	if len(sa) != len(sb) {
		return false
	}
	for t := range sa {
		if _, ok := sb[t]; !ok {
			return false
		}
	}
	return true
}
