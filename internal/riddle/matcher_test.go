package riddle

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		name   string
		guess  string
		answer string
		want   MatchResult
	}{
		{"exact after normalization", "A Towel!", "a towel", MatchResult{Exact: true, Substring: true, Tokens: true}},
		{"substring guess in answer", "towel", "A towel", MatchResult{Substring: true, Tokens: true}},
		{"substring answer in guess", "is it a piano keyboard", "piano", MatchResult{Substring: true}},
		{"token set reorder", "keys piano", "Piano keys", MatchResult{Tokens: true}},
		{"stop words ignored", "the name of yours", "Your name", MatchResult{}},
		{"answer inside longer guess", "it is your name", "Your name", MatchResult{Substring: true}},
		{"stop words stripped both sides", "an echo", "The echo", MatchResult{Tokens: true}},
		{"accents folded", "Café", "cafe", MatchResult{Exact: true, Substring: true, Tokens: true}},
		{"accented answer reordered", "keys resume", "résumé keys", MatchResult{Tokens: true}},
		{"miss", "a cat", "A towel", MatchResult{}},
		{"blank guess", "   ", "A towel", MatchResult{}},
		{"only stop words", "the", "the", MatchResult{Exact: true, Substring: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.guess, tt.answer)
			if got != tt.want {
				t.Errorf("Match(%q, %q) = %+v, want %+v", tt.guess, tt.answer, got, tt.want)
			}
			if got.Correct() != (tt.want.Exact || tt.want.Substring || tt.want.Tokens) {
				t.Errorf("Correct() inconsistent with signals for %q", tt.guess)
			}
		})
	}
}

func TestMatchTowelScenario(t *testing.T) {
	r := Match("towel", "A towel")
	if !r.Substring {
		t.Error("expected substring signal for towel vs A towel")
	}
	if !r.Correct() {
		t.Error("expected towel to be accepted")
	}
}
