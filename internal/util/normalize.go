package util

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	alphanumericRun = regexp.MustCompile(`[a-z0-9]+`)
)

// foldAccents strips combining marks so "Café" compares equal to "cafe".
// A transformer carries state, so one is built per call.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		slog.Debug("foldAccents: transform failed, using input as-is", "error", err)
		return s
	}
	return out
}

// NormalizeRiddleText lower-cases s and drops everything except ASCII letters and digits.
// The result is a fixed point: NormalizeRiddleText(NormalizeRiddleText(s)) == NormalizeRiddleText(s).
func NormalizeRiddleText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(foldAccents(s)))
	return nonAlphanumeric.ReplaceAllString(s, "")
}

// TokenizeRiddleText splits s into lower-case alphanumeric words.
func TokenizeRiddleText(s string) []string {
	if s == "" {
		return nil
	}
	return alphanumericRun.FindAllString(strings.ToLower(foldAccents(s)), -1)
}

// Humanize replaces underscores in codes like "worry_school" with spaces.
func Humanize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
