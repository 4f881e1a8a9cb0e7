package domain

import (
	"strings"
	"unicode"

	"github.com/fatih/camelcase"
)

// Slug returns the deterministic kebab-case form of a page name used for artifact
// filenames: "OutdoorEvents", "outdoor events" and "outdoor_events" all map to
// "outdoor-events".
func Slug(name string) string {
	var words []string
	for _, part := range camelcase.Split(name) {
		if isWord(part) {
			words = append(words, strings.ToLower(part))
		}
	}
	if len(words) == 0 {
		return "page"
	}
	return strings.Join(words, "-")
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
