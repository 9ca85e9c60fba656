// Package textutil normalizes text scraped from playlist pages.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseWhitespace replaces every whitespace run with a single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Normalize returns the NFC form of s with whitespace collapsed.
func Normalize(s string) string {
	return CollapseWhitespace(norm.NFC.String(s))
}

// Fold case-folds s for caseless comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether substr occurs in s ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

// ContainsAnyFold reports whether any of the phrases occurs in s ignoring case.
func ContainsAnyFold(s string, phrases ...string) bool {
	folded := Fold(s)
	for _, phrase := range phrases {
		if strings.Contains(folded, Fold(phrase)) {
			return true
		}
	}
	return false
}
