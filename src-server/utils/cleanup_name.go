package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CleanupName normalizes a participant name before it is printed on a
// certificate: collapses whitespace and title-cases each word.
func CleanupName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return cases.Title(language.English).String(s)
}
