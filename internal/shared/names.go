package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeName trims and upper-cases a display name the way it is stored.
// A Caser keeps state, so one is built per call.
func NormalizeName(name string) string {
	return cases.Upper(language.Spanish).String(strings.TrimSpace(name))
}
