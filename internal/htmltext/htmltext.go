// Package htmltext converts the HTML bodies served by social and feed APIs
// into the plain text kept in the corpus.
package htmltext

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()

	// Block boundaries become spaces before tags are stripped so that
	// "<p>a</p><p>b</p>" does not turn into "ab".
	breaks = regexp.MustCompile(`(?i)<\s*(br\s*/?|/p|/div|/li|/h[1-6])\s*>`)
	spaces = regexp.MustCompile(`\s+`)
)

// ToText strips all markup from s, unescapes entities and collapses
// whitespace.
func ToText(s string) string {
	if s == "" {
		return ""
	}
	s = breaks.ReplaceAllString(s, " ")
	s = strict.Sanitize(s)
	// StrictPolicy escapes the text it keeps.
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
