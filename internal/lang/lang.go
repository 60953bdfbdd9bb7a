// Package lang tags post text with a language code.
//
// Codes are ISO 639-1 where one exists and ISO 639-3 otherwise, so "en",
// "it" and "de" work as filters the way users expect. The set of codes is
// fixed by the detector and exposed through Codes and IsDetectable.
package lang

import (
	"slices"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// codes maps every detectable code to the detector's language.
var codes = buildCodes()

func buildCodes() map[string]whatlanggo.Lang {
	m := make(map[string]whatlanggo.Lang, len(whatlanggo.Langs))
	for l := range whatlanggo.Langs {
		if c := code(l); c != "" {
			m[c] = l
		}
	}
	return m
}

func code(l whatlanggo.Lang) string {
	if c := l.Iso6391(); c != "" {
		return c
	}
	return l.Iso6393()
}

// Detect returns the language code for text, or "" when the detector
// cannot tell.
func Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if info.Confidence == 0 {
		return ""
	}
	return code(info.Lang)
}

// IsDetectable reports whether Detect can ever return code.
func IsDetectable(code string) bool {
	_, ok := codes[code]
	return ok
}

// Codes returns every detectable code, sorted.
func Codes() []string {
	out := make([]string, 0, len(codes))
	for c := range codes {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
