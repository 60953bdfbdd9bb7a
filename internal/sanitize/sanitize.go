// Package sanitize turns stored posts into generator input.
//
// The generator only understands ASCII, and links are noise in a Markov
// corpus, so every post goes through the same three steps in this order:
// drop non-ASCII characters, collapse whitespace runs to one space, remove
// http(s) links. Link removal runs last and leaves the surrounding spaces in
// place: "check http://example.com/x out" becomes "check  out".
package sanitize

import (
	"bytes"
	"iter"
	"math/rand/v2"
	"regexp"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/filippog/doaddoad/internal/corpus"
)

var (
	whitespaceRun = regexp.MustCompile(`[\t\n\v\f\r ]+`)
	link          = regexp.MustCompile(`(?i)https?://\S*`)
)

// ASCII drops every character that is not 7-bit ASCII, including invalid
// UTF-8 sequences.
func ASCII(s string) string {
	t := runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	}))
	// runes.Remove never fails.
	out, _, _ := transform.String(t, s)
	return out
}

// Sanitize cleans a single post text.
func Sanitize(text string) []byte {
	b := []byte(ASCII(text))
	b = whitespaceRun.ReplaceAll(b, []byte(" "))
	b = link.ReplaceAll(b, nil)
	return b
}

// Inputs yields the sanitized text of every post in posts whose language
// matches language, in a uniformly shuffled order. An empty language
// accepts every post. The shuffle happens when iteration starts, so each
// iteration draws a fresh order from rng; a nil rng uses the global source.
func Inputs(posts []*corpus.Post, language string, rng *rand.Rand) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		var order []int
		if rng != nil {
			order = rng.Perm(len(posts))
		} else {
			order = rand.Perm(len(posts))
		}

		for _, i := range order {
			p := posts[i]
			if language != "" && p.LanguageCode() != language {
				continue
			}
			if !yield(Sanitize(p.Text)) {
				return
			}
		}
	}
}

// Join concatenates inputs separated by single spaces.
func Join(inputs iter.Seq[[]byte]) []byte {
	var buf bytes.Buffer
	first := true
	for in := range inputs {
		if !first {
			buf.WriteByte(' ')
		}
		buf.Write(in)
		first = false
	}
	return buf.Bytes()
}
