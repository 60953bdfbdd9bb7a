// Package compose turns raw generator output into postable messages.
//
// The generator emits one blob of free text. Messages normalizes its
// whitespace, wraps it into chunks no longer than the platform limit and
// moves any retweet marker that ended up mid-chunk to the front.
package compose

import (
	"iter"
	"regexp"
	"strings"
)

// DefaultMaxLength is the classic post length limit.
const DefaultMaxLength = 140

var whitespaceRun = regexp.MustCompile(`[\t\n\v\f\r ]+`)

// Normalize collapses every whitespace run (tabs and newlines included)
// into one space and trims the result.
func Normalize(blob string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(blob, " "))
}

// Messages yields the messages contained in blob, each at most width
// characters long. Chunks that are blank after repair are skipped. The
// sequence is computed on demand; iterating again starts from scratch and
// yields the same messages.
func Messages(blob string, width int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for chunk := range chunks(Normalize(blob), width) {
			msg := FixRetweet(chunk)
			if strings.TrimSpace(msg) == "" {
				continue
			}
			if !yield(msg) {
				return
			}
		}
	}
}

// Wrap splits text into lines of at most width characters, breaking at
// spaces. A word longer than width is split across lines, its first part
// filling whatever room the previous words left. text is expected to be
// normalized; the space a line was broken at is not part of either line.
func Wrap(text string, width int) []string {
	var lines []string
	for line := range chunks(text, width) {
		lines = append(lines, line)
	}
	return lines
}

func chunks(text string, width int) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := []rune(text)
		if width <= 0 {
			if len(rest) > 0 {
				yield(text)
			}
			return
		}

		for len(rest) > 0 {
			if len(rest) <= width {
				yield(string(rest))
				return
			}

			var line []rune
			if cut := lastSpace(rest[:width+1]); cut > 0 {
				if cut+1 < width && wordLen(rest[cut+1:]) > width {
					// The next word is too long for any line: start it
					// here and fill the rest of the line with it.
					line, rest = rest[:width], rest[width:]
				} else {
					line, rest = rest[:cut], rest[cut+1:]
				}
			} else {
				// No break point: the first word alone is longer than width.
				line, rest = rest[:width], rest[width:]
				if len(rest) > 0 && rest[0] == ' ' {
					rest = rest[1:]
				}
			}
			if !yield(string(line)) {
				return
			}
		}
	}
}

func wordLen(rs []rune) int {
	for i, r := range rs {
		if r == ' ' {
			return i
		}
	}
	return len(rs)
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == ' ' {
			return i
		}
	}
	return -1
}

// retweet matches the last "RT @who" in a chunk that starts at a word
// boundary. The @ and the space after the handle are optional.
var retweet = regexp.MustCompile(`^(?P<lead>.*)\b[Rr][Tt] +@?(?P<who>\S+) ?(?P<trail>.*)$`)

// FixRetweet moves a retweet marker found inside chunk to the front:
// "hello world RT @bob more text" becomes "RT @bob hello world more text".
// The text before and after the marker is concatenated without adding a
// separator and the result is trimmed. Chunks without a marker are
// returned unchanged, and a chunk that already starts with the marker
// comes back as it was (modulo trimming).
//
// Only the last marker is moved; earlier ones stay in the lead text.
func FixRetweet(chunk string) string {
	m := retweet.FindStringSubmatch(chunk)
	if m == nil {
		return chunk
	}
	lead := m[retweet.SubexpIndex("lead")]
	who := m[retweet.SubexpIndex("who")]
	trail := m[retweet.SubexpIndex("trail")]
	return strings.TrimSpace("RT @" + who + " " + lead + trail)
}
