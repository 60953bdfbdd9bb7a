// Package corpus holds the posts doaddoad has observed and persists them
// between runs.
//
// # Thread Safety
//
// Store is NOT safe for concurrent use. Callers fetch concurrently if they
// like, but insert into the store and run generation from one goroutine.
package corpus

import (
	"time"

	"github.com/filippog/doaddoad/internal/lang"
)

// Post is one observed post kept as generator material.
type Post struct {
	// ID orders posts by recency. Snowflake-style ids from the social
	// network and time-derived ids from feeds share the same ordering.
	ID       int64
	Text     string
	Author   string
	Observed time.Time

	language string
	tagged   bool
}

// LanguageCode returns the language of the post text, detecting it on the
// first call. Returns "" when the language is unknown.
func (p *Post) LanguageCode() string {
	if !p.tagged {
		p.language = lang.Detect(p.Text)
		p.tagged = true
	}
	return p.language
}

// setLanguage restores a previously detected language.
func (p *Post) setLanguage(code string) {
	p.language = code
	p.tagged = true
}
