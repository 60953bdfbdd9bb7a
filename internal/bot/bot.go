// Package bot ties the corpus, the generator and the composer together.
package bot

import (
	"context"
	"iter"
	"math/rand/v2"

	"github.com/filippog/doaddoad/internal/compose"
	"github.com/filippog/doaddoad/internal/corpus"
	"github.com/filippog/doaddoad/internal/generator"
	"github.com/filippog/doaddoad/internal/lang"
	"github.com/filippog/doaddoad/internal/logging"
	"github.com/filippog/doaddoad/internal/sanitize"
)

// Bot produces candidate messages from a corpus.
type Bot struct {
	store     *corpus.Store
	gen       generator.Generator
	rng       *rand.Rand
	maxLength int
}

// Option configures a Bot.
type Option func(*Bot)

// WithRand fixes the source used to shuffle the corpus.
func WithRand(rng *rand.Rand) Option { return func(b *Bot) { b.rng = rng } }

// WithMaxLength sets the message length limit. Values <= 0 are ignored.
func WithMaxLength(n int) Option {
	return func(b *Bot) {
		if n > 0 {
			b.maxLength = n
		}
	}
}

// New returns a Bot reading from store and generating with gen.
func New(store *corpus.Store, gen generator.Generator, opts ...Option) *Bot {
	b := &Bot{
		store:     store,
		gen:       gen,
		maxLength: compose.DefaultMaxLength,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Messages runs the generator once over the posts matching language (all
// posts when language is empty) and returns the resulting messages. An
// unknown language is rejected before the generator runs.
func (b *Bot) Messages(ctx context.Context, language string) (iter.Seq[string], error) {
	if err := ValidateLanguage(language); err != nil {
		return nil, err
	}

	input := sanitize.Join(sanitize.Inputs(b.store.Posts(), language, b.rng))
	logging.WithPrefix("bot").Debug("Generating", "posts", b.store.Len(), "lang", language, "input_bytes", len(input))

	blob, err := b.gen.Generate(ctx, input)
	if err != nil {
		return nil, err
	}
	return compose.Messages(blob, b.maxLength), nil
}

// ValidateLanguage returns a *ValidationError unless language is empty or
// one of the codes the tagger can produce. Callers check it before any
// corpus update so a typo never costs a refresh.
func ValidateLanguage(language string) error {
	if language != "" && !lang.IsDetectable(language) {
		return &ValidationError{Language: language}
	}
	return nil
}

// First returns the first message of seq, or ErrNoMessage.
func First(seq iter.Seq[string]) (string, error) {
	if seq != nil {
		for msg := range seq {
			return msg, nil
		}
	}
	return "", ErrNoMessage
}
