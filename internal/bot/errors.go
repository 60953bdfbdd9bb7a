package bot

import (
	"errors"
	"fmt"
)

// ErrNoMessage is returned by First when the generator produced nothing
// postable.
var ErrNoMessage = errors.New("bot: no message to post")

// ValidationError reports a language filter the tagger can never produce.
type ValidationError struct {
	Language string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bot: unknown language %q", e.Language)
}
