package corpus

import "fmt"

// PersistenceError is returned when the corpus state file cannot be read
// or written. A state file that exists but cannot be understood is always
// an error; it is never replaced by an empty corpus.
type PersistenceError struct {
	Path string
	Op   string // "load" or "save"
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("corpus: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
