package startgg

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a slug or id resolves to nothing.
var ErrNotFound = errors.New("not found on start.gg")

// TransientError reports a query that kept failing until the retry budget ran out.
type TransientError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// AsTransientError attempts to unwrap an error into a TransientError.
func AsTransientError(err error) (*TransientError, bool) {
	var tErr *TransientError
	if errors.As(err, &tErr) {
		return tErr, true
	}
	return nil, false
}
