package aggregator

import (
	"errors"
	"fmt"
)

// DataError reports provider data that cannot produce a record. It only
// affects the tournament being built.
type DataError struct {
	Tournament string
	Field      string
	Err        error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tournament %s: %s: %v", e.Tournament, e.Field, e.Err)
	}
	return fmt.Sprintf("tournament %s: missing %s", e.Tournament, e.Field)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// AsDataError attempts to unwrap an error into a DataError.
func AsDataError(err error) (*DataError, bool) {
	var dErr *DataError
	if errors.As(err, &dErr) {
		return dErr, true
	}
	return nil, false
}
