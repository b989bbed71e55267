package notifier

import (
	"errors"
	"fmt"
)

// NotifyError reports an announcement that failed after Sent records were
// already posted.
type NotifyError struct {
	Sent int
	Slug string
	Err  error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("failed to post tweet for tournament %s after %d sent: %v", e.Slug, e.Sent, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// AsNotifyError attempts to unwrap an error into a NotifyError.
func AsNotifyError(err error) (*NotifyError, bool) {
	var nErr *NotifyError
	if errors.As(err, &nErr) {
		return nErr, true
	}
	return nil, false
}
