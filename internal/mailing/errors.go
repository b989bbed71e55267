package mailing

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoTop8Time is returned when a tournament has no top 8 start time.
var ErrNoTop8Time = errors.New("tournament has no top 8 start time")

// PastSendTimeError reports a broadcast whose send time has already passed.
type PastSendTimeError struct {
	Subject string
	SendAt  time.Time
	Now     time.Time
}

func (e *PastSendTimeError) Error() string {
	return fmt.Sprintf("broadcast %q would be sent at %s, which is in the past (now %s)",
		e.Subject, e.SendAt.Format(time.RFC3339), e.Now.Format(time.RFC3339))
}

// AsPastSendTimeError attempts to unwrap an error into a PastSendTimeError.
func AsPastSendTimeError(err error) (*PastSendTimeError, bool) {
	var pErr *PastSendTimeError
	if errors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}
