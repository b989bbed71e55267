package notifier

import (
	"github.com/meleemajors/meleemajors/internal/tournament"
)

// Notifier defines the interface for announcing tournaments
type Notifier interface {
	// Notify posts announcements for the given tournaments in order. When
	// posting stops partway it returns a *NotifyError counting the records
	// already announced.
	Notify(records []*tournament.Record) error
}
