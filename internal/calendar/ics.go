package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/meleemajors/meleemajors/internal/placeholder"
	"github.com/meleemajors/meleemajors/internal/tournament"
)

// Name is the calendar display name.
const Name = "upcoming melee majors"

// UIDDomain qualifies event UIDs.
const UIDDomain = "meleemajors.gg"

// DescriptionTemplate is the event description.
const DescriptionTemplate = "{{start.gg-url}}\n\nattendees: {{entrants}}\n\nnotable entrants:\n\n" +
	"{{player0}}\n{{player1}}\n{{player2}}\n{{player3}}\n{{player4}}\n{{player5}}\n{{player6}}\n{{player7}}\n"

// Calendar accumulates one all-day event per tournament.
type Calendar struct {
	cal *ics.Calendar
	now time.Time
}

// New creates an empty calendar stamped with now.
func New(now time.Time) *Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//meleemajors//meleemajors//EN")
	cal.SetName(Name)
	cal.SetXWRCalName(Name)
	return &Calendar{cal: cal, now: now.UTC()}
}

// Add appends the tournament as an all-day event. Dates are taken in the
// tournament's timezone and DTEND is exclusive, so a tournament ending on
// May 07 has DTEND 20240508.
func (c *Calendar) Add(r *tournament.Record) error {
	start, err := r.StartTime()
	if err != nil {
		return fmt.Errorf("calendar event %s: %w", r.Slug, err)
	}
	end, err := r.EndTime()
	if err != nil {
		return fmt.Errorf("calendar event %s: %w", r.Slug, err)
	}
	if end.Before(start) {
		return fmt.Errorf("calendar event %s: ends before it starts", r.Slug)
	}

	description, err := placeholder.Substitute(r.Fields(), DescriptionTemplate)
	if err != nil {
		return fmt.Errorf("calendar event %s: %w", r.Slug, err)
	}

	event := c.cal.AddEvent(r.ID + "@" + UIDDomain)
	event.SetDtStampTime(c.now)
	event.SetAllDayStartAt(day(start))
	event.SetAllDayEndAt(day(end).AddDate(0, 0, 1))
	event.SetSummary(r.Name)
	event.SetDescription(description)
	event.SetLocation(r.FullAddress)
	event.SetClass(ics.ClassificationPublic)
	if r.BracketURL != "" {
		event.SetURL(r.BracketURL)
	}
	return nil
}

// Len returns the number of events.
func (c *Calendar) Len() int {
	return len(c.cal.Events())
}

// Serialize renders the calendar.
func (c *Calendar) Serialize() string {
	return c.cal.Serialize()
}

// day truncates t to midnight of its calendar date, keeping its location.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
