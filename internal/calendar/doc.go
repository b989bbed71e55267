// Package calendar renders the tournament list as an iCalendar feed.
package calendar
