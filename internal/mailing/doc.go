// Package mailing schedules reminder and top 8 email broadcasts through the
// Kit v4 broadcasts API.
//
// Broadcasts are identified by subject. Scheduling a tournament twice updates
// the broadcast created the first time instead of creating a second one.
package mailing
