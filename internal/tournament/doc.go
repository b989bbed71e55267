// Package tournament defines the data model of the generator: the
// operator-authored tournament input, the aggregated tournament record consumed
// by every renderer, and the snapshot used to detect newly listed tournaments.
//
// A Record is typed; templates see it through Fields, a flat view keyed by the
// placeholder names used in the HTML, calendar and email templates.
package tournament
