// Package site runs the build pipeline.
//
// Tournaments are processed one at a time: each record is aggregated, rendered
// as a card, added to the calendar and given its email broadcasts before the
// next tournament starts. Outputs are written only after the loop, each with
// an atomic rename, so a failed run never leaves a half-written page behind.
package site
