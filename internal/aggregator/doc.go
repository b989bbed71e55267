// Package aggregator builds tournament records.
//
// A Builder combines an operator-authored tournament input with start.gg
// metadata, the entrant count, the featured players drawn from the ranked
// player list and the cached banner image. Records are built one at a time.
package aggregator
