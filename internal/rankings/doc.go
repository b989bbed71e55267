// Package rankings refreshes the ranked player list from the Liquipedia
// SSBMRank page.
//
// The newest ranking table on the page supplies up to 50 names. Players
// already in the local list who dropped out of the ranking are kept after
// the fresh names.
package rankings
