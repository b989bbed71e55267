// Package storage reads and writes the generator's local data files.
//
// The data directory holds the operator-authored tournament list
// (tournaments.json), the ranked player list (topPlayers.json) and the
// snapshot of announced tournaments (snapshot.json). Every write goes to a
// temporary file that is renamed into place, so readers never see a partial
// file.
package storage
