// Package cli implements the command-line interface for meleemajors.
//
// The cli package provides the Cobra-based commands: build renders the site,
// calendar and email broadcasts from the tournament list, rankings refreshes
// the ranked player list, and query prints the featured-players GraphQL query.
// It wires configuration, storage and the remote clients together.
package cli
