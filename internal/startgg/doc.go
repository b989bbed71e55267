// Package startgg is a client for the start.gg GraphQL API.
//
// It issues the three read queries the generator needs (tournament metadata,
// entrant count, featured-player membership) and retries transient failures
// with bounded exponential backoff. Exhausted retries surface as a
// *TransientError.
package startgg
