// Package notifier announces newly listed tournaments.
//
// The Twitter notifier posts one tweet per tournament through the v1.1
// statuses API with OAuth1 user credentials. The dry-run notifier prints the
// tweets instead.
package notifier
