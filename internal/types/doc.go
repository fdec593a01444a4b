// Package types defines the records that flow through an audit run: normalized
// requirement rows, session and user records from the warehouse, and the mismatch
// records handed to the notifier.
//
//nolint:revive // types is a standard Go package name pattern
package types
