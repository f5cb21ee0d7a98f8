// Package common defines shared constants and sentinel errors used across
// the adapter components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Target-store errors. ErrorConsistency means the store's state changed
	// between the existence check and the action that relied on it.
	ErrorConsistency = errors.New("consistency violation")

	// Fetcher errors: transport failure or a protocol-level error response
	// from the remote OAI-PMH provider.
	ErrorFetchFailed = errors.New("fetch failed")

	// Record-level errors (malformed header, datestamp, or payload within
	// an otherwise successful page).
	ErrorRecordParse = errors.New("record parse failed")

	// Auth errors (invalid or malformed member-node token).
	ErrInvalidToken = errors.New("invalid token")
)
