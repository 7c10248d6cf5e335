package types

import "errors"

// Domain errors shared across packages
var (
	// ErrFetchFailed indicates a transport-level failure talking to the
	// upstream API. Recoverable: the item is counted as failed and the
	// batch continues.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrReadmeNotFound indicates no README candidate exists upstream.
	// Not a failure: the record indexes with empty readme content.
	ErrReadmeNotFound = errors.New("readme not found")
)
