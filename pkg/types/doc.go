// Package types defines the shared data structures of the star index:
// repository records, upstream payloads, search results, and the domain
// errors that cross package boundaries.
package types
