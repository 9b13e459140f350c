// Package cache persists extracted form structures on disk, one file per
// form identity, so repeated runs against the same form skip extraction.
//
// Entries are JSON envelopes, optionally zstd compressed. An entry is served
// only while it is fresh, matches the requested identity and decodes to a
// valid structure; anything else is reported as a miss and the caller
// re-extracts.
package cache
