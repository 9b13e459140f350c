// Command formfill extracts the structure of web forms, generates answers
// for them and submits those answers in bulk.
//
// Usage:
//
//	formfill extract URL [--refresh] [--output json|yaml]
//	formfill generate URL [--count N] [--seed S]
//	formfill submit URL COUNT [--dry-run] [--delay-min D] [--delay-max D]
//	formfill cache list [--match GLOB]
//	formfill cache clear [URL] [--match GLOB]
//	formfill serve [--addr HOST:PORT]
//
// Configuration is read from FORMFILL_* environment variables and an
// optional TOML file given with --config; flags override both.
package main
