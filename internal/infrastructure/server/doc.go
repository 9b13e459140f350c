// Package server assembles the gin router of the formfill API and runs it
// with graceful shutdown.
package server
