// Package http exposes form extraction and answer generation over a JSON
// API. Responses are never submitted from here.
package http
