package form

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidField = errors.New("invalid field")
	ErrPageUnusable = errors.New("page unusable")
	ErrNoForm       = errors.New("no form found")
)

// ExtractionError reports a page that could not be turned into a Structure
type ExtractionError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.URL, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// UnsupportedFieldTypeError reports a question that maps to no FieldType
type UnsupportedFieldTypeError struct {
	FieldID string
	Label   string
	Hint    string
}

func (e *UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("unsupported field type for %s (%q): %s", e.FieldID, e.Label, e.Hint)
}

// CacheCorruptionError reports a cached Structure that cannot be read back.
// The cache recovers from it locally by treating the entry as missing.
type CacheCorruptionError struct {
	Identity Identity
	Path     string
	Err      error
}

func (e *CacheCorruptionError) Error() string {
	return fmt.Sprintf("corrupt cache entry %s (%s): %v", e.Identity, e.Path, e.Err)
}

func (e *CacheCorruptionError) Unwrap() error {
	return e.Err
}
