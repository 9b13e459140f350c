// Package form defines the normalized form model shared by every formfill component.
//
// Core Types:
//   - FieldType: closed set of recognized question kinds
//   - Field: one normalized question (id, type, label, options, scale)
//   - Structure: ordered fields plus identity, submission target and extraction time
//   - Identity: cache key derived from a form URL
//
// Error Types:
//   - ExtractionError: the page could not be turned into a Structure
//   - UnsupportedFieldTypeError: a question maps to no FieldType
//   - CacheCorruptionError: a persisted Structure could not be read back
//
// Example Usage:
//
//	field := form.Field{ID: "entry.1", Type: form.FieldRadio, Label: "Pick one", Options: []string{"A", "B"}}
//	if err := field.Validate(); err != nil {
//	    return err
//	}
package form
