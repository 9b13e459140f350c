package form

import (
	"fmt"
	"math"
	"slices"
)

// FieldType identifies the kind of a form question
type FieldType string

const (
	FieldRadio       FieldType = "radio"
	FieldCheckbox    FieldType = "checkbox"
	FieldDropdown    FieldType = "dropdown"
	FieldShortText   FieldType = "short_text"
	FieldParagraph   FieldType = "paragraph"
	FieldDate        FieldType = "date"
	FieldTime        FieldType = "time"
	FieldLinearScale FieldType = "linear_scale"
)

// FieldTypes lists every recognized type in a stable order
var FieldTypes = []FieldType{
	FieldRadio,
	FieldCheckbox,
	FieldDropdown,
	FieldShortText,
	FieldParagraph,
	FieldDate,
	FieldTime,
	FieldLinearScale,
}

// ParseFieldType converts a string into a FieldType
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(s)
	if !slices.Contains(FieldTypes, t) {
		return "", fmt.Errorf("%w: unknown field type %q", ErrInvalidField, s)
	}
	return t, nil
}

// IsChoice reports whether answers are picked from Options
func (t FieldType) IsChoice() bool {
	switch t {
	case FieldRadio, FieldCheckbox, FieldDropdown:
		return true
	default:
		return false
	}
}

// String returns the wire name of the type
func (t FieldType) String() string {
	return string(t)
}

// Scale is the numeric range of a linear scale question
type Scale struct {
	Min  int `json:"min" yaml:"min"`
	Max  int `json:"max" yaml:"max"`
	Step int `json:"step" yaml:"step"`
}

// Contains reports whether v lies on the scale
func (s Scale) Contains(v int) bool {
	if s.Points() == 0 {
		return false
	}
	return v >= s.Min && v <= s.Max && (v-s.Min)%s.Step == 0
}

// Points returns the number of selectable values, or 0 for an invalid scale
func (s Scale) Points() int {
	span, ok := s.span()
	if !ok || s.Step <= 0 || span/s.Step == math.MaxInt {
		return 0
	}
	return span/s.Step + 1
}

// span returns Max-Min; ok is false when Min >= Max or the difference
// does not fit in an int.
func (s Scale) span() (int, bool) {
	d := s.Max - s.Min
	return d, s.Min < s.Max && d > 0
}

// Validate checks that the scale has a positive step that divides its range
// and that its points can be counted without overflow.
func (s Scale) Validate() error {
	if s.Step <= 0 {
		return fmt.Errorf("scale step must be positive, got %d", s.Step)
	}
	if s.Min >= s.Max {
		return fmt.Errorf("scale min %d must be below max %d", s.Min, s.Max)
	}
	span, ok := s.span()
	if !ok || span/s.Step == math.MaxInt {
		return fmt.Errorf("scale range %d..%d is too wide", s.Min, s.Max)
	}
	if span%s.Step != 0 {
		return fmt.Errorf("scale range %d..%d is not a multiple of step %d", s.Min, s.Max, s.Step)
	}
	return nil
}

// Field is one normalized form question
type Field struct {
	ID       string    `json:"id" yaml:"id"`
	Type     FieldType `json:"type" yaml:"type"`
	Label    string    `json:"label" yaml:"label"`
	Options  []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Required bool      `json:"required" yaml:"required"`
	Scale    *Scale    `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Validate checks the option and scale invariants of the field
func (f Field) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidField)
	}
	if _, err := ParseFieldType(string(f.Type)); err != nil {
		return fmt.Errorf("field %s: %w", f.ID, err)
	}

	if f.Type.IsChoice() && len(f.Options) == 0 {
		return fmt.Errorf("%w: %s field %s has no options", ErrInvalidField, f.Type, f.ID)
	}
	if !f.Type.IsChoice() && len(f.Options) > 0 {
		return fmt.Errorf("%w: %s field %s must not carry options", ErrInvalidField, f.Type, f.ID)
	}

	if f.Type == FieldLinearScale {
		if f.Scale == nil {
			return fmt.Errorf("%w: linear scale %s has no range", ErrInvalidField, f.ID)
		}
		if err := f.Scale.Validate(); err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrInvalidField, f.ID, err)
		}
	} else if f.Scale != nil {
		return fmt.Errorf("%w: %s field %s must not carry a scale", ErrInvalidField, f.Type, f.ID)
	}
	return nil
}

// Equal reports whether two fields describe the same question
func (f Field) Equal(other Field) bool {
	if f.ID != other.ID || f.Type != other.Type || f.Label != other.Label || f.Required != other.Required {
		return false
	}
	if !slices.Equal(f.Options, other.Options) {
		return false
	}
	switch {
	case f.Scale == nil && other.Scale == nil:
		return true
	case f.Scale == nil || other.Scale == nil:
		return false
	default:
		return *f.Scale == *other.Scale
	}
}
