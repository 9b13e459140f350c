package form

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"time"
)

// Identity is the token a Structure is cached under
type Identity string

// String returns the raw token
func (i Identity) String() string {
	return string(i)
}

var googleFormID = regexp.MustCompile(`/d/e/([^/?#]+)`)

// IdentityFromURL derives the identity of a form. Google Forms URLs yield their
// published form id, anything else a short hash of the full URL.
func IdentityFromURL(rawURL string) Identity {
	if m := googleFormID.FindStringSubmatch(rawURL); len(m) == 2 {
		return Identity(m[1])
	}
	sum := md5.Sum([]byte(rawURL))
	return Identity(hex.EncodeToString(sum[:])[:10])
}

// HiddenInput is a hidden form value posted back with every response
type HiddenInput struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Submission describes where and how answers are sent
type Submission struct {
	Action string        `json:"action" yaml:"action"`
	Method string        `json:"method" yaml:"method"`
	Hidden []HiddenInput `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// Structure is the extracted shape of one form
type Structure struct {
	Identity    Identity   `json:"identity" yaml:"identity"`
	URL         string     `json:"url" yaml:"url"`
	Title       string     `json:"title,omitempty" yaml:"title,omitempty"`
	Fields      []Field    `json:"fields" yaml:"fields"`
	Submission  Submission `json:"submission" yaml:"submission"`
	ExtractedAt time.Time  `json:"extracted_at" yaml:"extracted_at"`
}

// Validate checks every field and the uniqueness of field ids
func (s *Structure) Validate() error {
	if s.Identity == "" {
		return fmt.Errorf("%w: structure has no identity", ErrInvalidField)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if err := f.Validate(); err != nil {
			return err
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("%w: duplicate field id %s", ErrInvalidField, f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	return nil
}

// Field looks up a field by id
func (s *Structure) Field(id string) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Required returns the required fields in document order
func (s *Structure) Required() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// Age returns how long ago the structure was extracted
func (s *Structure) Age(now time.Time) time.Duration {
	return now.Sub(s.ExtractedAt)
}

// Equal compares two structures ignoring the extraction time
func (s *Structure) Equal(other *Structure) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Identity != other.Identity || s.URL != other.URL || s.Title != other.Title {
		return false
	}
	if s.Submission.Action != other.Submission.Action ||
		s.Submission.Method != other.Submission.Method ||
		!slices.Equal(s.Submission.Hidden, other.Submission.Hidden) {
		return false
	}
	return slices.EqualFunc(s.Fields, other.Fields, Field.Equal)
}
