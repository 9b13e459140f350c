package generate

import (
	"net/url"
	"sort"

	"github.com/GriffinCanCode/formfill/internal/form"
)

// Answers maps field ids to answer values. Checkbox fields may carry
// several values; every other type carries one.
type Answers map[string][]string

// Values returns the answers as form values, one key per field with
// repeated values for checkboxes.
func (a Answers) Values() url.Values {
	v := make(url.Values, len(a))
	for id, vals := range a {
		v[id] = append([]string(nil), vals...)
	}
	return v
}

// IDs returns the answered field ids in sorted order.
func (a Answers) IDs() []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Missing lists required fields of s with no answer.
func (a Answers) Missing(s *form.Structure) []string {
	var out []string
	for _, f := range s.Required() {
		if len(a[f.ID]) == 0 {
			out = append(out, f.ID)
		}
	}
	return out
}
