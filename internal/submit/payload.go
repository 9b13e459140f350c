package submit

import (
	"net/url"
	"slices"
	"strings"

	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/GriffinCanCode/formfill/internal/generate"
)

// Pair is one key/value of a submission body.
type Pair struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Payload is an ordered submission body. Keys may repeat.
type Payload []Pair

// BuildPayload lays out hidden inputs first, then answers in field order.
// Answers for ids the structure does not know are appended last, sorted.
func BuildPayload(s *form.Structure, answers generate.Answers) Payload {
	p := make(Payload, 0, len(s.Submission.Hidden)+len(answers))
	for _, h := range s.Submission.Hidden {
		p = append(p, Pair{Key: h.Name, Value: h.Value})
	}

	known := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		known[f.ID] = struct{}{}
		for _, v := range answers[f.ID] {
			p = append(p, Pair{Key: f.ID, Value: v})
		}
	}

	var extra []string
	for id := range answers {
		if _, ok := known[id]; !ok {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)
	for _, id := range extra {
		for _, v := range answers[id] {
			p = append(p, Pair{Key: id, Value: v})
		}
	}
	return p
}

// Encode renders the payload as application/x-www-form-urlencoded,
// preserving order.
func (p Payload) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// Values converts the payload to url.Values.
func (p Payload) Values() url.Values {
	v := make(url.Values)
	for _, kv := range p {
		v.Add(kv.Key, kv.Value)
	}
	return v
}
