package extract

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/GriffinCanCode/formfill/internal/page"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// UnknownPolicy decides what happens to a question with no matching type.
type UnknownPolicy string

const (
	UnknownSkip UnknownPolicy = "skip"
	UnknownFail UnknownPolicy = "fail"
)

// ParseUnknownPolicy parses "skip" or "fail".
func ParseUnknownPolicy(s string) (UnknownPolicy, error) {
	switch p := UnknownPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case UnknownSkip, UnknownFail:
		return p, nil
	case "":
		return UnknownSkip, nil
	default:
		return "", fmt.Errorf("unknown field policy %q: want skip or fail", s)
	}
}

// Options configures an Extractor.
type Options struct {
	Unknown UnknownPolicy
	Logger  *zap.Logger
	Now     func() time.Time
}

// Extractor maps pages to structures. It is safe for concurrent use.
type Extractor struct {
	unknown   UnknownPolicy
	log       *zap.Logger
	now       func() time.Time
	sanitizer *bluemonday.Policy
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	if opts.Unknown == "" {
		opts.Unknown = UnknownSkip
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Extractor{
		unknown:   opts.Unknown,
		log:       opts.Logger,
		now:       opts.Now,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// candidate is one detected question before the unknown policy is applied.
type candidate struct {
	field form.Field
	// unsupported is set when no FieldType matched.
	unsupported *form.UnsupportedFieldTypeError
}

// Extract reads the questions of p in document order.
func (x *Extractor) Extract(p page.Page) (*form.Structure, error) {
	fail := func(reason string, err error) error {
		return &form.ExtractionError{URL: p.URL(), Reason: reason, Err: err}
	}

	containers, err := p.Find(googleItemSelector)
	if err != nil {
		return nil, fail("query page", err)
	}

	var candidates []candidate
	layout := "google"
	if len(containers) > 0 {
		candidates = x.googleCandidates(containers)
	} else {
		layout = "html"
		forms, err := p.Find("form")
		if err != nil {
			return nil, fail("query page", err)
		}
		if len(forms) == 0 {
			return nil, fail("no form element or question containers", form.ErrNoForm)
		}
		candidates = x.plainCandidates(forms[0])
	}

	fields := make([]form.Field, 0, len(candidates))
	for _, c := range candidates {
		if c.unsupported == nil {
			fields = append(fields, c.field)
			continue
		}
		if x.unknown == UnknownFail {
			return nil, fail("unsupported question", c.unsupported)
		}
		x.log.Warn("Skipping unsupported question",
			zap.String("url", p.URL()),
			zap.String("field_id", c.unsupported.FieldID),
			zap.String("label", c.unsupported.Label),
			zap.String("hint", c.unsupported.Hint))
	}
	if len(fields) == 0 {
		return nil, fail("no questions found", form.ErrNoForm)
	}

	submission, err := x.submission(p)
	if err != nil {
		return nil, fail("read submission metadata", err)
	}

	s := &form.Structure{
		Identity:    form.IdentityFromURL(p.URL()),
		URL:         p.URL(),
		Title:       x.clean(p.Title()),
		Fields:      fields,
		Submission:  submission,
		ExtractedAt: x.now().UTC(),
	}
	if err := s.Validate(); err != nil {
		return nil, fail("invalid structure", err)
	}

	x.log.Debug("Extracted form structure",
		zap.String("url", s.URL),
		zap.String("layout", layout),
		zap.String("identity", s.Identity.String()),
		zap.Int("fields", len(s.Fields)),
		zap.Int("skipped", len(candidates)-len(fields)))
	return s, nil
}

// submission reads the form action, method and hidden inputs.
func (x *Extractor) submission(p page.Page) (form.Submission, error) {
	sub := form.Submission{Method: "POST"}

	forms, err := p.Find("form")
	if err != nil {
		return sub, err
	}
	action := ""
	if len(forms) > 0 {
		action, _ = forms[0].Attr("action")
		if m, ok := forms[0].Attr("method"); ok && strings.TrimSpace(m) != "" {
			sub.Method = strings.ToUpper(strings.TrimSpace(m))
		}
	}
	if action == "" {
		action = defaultAction(p.URL())
	}
	sub.Action, err = resolve(p.URL(), action)
	if err != nil {
		return sub, err
	}

	hidden, err := p.XPath(`//form//input[@type='hidden'][@name]`)
	if err != nil {
		return sub, err
	}
	seen := make(map[string]struct{})
	for _, h := range hidden {
		name, _ := h.Attr("name")
		if name == "" || strings.HasPrefix(name, "entry.") {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		value, _ := h.Attr("value")
		sub.Hidden = append(sub.Hidden, form.HiddenInput{Name: name, Value: value})
	}
	return sub, nil
}

// defaultAction guesses the response endpoint of a Google form view URL.
func defaultAction(pageURL string) string {
	if strings.Contains(pageURL, "/viewform") {
		return strings.Replace(strings.SplitN(pageURL, "?", 2)[0], "/viewform", "/formResponse", 1)
	}
	return pageURL
}

func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parse form action: %w", err)
	}
	return b.ResolveReference(r).String(), nil
}

// clean strips markup from display text.
func (x *Extractor) clean(s string) string {
	return cleanText(x.sanitizer, s)
}
