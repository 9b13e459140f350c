package extract

import (
	"strings"

	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/GriffinCanCode/formfill/internal/page"
)

const (
	googleItemSelector = `div[role=listitem]`
	shortTextSelector  = `input[type=text], input[type=email], input[type=number], input[type=tel], input[type=url]`
)

func (x *Extractor) googleCandidates(containers []page.Element) []candidate {
	var out []candidate
	for _, c := range containers {
		named := c.Find(`[name^="entry."]`)
		if len(named) == 0 {
			// titles, images and section headers carry no entry
			continue
		}
		name, _ := named[0].Attr("name")
		f := form.Field{
			ID:       entryID(name),
			Label:    x.googleLabel(c, named[0]),
			Required: googleRequired(c),
		}
		if hint := x.classifyGoogle(c, &f); hint != "" {
			out = append(out, candidate{unsupported: &form.UnsupportedFieldTypeError{
				FieldID: f.ID,
				Label:   f.Label,
				Hint:    hint,
			}})
			continue
		}
		out = append(out, candidate{field: f})
	}
	return out
}

// classifyGoogle sets the type, options and scale of f. It returns a hint
// describing the question when no type matches.
func (x *Extractor) classifyGoogle(c page.Element, f *form.Field) string {
	radios := c.Find(`[role=radio]`)
	radioValues := optionValues(radios, googleOptionValue)

	if min, max, step, ok := scaleOf(radioValues); ok && isScale(c, radios) {
		f.Type = form.FieldLinearScale
		f.Scale = &form.Scale{Min: min, Max: max, Step: step}
		return ""
	}
	if len(radios) > 0 {
		return setChoice(f, form.FieldRadio, radioValues)
	}
	if boxes := c.Find(`[role=checkbox]`); len(boxes) > 0 {
		return setChoice(f, form.FieldCheckbox, optionValues(boxes, googleOptionValue))
	}
	if sel := c.Find(`select`); len(sel) > 0 {
		return setChoice(f, form.FieldDropdown, optionValues(sel[0].Find("option"), selectOptionValue))
	}
	if lb := c.Find(`[role=listbox]`); len(lb) > 0 {
		return setChoice(f, form.FieldDropdown, optionValues(lb[0].Find(`[role=option]`), googleOptionValue))
	}
	switch {
	case len(c.Find(`input[type=date]`)) > 0:
		f.Type = form.FieldDate
	case len(c.Find(`input[type=time]`)) > 0:
		f.Type = form.FieldTime
	case len(c.Find(shortTextSelector)) > 0:
		f.Type = form.FieldShortText
	case len(c.Find(`textarea`)) > 0:
		f.Type = form.FieldParagraph
	default:
		return describeControls(c)
	}
	return ""
}

func setChoice(f *form.Field, t form.FieldType, options []string) string {
	if len(options) == 0 {
		return string(t) + " question without options"
	}
	f.Type = t
	f.Options = options
	return ""
}

// isScale tells a linear scale from a radio question with numeric answers:
// a scale is marked with data-scale or has anchor labels inside its
// radiogroup besides the numbers themselves.
func isScale(c page.Element, radios []page.Element) bool {
	if c.Is(`[data-scale]`) || len(c.Find(`[data-scale]`)) > 0 {
		return true
	}
	groups := c.Find(`[role=radiogroup]`)
	if len(groups) == 0 {
		return false
	}
	rest := groups[0].Text()
	for _, r := range radios {
		rest = strings.Replace(rest, r.Text(), "", 1)
		rest = strings.Replace(rest, googleOptionValue(r), "", 1)
	}
	return strings.IndexFunc(rest, isLetter) >= 0
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r > 127
}

func googleOptionValue(e page.Element) string {
	return attr(e, "data-value", "aria-label", "value")
}

func selectOptionValue(e page.Element) string {
	if v, ok := e.Attr("value"); ok {
		return v
	}
	return e.Text()
}

func (x *Extractor) googleLabel(c, control page.Element) string {
	if h := c.Find(`[role=heading]`); len(h) > 0 {
		if l := x.clean(h[0].Text()); l != "" {
			return l
		}
	}
	if l := x.clean(attr(control, "aria-label")); l != "" {
		return l
	}
	name, _ := control.Attr("name")
	return entryID(name)
}

func googleRequired(c page.Element) bool {
	if len(c.Find(`[aria-required=true], [required]`)) > 0 {
		return true
	}
	if len(c.Find(`[aria-label="Required question"]`)) > 0 {
		return true
	}
	return strings.Contains(c.Text(), "Required question")
}

// describeControls summarises the controls of an unrecognised question.
func describeControls(c page.Element) string {
	var kinds []string
	for _, e := range c.Find(`input, select, textarea, [role]`) {
		kind := e.Tag()
		if t, ok := e.Attr("type"); ok {
			kind += "[type=" + t + "]"
		} else if r, ok := e.Attr("role"); ok {
			kind += "[role=" + r + "]"
		}
		kinds = append(kinds, kind)
	}
	if len(kinds) == 0 {
		return "no answer controls"
	}
	return "controls: " + strings.Join(kinds, ", ")
}
