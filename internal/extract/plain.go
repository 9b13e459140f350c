package extract

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/GriffinCanCode/formfill/internal/page"
)

// controlGroup is the set of controls sharing one name.
type controlGroup struct {
	name     string
	controls []page.Element
}

// notQuestion lists input types that never carry an answer.
var notQuestion = map[string]bool{
	"hidden": true,
	"submit": true,
	"button": true,
	"reset":  true,
	"image":  true,
}

var textInputs = map[string]bool{
	"text":   true,
	"email":  true,
	"tel":    true,
	"url":    true,
	"search": true,
	"number": true,
}

func (x *Extractor) plainCandidates(formEl page.Element) []candidate {
	var groups []*controlGroup
	byName := make(map[string]*controlGroup)

	for i, ctl := range formEl.Find(`input, select, textarea`) {
		if ctl.Tag() == "input" && notQuestion[inputType(ctl)] {
			continue
		}
		name := attr(ctl, "name", "id")
		if name == "" {
			name = fmt.Sprintf("field-%d", i)
		}
		g, ok := byName[name]
		if !ok {
			g = &controlGroup{name: name}
			byName[name] = g
			groups = append(groups, g)
		}
		g.controls = append(g.controls, ctl)
	}

	out := make([]candidate, 0, len(groups))
	for _, g := range groups {
		f := form.Field{ID: g.name, Required: anyRequired(g.controls)}
		if hint := x.classifyPlain(g, &f); hint != "" {
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

func (x *Extractor) classifyPlain(g *controlGroup, f *form.Field) string {
	first := g.controls[0]
	switch first.Tag() {
	case "select":
		f.Label = x.controlLabel(first, g.name)
		t := form.FieldDropdown
		if hasAttr(first, "multiple") {
			t = form.FieldCheckbox
		}
		return setChoice(f, t, optionValues(first.Find("option"), selectOptionValue))
	case "textarea":
		f.Label = x.controlLabel(first, g.name)
		f.Type = form.FieldParagraph
		return ""
	}

	typ := inputType(first)
	switch {
	case typ == "radio" || typ == "checkbox":
		f.Label = x.groupLabel(first, g.name)
		t := form.FieldRadio
		if typ == "checkbox" {
			t = form.FieldCheckbox
		}
		return setChoice(f, t, optionValues(g.controls, checkableValue))
	case textInputs[typ]:
		f.Type = form.FieldShortText
	case typ == "date":
		f.Type = form.FieldDate
	case typ == "time":
		f.Type = form.FieldTime
	case typ == "range":
		f.Label = x.controlLabel(first, g.name)
		return setRange(f, first)
	default:
		f.Label = x.controlLabel(first, g.name)
		return "input[type=" + typ + "]"
	}
	f.Label = x.controlLabel(first, g.name)
	return ""
}

// setRange maps a range input to a linear scale, trimming max down to the
// last reachable step.
func setRange(f *form.Field, e page.Element) string {
	lo := intAttr(e, "min", 0)
	hi := intAttr(e, "max", 100)
	step := intAttr(e, "step", 1)
	if step <= 0 {
		step = 1
	}
	if hi <= lo {
		return fmt.Sprintf("range with min %d >= max %d", lo, hi)
	}
	span := hi - lo
	if span <= 0 {
		return fmt.Sprintf("range %d..%d is too wide", lo, hi)
	}
	hi = lo + span/step*step
	if hi == lo {
		return fmt.Sprintf("range step %d larger than span", step)
	}
	scale := form.Scale{Min: lo, Max: hi, Step: step}
	if err := scale.Validate(); err != nil {
		return err.Error()
	}
	f.Type = form.FieldLinearScale
	f.Scale = &scale
	return ""
}

func inputType(e page.Element) string {
	t, ok := e.Attr("type")
	if !ok || strings.TrimSpace(t) == "" {
		return "text"
	}
	return strings.ToLower(strings.TrimSpace(t))
}

func checkableValue(e page.Element) string {
	if v, ok := e.Attr("value"); ok {
		return v
	}
	return "on"
}

func anyRequired(controls []page.Element) bool {
	for _, c := range controls {
		if hasAttr(c, "required") || attr(c, "aria-required") == "true" {
			return true
		}
	}
	return false
}

// controlLabel finds the label of a single control.
func (x *Extractor) controlLabel(e page.Element, fallback string) string {
	if id := attr(e, "id"); id != "" {
		if forms, ok := e.Closest("form"); ok {
			for _, l := range forms.Find("label[for]") {
				if v, _ := l.Attr("for"); v == id {
					if s := x.clean(l.Text()); s != "" {
						return s
					}
				}
			}
		}
	}
	if l, ok := e.Closest("label"); ok {
		text := l.Text()
		if own := e.Text(); own != "" {
			// a wrapped <select> contributes its option texts
			text = strings.Replace(text, own, "", 1)
		}
		if s := x.clean(text); s != "" {
			return s
		}
	}
	for _, a := range []string{"aria-label", "placeholder", "title"} {
		if s := x.clean(attr(e, a)); s != "" {
			return s
		}
	}
	return fallback
}

// groupLabel finds the question label of a radio or checkbox group, whose
// individual labels name options rather than the question.
func (x *Extractor) groupLabel(e page.Element, fallback string) string {
	if fs, ok := e.Closest("fieldset"); ok {
		if legend := fs.Find("legend"); len(legend) > 0 {
			if s := x.clean(legend[0].Text()); s != "" {
				return s
			}
		}
	}
	if g, ok := e.Closest(`[role=radiogroup], [role=group]`); ok {
		if s := x.clean(attr(g, "aria-label")); s != "" {
			return s
		}
	}
	return fallback
}
