package extract

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/GriffinCanCode/formfill/internal/page"
	"github.com/microcosm-cc/bluemonday"
)

const otherOption = "__other_option__"

var entryName = regexp.MustCompile(`^entry\.[0-9]+`)

func cleanText(p *bluemonday.Policy, s string) string {
	s = html.UnescapeString(p.Sanitize(s))
	s = strings.Join(strings.Fields(s), " ")
	// Google appends an asterisk to required question titles
	return strings.TrimSpace(strings.TrimSuffix(s, "*"))
}

// entryID normalises a control name such as "entry.123_sentinel".
func entryID(name string) string {
	if m := entryName.FindString(name); m != "" {
		return m
	}
	id, _, _ := strings.Cut(name, "_")
	return id
}

func attr(e page.Element, names ...string) string {
	for _, n := range names {
		if v, ok := e.Attr(n); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func hasAttr(e page.Element, name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// optionValues collects the posted values of choice elements in order,
// dropping blanks, duplicates and the "other" sentinel.
func optionValues(elems []page.Element, value func(page.Element) string) []string {
	var out []string
	seen := make(map[string]struct{}, len(elems))
	for _, e := range elems {
		v := value(e)
		if strings.TrimSpace(v) == "" || v == otherOption {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// scaleOf reports whether values are at least two evenly spaced ascending
// integers, and returns the scale they span.
func scaleOf(values []string) (min, max, step int, ok bool) {
	if len(values) < 2 {
		return 0, 0, 0, false
	}
	nums := make([]int, len(values))
	for i, v := range values {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, 0, 0, false
		}
		nums[i] = n
	}
	step = nums[1] - nums[0]
	if step <= 0 {
		return 0, 0, 0, false
	}
	for i := 2; i < len(nums); i++ {
		if nums[i]-nums[i-1] != step {
			return 0, 0, 0, false
		}
	}
	if (form.Scale{Min: nums[0], Max: nums[len(nums)-1], Step: step}).Validate() != nil {
		return 0, 0, 0, false
	}
	return nums[0], nums[len(nums)-1], step, true
}

func intAttr(e page.Element, name string, def int) int {
	v, ok := e.Attr(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}
