package generate

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allTypes() *form.Structure {
	return &form.Structure{
		Identity: "all",
		Fields: []form.Field{
			{ID: "entry.1", Type: form.FieldRadio, Options: []string{"A", "B", "C"}, Required: true},
			{ID: "entry.2", Type: form.FieldCheckbox, Options: []string{"a", "b", "c", "d", "e", "f"}},
			{ID: "entry.3", Type: form.FieldDropdown, Options: []string{"x", "y"}},
			{ID: "entry.4", Type: form.FieldShortText, Required: true},
			{ID: "entry.5", Type: form.FieldParagraph},
			{ID: "entry.6", Type: form.FieldDate},
			{ID: "entry.7", Type: form.FieldTime},
			{ID: "entry.8", Type: form.FieldLinearScale, Scale: &form.Scale{Min: 0, Max: 10, Step: 2}},
		},
	}
}

func newGen(t *testing.T, p Policy, opts ...Option) *Generator {
	t.Helper()
	g, err := New(p, opts...)
	require.NoError(t, err)
	return g
}

func TestGenerateTwoRequiredEntries(t *testing.T) {
	s := &form.Structure{
		Identity: "x",
		Fields: []form.Field{
			{ID: "entry.1", Type: form.FieldRadio, Options: []string{"A", "B"}, Required: true},
			{ID: "entry.2", Type: form.FieldShortText, Required: true},
		},
	}
	g := newGen(t, DefaultPolicy())

	for i := 0; i < 50; i++ {
		a := g.Generate(s)
		require.Len(t, a, 2)
		assert.Contains(t, []string{"A", "B"}, a["entry.1"][0])
		require.Len(t, a["entry.2"], 1)
		assert.NotEmpty(t, a["entry.2"][0])
	}
}

func TestGenerateValuesAreValid(t *testing.T) {
	g := newGen(t, DefaultPolicy(), WithSeed(7))
	s := allTypes()
	datePattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern := regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	for i := 0; i < 200; i++ {
		a := g.Generate(s)
		assert.Len(t, a, len(s.Fields), "default policy answers every field")

		assert.Contains(t, s.Fields[0].Options, a["entry.1"][0])
		assert.Contains(t, s.Fields[2].Options, a["entry.3"][0])

		// checkbox: non-empty, at most half, distinct, in option order
		boxes := a["entry.2"]
		assert.NotEmpty(t, boxes)
		assert.LessOrEqual(t, len(boxes), 3)
		assert.True(t, slices.IsSortedFunc(boxes, func(x, y string) int {
			return slices.Index(s.Fields[1].Options, x) - slices.Index(s.Fields[1].Options, y)
		}))
		assert.Len(t, slices.Compact(slices.Clone(boxes)), len(boxes))

		words := strings.Fields(a["entry.4"][0])
		assert.GreaterOrEqual(t, len(words), 2)
		assert.LessOrEqual(t, len(words), 5)
		for _, w := range words {
			assert.Contains(t, DefaultWords, w)
		}

		para := a["entry.5"][0]
		assert.True(t, strings.HasSuffix(para, "."))
		assert.Equal(t, 2, strings.Count(para, "."))

		date := a["entry.6"][0]
		require.Regexp(t, datePattern, date)
		d, err := time.Parse("2006-01-02", date)
		require.NoError(t, err)
		assert.False(t, d.Before(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))
		assert.False(t, d.After(time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC)))

		assert.Regexp(t, timePattern, a["entry.7"][0])

		v, err := strconv.Atoi(a["entry.8"][0])
		require.NoError(t, err)
		assert.True(t, s.Fields[7].Scale.Contains(v), "scale value %d", v)
	}
}

func TestScaleCoversEveryPoint(t *testing.T) {
	g := newGen(t, DefaultPolicy(), WithSeed(1))
	f := form.Field{ID: "s", Type: form.FieldLinearScale, Scale: &form.Scale{Min: 1, Max: 5, Step: 1}}

	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		seen[g.Field(f)[0]] = true
	}
	assert.Len(t, seen, 5)
}

func TestOverflowingScaleIsNotAnswered(t *testing.T) {
	g := newGen(t, DefaultPolicy(), WithSeed(1))
	for _, sc := range []form.Scale{
		{Min: math.MinInt, Max: math.MaxInt, Step: 1},
		{Min: math.MinInt/2 - 1, Max: math.MaxInt/2 + 2, Step: 3},
		{Min: 5, Max: 1, Step: 1},
	} {
		f := form.Field{ID: "s", Type: form.FieldLinearScale, Scale: &sc}
		assert.NotPanics(t, func() { assert.Nil(t, g.Field(f)) }, "%+v", sc)
	}
}

func TestParagraphCapitalisesFirstLetter(t *testing.T) {
	p := DefaultPolicy()
	p.Words = []string{"élan", "über", "ñandú"}
	p.MinWords, p.MaxWords, p.Sentences = 1, 1, 3
	g := newGen(t, p, WithSeed(7))
	f := form.Field{ID: "p", Type: form.FieldParagraph}

	for i := 0; i < 20; i++ {
		text := g.Field(f)[0]
		for _, sentence := range strings.Split(text, " ") {
			assert.Contains(t, []string{"Élan.", "Über.", "Ñandú."}, sentence)
		}
	}
}

func TestRequiredAlwaysAnswered(t *testing.T) {
	p := DefaultPolicy()
	p.FillOptional = 0
	g := newGen(t, p)
	s := allTypes()

	for i := 0; i < 100; i++ {
		a := g.Generate(s)
		assert.Empty(t, a.Missing(s))
		assert.Equal(t, []string{"entry.1", "entry.4"}, a.IDs(), "optional fields are left blank")
	}
}

func TestSeededDeterminism(t *testing.T) {
	s := allTypes()
	a := newGen(t, DefaultPolicy(), WithSeed(42))
	b := newGen(t, DefaultPolicy(), WithSeed(42))
	c := newGen(t, DefaultPolicy(), WithSeed(43))

	same, differs := true, false
	for i := 0; i < 20; i++ {
		x, y, z := a.Generate(s), b.Generate(s), c.Generate(s)
		same = same && assert.Equal(t, x, y)
		if !assert.ObjectsAreEqual(x, z) {
			differs = true
		}
	}
	assert.True(t, same)
	assert.True(t, differs, "different seeds should diverge")
}

func TestBinomialCheckbox(t *testing.T) {
	p := DefaultPolicy()
	p.Checkbox = CheckboxPolicy{Distribution: Binomial, P: 0.9}
	g := newGen(t, p, WithSeed(3))
	f := form.Field{ID: "c", Type: form.FieldCheckbox, Options: []string{"a", "b", "c", "d"}}

	total := 0
	for i := 0; i < 400; i++ {
		vals := g.Field(f)
		require.NotEmpty(t, vals)
		require.LessOrEqual(t, len(vals), 4)
		total += len(vals)
	}
	// mean of Binomial(4, 0.9) is 3.6, well above the uniform cap of 2
	assert.Greater(t, float64(total)/400, 3.0)
}

func TestSingleOptionCheckbox(t *testing.T) {
	g := newGen(t, DefaultPolicy())
	f := form.Field{ID: "c", Type: form.FieldCheckbox, Options: []string{"only"}}
	assert.Equal(t, []string{"only"}, g.Field(f))
}

func TestAnswersValues(t *testing.T) {
	a := Answers{"entry.1": {"x"}, "entry.2": {"a", "b"}}
	v := a.Values()
	assert.Equal(t, "x", v.Get("entry.1"))
	assert.Equal(t, []string{"a", "b"}, v["entry.2"])

	v["entry.2"][0] = "changed"
	assert.Equal(t, "a", a["entry.2"][0])
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"fill optional", func(p *Policy) { p.FillOptional = 2 }},
		{"max fraction", func(p *Policy) { p.Checkbox.MaxFraction = 0 }},
		{"binomial p", func(p *Policy) { p.Checkbox = CheckboxPolicy{Distribution: Binomial, P: 0} }},
		{"distribution", func(p *Policy) { p.Checkbox.Distribution = "poisson" }},
		{"word range", func(p *Policy) { p.MinWords, p.MaxWords = 4, 3 }},
		{"too few words", func(p *Policy) { p.Words = []string{"a", "b"} }},
		{"blank word", func(p *Policy) { p.Words = append(slices.Clone(p.Words), " ") }},
		{"sentences", func(p *Policy) { p.Sentences = 0 }},
		{"dates", func(p *Policy) { p.DateTo = p.DateFrom.AddDate(-1, 0, 0) }},
	}
	require.NoError(t, DefaultPolicy().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			_, err := New(p)
			assert.Error(t, err)
		})
	}
}

func TestParseDistribution(t *testing.T) {
	d, err := ParseDistribution("binomial")
	require.NoError(t, err)
	assert.Equal(t, Binomial, d)

	d, err = ParseDistribution("")
	require.NoError(t, err)
	assert.Equal(t, Uniform, d)

	_, err = ParseDistribution("zipf")
	assert.Error(t, err)
}
