package generate

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/GriffinCanCode/formfill/internal/form"
	"gonum.org/v1/gonum/stat/distuv"
)

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the output reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
}

// Generator draws answers. It is safe for concurrent use.
type Generator struct {
	policy Policy

	mu  sync.Mutex
	src rand.Source
	rng *rand.Rand
}

// New creates a Generator after validating the policy.
func New(p Policy, opts ...Option) (*Generator, error) {
	if len(p.Words) == 0 {
		p.Words = DefaultWords
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation policy: %w", err)
	}
	g := &Generator{policy: p}
	for _, opt := range opts {
		opt(g)
	}
	if g.src == nil {
		g.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	g.rng = rand.New(g.src)
	return g, nil
}

// Policy returns the generator's policy.
func (g *Generator) Policy() Policy {
	return g.policy
}

// Generate answers s. Every required field is answered; optional fields are
// answered with probability Policy.FillOptional.
func (g *Generator) Generate(s *form.Structure) Answers {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(Answers, len(s.Fields))
	for _, f := range s.Fields {
		if !f.Required && g.rng.Float64() >= g.policy.FillOptional {
			continue
		}
		if vals := g.field(f); len(vals) > 0 {
			out[f.ID] = vals
		}
	}
	return out
}

// Field answers a single field regardless of whether it is required.
func (g *Generator) Field(f form.Field) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.field(f)
}

func (g *Generator) field(f form.Field) []string {
	switch f.Type {
	case form.FieldRadio, form.FieldDropdown:
		if len(f.Options) == 0 {
			return nil
		}
		return []string{f.Options[g.rng.IntN(len(f.Options))]}
	case form.FieldCheckbox:
		return g.subset(f.Options)
	case form.FieldShortText:
		return []string{g.phrase()}
	case form.FieldParagraph:
		return []string{g.paragraph()}
	case form.FieldDate:
		return []string{g.date()}
	case form.FieldTime:
		return []string{fmt.Sprintf("%02d:%02d", g.rng.IntN(24), g.rng.IntN(60))}
	case form.FieldLinearScale:
		if f.Scale == nil {
			return nil
		}
		n := f.Scale.Points()
		if n < 1 {
			return nil
		}
		k := g.rng.IntN(n)
		return []string{strconv.Itoa(f.Scale.Min + f.Scale.Step*k)}
	default:
		return nil
	}
}

// subset picks a non-empty subset of options, kept in option order.
func (g *Generator) subset(options []string) []string {
	n := len(options)
	if n == 0 {
		return nil
	}
	k := g.subsetSize(n)
	picked := g.rng.Perm(n)[:k]
	chosen := make([]bool, n)
	for _, i := range picked {
		chosen[i] = true
	}
	out := make([]string, 0, k)
	for i, opt := range options {
		if chosen[i] {
			out = append(out, opt)
		}
	}
	return out
}

func (g *Generator) subsetSize(n int) int {
	cb := g.policy.Checkbox
	if cb.Distribution == Binomial {
		b := distuv.Binomial{N: float64(n), P: cb.P, Src: g.src}
		return min(max(int(b.Rand()), 1), n)
	}
	upper := max(1, int(float64(n)*cb.MaxFraction))
	return 1 + g.rng.IntN(min(upper, n))
}

func (g *Generator) phrase() string {
	p := g.policy
	k := p.MinWords + g.rng.IntN(p.MaxWords-p.MinWords+1)
	idx := g.rng.Perm(len(p.Words))[:k]
	words := make([]string, k)
	for i, j := range idx {
		words[i] = p.Words[j]
	}
	return strings.Join(words, " ")
}

func (g *Generator) paragraph() string {
	sentences := make([]string, g.policy.Sentences)
	for i := range sentences {
		s := g.phrase()
		r, size := utf8.DecodeRuneInString(s)
		sentences[i] = string(unicode.ToUpper(r)) + s[size:] + "."
	}
	return strings.Join(sentences, " ")
}

func (g *Generator) date() string {
	from := g.policy.DateFrom.UTC().Truncate(24 * time.Hour)
	days := int(g.policy.DateTo.UTC().Sub(from).Hours() / 24)
	return from.AddDate(0, 0, g.rng.IntN(days+1)).Format("2006-01-02")
}
