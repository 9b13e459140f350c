package generate

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Distribution selects how many checkbox options are ticked.
type Distribution string

const (
	// Uniform draws the size uniformly from [1, max(1, floor(n*MaxFraction))].
	Uniform Distribution = "uniform"
	// Binomial draws the size from Binomial(n, P), clamped to [1, n].
	Binomial Distribution = "binomial"
)

// ParseDistribution parses a distribution name.
func ParseDistribution(s string) (Distribution, error) {
	switch d := Distribution(s); d {
	case Uniform, Binomial:
		return d, nil
	case "":
		return Uniform, nil
	}
	return "", fmt.Errorf("unknown checkbox distribution %q", s)
}

// CheckboxPolicy controls checkbox subset sizes.
type CheckboxPolicy struct {
	Distribution Distribution `json:"distribution" yaml:"distribution"`
	MaxFraction  float64      `json:"max_fraction" yaml:"max_fraction"`
	P            float64      `json:"p" yaml:"p"`
}

// Policy controls answer generation.
type Policy struct {
	// FillOptional is the probability that an optional field is answered.
	FillOptional float64        `json:"fill_optional" yaml:"fill_optional"`
	Checkbox     CheckboxPolicy `json:"checkbox" yaml:"checkbox"`
	Words        []string       `json:"words,omitempty" yaml:"words,omitempty"`
	MinWords     int            `json:"min_words" yaml:"min_words"`
	MaxWords     int            `json:"max_words" yaml:"max_words"`
	Sentences    int            `json:"sentences" yaml:"sentences"`
	DateFrom     time.Time      `json:"date_from" yaml:"date_from"`
	DateTo       time.Time      `json:"date_to" yaml:"date_to"`
}

// DefaultWords is the vocabulary for free-text answers.
var DefaultWords = []string{
	"apple", "banana", "car", "dog", "energy", "finance", "goal", "happy",
	"investment", "job", "knowledge", "life", "money", "nature", "option",
	"plan", "quality", "return", "stock", "time", "value", "work", "xray",
	"young", "zebra",
}

// DefaultPolicy answers every field, ticks up to half of the checkbox
// options and draws dates from 2000 through 2030.
func DefaultPolicy() Policy {
	return Policy{
		FillOptional: 1,
		Checkbox: CheckboxPolicy{
			Distribution: Uniform,
			MaxFraction:  0.5,
			P:            0.5,
		},
		Words:     DefaultWords,
		MinWords:  2,
		MaxWords:  5,
		Sentences: 2,
		DateFrom:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:    time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

// Validate checks the policy ranges.
func (p Policy) Validate() error {
	var errs []error
	if p.FillOptional < 0 || p.FillOptional > 1 {
		errs = append(errs, fmt.Errorf("fill_optional %v outside [0,1]", p.FillOptional))
	}
	switch p.Checkbox.Distribution {
	case Uniform:
		if p.Checkbox.MaxFraction <= 0 || p.Checkbox.MaxFraction > 1 {
			errs = append(errs, fmt.Errorf("checkbox max_fraction %v outside (0,1]", p.Checkbox.MaxFraction))
		}
	case Binomial:
		if p.Checkbox.P <= 0 || p.Checkbox.P > 1 {
			errs = append(errs, fmt.Errorf("checkbox p %v outside (0,1]", p.Checkbox.P))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown checkbox distribution %q", p.Checkbox.Distribution))
	}
	if p.MinWords < 1 || p.MaxWords < p.MinWords {
		errs = append(errs, fmt.Errorf("word range %d..%d is invalid", p.MinWords, p.MaxWords))
	}
	if i := slices.IndexFunc(p.Words, func(w string) bool { return strings.TrimSpace(w) == "" }); i >= 0 {
		errs = append(errs, fmt.Errorf("word %d is blank", i))
	}
	if len(p.Words) < p.MaxWords {
		errs = append(errs, fmt.Errorf("%d words cannot supply %d distinct words", len(p.Words), p.MaxWords))
	}
	if p.Sentences < 1 {
		errs = append(errs, errors.New("sentences must be at least 1"))
	}
	if p.DateTo.Before(p.DateFrom) {
		errs = append(errs, errors.New("date_to is before date_from"))
	}
	return errors.Join(errs...)
}
