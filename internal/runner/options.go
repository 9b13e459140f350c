package runner

import (
	"errors"
	"fmt"
	"time"
)

// DefaultConfirmPhrase is the message Google Forms shows after a response
// is accepted.
const DefaultConfirmPhrase = "Your response has been recorded"

// Options controls a bulk run.
type Options struct {
	DryRun   bool
	DelayMin time.Duration
	DelayMax time.Duration
	// Retries is the number of extra attempts per submission.
	Retries    int
	RetryDelay time.Duration
	// ConfirmPhrase must appear in the response page, ignoring case. Empty
	// accepts any 2xx response.
	ConfirmPhrase string
	// MaxConsecutiveFailures ends the run after that many failed
	// submissions in a row. Zero disables the check.
	MaxConsecutiveFailures int
}

// DefaultOptions paces submissions 0.3 to 1.5 seconds apart.
func DefaultOptions() Options {
	return Options{
		DelayMin:               300 * time.Millisecond,
		DelayMax:               1500 * time.Millisecond,
		Retries:                2,
		RetryDelay:             2 * time.Second,
		ConfirmPhrase:          DefaultConfirmPhrase,
		MaxConsecutiveFailures: 5,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	var errs []error
	if o.DelayMin < 0 || o.DelayMax < o.DelayMin {
		errs = append(errs, fmt.Errorf("delay range %s..%s is invalid", o.DelayMin, o.DelayMax))
	}
	if o.Retries < 0 {
		errs = append(errs, errors.New("retries must not be negative"))
	}
	if o.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay must not be negative"))
	}
	if o.MaxConsecutiveFailures < 0 {
		errs = append(errs, errors.New("max consecutive failures must not be negative"))
	}
	return errors.Join(errs...)
}
