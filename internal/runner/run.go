package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/GriffinCanCode/formfill/internal/generate"
	"github.com/GriffinCanCode/formfill/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/formfill/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/formfill/internal/shared/id"
	"github.com/GriffinCanCode/formfill/internal/submit"
	"go.uber.org/zap"
)

var (
	ErrNoSink           = errors.New("no submission sink configured")
	ErrNotConfirmed     = errors.New("confirmation phrase not found in response")
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// Outcome is the result of one submission.
type Outcome struct {
	ID       id.SubmissionID  `json:"id" yaml:"id"`
	Index    int              `json:"index" yaml:"index"`
	Success  bool             `json:"success" yaml:"success"`
	Attempts int              `json:"attempts" yaml:"attempts"`
	Status   int              `json:"status,omitempty" yaml:"status,omitempty"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration    `json:"duration" yaml:"duration"`
	Answers  generate.Answers `json:"answers,omitempty" yaml:"answers,omitempty"`
	Payload  string           `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Report summarises a bulk run.
type Report struct {
	RunID     id.RunID  `json:"run_id" yaml:"run_id"`
	URL       string    `json:"url" yaml:"url"`
	Identity  string    `json:"identity" yaml:"identity"`
	Requested int       `json:"requested" yaml:"requested"`
	Succeeded int       `json:"succeeded" yaml:"succeeded"`
	Failed    int       `json:"failed" yaml:"failed"`
	DryRun    bool      `json:"dry_run" yaml:"dry_run"`
	Aborted   string    `json:"aborted,omitempty" yaml:"aborted,omitempty"`
	Outcomes  []Outcome `json:"outcomes" yaml:"outcomes"`
	Started   time.Time `json:"started" yaml:"started"`
	Finished  time.Time `json:"finished" yaml:"finished"`
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Run submits count generated responses to the form at url, one at a time.
// The returned report is complete even when the run ends early; an error
// is returned only when the structure cannot be resolved.
func (r *Runner) Run(ctx context.Context, url string, count int) (*Report, error) {
	if count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", count)
	}
	if !r.opts.DryRun && r.sink == nil {
		return nil, ErrNoSink
	}

	span, ctx := r.tracer.StartSpan(ctx, "run")
	s, err := r.Structure(ctx, url, false)
	if err != nil {
		r.tracer.End(span, err)
		return nil, err
	}

	report := &Report{
		RunID:     id.NewRunID(),
		URL:       url,
		Identity:  s.Identity.String(),
		Requested: count,
		DryRun:    r.opts.DryRun,
		Started:   time.Now(),
	}
	log := r.log.With(zap.String("run_id", report.RunID.String()), zap.String("identity", report.Identity))
	r.metrics.RecordRun(r.opts.DryRun)
	log.Info("Starting run", zap.String("url", url), zap.Int("count", count), zap.Bool("dry_run", r.opts.DryRun))

	threshold := r.opts.MaxConsecutiveFailures
	if threshold == 0 {
		threshold = math.MaxInt
	}
	breaker := resilience.New(resilience.Settings{Name: "submit", Threshold: threshold})

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			report.Aborted = "cancelled"
			break
		}
		if err := breaker.Allow(); err != nil {
			report.Aborted = fmt.Sprintf("%d consecutive failures", r.opts.MaxConsecutiveFailures)
			break
		}

		out := r.submitOne(ctx, log, s, i)
		breaker.Record(outcomeErr(out))
		report.Outcomes = append(report.Outcomes, out)
		if out.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}

		if breaker.State() == resilience.StateOpen {
			report.Aborted = fmt.Sprintf("%d consecutive failures", r.opts.MaxConsecutiveFailures)
			log.Error("Stopping run after consecutive failures", zap.Int("failures", r.opts.MaxConsecutiveFailures))
			break
		}
		if i < count-1 && !r.opts.DryRun {
			if err := r.sleep(ctx, r.delay()); err != nil {
				report.Aborted = "cancelled"
				break
			}
		}
	}

	report.Finished = time.Now()
	span.SetTag("run_id", report.RunID.String())
	span.SetTag("succeeded", strconv.Itoa(report.Succeeded))
	span.SetTag("failed", strconv.Itoa(report.Failed))
	if report.Aborted != "" {
		span.SetTag("aborted", report.Aborted)
	}
	r.tracer.End(span, nil)
	log.Info("Run finished",
		zap.Int("requested", report.Requested),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.String("aborted", report.Aborted),
		zap.Duration("duration", report.Duration()))
	return report, nil
}

func outcomeErr(o Outcome) error {
	if o.Success {
		return nil
	}
	return errors.New(o.Error)
}

// submitOne generates and submits one response, retrying failed attempts.
func (r *Runner) submitOne(ctx context.Context, log *zap.Logger, s *form.Structure, index int) (out Outcome) {
	answers := r.generator.Generate(s)
	out = Outcome{ID: id.NewSubmissionID(), Index: index}
	start := time.Now()

	span, ctx := r.tracer.StartSpan(ctx, "submission")
	span.SetTag("submission_id", out.ID.String())
	defer func() { endSubmission(r.tracer, span, out) }()

	if r.opts.DryRun {
		out.Success = true
		out.Answers = answers
		out.Payload = submit.BuildPayload(s, answers).Encode()
		log.Info("Dry run submission",
			zap.Int("index", index),
			zap.String("submission_id", out.ID.String()),
			zap.String("payload", out.Payload))
		r.metrics.RecordSubmission("dry_run", 0)
		return out
	}

	var lastErr error
	for attempt := 1; attempt <= r.opts.Retries+1; attempt++ {
		out.Attempts = attempt
		res, err := r.sink.Submit(ctx, s, answers)
		if res != nil {
			out.Status = res.Status
		}
		if err == nil {
			err = r.verify(res)
		}
		if err == nil {
			out.Success = true
			break
		}
		lastErr = err
		span.Log("attempt failed", map[string]any{
			"attempt": attempt,
			"status":  out.Status,
			"error":   err.Error(),
		})
		log.Warn("Submission attempt failed",
			zap.Int("index", index),
			zap.Int("attempt", attempt),
			zap.Int("status", out.Status),
			zap.Error(err))

		if ctx.Err() != nil || attempt > r.opts.Retries {
			break
		}
		if err := r.sleep(ctx, r.opts.RetryDelay); err != nil {
			lastErr = err
			break
		}
	}
	out.Duration = time.Since(start)

	if out.Success {
		r.metrics.RecordSubmission("success", out.Duration)
		log.Info("Submitted response",
			zap.Int("index", index),
			zap.String("submission_id", out.ID.String()),
			zap.Int("status", out.Status),
			zap.Int("attempts", out.Attempts))
	} else {
		out.Error = lastErr.Error()
		r.metrics.RecordSubmission("failed", out.Duration)
	}
	return out
}

func endSubmission(t *tracing.Tracer, span *tracing.Span, out Outcome) {
	span.SetTag("attempts", strconv.Itoa(out.Attempts))
	if out.Status != 0 {
		span.SetStatus(out.Status)
	}
	var err error
	if !out.Success {
		err = errors.New(out.Error)
	}
	t.End(span, err)
}

// verify checks the status and, when configured, the confirmation phrase.
func (r *Runner) verify(res *submit.Result) error {
	if res == nil {
		return errors.New("empty submission result")
	}
	if !res.OK() {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.Status)
	}
	if r.opts.ConfirmPhrase != "" && !res.Contains(r.opts.ConfirmPhrase) {
		return ErrNotConfirmed
	}
	return nil
}

// delay draws the pause before the next submission.
func (r *Runner) delay() time.Duration {
	lo, hi := r.opts.DelayMin, r.opts.DelayMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}

func (r *Runner) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
