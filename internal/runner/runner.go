package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/formfill/internal/cache"
	"github.com/GriffinCanCode/formfill/internal/extract"
	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/GriffinCanCode/formfill/internal/generate"
	"github.com/GriffinCanCode/formfill/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/formfill/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/formfill/internal/page"
	"github.com/GriffinCanCode/formfill/internal/submit"
	"go.uber.org/zap"
)

// Deps are the collaborators of a Runner. Cache and Sink are optional:
// without a cache every call extracts, without a sink only dry runs work.
type Deps struct {
	Loader    page.Loader
	Extractor *extract.Extractor
	Cache     *cache.Cache
	Generator *generate.Generator
	Sink      submit.Sink
	Metrics   *monitoring.Metrics
	Tracer    *tracing.Tracer
	Logger    *zap.Logger
	// Source labels extraction metrics, e.g. "http" or "browser".
	Source string
}

// Runner runs the extract, generate, submit pipeline for forms.
type Runner struct {
	loader    page.Loader
	extractor *extract.Extractor
	cache     *cache.Cache
	generator *generate.Generator
	sink      submit.Sink
	metrics   *monitoring.Metrics
	tracer    *tracing.Tracer
	log       *zap.Logger
	source    string
	opts      Options

	// serialises cache access per process
	mu sync.Mutex

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Runner.
func New(deps Deps, opts Options) (*Runner, error) {
	if deps.Loader == nil {
		return nil, errors.New("runner: loader is required")
	}
	if deps.Extractor == nil {
		return nil, errors.New("runner: extractor is required")
	}
	if deps.Generator == nil {
		return nil, errors.New("runner: generator is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewMetrics()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Source == "" {
		deps.Source = "http"
	}

	r := &Runner{
		loader:    deps.Loader,
		extractor: deps.Extractor,
		cache:     deps.Cache,
		generator: deps.Generator,
		sink:      deps.Sink,
		metrics:   deps.Metrics,
		tracer:    deps.Tracer,
		log:       deps.Logger,
		source:    deps.Source,
		opts:      opts,
	}
	r.sleep = r.wait
	return r, nil
}

// Generator returns the answer generator.
func (r *Runner) Generator() *generate.Generator {
	return r.generator
}

// Options returns the run options.
func (r *Runner) Options() Options {
	return r.opts
}

// Structure returns the structure of the form at url. A fresh cache entry
// is served unless refresh is set; otherwise the page is loaded, extracted
// and the result cached. Cache write failures are logged and do not fail
// the call.
func (r *Runner) Structure(ctx context.Context, url string, refresh bool) (s *form.Structure, err error) {
	identity := form.IdentityFromURL(url)
	span, ctx := r.tracer.StartSpan(ctx, "form.structure")
	span.SetTag("identity", identity.String())
	defer func() { r.tracer.End(span, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cache != nil && !refresh {
		cached, status := r.cache.Lookup(identity)
		r.metrics.RecordCacheLookup(string(status))
		span.SetTag("cache", string(status))
		if status == cache.StatusHit {
			r.log.Debug("Using cached form structure",
				zap.String("url", url),
				zap.String("identity", identity.String()),
				zap.Int("fields", len(cached.Fields)))
			return cached, nil
		}
	}

	timer := monitoring.NewTimer(r.metrics, r.source)
	p, err := r.loader.Load(ctx, url)
	if err != nil {
		timer.Stop("error")
		var extractErr *form.ExtractionError
		if errors.As(err, &extractErr) {
			return nil, err
		}
		return nil, &form.ExtractionError{URL: url, Reason: "load page", Err: err}
	}

	s, err = r.extractor.Extract(p)
	if err != nil {
		timer.Stop("error")
		return nil, err
	}
	timer.Stop("success")

	// cache under the requested URL, not wherever redirects ended up
	s.Identity = identity
	s.URL = url

	r.log.Info("Extracted form structure",
		zap.String("url", url),
		zap.String("identity", identity.String()),
		zap.String("title", s.Title),
		zap.Int("fields", len(s.Fields)),
		zap.Int("required", len(s.Required())))

	if r.cache != nil {
		if prev, ok := r.cache.Peek(identity); ok {
			if prev.Equal(s) {
				r.log.Debug("Form unchanged since last extraction", zap.String("identity", identity.String()))
			} else {
				r.log.Info("Form changed since last extraction",
					zap.String("identity", identity.String()),
					zap.Int("previous_fields", len(prev.Fields)),
					zap.Int("fields", len(s.Fields)))
			}
		}
		if err := r.cache.Store(identity, s); err != nil {
			r.metrics.RecordCacheWrite("error")
			r.log.Warn("Failed to cache form structure", zap.String("identity", identity.String()), zap.Error(err))
		} else {
			r.metrics.RecordCacheWrite("success")
		}
	}
	return s, nil
}

// Answers generates n answer sets for the form at url without submitting.
func (r *Runner) Answers(ctx context.Context, url string, n int) (*form.Structure, []generate.Answers, error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("count must be at least 1, got %d", n)
	}
	s, err := r.Structure(ctx, url, false)
	if err != nil {
		return nil, nil, err
	}
	out := make([]generate.Answers, n)
	for i := range out {
		out[i] = r.generator.Generate(s)
	}
	return s, out, nil
}

// Invalidate drops the cached structure of url.
func (r *Runner) Invalidate(url string) error {
	if r.cache == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Invalidate(form.IdentityFromURL(url))
}
