package commands

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/formfill/internal/cache"
	"github.com/GriffinCanCode/formfill/internal/extract"
	"github.com/GriffinCanCode/formfill/internal/generate"
	"github.com/GriffinCanCode/formfill/internal/infrastructure/config"
	"github.com/GriffinCanCode/formfill/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/formfill/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/formfill/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/formfill/internal/page"
	"github.com/GriffinCanCode/formfill/internal/runner"
	"github.com/GriffinCanCode/formfill/internal/submit"
)

// app is the wired pipeline behind every command.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
	cache   *cache.Cache
	runner  *runner.Runner
}

// wiring overrides parts of the pipeline built by newApp.
type wiring struct {
	seed    *uint64
	options *runner.Options
}

func newApp(g *globals, w wiring) (*app, error) {
	cfg, log := g.cfg, g.log
	metrics := monitoring.NewMetrics()

	client := httpclient.New(httpclient.Options{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTP.Timeout.Duration,
		Retries:   cfg.HTTP.Retries,
		RateLimit: cfg.HTTP.RateLimit,
		Logger:    log.Named("http"),
	})

	var (
		loader page.Loader
		source = "http"
	)
	if cfg.Browser.Enabled {
		loader = page.NewRenderer(page.RenderOptions{
			ExecPath:  cfg.Browser.ExecPath,
			Headless:  cfg.Browser.Headless,
			Timeout:   cfg.Browser.Timeout.Duration,
			UserAgent: cfg.HTTP.UserAgent,
		}, log.Named("browser"))
		source = "browser"
	} else {
		loader = page.NewFetcher(client, log.Named("fetch"))
	}

	unknown, err := extract.ParseUnknownPolicy(cfg.Extract.Unknown)
	if err != nil {
		return nil, err
	}
	extractor := extract.New(extract.Options{Unknown: unknown, Logger: log.Named("extract")})

	c, err := cache.New(cache.Options{
		Dir:       cfg.Cache.Dir,
		Freshness: cfg.Cache.Freshness.Duration,
		Compress:  cfg.Cache.Compress,
		Logger:    log.Named("cache"),
	})
	if err != nil {
		return nil, err
	}

	gen, err := newGenerator(cfg.Generate, w.seed)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	tracer := tracing.New("formfill", log.Named("trace"))
	opts := runnerOptions(cfg.Submit)
	if w.options != nil {
		opts = *w.options
	}
	r, err := runner.New(runner.Deps{
		Loader:    loader,
		Extractor: extractor,
		Cache:     c,
		Generator: gen,
		Sink:      submit.NewHTTPSink(client, log.Named("submit")),
		Metrics:   metrics,
		Tracer:    tracer,
		Logger:    log,
		Source:    source,
	}, opts)
	if err != nil {
		tracer.Close()
		_ = c.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		tracer:  tracer,
		cache:   c,
		runner:  r,
	}, nil
}

func (a *app) Close() error {
	a.tracer.Close()
	return a.cache.Close()
}

// newGenerator builds the answer generator. A seed flag wins over the
// configured seed; a negative configured seed means random.
func newGenerator(cfg config.GenerateConfig, seed *uint64) (*generate.Generator, error) {
	dist, err := generate.ParseDistribution(cfg.CheckboxDistribution)
	if err != nil {
		return nil, err
	}
	policy := generate.DefaultPolicy()
	policy.FillOptional = cfg.FillOptional
	policy.Checkbox = generate.CheckboxPolicy{
		Distribution: dist,
		MaxFraction:  cfg.CheckboxMaxFraction,
		P:            cfg.CheckboxP,
	}

	var opts []generate.Option
	switch {
	case seed != nil:
		opts = append(opts, generate.WithSeed(*seed))
	case cfg.Seed >= 0:
		opts = append(opts, generate.WithSeed(uint64(cfg.Seed)))
	}
	gen, err := generate.New(policy, opts...)
	if err != nil {
		return nil, fmt.Errorf("answer policy: %w", err)
	}
	return gen, nil
}

func runnerOptions(cfg config.SubmitConfig) runner.Options {
	return runner.Options{
		DryRun:                 cfg.DryRun,
		DelayMin:               cfg.DelayMin.Duration,
		DelayMax:               cfg.DelayMax.Duration,
		Retries:                cfg.Retries,
		RetryDelay:             cfg.RetryDelay.Duration,
		ConfirmPhrase:          cfg.ConfirmPhrase,
		MaxConsecutiveFailures: cfg.MaxConsecutiveFailures,
	}
}
