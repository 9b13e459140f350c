package page

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// RenderOptions configures headless Chrome.
type RenderOptions struct {
	ExecPath  string
	Headless  bool
	Timeout   time.Duration
	UserAgent string
	// FormWait bounds the wait for a <form> element after the body is ready.
	FormWait time.Duration
}

// Renderer loads pages by rendering them in headless Chrome.
type Renderer struct {
	opts RenderOptions
	log  *zap.Logger
}

// NewRenderer creates a Renderer. A browser process is started per Load.
func NewRenderer(opts RenderOptions, log *zap.Logger) *Renderer {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	if opts.FormWait <= 0 {
		opts.FormWait = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{opts: opts, log: log}
}

func (r *Renderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
	)
	if r.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.opts.ExecPath))
	}
	if r.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.opts.UserAgent))
	}
	return opts
}

// Load navigates to url and parses the rendered DOM.
func (r *Renderer) Load(ctx context.Context, url string) (Page, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	runCtx, cancel := context.WithTimeout(browserCtx, r.opts.Timeout)
	defer cancel()

	start := time.Now()
	if err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	// pages without a form still render; extraction reports them
	waitCtx, waitCancel := context.WithTimeout(runCtx, r.opts.FormWait)
	if err := chromedp.Run(waitCtx, chromedp.WaitReady("form", chromedp.ByQuery)); err != nil {
		r.log.Debug("No form element after render", zap.String("url", url), zap.Error(err))
	}
	waitCancel()

	var location, markup string
	if err := chromedp.Run(runCtx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("read rendered dom %s: %w", url, err)
	}

	r.log.Debug("Rendered page",
		zap.String("url", location),
		zap.Duration("duration", time.Since(start)),
		zap.Int("bytes", len(markup)))

	return ParseBytes(location, []byte(markup), "text/html; charset=utf-8")
}
