package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/GriffinCanCode/formfill/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned while the client breaker is open.
var ErrUnavailable = errors.New("remote unavailable: circuit breaker open")

// Options configures a Client.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Retries   int
	MinWait   time.Duration
	MaxWait   time.Duration
	// RateLimit is requests per second. Zero or negative disables limiting.
	RateLimit float64
	Logger    *zap.Logger
}

// DefaultOptions returns options suitable for fetching public forms.
func DefaultOptions() Options {
	return Options{
		UserAgent: "formfill/1.0",
		Timeout:   30 * time.Second,
		Retries:   3,
		MinWait:   500 * time.Millisecond,
		MaxWait:   10 * time.Second,
	}
}

// Client wraps resty with rate limiting and a circuit breaker.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	log     *zap.Logger
	mu      sync.RWMutex
}

// New creates a client. Idempotent requests are retried by the transport on
// connection errors and 5xx/429 responses.
func New(opts Options) *Client {
	defaults := DefaultOptions()
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.MinWait <= 0 {
		opts.MinWait = defaults.MinWait
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = defaults.MaxWait
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = max(opts.Retries, 0)
	retryClient.RetryWaitMin = opts.MinWait
	retryClient.RetryWaitMax = opts.MaxWait
	retryClient.Logger = leveledLogger{log.Sugar()}
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.New().
		SetTimeout(opts.Timeout).
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient}).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	c := &Client{
		resty:   restyClient,
		limiter: rate.NewLimiter(rate.Inf, 0),
		log:     log,
	}
	c.breaker = resilience.New(resilience.Settings{
		Name:      "http-external",
		Threshold: 10,
		Cooldown:  30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})
	c.SetRateLimit(opts.RateLimit)
	return c
}

// SetHeader adds a default header.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetHeader(key, value)
}

// SetRateLimit configures rate limiting (requests per second).
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
}

// Request creates a request after waiting on the rate limiter.
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if c.breaker.State() == resilience.StateOpen {
		return nil, ErrUnavailable
	}

	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resty.R().SetContext(ctx), nil
}

// Get fetches rawURL. Non-2xx statuses are returned as a response, not an error.
func (c *Client) Get(ctx context.Context, rawURL string) (*resty.Response, error) {
	return c.Execute(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
			Get(rawURL)
	})
}

// PostForm posts values as application/x-www-form-urlencoded. Repeated keys
// are encoded once per value.
func (c *Client) PostForm(ctx context.Context, rawURL string, values url.Values) (*resty.Response, error) {
	return c.Execute(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetHeader("Content-Type", "application/x-www-form-urlencoded").
			SetBody(values.Encode()).
			Post(rawURL)
	})
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Execute sends a request prepared by send through the limiter and breaker.
// 5xx responses count as breaker failures but are still returned.
func (c *Client) Execute(ctx context.Context, send func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	req, err := c.Request(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := resilience.Execute(ctx, c.breaker, func(context.Context) (*resty.Response, error) {
		resp, err := send(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, fmt.Errorf("server error: %s", resp.Status())
		}
		return resp, nil
	})
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return nil, ErrUnavailable
	case resp != nil:
		return resp, nil
	}
	return nil, err
}

type noRetryKey struct{}

// WithoutRetry marks requests made with ctx as not retryable by the
// transport. Used for non-idempotent posts whose retries the caller owns.
func WithoutRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey{}, true)
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Value(noRetryKey{}) != nil {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
