package submit

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/GriffinCanCode/formfill/internal/generate"
	"github.com/GriffinCanCode/formfill/internal/infrastructure/httpclient"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Result is the observable outcome of one submission.
type Result struct {
	Status   int           `json:"status"`
	Text     string        `json:"text,omitempty"`
	URL      string        `json:"url"`
	Duration time.Duration `json:"duration"`
}

// OK reports a 2xx status.
func (r *Result) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Contains reports whether the page text contains phrase, ignoring case.
func (r *Result) Contains(phrase string) bool {
	return r != nil && strings.Contains(strings.ToLower(r.Text), strings.ToLower(phrase))
}

// Sink submits one set of answers.
type Sink interface {
	Submit(ctx context.Context, s *form.Structure, answers generate.Answers) (*Result, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, s *form.Structure, answers generate.Answers) (*Result, error)

func (f SinkFunc) Submit(ctx context.Context, s *form.Structure, answers generate.Answers) (*Result, error) {
	return f(ctx, s, answers)
}

// HTTPSink submits over HTTP. Transport errors are returned as errors;
// any HTTP status, including 4xx and 5xx, is returned as a Result.
type HTTPSink struct {
	client *httpclient.Client
	log    *zap.Logger
}

// NewHTTPSink creates a sink over a shared client.
func NewHTTPSink(client *httpclient.Client, log *zap.Logger) *HTTPSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPSink{client: client, log: log}
}

func (h *HTTPSink) Submit(ctx context.Context, s *form.Structure, answers generate.Answers) (*Result, error) {
	if s.Submission.Action == "" {
		return nil, fmt.Errorf("form %s has no submission endpoint", s.Identity)
	}
	body := BuildPayload(s, answers).Encode()
	method := strings.ToUpper(s.Submission.Method)
	if method == "" {
		method = http.MethodPost
	}

	start := time.Now()
	// the run loop owns retries; a transport retry could double-submit
	resp, err := h.client.Execute(httpclient.WithoutRetry(ctx), func(req *resty.Request) (*resty.Response, error) {
		req.SetHeader("Referer", s.URL)
		if method == http.MethodGet {
			return req.Get(withQuery(s.Submission.Action, body))
		}
		return req.
			SetHeader("Content-Type", "application/x-www-form-urlencoded").
			SetBody(body).
			Execute(method, s.Submission.Action)
	})
	if err != nil {
		return nil, fmt.Errorf("submit to %s: %w", s.Submission.Action, err)
	}

	res := &Result{
		Status:   resp.StatusCode(),
		Text:     pageText(resp.Body(), resp.Header().Get("Content-Type")),
		URL:      s.Submission.Action,
		Duration: time.Since(start),
	}
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		res.URL = resp.RawResponse.Request.URL.String()
	}
	h.log.Debug("Submitted response",
		zap.String("identity", s.Identity.String()),
		zap.Int("status", res.Status),
		zap.Duration("duration", res.Duration))
	return res, nil
}

func withQuery(action, query string) string {
	if strings.Contains(action, "?") {
		return action + "&" + query
	}
	return action + "?" + query
}

// pageText returns the visible text of an HTML body, or the raw body when
// it is not HTML.
func pageText(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		r = bytes.NewReader(body)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return strings.TrimSpace(string(body))
	}
	doc.Find("script, style, noscript, template").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
