package page

import (
	"context"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/formfill/internal/infrastructure/httpclient"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Fetcher loads pages with a plain HTTP GET.
type Fetcher struct {
	client *httpclient.Client
	log    *zap.Logger
}

// NewFetcher creates a Fetcher over a shared client.
func NewFetcher(client *httpclient.Client, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{client: client, log: log}
}

// Load fetches and parses url. Non-2xx responses and non-HTML bodies are
// reported as form.ErrPageUnusable.
func (f *Fetcher) Load(ctx context.Context, url string) (Page, error) {
	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		return nil, unusable("GET %s returned %s", url, resp.Status())
	}

	body := resp.Body()
	contentType := resp.Header().Get("Content-Type")
	if !looksLikeHTML(body, contentType) {
		return nil, unusable("GET %s returned %s, not an html page", url, mimetype.Detect(body).String())
	}

	finalURL := url
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}
	f.log.Debug("Fetched page",
		zap.String("url", finalURL),
		zap.Int("status", resp.StatusCode()),
		zap.Int("bytes", len(body)))

	return ParseBytes(finalURL, body, contentType)
}

func looksLikeHTML(body []byte, contentType string) bool {
	m := mimetype.Detect(body)
	if m.Is("text/html") || m.Is("application/xhtml+xml") {
		return true
	}
	// fragments without a leading <html> or <body> sniff as plain text
	return m.Is("text/plain") && strings.Contains(strings.ToLower(contentType), "html")
}
