package page

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize limits page input to 10MB
const MaxHTMLSize = 10 * 1024 * 1024

// Parse reads markup from r, converting it to UTF-8 first. contentType may
// carry a charset parameter; when it does not, the charset is detected from
// the bytes.
func Parse(url string, r io.Reader, contentType string) (*Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxHTMLSize+1))
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return ParseBytes(url, data, contentType)
}

// ParseBytes is Parse over an in-memory body.
func ParseBytes(url string, data []byte, contentType string) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, unusable("empty page")
	}
	if len(data) > MaxHTMLSize {
		return nil, unusable("page exceeds maximum size of %d bytes", MaxHTMLSize)
	}

	if !strings.Contains(strings.ToLower(contentType), "charset=") {
		if cs := DetectCharset(data); cs != "" {
			contentType = "text/html; charset=" + cs
		}
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		utf8Reader = bytes.NewReader(data)
	}
	root, err := htmlquery.Parse(utf8Reader)
	if err != nil {
		return nil, unusable("parse html: %v", err)
	}
	return NewDocument(url, root), nil
}

// DetectCharset detects the charset of HTML bytes, or "" when unsure.
func DetectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil || result.Confidence < 50 {
		return ""
	}
	return strings.ToLower(result.Charset)
}
