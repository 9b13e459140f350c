// Package page abstracts a loaded web page so extraction can run against a
// live HTTP fetch, a headless browser render, or a static fixture alike.
//
// Document is the single Page implementation. It parses the markup once and
// serves CSS queries through goquery and XPath queries through htmlquery over
// the same node tree. Loaders produce Documents:
//
//   - Fetcher issues a plain HTTP GET.
//   - Renderer drives headless Chrome through chromedp and reads back the
//     rendered DOM, for forms whose questions are built by script.
package page
