package page

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/GriffinCanCode/formfill/internal/infrastructure/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `<!DOCTYPE html>
<html><head><title>  Survey
  2024 </title></head>
<body>
<form action="/submit" method="post">
  <label for="name">Your   name</label>
  <input type="text" id="name" name="name">
  <label><input type="checkbox" name="pets" value="cat"> Cat</label>
  <input type="hidden" name="token" value="abc">
</form>
</body></html>`

func mustParse(t *testing.T, markup string) *Document {
	t.Helper()
	doc, err := ParseBytes("https://example.com/form", []byte(markup), "text/html; charset=utf-8")
	require.NoError(t, err)
	return doc
}

func TestDocumentQueries(t *testing.T) {
	doc := mustParse(t, fixture)

	assert.Equal(t, "https://example.com/form", doc.URL())
	assert.Equal(t, "Survey 2024", doc.Title())

	labels, err := doc.Find("label[for=name]")
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "Your name", labels[0].Text())
	assert.Equal(t, "label", labels[0].Tag())

	hidden, err := doc.XPath("//form//input[@type='hidden'][@name]")
	require.NoError(t, err)
	require.Len(t, hidden, 1)
	v, ok := hidden[0].Attr("value")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
	assert.True(t, hidden[0].Is("input[type=hidden]"))

	_, ok = hidden[0].Attr("missing")
	assert.False(t, ok)
}

func TestElementClosestAndFind(t *testing.T) {
	doc := mustParse(t, fixture)

	boxes, err := doc.Find("input[type=checkbox]")
	require.NoError(t, err)
	require.Len(t, boxes, 1)

	label, ok := boxes[0].Closest("label")
	require.True(t, ok)
	assert.Equal(t, "Cat", label.Text())

	_, ok = boxes[0].Closest("table")
	assert.False(t, ok)

	forms, err := doc.Find("form")
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Len(t, forms[0].Find("input"), 3)
	assert.Empty(t, forms[0].Find("[[["))
	assert.False(t, forms[0].Is("[[["))
}

func TestInvalidQueries(t *testing.T) {
	doc := mustParse(t, fixture)

	_, err := doc.Find("div[")
	assert.Error(t, err)

	_, err = doc.XPath("//input[")
	assert.Error(t, err)
}

func TestParseRejectsUnusableInput(t *testing.T) {
	_, err := ParseBytes("u", []byte("   \n"), "")
	assert.ErrorIs(t, err, form.ErrPageUnusable)

	big := bytes.Repeat([]byte("a"), MaxHTMLSize+1)
	_, err = Parse("u", bytes.NewReader(big), "text/html")
	assert.ErrorIs(t, err, form.ErrPageUnusable)
}

func TestParseDecodesDeclaredCharset(t *testing.T) {
	// "Café" in ISO-8859-1
	latin1 := []byte("<html><head><title>Caf\xe9</title></head><body></body></html>")
	doc, err := Parse("u", bytes.NewReader(latin1), "text/html; charset=iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "Café", doc.Title())
}

func TestDocumentHTML(t *testing.T) {
	doc := mustParse(t, fixture)
	out, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, `name="token"`)
}

func newTestClient() *httpclient.Client {
	return httpclient.New(httpclient.Options{
		Timeout: 5 * time.Second,
		MinWait: time.Millisecond,
		MaxWait: time.Millisecond,
	})
}

func TestFetcherLoad(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/form", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, fixture)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/form", http.StatusFound)
	})
	mux.HandleFunc("/fragment", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<form><input name="q"></form>`)
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"form": false}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(newTestClient(), nil)
	ctx := context.Background()

	p, err := f.Load(ctx, srv.URL+"/form")
	require.NoError(t, err)
	assert.Equal(t, "Survey 2024", p.Title())

	p, err = f.Load(ctx, srv.URL+"/moved")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p.URL(), "/form"))

	p, err = f.Load(ctx, srv.URL+"/fragment")
	require.NoError(t, err)
	inputs, err := p.Find("input[name=q]")
	require.NoError(t, err)
	assert.Len(t, inputs, 1)

	_, err = f.Load(ctx, srv.URL+"/json")
	assert.ErrorIs(t, err, form.ErrPageUnusable)

	_, err = f.Load(ctx, srv.URL+"/missing")
	assert.ErrorIs(t, err, form.ErrPageUnusable)
}

func TestLoaderFunc(t *testing.T) {
	var l Loader = LoaderFunc(func(_ context.Context, url string) (Page, error) {
		return ParseBytes(url, []byte(fixture), "")
	})
	p, err := l.Load(context.Background(), "fixture://survey")
	require.NoError(t, err)
	assert.Equal(t, "fixture://survey", p.URL())
}

func TestNewRendererDefaults(t *testing.T) {
	r := NewRenderer(RenderOptions{Headless: true, ExecPath: "/usr/bin/chromium"}, nil)
	assert.Equal(t, 45*time.Second, r.opts.Timeout)
	assert.Equal(t, 5*time.Second, r.opts.FormWait)
	assert.NotEmpty(t, r.allocatorOptions())
}
