package commands

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/GriffinCanCode/formfill/internal/runner"
)

const formPage = `<!DOCTYPE html>
<html><head><title>Signup</title></head><body>
<form action="/submit" method="post">
  <input type="hidden" name="token" value="t1">
  <label for="name">Name</label>
  <input id="name" name="name" type="text" required>
  <label for="colour">Colour</label>
  <select id="colour" name="colour"><option>Red</option><option>Blue</option></select>
</form></body></html>`

const uploadPage = `<html><body><form action="/submit">
  <label for="note">Note</label><input id="note" name="note">
  <label for="cv">CV</label><input id="cv" name="cv" type="file">
</form></body></html>`

// formSite serves one form and records the submissions it receives.
type formSite struct {
	*httptest.Server
	mu       sync.Mutex
	received []url.Values
	reject   bool
}

func newFormSite(t *testing.T) *formSite {
	t.Helper()
	site := &formSite{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /form", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, formPage)
	})
	mux.HandleFunc("GET /upload", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, uploadPage)
	})
	mux.HandleFunc("POST /submit", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		site.mu.Lock()
		site.received = append(site.received, r.PostForm)
		reject := site.reject
		site.mu.Unlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if reject {
			_, _ = io.WriteString(w, "<html><body>Try again later</body></html>")
			return
		}
		_, _ = io.WriteString(w, "<html><body><p>Your response has been recorded.</p></body></html>")
	})
	site.Server = httptest.NewServer(mux)
	t.Cleanup(site.Close)
	return site
}

func (s *formSite) submissions() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.received...)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExtractCommand(t *testing.T) {
	site := newFormSite(t)
	cacheDir := t.TempDir()

	out, err := run(t, "extract", site.URL+"/form", "--cache-dir", cacheDir, "--log-level", "error")
	require.NoError(t, err)

	var s form.Structure
	require.NoError(t, sonic.Unmarshal([]byte(out), &s))
	assert.Equal(t, "Signup", s.Title)
	require.Len(t, s.Fields, 2)
	assert.Equal(t, "name", s.Fields[0].ID)
	assert.True(t, s.Fields[0].Required)
	assert.Equal(t, form.FieldDropdown, s.Fields[1].Type)
	assert.Equal(t, site.URL+"/submit", s.Submission.Action)

	files, err := filepath.Glob(filepath.Join(cacheDir, "form_*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	out, err = run(t, "extract", site.URL+"/form", "--cache-dir", cacheDir, "--log-level", "error", "-o", "yaml")
	require.NoError(t, err)
	var fromYAML form.Structure
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.True(t, s.Equal(&fromYAML))
}

func TestGenerateCommandIsReproducible(t *testing.T) {
	site := newFormSite(t)
	args := []string{"generate", site.URL + "/form", "--cache-dir", t.TempDir(), "--log-level", "error", "-n", "3", "--seed", "7"}

	first, err := run(t, args...)
	require.NoError(t, err)
	second, err := run(t, args...)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var sets []generated
	require.NoError(t, sonic.Unmarshal([]byte(first), &sets))
	require.Len(t, sets, 3)
	for _, set := range sets {
		assert.Len(t, set.Answers["name"], 1)
		assert.Contains(t, []string{"Red", "Blue"}, set.Answers["colour"][0])
		assert.True(t, strings.HasPrefix(set.Payload, "token=t1&name="))
	}
	assert.Empty(t, site.submissions(), "generate never submits")
}

func TestSubmitCommand(t *testing.T) {
	site := newFormSite(t)

	out, err := run(t, "submit", site.URL+"/form", "3",
		"--cache-dir", t.TempDir(), "--log-level", "error",
		"--delay-min", "0s", "--delay-max", "0s")
	require.NoError(t, err)
	assert.Contains(t, out, "Submitted 3/3 responses")

	got := site.submissions()
	require.Len(t, got, 3)
	for _, v := range got {
		assert.Equal(t, "t1", v.Get("token"))
		assert.NotEmpty(t, v.Get("name"))
	}
}

func TestSubmitCommandDryRun(t *testing.T) {
	site := newFormSite(t)

	out, err := run(t, "submit", site.URL+"/form", "2", "--dry-run", "-o", "json",
		"--cache-dir", t.TempDir(), "--log-level", "error")
	require.NoError(t, err)

	var report runner.Report
	require.NoError(t, sonic.Unmarshal([]byte(out), &report))
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Succeeded)
	for _, o := range report.Outcomes {
		assert.Contains(t, o.Payload, "token=t1")
	}
	assert.Empty(t, site.submissions())
}

func TestSubmitCommandFailsWithoutConfirmation(t *testing.T) {
	site := newFormSite(t)
	site.reject = true

	out, err := run(t, "submit", site.URL+"/form", "1",
		"--cache-dir", t.TempDir(), "--log-level", "error", "--retries", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 submissions failed")
	assert.Contains(t, out, "failed after 1 attempt(s)")

	_, err = run(t, "submit", site.URL+"/form", "many", "--cache-dir", t.TempDir())
	assert.ErrorContains(t, err, "COUNT must be a positive integer")
}

func TestCacheCommands(t *testing.T) {
	site := newFormSite(t)
	cacheDir := t.TempDir()
	formURL := site.URL + "/form"

	_, err := run(t, "extract", formURL, "--cache-dir", cacheDir, "--log-level", "error")
	require.NoError(t, err)

	out, err := run(t, "cache", "list", "--cache-dir", cacheDir)
	require.NoError(t, err)
	identity := form.IdentityFromURL(formURL).String()
	assert.Contains(t, out, "IDENTITY")
	assert.Contains(t, out, identity)
	assert.Contains(t, out, "fresh")

	out, err = run(t, "cache", "clear", formURL, "--cache-dir", cacheDir)
	require.NoError(t, err)
	assert.Equal(t, "Cleared "+identity+"\n", out)

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = run(t, "cache", "clear", "--cache-dir", cacheDir)
	assert.Error(t, err)

	_, err = run(t, "cache", "list", "--cache-dir", cacheDir, "--match", "[")
	assert.ErrorContains(t, err, "invalid pattern")
}

func TestUnknownPolicyFromConfigAndFlags(t *testing.T) {
	site := newFormSite(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "formfill.toml")
	require.NoError(t, os.WriteFile(path, []byte("[extract]\nunknown = \"fail\"\n"), 0o644))
	uploadURL := site.URL + "/upload"

	_, err := run(t, "extract", uploadURL, "--config", path, "--cache-dir", dir, "--log-level", "error")
	var unsupported *form.UnsupportedFieldTypeError
	assert.ErrorAs(t, err, &unsupported)

	// the flag wins over the file
	out, err := run(t, "extract", uploadURL, "--config", path, "--unknown", "skip", "--cache-dir", dir, "--log-level", "error")
	require.NoError(t, err)
	var s form.Structure
	require.NoError(t, sonic.Unmarshal([]byte(out), &s))
	require.Len(t, s.Fields, 1)
	assert.Equal(t, "note", s.Fields[0].ID)

	_, err = run(t, "cache", "list", "--unknown", "bogus", "--cache-dir", dir)
	assert.ErrorContains(t, err, "extract.unknown")

	_, err = run(t, "cache", "list", "--config", filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}
