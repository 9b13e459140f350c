package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/bmatcuk/doublestar/v4"
)

// Entry describes one cache file.
type Entry struct {
	Identity    form.Identity `json:"identity" yaml:"identity"`
	Path        string        `json:"path" yaml:"path"`
	URL         string        `json:"url,omitempty" yaml:"url,omitempty"`
	Fields      int           `json:"fields" yaml:"fields"`
	Size        int64         `json:"size" yaml:"size"`
	Compressed  bool          `json:"compressed" yaml:"compressed"`
	StoredAt    time.Time     `json:"stored_at,omitempty" yaml:"stored_at,omitempty"`
	ExtractedAt time.Time     `json:"extracted_at,omitempty" yaml:"extracted_at,omitempty"`
	Stale       bool          `json:"stale" yaml:"stale"`
	Err         string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// List returns the entries whose file name matches the doublestar pattern
// match, sorted by name. An empty pattern matches everything.
func (c *Cache) List(match string) ([]Entry, error) {
	if match == "" {
		match = "*"
	}
	if !doublestar.ValidatePattern(match) {
		return nil, fmt.Errorf("invalid pattern %q", match)
	}

	dirents, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	var out []Entry
	for _, d := range dirents {
		name := d.Name()
		if d.IsDir() || !strings.HasPrefix(name, filePrefix) {
			continue
		}
		if !strings.HasSuffix(name, jsonExt) && !strings.HasSuffix(name, zstdExt) {
			continue
		}
		if ok, _ := doublestar.Match(match, name); !ok {
			continue
		}
		out = append(out, c.describe(filepath.Join(c.dir, name)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (c *Cache) describe(path string) Entry {
	e := Entry{Path: path, Compressed: strings.HasSuffix(path, zstdExt)}
	info, err := os.Stat(path)
	if err == nil {
		e.Size = info.Size()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		e.Err = err.Error()
		return e
	}
	env, err := c.decode(path, data)
	if err != nil {
		e.Err = err.Error()
		return e
	}
	e.Identity = env.Identity
	e.URL = env.Structure.URL
	e.Fields = len(env.Structure.Fields)
	e.StoredAt = env.StoredAt
	e.ExtractedAt = env.Structure.ExtractedAt
	e.Stale = c.isStale(env.Structure)
	return e
}

// Clear removes every entry matching the pattern and returns how many were
// removed.
func (c *Cache) Clear(match string) (int, error) {
	entries, err := c.List(match)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if err := os.Remove(e.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", e.Path, err)
		}
		removed++
	}
	return removed, nil
}
