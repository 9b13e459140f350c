package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/GriffinCanCode/formfill/internal/form"
	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Version is the envelope format version written by Store.
const Version = 1

const (
	filePrefix = "form_"
	jsonExt    = ".json"
	zstdExt    = ".json.zst"
)

// Status is the outcome of a lookup.
type Status string

const (
	StatusHit      Status = "hit"
	StatusMiss     Status = "miss"
	StatusStale    Status = "stale"
	StatusMismatch Status = "mismatch"
	StatusCorrupt  Status = "corrupt"
)

// Options configures a Cache.
type Options struct {
	Dir string
	// Freshness is the maximum structure age served. Zero disables expiry.
	Freshness time.Duration
	Compress  bool
	Now       func() time.Time
	Logger    *zap.Logger
}

// envelope is the on-disk record.
type envelope struct {
	Version   int             `json:"version"`
	Identity  form.Identity   `json:"identity"`
	StoredAt  time.Time       `json:"stored_at"`
	Structure *form.Structure `json:"structure"`
}

// Cache is a directory of structure files.
type Cache struct {
	dir       string
	freshness time.Duration
	compress  bool
	now       func() time.Time
	log       *zap.Logger

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New creates a cache rooted at opts.Dir. The directory is created on the
// first Store.
func New(opts Options) (*Cache, error) {
	if opts.Dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if opts.Freshness < 0 {
		return nil, fmt.Errorf("negative freshness %s", opts.Freshness)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Cache{
		dir:       opts.Dir,
		freshness: opts.Freshness,
		compress:  opts.Compress,
		now:       opts.Now,
		log:       opts.Logger,
		enc:       enc,
		dec:       dec,
	}, nil
}

// Close releases the compression codecs.
func (c *Cache) Close() error {
	c.dec.Close()
	return c.enc.Close()
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// fileStem names the file for identity. When sanitising changes the
// identity, a hash suffix keeps distinct identities in distinct files.
func fileStem(identity form.Identity) string {
	safe := unsafeChars.ReplaceAllString(string(identity), "_")
	if safe != string(identity) {
		sum := sha256.Sum256([]byte(identity))
		safe += "_" + hex.EncodeToString(sum[:4])
	}
	return filePrefix + safe
}

// Path returns the file an identity is stored under with the current
// compression setting.
func (c *Cache) Path(identity form.Identity) string {
	if c.compress {
		return filepath.Join(c.dir, fileStem(identity)+zstdExt)
	}
	return filepath.Join(c.dir, fileStem(identity)+jsonExt)
}

// paths lists candidate files for identity, the configured format first.
func (c *Cache) paths(identity form.Identity) []string {
	plain := filepath.Join(c.dir, fileStem(identity)+jsonExt)
	packed := filepath.Join(c.dir, fileStem(identity)+zstdExt)
	if c.compress {
		return []string{packed, plain}
	}
	return []string{plain, packed}
}

// Load returns the cached structure for identity if it is present, fresh
// and intact.
func (c *Cache) Load(identity form.Identity) (*form.Structure, bool) {
	s, status := c.Lookup(identity)
	return s, status == StatusHit
}

// Lookup is Load reporting why an entry was not served.
func (c *Cache) Lookup(identity form.Identity) (*form.Structure, Status) {
	for _, path := range c.paths(identity) {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			c.corrupt(identity, path, err)
			return nil, StatusCorrupt
		}

		env, err := c.decode(path, data)
		if err != nil {
			c.corrupt(identity, path, err)
			return nil, StatusCorrupt
		}
		if env.Identity != identity || env.Structure.Identity != identity {
			c.log.Info("Cached structure belongs to another form",
				zap.String("identity", identity.String()),
				zap.String("stored_identity", env.Identity.String()),
				zap.String("path", path))
			return nil, StatusMismatch
		}
		if c.isStale(env.Structure) {
			c.log.Debug("Cached structure is stale",
				zap.String("identity", identity.String()),
				zap.Duration("age", env.Structure.Age(c.now())),
				zap.Duration("freshness", c.freshness))
			return nil, StatusStale
		}
		return env.Structure, StatusHit
	}
	return nil, StatusMiss
}

// Peek returns an entry regardless of its age, for change detection after
// a stale lookup. Corrupt and mismatched entries are not returned.
func (c *Cache) Peek(identity form.Identity) (*form.Structure, bool) {
	for _, path := range c.paths(identity) {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		env, err := c.decode(path, data)
		if err != nil || env.Identity != identity {
			continue
		}
		return env.Structure, true
	}
	return nil, false
}

func (c *Cache) isStale(s *form.Structure) bool {
	return c.freshness > 0 && s.Age(c.now()) > c.freshness
}

func (c *Cache) corrupt(identity form.Identity, path string, err error) {
	cerr := &form.CacheCorruptionError{Identity: identity, Path: path, Err: err}
	c.log.Warn("Ignoring corrupt cache entry", zap.Error(cerr))
}

func (c *Cache) decode(path string, data []byte) (*envelope, error) {
	if strings.HasSuffix(path, zstdExt) {
		raw, err := c.dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress: %w", err)
		}
		data = raw
	}

	var env envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if env.Version != Version {
		return nil, fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	if env.Structure == nil {
		return nil, errors.New("envelope has no structure")
	}
	if err := env.Structure.Validate(); err != nil {
		return nil, fmt.Errorf("invalid structure: %w", err)
	}
	return &env, nil
}

// Store writes s under identity, replacing any previous entry. Only valid
// structures whose identity matches are stored; the write is atomic.
func (c *Cache) Store(identity form.Identity, s *form.Structure) error {
	if s == nil {
		return errors.New("nil structure")
	}
	if s.Identity != identity {
		return fmt.Errorf("structure identity %q does not match %q", s.Identity, identity)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("refusing to cache invalid structure: %w", err)
	}

	data, err := sonic.Marshal(envelope{
		Version:   Version,
		Identity:  identity,
		StoredAt:  c.now().UTC(),
		Structure: s,
	})
	if err != nil {
		return fmt.Errorf("encode structure: %w", err)
	}
	if c.compress {
		data = c.enc.EncodeAll(data, nil)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	path := c.Path(identity)
	if err := writeAtomic(c.dir, path, data); err != nil {
		return err
	}

	// drop the entry in the other format so Load never sees two versions
	for _, other := range c.paths(identity)[1:] {
		if err := os.Remove(other); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.log.Warn("Failed to remove superseded cache entry", zap.String("path", other), zap.Error(err))
		}
	}

	c.log.Debug("Stored form structure",
		zap.String("identity", identity.String()),
		zap.String("path", path),
		zap.Int("bytes", len(data)))
	return nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".form_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename cache entry: %w", err)
	}
	return nil
}

// Invalidate removes the entry for identity. Removing a missing entry is
// not an error.
func (c *Cache) Invalidate(identity form.Identity) error {
	for _, path := range c.paths(identity) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove cache entry: %w", err)
		}
	}
	return nil
}
