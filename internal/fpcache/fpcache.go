// Package fpcache implements the fingerprint disk cache that
// de-duplicates outbound calls to the backend and the issue tracker.
//
// Every cacheable request is reduced to a fingerprint — a digest of its
// (verb, path, params, body) tuple — and the upstream payload is stored
// in one file per fingerprint under the cache root. The file's
// modification time is the only staleness signal; an entry older than
// the caller's TTL is treated as a miss and removed on read.
//
// The cache is strictly best-effort: storage failures are logged and
// degrade to miss behavior, so correctness never depends on the cache
// directory being writable.
package fpcache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Cache is a TTL-bounded key/value store with one file per fingerprint.
type Cache struct {
	dir    string
	logger *zap.Logger

	// locks serializes writes per fingerprint so concurrent dispatches
	// cannot leave two live entries for one key.
	locks sync.Map // fingerprint -> *sync.Mutex
}

// New creates a cache rooted at dir, creating it if needed. A cache
// whose root cannot be created is still returned — every operation on
// it just behaves as a miss.
func New(dir string, logger *zap.Logger) *Cache {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("cache root unavailable, running uncached",
			zap.String("dir", dir), zap.Error(err))
	}
	return &Cache{dir: dir, logger: logger}
}

// Fingerprint returns the deterministic digest identifying a request
// tuple. Params are canonicalized through url.Values.Encode, which
// sorts keys and escapes separators, so neither map iteration order
// nor hostile param values can alias two distinct tuples.
func Fingerprint(verb, path string, params map[string]string, body []byte) string {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}

	var b strings.Builder
	b.WriteString(verb)
	b.WriteByte('\n')
	b.WriteString(path)
	b.WriteByte('\n')
	b.WriteString(values.Encode())
	b.WriteByte('\n')
	b.Write(body)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Get returns the payload stored under fingerprint if it is younger
// than ttl. An entry at or past the TTL is evicted and reported as a
// miss. Read errors are also reported as misses.
func (c *Cache) Get(fingerprint string, ttl time.Duration) ([]byte, bool) {
	path := c.entryPath(fingerprint)

	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("cache stat failed", zap.String("fingerprint", fingerprint), zap.Error(err))
		}
		return nil, false
	}

	if timeNow().Sub(info.ModTime()) >= ttl {
		// Lazy expiry: remove the stale entry now rather than waiting
		// for a sweep.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("cache evict failed", zap.String("fingerprint", fingerprint), zap.Error(err))
		}
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("fingerprint", fingerprint), zap.Error(err))
		return nil, false
	}
	return data, true
}

// Put stores payload under fingerprint, overwriting any previous
// entry. Failures are logged and swallowed — the next Get simply
// misses.
func (c *Cache) Put(fingerprint string, payload []byte) {
	mu := c.lockFor(fingerprint)
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.logger.Warn("cache write failed", zap.String("fingerprint", fingerprint), zap.Error(err))
		return
	}

	// Write-then-rename keeps the entry file always whole: a reader
	// never observes a partially written payload.
	tmp := c.entryPath(fingerprint) + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		c.logger.Warn("cache write failed", zap.String("fingerprint", fingerprint), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, c.entryPath(fingerprint)); err != nil {
		c.logger.Warn("cache write failed", zap.String("fingerprint", fingerprint), zap.Error(err))
		_ = os.Remove(tmp)
	}
}

// Sweep removes entries older than maxAge. It runs at startup for
// hygiene only — lazy expiry in Get is what correctness relies on.
// Returns the number of entries removed.
func (c *Cache) Sweep(maxAge time.Duration) int {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("cache sweep failed", zap.Error(err))
		}
		return 0
	}

	removed := 0
	cutoff := timeNow().Add(-maxAge)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) || strings.HasSuffix(e.Name(), ".tmp") {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed
}

func (c *Cache) entryPath(fingerprint string) string {
	return filepath.Join(c.dir, fingerprint)
}

func (c *Cache) lockFor(fingerprint string) *sync.Mutex {
	mu, _ := c.locks.LoadOrStore(fingerprint, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
