// Package cache memoizes compiled modules by path, content fingerprint,
// locale and mode.
//
// Only successful compiles are stored. Invalidating a path drops that
// file's entries and nothing else. Concurrent requests for the same key
// share one compile.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
	"git.home.luguber.info/inful/pagecompiler/internal/metrics"
	"git.home.luguber.info/inful/pagecompiler/internal/scan"
)

// Key identifies one cached module.
type Key struct {
	Path        string
	Fingerprint string
	Locale      string
	Mode        compile.Mode
}

func (k Key) String() string {
	return k.Path + "\x00" + k.Fingerprint + "\x00" + k.Locale + "\x00" + string(k.Mode)
}

// Compiler produces modules on cache misses.
type Compiler interface {
	CompileMode(ctx context.Context, src scan.SourceFile, mode compile.Mode) (*compile.Module, error)
}

// Store persists encoded modules across restarts.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Put(ctx context.Context, key Key, data []byte, at time.Time) error
	DeletePath(ctx context.Context, path string) error
	Prune(ctx context.Context, before time.Time) (int64, error)
	Close() error
}

// Options configures a Cache.
type Options struct {
	Store    Store
	Recorder metrics.Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

type entry struct {
	module   *compile.Module
	lastUsed atomic.Int64
}

// Cache is safe for concurrent use. Returned modules are shared and must
// not be modified.
type Cache struct {
	compiler Compiler
	store    Store
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	entries map[Key]*entry
	byPath  map[string]map[Key]struct{}

	group singleflight.Group
}

// New creates a cache in front of compiler.
func New(compiler Compiler, opts Options) *Cache {
	c := &Cache{
		compiler: compiler,
		store:    opts.Store,
		recorder: metrics.OrNoop(opts.Recorder),
		logger:   opts.Logger,
		now:      opts.Now,
		entries:  map[Key]*entry{},
		byPath:   map[string]map[Key]struct{}{},
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Get returns the module for src in the given mode, compiling on a miss.
func (c *Cache) Get(ctx context.Context, src scan.SourceFile, mode compile.Mode) (*compile.Module, error) {
	key := Key{Path: src.Path, Fingerprint: Fingerprint(src.Content), Locale: src.Locale, Mode: mode}

	if m, ok := c.lookup(key); ok {
		c.recorder.IncCacheLookup(true)
		return m, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		if m, ok := c.lookup(key); ok {
			return m, nil
		}
		if m, ok := c.loadStored(ctx, key); ok {
			c.insert(key, m)
			return m, nil
		}
		c.recorder.IncCacheLookup(false)

		start := time.Now()
		m, err := c.compiler.CompileMode(ctx, src, mode)
		c.recorder.ObserveCompileDuration(string(mode), time.Since(start))
		if err != nil {
			c.recorder.IncCompileResult(string(mode), metrics.ResultFatal)
			return nil, err
		}
		c.recorder.IncCompileResult(string(mode), metrics.ResultSuccess)
		c.insert(key, m)
		c.persist(ctx, key, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*compile.Module), nil
}

func (c *Cache) lookup(key Key) (*compile.Module, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.lastUsed.Store(c.now().UnixNano())
	return e.module, true
}

// insert stores m and evicts entries for other fingerprints of the same path.
func (c *Cache) insert(key Key, m *compile.Module) {
	e := &entry{module: m}
	e.lastUsed.Store(c.now().UnixNano())

	c.mu.Lock()
	defer c.mu.Unlock()
	keys := c.byPath[key.Path]
	if keys == nil {
		keys = map[Key]struct{}{}
		c.byPath[key.Path] = keys
	}
	for k := range keys {
		if k.Fingerprint != key.Fingerprint {
			delete(c.entries, k)
			delete(keys, k)
		}
	}
	c.entries[key] = e
	keys[key] = struct{}{}
}

func (c *Cache) loadStored(ctx context.Context, key Key) (*compile.Module, bool) {
	if c.store == nil {
		return nil, false
	}
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache store read failed", logfields.File(key.Path), logfields.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	m, err := compile.Decode(data)
	if err != nil {
		c.logger.Warn("Discarding undecodable cached module", logfields.File(key.Path), logfields.Error(err))
		return nil, false
	}
	c.recorder.IncCacheLookup(true)
	return m, true
}

func (c *Cache) persist(ctx context.Context, key Key, m *compile.Module) {
	if c.store == nil {
		return
	}
	data, err := m.Encode()
	if err == nil {
		err = c.store.Put(ctx, key, data, c.now())
	}
	if err != nil {
		c.logger.Warn("Cache store write failed", logfields.File(key.Path), logfields.Error(err))
	}
}

// Invalidate drops every entry for path.
func (c *Cache) Invalidate(ctx context.Context, path string) {
	c.mu.Lock()
	for k := range c.byPath[path] {
		delete(c.entries, k)
	}
	delete(c.byPath, path)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.DeletePath(ctx, path); err != nil {
			c.logger.Warn("Cache store invalidation failed", logfields.File(path), logfields.Error(err))
		}
	}
}

// Prune drops entries unused for longer than maxAge and returns how many
// in-memory entries were removed.
func (c *Cache) Prune(ctx context.Context, maxAge time.Duration) int {
	cutoff := c.now().Add(-maxAge)
	removed := 0

	c.mu.Lock()
	for k, e := range c.entries {
		if time.Unix(0, e.lastUsed.Load()).Before(cutoff) {
			delete(c.entries, k)
			if keys := c.byPath[k.Path]; keys != nil {
				delete(keys, k)
				if len(keys) == 0 {
					delete(c.byPath, k.Path)
				}
			}
			removed++
		}
	}
	c.mu.Unlock()

	if c.store != nil {
		if _, err := c.store.Prune(ctx, cutoff); err != nil {
			c.logger.Warn("Cache store prune failed", logfields.Error(err))
		}
	}
	return removed
}

// Len returns the number of in-memory entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close releases the persistent store.
func (c *Cache) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

// FrontMatter resolves a document's front matter through the metadata
// mode, so page map builds share compiled metadata with page loads.
func (c *Cache) FrontMatter(ctx context.Context, src scan.SourceFile) (map[string]any, error) {
	m, err := c.Get(ctx, src, compile.ModeMetadata)
	if err != nil {
		return nil, err
	}
	return m.Metadata.FrontMatter(), nil
}
