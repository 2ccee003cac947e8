package listing

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/robinjoseph08/golib/logger"
	"github.com/satchelfiles/satchel/pkg/entry"
	"github.com/satchelfiles/satchel/pkg/storage"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	defaultChunkSize = 20
	defaultChunkWait = 2 * time.Millisecond
	defaultTTL       = 10 * time.Minute

	// approxEntryOverhead is the assumed fixed cost per cached entry on top
	// of its strings, for the stats surface.
	approxEntryOverhead = 48
)

// Notifier is the UI boundary's listing-change callback.
type Notifier interface {
	OnEntriesChanged(dir string, entries []entry.DirectoryEntry)
}

// Evictor receives entries whose thumbnails are no longer valid. The
// thumbnail pipeline implements it.
type Evictor interface {
	Evict(entries []entry.DirectoryEntry)
}

// Normalizer is implemented by providers that canonicalize directory
// handles; without it the cache falls back to path cleaning.
type Normalizer interface {
	Normalize(handle string) (string, error)
}

// Options configures a Cache. Zero fields take defaults.
type Options struct {
	ChunkSize int
	ChunkWait time.Duration
	TTL       time.Duration

	Notifier Notifier
	Evictor  Evictor
}

type cached struct {
	entries         []entry.DirectoryEntry
	fullyLoaded     bool
	lastRefreshedAt time.Time
}

type refreshToken struct {
	cancel context.CancelFunc
}

// Cache is the per-directory listing cache. Reads are served stale while a
// refresh revalidates in the background; each directory has at most one
// active refresh, and a superseded refresh's result is discarded.
type Cache struct {
	store storage.Provider
	log   logger.Logger
	opts  Options

	// collators are not safe for concurrent use; sortMu serializes sorting
	// across refreshes.
	sortMu sync.Mutex
	coll   *collate.Collator

	mu        sync.Mutex
	dirs      map[string]*cached
	refreshes map[string]*refreshToken
}

func NewCache(store storage.Provider, opts Options) *Cache {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.ChunkWait < 0 {
		opts.ChunkWait = defaultChunkWait
	}
	if opts.TTL == 0 {
		opts.TTL = defaultTTL
	}

	return &Cache{
		store:     store,
		log:       logger.New(),
		opts:      opts,
		coll:      collate.New(language.Und, collate.IgnoreCase),
		dirs:      map[string]*cached{},
		refreshes: map[string]*refreshToken{},
	}
}

// Get returns the cached listing if present. With requireFullyLoaded it only
// returns complete listings.
func (c *Cache) Get(dir string, requireFullyLoaded bool) ([]entry.DirectoryEntry, bool) {
	dir = c.normalize(dir)

	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.dirs[dir]
	if !ok {
		return nil, false
	}
	if requireFullyLoaded && !d.fullyLoaded {
		return nil, false
	}
	return copyEntries(d.entries), true
}

// GetOrLoad returns cached entries immediately when any exist, scheduling a
// background refresh if the cached listing is incomplete. A miss performs a
// foreground progressive load.
func (c *Cache) GetOrLoad(ctx context.Context, dir string) ([]entry.DirectoryEntry, error) {
	dir = c.normalize(dir)

	c.mu.Lock()
	if d, ok := c.dirs[dir]; ok {
		entries := copyEntries(d.entries)
		_, refreshing := c.refreshes[dir]
		stale := !d.fullyLoaded
		c.mu.Unlock()

		if stale && !refreshing {
			go c.backgroundRefresh(dir)
		}
		return entries, nil
	}
	c.mu.Unlock()

	return c.loadProgressively(ctx, dir)
}

// Refresh reloads a directory, cancelling any prior in-flight refresh for the
// same identity. If this refresh is itself superseded before it completes,
// its result is not written to the cache.
func (c *Cache) Refresh(ctx context.Context, dir string) ([]entry.DirectoryEntry, error) {
	dir = c.normalize(dir)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	tok := &refreshToken{cancel: cancel}

	c.mu.Lock()
	if prev, ok := c.refreshes[dir]; ok {
		prev.cancel()
	}
	c.refreshes[dir] = tok
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.refreshes[dir] == tok {
			delete(c.refreshes, dir)
		}
		c.mu.Unlock()
	}()

	entries, err := c.store.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	c.sortEntries(entries)

	c.adopt(ctx, dir, entries)
	return entries, nil
}

// Invalidate drops a directory's cached listing. Thumbnail eviction is the
// caller's concern, driven by the diff of a subsequent refresh.
func (c *Cache) Invalidate(dir string) {
	dir = c.normalize(dir)
	c.mu.Lock()
	delete(c.dirs, dir)
	c.mu.Unlock()
}

// InvalidateAll drops every cached listing.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.dirs = map[string]*cached{}
	c.mu.Unlock()
}

// Stats reports cache size for the maintenance surface.
type Stats struct {
	DirectoryCount   int   `json:"directory_count"`
	EntryCount       int   `json:"entry_count"`
	ApproximateBytes int64 `json:"approximate_bytes"`
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s Stats
	s.DirectoryCount = len(c.dirs)
	for _, d := range c.dirs {
		s.EntryCount += len(d.entries)
		for _, e := range d.entries {
			s.ApproximateBytes += int64(len(e.Name) + len(e.Handle) + len(e.IconHint) + approxEntryOverhead)
		}
	}
	return s
}

// Cleanup drops listings that haven't refreshed within the TTL and forwards
// their entries to the evictor so thumbnail memory is reclaimed too.
func (c *Cache) Cleanup() int {
	cutoff := time.Now().Add(-c.opts.TTL)

	c.mu.Lock()
	var stale []entry.DirectoryEntry
	dropped := 0
	for dir, d := range c.dirs {
		if d.lastRefreshedAt.Before(cutoff) {
			stale = append(stale, d.entries...)
			delete(c.dirs, dir)
			dropped++
		}
	}
	c.mu.Unlock()

	if c.opts.Evictor != nil && len(stale) > 0 {
		c.opts.Evictor.Evict(stale)
	}
	return dropped
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.dirs = map[string]*cached{}
	c.mu.Unlock()
}

func (c *Cache) backgroundRefresh(dir string) {
	if _, err := c.Refresh(context.Background(), dir); err != nil {
		// Background refresh failures never crash the cache; the previous
		// value stays intact.
		c.log.Data(logger.Data{"dir": dir}).Err(err).Warn("background refresh error")
	}
}

// adopt writes a refreshed listing unless this refresh was superseded, then
// diffs against the previous listing to drive eviction and notification.
func (c *Cache) adopt(ctx context.Context, dir string, entries []entry.DirectoryEntry) {
	c.mu.Lock()
	select {
	case <-ctx.Done():
		// A newer refresh took over; discard this result silently.
		c.mu.Unlock()
		return
	default:
	}

	prev, hadPrev := c.dirs[dir]
	c.dirs[dir] = &cached{
		entries:         copyEntries(entries),
		fullyLoaded:     true,
		lastRefreshedAt: time.Now(),
	}
	c.mu.Unlock()

	if !hadPrev {
		c.notify(dir, entries)
		return
	}

	d := DiffEntries(prev.entries, entries)
	if d.Empty() {
		return
	}
	if c.opts.Evictor != nil {
		if stale := d.Stale(); len(stale) > 0 {
			c.opts.Evictor.Evict(stale)
		}
	}
	c.notify(dir, entries)
}

func (c *Cache) notify(dir string, entries []entry.DirectoryEntry) {
	if c.opts.Notifier != nil {
		c.opts.Notifier.OnEntriesChanged(dir, copyEntries(entries))
	}
}

func (c *Cache) normalize(dir string) string {
	if n, ok := c.store.(Normalizer); ok {
		if d, err := n.Normalize(dir); err == nil {
			return d
		}
	}
	return filepath.Clean(dir)
}

// sortEntries orders a listing directories-first, then by locale-aware name
// comparison.
func (c *Cache) sortEntries(entries []entry.DirectoryEntry) {
	c.sortMu.Lock()
	defer c.sortMu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		return c.coll.CompareString(a.Name, b.Name) < 0
	})
}

func copyEntries(entries []entry.DirectoryEntry) []entry.DirectoryEntry {
	if entries == nil {
		return nil
	}
	out := make([]entry.DirectoryEntry, len(entries))
	copy(out, entries)
	return out
}
