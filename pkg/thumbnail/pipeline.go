package thumbnail

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robinjoseph08/golib/logger"
	"github.com/satchelfiles/satchel/pkg/entry"
	"github.com/satchelfiles/satchel/pkg/storage"
)

const (
	defaultConcurrency     = 2
	defaultRequestTimeout  = 30 * time.Second
	defaultSnippetLines    = 5
	defaultSnippetMaxChars = 200

	// snippetReadLimit bounds the content read per snippet; five lines never
	// need more than this.
	snippetReadLimit = 8 * 1024
)

// Options configures a Pipeline. Zero fields take the defaults above.
type Options struct {
	Concurrency     int
	RequestTimeout  time.Duration
	SnippetLines    int
	SnippetMaxChars int

	// OnReady is the UI boundary's out-of-band completion callback. It is
	// invoked outside the pipeline lock, once per adopted terminal value.
	OnReady func(key entry.Key, payload Payload)
}

// Pipeline turns directory entries into preview payloads with a bounded
// number of concurrent generations. Requests for the same key coalesce into
// one generation; terminal values (including failures) are cached until
// evicted.
type Pipeline struct {
	store storage.Provider
	log   logger.Logger
	opts  Options

	mu       sync.Mutex
	cond     *sync.Cond
	cache    map[entry.Key]Payload
	terminal map[entry.Key]struct{}
	// inflight maps a key to the epoch of the generation that owns it. A
	// completion is only adopted if its epoch still matches, so a generation
	// orphaned by Evict cannot outrace the retry that replaced it.
	inflight map[entry.Key]uint64
	gen      uint64
	queued   map[entry.Key]struct{}
	queue    []entry.DirectoryEntry
	waiters  map[entry.Key][]chan Payload
	closed   bool
}

// New creates a Pipeline and starts its dispatcher goroutines.
func New(store storage.Provider, opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.SnippetLines <= 0 {
		opts.SnippetLines = defaultSnippetLines
	}
	if opts.SnippetMaxChars <= 0 {
		opts.SnippetMaxChars = defaultSnippetMaxChars
	}

	p := &Pipeline{
		store:    store,
		log:      logger.New(),
		opts:     opts,
		cache:    map[entry.Key]Payload{},
		terminal: map[entry.Key]struct{}{},
		inflight: map[entry.Key]uint64{},
		queued:   map[entry.Key]struct{}{},
		waiters:  map[entry.Key][]chan Payload{},
	}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < opts.Concurrency; i++ {
		go p.dispatch()
	}

	return p
}

// Request returns the terminal preview value for an entry, generating it if
// needed. Concurrent requests for the same key attach to one generation and
// all resolve with the same value. A request that outlives its timeout (or
// its context) resolves nil, but the generation keeps running and its result
// is still cached for later lookups.
func (p *Pipeline) Request(ctx context.Context, e entry.DirectoryEntry) Payload {
	if entry.ClassOf(e) == entry.PreviewNone {
		return nil
	}
	k := entry.KeyFor(e)

	p.mu.Lock()
	if _, done := p.terminal[k]; done {
		v := p.cache[k]
		p.mu.Unlock()
		return v
	}
	if p.closed {
		// No dispatcher is left to serve this; don't sit out the timeout.
		p.mu.Unlock()
		return nil
	}
	ch := make(chan Payload, 1)
	p.waiters[k] = append(p.waiters[k], ch)
	p.enqueueLocked(e, k)
	p.mu.Unlock()

	timer := time.NewTimer(p.opts.RequestTimeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v
	case <-timer.C:
	case <-ctx.Done():
	}

	p.mu.Lock()
	p.removeWaiterLocked(k, ch)
	p.mu.Unlock()

	// The completion may have raced the timeout; the buffered channel keeps
	// the value if so.
	select {
	case v := <-ch:
		return v
	default:
		return nil
	}
}

// RequestVisibleSet declares the current viewport. Queued entries that fell
// out of the set are dropped; in-flight generations are left to finish.
// Visible entries that are neither cached, queued, nor in flight are appended
// in viewport order.
func (p *Pipeline) RequestVisibleSet(entries []entry.DirectoryEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	visible := make(map[entry.Key]struct{}, len(entries))
	for _, e := range entries {
		if entry.ClassOf(e) == entry.PreviewNone {
			continue
		}
		visible[entry.KeyFor(e)] = struct{}{}
	}

	// Rebuild the queue rather than patch it: keep still-visible work in its
	// current order, then append the newly visible.
	kept := p.queue[:0]
	for _, e := range p.queue {
		k := entry.KeyFor(e)
		if _, ok := visible[k]; ok {
			kept = append(kept, e)
		} else {
			delete(p.queued, k)
		}
	}
	p.queue = kept

	for _, e := range entries {
		if entry.ClassOf(e) == entry.PreviewNone {
			continue
		}
		k := entry.KeyFor(e)
		if _, done := p.terminal[k]; done {
			continue
		}
		p.enqueueLocked(e, k)
	}

	p.cond.Broadcast()
}

// PeekCached is the non-blocking lookup for synchronous rendering. The bool
// reports whether a terminal value exists; the Payload may still be nil for a
// negative entry.
func (p *Pipeline) PeekCached(e entry.DirectoryEntry) (Payload, bool) {
	k := entry.KeyFor(e)
	p.mu.Lock()
	defer p.mu.Unlock()
	_, done := p.terminal[k]
	return p.cache[k], done
}

// Evict forgets the given entries: cached values are dropped, queue
// membership is cancelled, waiters resolve nil, and an in-flight generation's
// eventual completion is discarded instead of stored.
func (p *Pipeline) Evict(entries []entry.DirectoryEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	evicted := make(map[entry.Key]struct{}, len(entries))
	for _, e := range entries {
		k := entry.KeyFor(e)
		evicted[k] = struct{}{}
		delete(p.cache, k)
		delete(p.terminal, k)
		delete(p.inflight, k)
		delete(p.queued, k)
		p.resolveLocked(k, nil)
	}

	kept := p.queue[:0]
	for _, e := range p.queue {
		if _, ok := evicted[entry.KeyFor(e)]; !ok {
			kept = append(kept, e)
		}
	}
	p.queue = kept
}

// Stats reports the cache size for the maintenance surface.
type Stats struct {
	ThumbnailCount   int   `json:"thumbnail_count"`
	ApproximateBytes int64 `json:"approximate_bytes"`
	QueueLength      int   `json:"queue_length"`
	InFlight         int   `json:"in_flight"`
}

func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		ThumbnailCount: len(p.terminal),
		QueueLength:    len(p.queue),
		InFlight:       len(p.inflight),
	}
	for _, v := range p.cache {
		if v != nil {
			s.ApproximateBytes += int64(v.approxBytes())
		}
	}
	return s
}

// Clear drops every cached value and all pending work. Waiters resolve nil
// and in-flight completions are discarded.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cache = map[entry.Key]Payload{}
	p.terminal = map[entry.Key]struct{}{}
	p.inflight = map[entry.Key]uint64{}
	p.queued = map[entry.Key]struct{}{}
	p.queue = nil
	for k := range p.waiters {
		p.resolveLocked(k, nil)
	}
}

// Close stops the dispatchers. Pending waiters resolve nil.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	for k := range p.waiters {
		p.resolveLocked(k, nil)
	}
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *Pipeline) enqueueLocked(e entry.DirectoryEntry, k entry.Key) {
	if _, ok := p.queued[k]; ok {
		return
	}
	if _, ok := p.inflight[k]; ok {
		return
	}
	p.queued[k] = struct{}{}
	p.queue = append(p.queue, e)
	p.cond.Signal()
}

func (p *Pipeline) removeWaiterLocked(k entry.Key, ch chan Payload) {
	ws := p.waiters[k]
	for i, w := range ws {
		if w == ch {
			p.waiters[k] = append(ws[:i], ws[i+1:]...)
			break
		}
	}
	if len(p.waiters[k]) == 0 {
		delete(p.waiters, k)
	}
}

func (p *Pipeline) resolveLocked(k entry.Key, v Payload) {
	for _, ch := range p.waiters[k] {
		ch <- v
	}
	delete(p.waiters, k)
}

func (p *Pipeline) dispatch() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}

		e := p.queue[0]
		p.queue = p.queue[1:]
		k := entry.KeyFor(e)
		delete(p.queued, k)

		// Double-check against races from evict and duplicate enqueues.
		if _, done := p.terminal[k]; done {
			p.resolveLocked(k, p.cache[k])
			p.mu.Unlock()
			continue
		}
		if _, busy := p.inflight[k]; busy {
			p.mu.Unlock()
			continue
		}
		p.gen++
		epoch := p.gen
		p.inflight[k] = epoch
		p.mu.Unlock()

		payload := p.generate(e, k)

		p.mu.Lock()
		if p.inflight[k] != epoch {
			// Evicted mid-generation, or an evict+retry already started a
			// newer generation for this key; this completion must not be
			// adopted over the fresh one.
			p.mu.Unlock()
			continue
		}
		delete(p.inflight, k)
		p.cache[k] = payload
		p.terminal[k] = struct{}{}
		p.resolveLocked(k, payload)
		onReady := p.opts.OnReady
		p.mu.Unlock()

		if onReady != nil {
			onReady(k, payload)
		}
	}
}

// generate produces the terminal value for one entry. Failures are absorbed
// into the negative result; callers only ever see a Payload or nil.
func (p *Pipeline) generate(e entry.DirectoryEntry, k entry.Key) Payload {
	id, err := uuid.NewRandom()
	if err != nil {
		p.log.Err(err).Error("new uuid error")
		return nil
	}
	log := p.log.ID(id.String()).Root(logger.Data{"handle": e.Handle, "key": string(k)})
	ctx := log.WithContext(context.Background())

	switch entry.ClassOf(e) {
	case entry.PreviewImage:
		return ImageRef{Handle: e.Handle, MIME: entry.ImageMIME(e)}
	case entry.PreviewText:
		data, err := p.store.ReadContent(ctx, e.Handle, snippetReadLimit)
		if err != nil {
			log.Err(err).Warn("snippet read error")
			return nil
		}
		if !entry.LooksTextual(data) {
			return nil
		}
		return p.snippet(data)
	}
	return nil
}

func (p *Pipeline) snippet(data []byte) TextSnippet {
	truncated := len(data) >= snippetReadLimit

	lines := strings.Split(string(data), "\n")
	if len(lines) > p.opts.SnippetLines {
		lines = lines[:p.opts.SnippetLines]
		truncated = true
	}
	text := strings.Join(lines, "\n")

	if runes := []rune(text); len(runes) > p.opts.SnippetMaxChars {
		text = string(runes[:p.opts.SnippetMaxChars])
		truncated = true
	}

	return TextSnippet{Text: text, Truncated: truncated}
}
