package listing

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/satchelfiles/satchel/pkg/entry"
)

// loadProgressively performs the foreground load of an uncached directory.
// The bulk listing happens once; the sorted result is revealed to the cache
// in fixed-size chunks so the caller's UI observes a growing, always
// consistent prefix instead of an all-or-nothing response. The final chunk
// marks the listing fully loaded.
//
// The load registers as the directory's active refresh: a Refresh issued
// mid-load supersedes it, and the remaining chunks are dropped instead of
// overwriting the newer listing.
func (c *Cache) loadProgressively(ctx context.Context, dir string) ([]entry.DirectoryEntry, error) {
	loadCtx, cancel := context.WithCancel(ctx)
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

	entries, err := c.store.List(loadCtx, dir)
	if err != nil {
		return nil, err
	}
	c.sortEntries(entries)

	chunk := c.opts.ChunkSize
	if len(entries) <= chunk {
		// Nothing to stage; reveal in a single step.
		c.reveal(loadCtx, dir, entries, true)
		return entries, nil
	}

	for i := chunk; i < len(entries); i += chunk {
		c.reveal(loadCtx, dir, entries[:i], false)

		select {
		case <-loadCtx.Done():
			if err := ctx.Err(); err != nil {
				return nil, errors.WithStack(err)
			}
			// Superseded by a refresh; its listing wins, ours is complete
			// enough to hand back.
			return entries, nil
		case <-time.After(c.opts.ChunkWait):
		}
	}
	c.reveal(loadCtx, dir, entries, true)

	return entries, nil
}

// reveal stores a prefix of the final listing and notifies the UI boundary.
// A cancelled load writes nothing.
func (c *Cache) reveal(ctx context.Context, dir string, entries []entry.DirectoryEntry, fullyLoaded bool) {
	now := time.Now()

	c.mu.Lock()
	select {
	case <-ctx.Done():
		c.mu.Unlock()
		return
	default:
	}
	c.dirs[dir] = &cached{
		entries:         copyEntries(entries),
		fullyLoaded:     fullyLoaded,
		lastRefreshedAt: now,
	}
	c.mu.Unlock()

	c.notify(dir, entries)
}
