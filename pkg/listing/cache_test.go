package listing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/satchelfiles/satchel/pkg/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeListStore serves queued listing snapshots per directory. When gate is
// set, List blocks on it after recording the call.
type fakeListStore struct {
	mu      sync.Mutex
	lists   map[string][][]entry.DirectoryEntry
	listErr error
	calls   int
	gate    chan struct{}
	started chan struct{}
}

func newFakeListStore() *fakeListStore {
	return &fakeListStore{lists: map[string][][]entry.DirectoryEntry{}}
}

// push queues the next snapshot List returns for dir. The last snapshot is
// sticky.
func (f *fakeListStore) push(dir string, entries ...entry.DirectoryEntry) {
	f.mu.Lock()
	f.lists[dir] = append(f.lists[dir], entries)
	f.mu.Unlock()
}

func (f *fakeListStore) List(_ context.Context, dir string) ([]entry.DirectoryEntry, error) {
	f.mu.Lock()
	f.calls++
	snapshots := f.lists[dir]
	var out []entry.DirectoryEntry
	if len(snapshots) > 0 {
		out = snapshots[0]
		if len(snapshots) > 1 {
			f.lists[dir] = snapshots[1:]
		}
	}
	err := f.listErr
	gate := f.gate
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return append([]entry.DirectoryEntry(nil), out...), nil
}

func (f *fakeListStore) ReadContent(_ context.Context, _ string, _ int64) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeListStore) Stat(_ context.Context, _ string) (entry.DirectoryEntry, error) {
	return entry.DirectoryEntry{}, errors.New("not implemented")
}

func (f *fakeListStore) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes [][]entry.DirectoryEntry
}

func (n *recordingNotifier) OnEntriesChanged(_ string, entries []entry.DirectoryEntry) {
	n.mu.Lock()
	n.changes = append(n.changes, entries)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.changes)
}

type recordingEvictor struct {
	mu      sync.Mutex
	evicted []entry.DirectoryEntry
}

func (e *recordingEvictor) Evict(entries []entry.DirectoryEntry) {
	e.mu.Lock()
	e.evicted = append(e.evicted, entries...)
	e.mu.Unlock()
}

func (e *recordingEvictor) names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return names(e.evicted)
}

func TestGetOrLoadMiss(t *testing.T) {
	store := newFakeListStore()
	store.push("/a", file("b.txt", 2), file("a.txt", 1))
	notifier := &recordingNotifier{}

	c := NewCache(store, Options{Notifier: notifier})

	entries, err := c.GetOrLoad(context.Background(), "/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names(entries))
	assert.Equal(t, 1, notifier.count())

	// A second call serves from cache without touching the store.
	entries, err = c.GetOrLoad(context.Background(), "/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names(entries))
	assert.Equal(t, 1, store.listCalls())
}

func TestGetRequireFullyLoaded(t *testing.T) {
	store := newFakeListStore()
	store.push("/a", file("a.txt", 1))

	c := NewCache(store, Options{})

	_, ok := c.Get("/a", false)
	assert.False(t, ok)

	_, err := c.GetOrLoad(context.Background(), "/a")
	require.NoError(t, err)

	entries, ok := c.Get("/a", true)
	assert.True(t, ok)
	assert.Equal(t, []string{"a.txt"}, names(entries))
}

func TestGetOrLoadPropagatesError(t *testing.T) {
	store := newFakeListStore()
	store.listErr = errors.New("permission denied")

	c := NewCache(store, Options{})

	_, err := c.GetOrLoad(context.Background(), "/a")
	assert.Error(t, err)

	// The failed load left nothing behind.
	_, ok := c.Get("/a", false)
	assert.False(t, ok)
}

func TestRefreshDiffDrivesEviction(t *testing.T) {
	store := newFakeListStore()
	store.push("/a", file("keep.txt", 1), file("gone.txt", 2), file("grow.txt", 3))
	store.push("/a", file("keep.txt", 1), file("grow.txt", 99), file("new.txt", 4))
	notifier := &recordingNotifier{}
	evictor := &recordingEvictor{}

	c := NewCache(store, Options{Notifier: notifier, Evictor: evictor})

	_, err := c.GetOrLoad(context.Background(), "/a")
	require.NoError(t, err)
	require.Equal(t, 1, notifier.count())

	entries, err := c.Refresh(context.Background(), "/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"grow.txt", "keep.txt", "new.txt"}, names(entries))

	// Deleted and modified entries lose their thumbnails.
	assert.ElementsMatch(t, []string{"gone.txt", "grow.txt"}, evictor.names())
	assert.Equal(t, 2, notifier.count())

	cachedEntries, ok := c.Get("/a", true)
	require.True(t, ok)
	assert.Equal(t, []string{"grow.txt", "keep.txt", "new.txt"}, names(cachedEntries))
}

func TestRefreshUnchangedIsSilent(t *testing.T) {
	store := newFakeListStore()
	store.push("/a", file("a.txt", 1))
	notifier := &recordingNotifier{}
	evictor := &recordingEvictor{}

	c := NewCache(store, Options{Notifier: notifier, Evictor: evictor})

	_, err := c.GetOrLoad(context.Background(), "/a")
	require.NoError(t, err)
	require.Equal(t, 1, notifier.count())

	for i := 0; i < 3; i++ {
		_, err = c.Refresh(context.Background(), "/a")
		require.NoError(t, err)
	}

	// Idempotence: repeated refreshes of an unchanged directory never
	// trigger a visible update.
	assert.Equal(t, 1, notifier.count())
	assert.Empty(t, evictor.names())
}

func TestSupersededRefreshIsDiscarded(t *testing.T) {
	store := newFakeListStore()
	store.push("/a", file("from-first.txt", 1))
	store.push("/a", file("from-second.txt", 2))
	store.gate = make(chan struct{})
	store.started = make(chan struct{}, 2)

	c := NewCache(store, Options{})

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = c.Refresh(context.Background(), "/a")
	}()

	// Wait until the first refresh is inside List, then supersede it.
	<-store.started

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		<-store.started
		// Both refreshes are now blocked; release them together.
		close(store.gate)
	}()

	entries, err := c.Refresh(context.Background(), "/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"from-second.txt"}, names(entries))

	<-firstDone
	<-secondDone

	// Only the second refresh's data survives.
	cachedEntries, ok := c.Get("/a", true)
	require.True(t, ok)
	assert.Equal(t, []string{"from-second.txt"}, names(cachedEntries))
}

func TestRefreshErrorLeavesPreviousValue(t *testing.T) {
	store := newFakeListStore()
	store.push("/a", file("a.txt", 1))

	c := NewCache(store, Options{})

	_, err := c.GetOrLoad(context.Background(), "/a")
	require.NoError(t, err)

	store.mu.Lock()
	store.listErr = errors.New("storage detached")
	store.mu.Unlock()

	_, err = c.Refresh(context.Background(), "/a")
	assert.Error(t, err)

	entries, ok := c.Get("/a", true)
	require.True(t, ok)
	assert.Equal(t, []string{"a.txt"}, names(entries))
}

func TestInvalidate(t *testing.T) {
	store := newFakeListStore()
	store.push("/a", file("a.txt", 1))
	store.push("/b", file("b.txt", 1))

	c := NewCache(store, Options{})

	_, err := c.GetOrLoad(context.Background(), "/a")
	require.NoError(t, err)
	_, err = c.GetOrLoad(context.Background(), "/b")
	require.NoError(t, err)

	c.Invalidate("/a")
	_, ok := c.Get("/a", false)
	assert.False(t, ok)
	_, ok = c.Get("/b", false)
	assert.True(t, ok)

	c.InvalidateAll()
	_, ok = c.Get("/b", false)
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	store := newFakeListStore()
	store.push("/a", file("a.txt", 1), file("b.txt", 2))

	c := NewCache(store, Options{})

	s := c.Stats()
	assert.Equal(t, 0, s.DirectoryCount)

	_, err := c.GetOrLoad(context.Background(), "/a")
	require.NoError(t, err)

	s = c.Stats()
	assert.Equal(t, 1, s.DirectoryCount)
	assert.Equal(t, 2, s.EntryCount)
	assert.Positive(t, s.ApproximateBytes)
}

func TestCleanupDropsStaleListings(t *testing.T) {
	store := newFakeListStore()
	store.push("/a", file("a.txt", 1))
	evictor := &recordingEvictor{}

	c := NewCache(store, Options{TTL: time.Nanosecond, Evictor: evictor})

	_, err := c.GetOrLoad(context.Background(), "/a")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	dropped := c.Cleanup()

	assert.Equal(t, 1, dropped)
	_, ok := c.Get("/a", false)
	assert.False(t, ok)
	assert.Equal(t, []string{"a.txt"}, evictor.names())
}
