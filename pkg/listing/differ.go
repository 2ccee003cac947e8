package listing

import (
	"github.com/satchelfiles/satchel/pkg/entry"
)

// Diff classifies the entries of a new listing against the previous one.
// Keys embed stable identity only, so a rename is delete+add while a size or
// mtime change on the same key is modified.
type Diff struct {
	Added     []entry.DirectoryEntry
	Modified  []entry.DirectoryEntry
	Deleted   []entry.DirectoryEntry
	Unchanged []entry.DirectoryEntry
}

// Empty reports whether the refresh was a no-op for the UI. Unchanged entries
// don't count; repeated refreshes of an unchanged directory never trigger a
// visible update.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Deleted) == 0
}

// Stale returns the entries whose cached thumbnails can no longer be served:
// deleted entries and modified ones, whose key survived but whose content
// revision did not.
func (d Diff) Stale() []entry.DirectoryEntry {
	if len(d.Deleted) == 0 && len(d.Modified) == 0 {
		return nil
	}
	stale := make([]entry.DirectoryEntry, 0, len(d.Deleted)+len(d.Modified))
	stale = append(stale, d.Deleted...)
	stale = append(stale, d.Modified...)
	return stale
}

// DiffEntries compares two listings of the same directory by key.
func DiffEntries(oldEntries, newEntries []entry.DirectoryEntry) Diff {
	oldByKey := make(map[entry.Key]entry.DirectoryEntry, len(oldEntries))
	for _, e := range oldEntries {
		oldByKey[entry.KeyFor(e)] = e
	}

	var d Diff
	seen := make(map[entry.Key]struct{}, len(newEntries))
	for _, e := range newEntries {
		k := entry.KeyFor(e)
		seen[k] = struct{}{}
		prev, ok := oldByKey[k]
		switch {
		case !ok:
			d.Added = append(d.Added, e)
		case !prev.SameMetadata(e):
			d.Modified = append(d.Modified, e)
		default:
			d.Unchanged = append(d.Unchanged, e)
		}
	}

	for _, e := range oldEntries {
		if _, ok := seen[entry.KeyFor(e)]; !ok {
			d.Deleted = append(d.Deleted, e)
		}
	}

	return d
}
