package entry

import (
	"time"
)

// Kind distinguishes files from directories in a listing.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// DirectoryEntry is an immutable snapshot of a file-system object taken at
// listing time. Entries are value objects; they only survive the listing that
// produced them by being copied into the cache or into a diff result.
type DirectoryEntry struct {
	Name     string     `json:"name"`
	Kind     Kind       `json:"kind"`
	Handle   string     `json:"handle"`
	Size     *int64     `json:"size,omitempty"`
	ModTime  *time.Time `json:"mod_time,omitempty"`
	IconHint string     `json:"icon_hint,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (e DirectoryEntry) IsDir() bool {
	return e.Kind == KindDirectory
}

// SameMetadata reports whether two entries with the same Key also agree on the
// volatile metadata fields (size and modification time). The differ uses this
// to classify an entry as modified without changing its identity.
func (e DirectoryEntry) SameMetadata(other DirectoryEntry) bool {
	if !int64PtrEqual(e.Size, other.Size) {
		return false
	}
	return timePtrEqual(e.ModTime, other.ModTime)
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
