package storage

import (
	"context"

	"github.com/satchelfiles/satchel/pkg/entry"
)

// Provider is the storage collaborator the cache and pipeline read through.
// Implementations must map their failures to the errcodes taxonomy: not
// found, permission denied, and is-a-directory.
type Provider interface {
	// List returns the entries of the directory identified by handle. The
	// returned slice is unsorted; ordering is the caller's concern.
	List(ctx context.Context, handle string) ([]entry.DirectoryEntry, error)
	// ReadContent reads up to maxBytes of a file's content.
	ReadContent(ctx context.Context, handle string, maxBytes int64) ([]byte, error)
	// Stat returns a fresh snapshot of a single object.
	Stat(ctx context.Context, handle string) (entry.DirectoryEntry, error)
}
