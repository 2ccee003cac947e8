package browse

import (
	"github.com/satchelfiles/satchel/pkg/entry"
	"github.com/satchelfiles/satchel/pkg/listing"
	"github.com/satchelfiles/satchel/pkg/thumbnail"
)

// ListQuery contains query parameters for the list endpoint.
type ListQuery struct {
	Dir         string `query:"dir" json:"dir"`
	RequireFull bool   `query:"require_full" json:"require_full,omitempty"`
	Search      string `query:"search" json:"search,omitempty"`
}

// RefreshPayload forces a reload of one directory.
type RefreshPayload struct {
	Dir string `json:"dir" validate:"required"`
}

// ThumbnailQuery identifies the entry to preview.
type ThumbnailQuery struct {
	Handle string `query:"handle" json:"handle" validate:"required"`
	Name   string `query:"name" json:"name" validate:"required"`
}

// VisibleEntry is one entry of the viewport the UI reports.
type VisibleEntry struct {
	Handle string `json:"handle" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

// VisiblePayload declares the viewport in display order.
type VisiblePayload struct {
	Entries []VisibleEntry `json:"entries"`
}

// InvalidatePayload drops one directory's listing, or all of them.
type InvalidatePayload struct {
	Dir string `json:"dir"`
	All bool   `json:"all"`
}

// ListResponse is the listing served to the UI boundary.
type ListResponse struct {
	Dir         string                 `json:"dir"`
	Entries     []entry.DirectoryEntry `json:"entries"`
	FullyLoaded bool                   `json:"fully_loaded"`
}

// ThumbnailResponse wraps a terminal preview value. A null payload is the
// negative result.
type ThumbnailResponse struct {
	Key     entry.Key         `json:"key"`
	Type    string            `json:"type,omitempty"`
	Payload thumbnail.Payload `json:"payload"`
}

// StatsResponse is the combined maintenance surface.
type StatsResponse struct {
	Listings   listing.Stats   `json:"listings"`
	Thumbnails thumbnail.Stats `json:"thumbnails"`
}

func (v VisibleEntry) directoryEntry() entry.DirectoryEntry {
	return entry.DirectoryEntry{
		Name:   v.Name,
		Kind:   entry.KindFile,
		Handle: v.Handle,
	}
}
