package entry

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// PreviewClass describes how the thumbnail pipeline should render an entry.
type PreviewClass string

const (
	// PreviewImage entries resolve to a reference to the underlying
	// resource; decoding and resizing are the renderer's concern.
	PreviewImage PreviewClass = "image"
	// PreviewText entries resolve to a short snippet of their content.
	PreviewText PreviewClass = "text"
	// PreviewNone entries are never enqueued.
	PreviewNone PreviewClass = "none"
)

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".heic": "image/heic",
}

var textExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".log": {}, ".csv": {}, ".json": {},
	".yaml": {}, ".yml": {}, ".toml": {}, ".xml": {}, ".html": {},
	".css": {}, ".js": {}, ".ts": {}, ".go": {}, ".py": {}, ".rb": {},
	".rs": {}, ".c": {}, ".h": {}, ".cpp": {}, ".java": {}, ".kt": {},
	".swift": {}, ".sh": {}, ".sql": {}, ".ini": {}, ".conf": {},
	".env": {}, ".gitignore": {}, ".mod": {}, ".sum": {},
}

// ClassOf determines the preview class of an entry from its name. Directories
// and unrecognized extensions are not previewable.
func ClassOf(e DirectoryEntry) PreviewClass {
	if e.IsDir() {
		return PreviewNone
	}
	ext := strings.ToLower(filepath.Ext(e.Name))
	if _, ok := imageExtensions[ext]; ok {
		return PreviewImage
	}
	if _, ok := textExtensions[ext]; ok {
		return PreviewText
	}
	return PreviewNone
}

// ImageMIME returns the MIME type for an image entry based on its extension.
func ImageMIME(e DirectoryEntry) string {
	return imageExtensions[strings.ToLower(filepath.Ext(e.Name))]
}

// LooksTextual sniffs content bytes and reports whether they are renderable
// as a text snippet. Extensions get an entry into the queue, but the bytes
// have the final say so a binary blob named notes.txt still produces a
// negative result instead of garbage.
func LooksTextual(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	mtype := mimetype.Detect(data)
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
