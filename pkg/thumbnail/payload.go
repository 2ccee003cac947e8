package thumbnail

// Payload is a terminal preview value. A nil Payload stored in the cache is
// the negative result: generation failed or the content turned out to be
// unsupported, and the failure is remembered so it isn't retried until an
// explicit evict.
type Payload interface {
	PayloadType() string
	approxBytes() int
}

// ImageRef points the renderer at the underlying resource. The pipeline never
// decodes or resizes image content; that is a rendering concern.
type ImageRef struct {
	Handle string `json:"handle"`
	MIME   string `json:"mime,omitempty"`
}

func (ImageRef) PayloadType() string { return "image" }

func (r ImageRef) approxBytes() int { return len(r.Handle) + len(r.MIME) }

// TextSnippet is the first few lines of a text-like file.
type TextSnippet struct {
	Text      string `json:"text"`
	Truncated bool   `json:"truncated,omitempty"`
}

func (TextSnippet) PayloadType() string { return "text" }

func (s TextSnippet) approxBytes() int { return len(s.Text) }
