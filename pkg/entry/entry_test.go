package entry

import (
	"testing"
	"time"

	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
)

func TestKeyFor(t *testing.T) {
	tests := []struct {
		name string
		a    DirectoryEntry
		b    DirectoryEntry
		same bool
	}{
		{
			name: "identical entries share a key",
			a:    DirectoryEntry{Name: "notes.txt", Handle: "/docs/notes.txt"},
			b:    DirectoryEntry{Name: "notes.txt", Handle: "/docs/notes.txt"},
			same: true,
		},
		{
			name: "metadata does not affect the key",
			a:    DirectoryEntry{Name: "notes.txt", Handle: "/docs/notes.txt", Size: int64Ptr(10)},
			b:    DirectoryEntry{Name: "notes.txt", Handle: "/docs/notes.txt", Size: int64Ptr(999), ModTime: pointerutil.Time(time.Now())},
			same: true,
		},
		{
			name: "rename changes the key",
			a:    DirectoryEntry{Name: "notes.txt", Handle: "/docs/notes.txt"},
			b:    DirectoryEntry{Name: "notes2.txt", Handle: "/docs/notes2.txt"},
			same: false,
		},
		{
			name: "separator prevents boundary collisions",
			a:    DirectoryEntry{Name: "bc", Handle: "a"},
			b:    DirectoryEntry{Name: "c", Handle: "ab"},
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.same {
				assert.Equal(t, KeyFor(tt.a), KeyFor(tt.b))
			} else {
				assert.NotEqual(t, KeyFor(tt.a), KeyFor(tt.b))
			}
		})
	}
}

func TestSameMetadata(t *testing.T) {
	now := time.Now()

	a := DirectoryEntry{Name: "a", Handle: "/a", Size: int64Ptr(10), ModTime: pointerutil.Time(now)}
	assert.True(t, a.SameMetadata(DirectoryEntry{Name: "a", Handle: "/a", Size: int64Ptr(10), ModTime: pointerutil.Time(now)}))
	assert.False(t, a.SameMetadata(DirectoryEntry{Name: "a", Handle: "/a", Size: int64Ptr(11), ModTime: pointerutil.Time(now)}))
	assert.False(t, a.SameMetadata(DirectoryEntry{Name: "a", Handle: "/a", Size: int64Ptr(10), ModTime: pointerutil.Time(now.Add(time.Second))}))
	assert.False(t, a.SameMetadata(DirectoryEntry{Name: "a", Handle: "/a"}))

	// Nil metadata on both sides still matches.
	b := DirectoryEntry{Name: "b", Handle: "/b"}
	assert.True(t, b.SameMetadata(DirectoryEntry{Name: "b", Handle: "/b"}))
}

func TestClassOf(t *testing.T) {
	tests := []struct {
		name     string
		entry    DirectoryEntry
		expected PreviewClass
	}{
		{
			name:     "jpeg image",
			entry:    DirectoryEntry{Name: "photo.JPG", Kind: KindFile},
			expected: PreviewImage,
		},
		{
			name:     "markdown text",
			entry:    DirectoryEntry{Name: "README.md", Kind: KindFile},
			expected: PreviewText,
		},
		{
			name:     "directory is never previewable",
			entry:    DirectoryEntry{Name: "photos.png", Kind: KindDirectory},
			expected: PreviewNone,
		},
		{
			name:     "unknown extension",
			entry:    DirectoryEntry{Name: "archive.zip", Kind: KindFile},
			expected: PreviewNone,
		},
		{
			name:     "no extension",
			entry:    DirectoryEntry{Name: "Makefile2", Kind: KindFile},
			expected: PreviewNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassOf(tt.entry))
		})
	}
}

func TestLooksTextual(t *testing.T) {
	assert.True(t, LooksTextual([]byte("package main\n\nfunc main() {}\n")))
	assert.True(t, LooksTextual(nil))
	assert.False(t, LooksTextual([]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00}))
}

func TestImageMIME(t *testing.T) {
	assert.Equal(t, "image/png", ImageMIME(DirectoryEntry{Name: "shot.png"}))
	assert.Equal(t, "image/jpeg", ImageMIME(DirectoryEntry{Name: "shot.JPEG"}))
	assert.Equal(t, "", ImageMIME(DirectoryEntry{Name: "shot.zip"}))
}

func int64Ptr(i int64) *int64 {
	return &i
}
