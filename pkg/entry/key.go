package entry

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Key is the derived identity of a directory entry. It embeds only the stable
// identity fields (handle and display name), so a rename shows up as
// delete+add while a retouch or resize keeps the same key and is classified as
// modified by the differ. The key doubles as the thumbnail cache and
// coalescing key.
type Key string

// KeyFor derives the Key for an entry. The handle and name are hashed
// together with a separator that cannot appear in either, so "a"+"bc" and
// "ab"+"c" produce distinct keys.
func KeyFor(e DirectoryEntry) Key {
	d := xxhash.New()
	_, _ = d.WriteString(e.Handle)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(e.Name)
	return Key(fmt.Sprintf("%016x", d.Sum64()))
}
