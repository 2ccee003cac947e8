package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/satchelfiles/satchel/pkg/entry"
	"github.com/satchelfiles/satchel/pkg/errcodes"
)

// Local serves the OS filesystem rooted at a base directory. Handles are
// absolute cleaned paths under the root.
type Local struct {
	root       string
	showHidden bool
}

type LocalOptions struct {
	Root       string
	ShowHidden bool
}

func NewLocal(opts LocalOptions) (*Local, error) {
	root := opts.Root
	if root == "" {
		root = "/"
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Resolve symlinks up front so the traversal check below compares real
	// paths.
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		realRoot = absRoot
	}

	return &Local{root: realRoot, showHidden: opts.ShowHidden}, nil
}

// Normalize resolves a directory handle to its canonical form and rejects
// paths escaping the provider root.
func (l *Local) Normalize(handle string) (string, error) {
	if handle == "" {
		handle = l.root
	}
	if !filepath.IsAbs(handle) {
		handle = filepath.Join(l.root, handle)
	}
	cleaned := filepath.Clean(handle)

	real, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		real = cleaned
	}

	if real != l.root && !strings.HasPrefix(real, l.root+string(filepath.Separator)) {
		return "", errcodes.PermissionDenied(handle)
	}
	return real, nil
}

func (l *Local) List(_ context.Context, handle string) ([]entry.DirectoryEntry, error) {
	path, err := l.Normalize(handle)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, mapOSError(err, path)
	}
	if !info.IsDir() {
		return nil, errcodes.NotADirectory(path)
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, mapOSError(err, path)
	}

	entries := make([]entry.DirectoryEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if !l.showHidden && strings.HasPrefix(name, ".") {
			continue
		}
		entries = append(entries, l.snapshot(de, filepath.Join(path, name)))
	}

	return entries, nil
}

func (l *Local) ReadContent(_ context.Context, handle string, maxBytes int64) ([]byte, error) {
	path, err := l.Normalize(handle)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, mapOSError(err, path)
	}
	if info.IsDir() {
		return nil, errcodes.IsADirectory(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, mapOSError(err, path)
	}
	defer f.Close()

	r := io.Reader(f)
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

func (l *Local) Stat(_ context.Context, handle string) (entry.DirectoryEntry, error) {
	path, err := l.Normalize(handle)
	if err != nil {
		return entry.DirectoryEntry{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return entry.DirectoryEntry{}, mapOSError(err, path)
	}

	e := entry.DirectoryEntry{
		Name:   info.Name(),
		Kind:   entry.KindFile,
		Handle: path,
	}
	if info.IsDir() {
		e.Kind = entry.KindDirectory
	} else {
		size := info.Size()
		e.Size = &size
	}
	mod := info.ModTime()
	e.ModTime = &mod
	e.IconHint = iconHint(e)
	return e, nil
}

func (l *Local) snapshot(de os.DirEntry, path string) entry.DirectoryEntry {
	e := entry.DirectoryEntry{
		Name:   de.Name(),
		Kind:   entry.KindFile,
		Handle: path,
	}
	if de.IsDir() {
		e.Kind = entry.KindDirectory
	}

	// Metadata is best effort; an entry with no stat info still lists.
	if info, err := de.Info(); err == nil {
		if !de.IsDir() {
			size := info.Size()
			e.Size = &size
		}
		mod := info.ModTime()
		e.ModTime = &mod
	}

	e.IconHint = iconHint(e)
	return e
}

func iconHint(e entry.DirectoryEntry) string {
	if e.IsDir() {
		return "folder"
	}
	switch entry.ClassOf(e) {
	case entry.PreviewImage:
		return "image"
	case entry.PreviewText:
		return "text"
	}
	return "file"
}

func mapOSError(err error, path string) error {
	switch {
	case os.IsNotExist(err):
		return errcodes.NotFound(path)
	case os.IsPermission(err):
		return errcodes.PermissionDenied(path)
	}
	return errors.WithStack(err)
}
