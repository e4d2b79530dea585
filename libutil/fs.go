package libutil

import (
	"errors"
	"io/fs"
)

// LayeredFS resolves every name in Override first and falls back to Base.
// A nil Override behaves like Base alone.
type LayeredFS struct {
	Override fs.FS
	Base     fs.FS
}

func (l LayeredFS) Open(name string) (fs.File, error) {
	if l.Override != nil {
		f, err := l.Override.Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return l.Base.Open(name)
}

// MustSub returns the subtree of an embedded file system and panics when dir is not a valid path
func MustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
