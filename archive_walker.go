// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"io"
	"io/fs"
)

// archiveWalker is an interface that represents a file walker in an
// archive.
type archiveWalker interface {
	Format() Format
	Next() (archiveEntry, error)
}

// archiveEntry is an interface that represents a single member in an
// archive.
type archiveEntry interface {
	IsDir() bool
	IsRegular() bool
	IsSymlink() bool
	Linkname() string
	Mode() fs.FileMode
	Name() string
	Open() (io.ReadCloser, error)
	Size() int64
}

// noopReaderCloser is a no-op io.Closer around an io.Reader, used for
// walkers whose entries share the underlying stream.
type noopReaderCloser struct {
	io.Reader
}

// Close implements the io.Closer interface.
func (n noopReaderCloser) Close() error {
	return nil
}
