// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"io"
	"io/fs"

	"github.com/nwaples/rardecode"
)

// magicBytesRar contains the magic bytes for rar v4 and v5 archives.
var magicBytesRar = [][]byte{
	{0x52, 0x61, 0x72, 0x21, 0x1a, 0x07, 0x00},
	{0x52, 0x61, 0x72, 0x21, 0x1a, 0x07, 0x01, 0x00},
}

// isRar checks if data is a rar archive.
func isRar(data []byte) bool {
	return matchesMagicBytes(data, 0, magicBytesRar)
}

// newRarWalker wraps the stream src into a rar walker.
func newRarWalker(src io.Reader) (*rarWalker, error) {
	reader, err := rardecode.NewReader(src, "")
	if err != nil {
		return nil, err
	}
	return &rarWalker{rr: reader}, nil
}

// rarWalker is a walker for rar files.
type rarWalker struct {
	rr *rardecode.Reader
}

// Format returns the format of the archive.
func (r *rarWalker) Format() Format {
	return FormatRar
}

// Next returns the next entry in the rar archive.
func (r *rarWalker) Next() (archiveEntry, error) {
	hdr, err := r.rr.Next()
	if err != nil {
		return nil, err
	}
	return &rarEntry{hdr, r.rr}, nil
}

// rarEntry is an entry in a rar archive.
type rarEntry struct {
	hdr *rardecode.FileHeader
	rr  *rardecode.Reader
}

// Name returns the name of the entry.
func (r *rarEntry) Name() string {
	return r.hdr.Name
}

// Size returns the size of the entry.
func (r *rarEntry) Size() int64 {
	return r.hdr.UnPackedSize
}

// Mode returns the mode of the entry.
func (r *rarEntry) Mode() fs.FileMode {
	return r.hdr.Mode()
}

// Linkname returns an empty string, rar symlinks are not carried over.
func (r *rarEntry) Linkname() string {
	return ""
}

// IsRegular returns true if the entry is a regular file.
func (r *rarEntry) IsRegular() bool {
	return !r.hdr.IsDir
}

// IsDir returns true if the entry is a directory.
func (r *rarEntry) IsDir() bool {
	return r.hdr.IsDir
}

// IsSymlink returns false, rar symlinks are treated as regular
// unsupported members.
func (r *rarEntry) IsSymlink() bool {
	return false
}

// Open returns a reader for the entry.
func (r *rarEntry) Open() (io.ReadCloser, error) {
	return noopReaderCloser{r.rr}, nil
}
