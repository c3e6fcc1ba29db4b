// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"io"
	"io/fs"

	"github.com/bodgit/sevenzip"
)

// magicBytes7zip contains the magic bytes for a 7zip archive.
var magicBytes7zip = [][]byte{
	{0x37, 0x7a, 0xbc, 0xaf, 0x27, 0x1c},
}

// is7zip checks if data is a 7zip archive.
func is7zip(data []byte) bool {
	return matchesMagicBytes(data, 0, magicBytes7zip)
}

// newSevenZipWalker opens src as a 7zip index.
func newSevenZipWalker(src string) (*sevenZipWalker, func() error, error) {
	reader, err := sevenzip.OpenReader(src)
	if err != nil {
		return nil, nil, err
	}
	return &sevenZipWalker{zr: reader}, reader.Close, nil
}

// sevenZipWalker is a walker for 7zip files.
type sevenZipWalker struct {
	zr *sevenzip.ReadCloser
	fp int
}

// Format returns the format of the archive.
func (z *sevenZipWalker) Format() Format {
	return FormatSevenZip
}

// Next returns the next entry in the 7zip archive.
func (z *sevenZipWalker) Next() (archiveEntry, error) {
	if z.fp >= len(z.zr.File) {
		return nil, io.EOF
	}
	defer func() { z.fp++ }()
	return &sevenZipEntry{z.zr.File[z.fp]}, nil
}

// sevenZipEntry is an entry in a 7zip archive.
type sevenZipEntry struct {
	zf *sevenzip.File
}

// Name returns the name of the entry.
func (z *sevenZipEntry) Name() string {
	return z.zf.Name
}

// Size returns the size of the entry.
func (z *sevenZipEntry) Size() int64 {
	return z.zf.FileInfo().Size()
}

// Mode returns the mode of the entry.
func (z *sevenZipEntry) Mode() fs.FileMode {
	return z.zf.Mode()
}

// Linkname returns an empty string, 7zip symlinks are not carried over.
func (z *sevenZipEntry) Linkname() string {
	return ""
}

// IsRegular returns true if the entry is a regular file.
func (z *sevenZipEntry) IsRegular() bool {
	return z.zf.Mode().Type() == 0
}

// IsDir returns true if the entry is a directory.
func (z *sevenZipEntry) IsDir() bool {
	return z.zf.FileInfo().IsDir()
}

// IsSymlink returns false, 7zip symlinks are treated as unsupported.
func (z *sevenZipEntry) IsSymlink() bool {
	return false
}

// Open returns a reader for the entry.
func (z *sevenZipEntry) Open() (io.ReadCloser, error) {
	return z.zf.Open()
}
