// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
)

// magicBytesZip contains the magic bytes for a zip archive.
var magicBytesZip = [][]byte{
	{0x50, 0x4B, 0x03, 0x04},
}

// isZip checks if data is a zip archive.
func isZip(data []byte) bool {
	return matchesMagicBytes(data, 0, magicBytesZip)
}

// newZipWalker opens src as a zip index. The format is carried through
// so that package containers report their own tag.
func newZipWalker(src string, f Format) (*zipWalker, func() error, error) {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return nil, nil, err
	}
	return &zipWalker{zr: &reader.Reader, format: f}, reader.Close, nil
}

// zipWalker is a walker for zip files.
type zipWalker struct {
	zr     *zip.Reader
	format Format
	fp     int
}

// Format returns the format of the archive.
func (z *zipWalker) Format() Format {
	return z.format
}

// Next returns the next entry in the zip archive.
func (z *zipWalker) Next() (archiveEntry, error) {
	if z.fp >= len(z.zr.File) {
		return nil, io.EOF
	}
	defer func() { z.fp++ }()
	return &zipEntry{z.zr.File[z.fp]}, nil
}

// zipEntry is an entry in a zip archive.
type zipEntry struct {
	zf *zip.File
}

// Name returns the name of the entry.
func (z *zipEntry) Name() string {
	return z.zf.FileHeader.Name
}

// Size returns the size of the entry.
func (z *zipEntry) Size() int64 {
	return int64(z.zf.FileHeader.UncompressedSize64)
}

// Mode returns the mode of the entry.
func (z *zipEntry) Mode() fs.FileMode {
	return z.zf.FileHeader.Mode()
}

// Linkname returns the linkname of the entry. Zip archives store the
// link target as the member content.
func (z *zipEntry) Linkname() string {
	rc, err := z.zf.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	return string(data)
}

// IsRegular returns true if the entry is a regular file.
func (z *zipEntry) IsRegular() bool {
	return z.zf.FileHeader.Mode().Type() == 0
}

// IsDir returns true if the entry is a directory.
func (z *zipEntry) IsDir() bool {
	return z.zf.FileHeader.Mode().Type() == os.ModeDir
}

// IsSymlink returns true if the entry is a symlink.
func (z *zipEntry) IsSymlink() bool {
	return z.zf.FileHeader.Mode().Type() == os.ModeSymlink
}

// Open returns a reader for the entry.
func (z *zipEntry) Open() (io.ReadCloser, error) {
	return z.zf.Open()
}
