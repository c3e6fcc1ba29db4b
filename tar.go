// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"archive/tar"
	"io"
	"io/fs"
)

// offsetTar is the offset where the magic bytes are located in the file.
const offsetTar = 257

// magicBytesTar are the magic bytes for tar files.
var magicBytesTar = [][]byte{
	[]byte("ustar\x00tar\x00"),
	[]byte("ustar\x00"),
	[]byte("ustar  \x00"),
}

// isTar checks if the header matches the magic bytes for tar files.
func isTar(data []byte) bool {
	return matchesMagicBytes(data, offsetTar, magicBytesTar)
}

// newTarWalker wraps the stream src into a tar walker. Compression of
// the stream is detected by magic bytes before this is called.
func newTarWalker(src io.Reader, f Format) *tarWalker {
	return &tarWalker{tr: tar.NewReader(src), format: f}
}

// tarWalker is a walker for tar files.
type tarWalker struct {
	tr     *tar.Reader
	format Format
}

// Format returns the format of the archive.
func (t *tarWalker) Format() Format {
	return t.format
}

// Next returns the next entry in the tar archive.
func (t *tarWalker) Next() (archiveEntry, error) {
	hdr, err := t.tr.Next()
	if err != nil {
		return nil, err
	}
	return &tarEntry{hdr, t.tr}, nil
}

// tarEntry is an entry in a tar archive.
type tarEntry struct {
	hdr *tar.Header
	tr  *tar.Reader
}

// Name returns the name of the entry.
func (t *tarEntry) Name() string {
	return t.hdr.Name
}

// Size returns the size of the entry.
func (t *tarEntry) Size() int64 {
	return t.hdr.Size
}

// Mode returns the mode of the entry.
func (t *tarEntry) Mode() fs.FileMode {
	return t.hdr.FileInfo().Mode()
}

// Linkname returns the linkname of the entry.
func (t *tarEntry) Linkname() string {
	return t.hdr.Linkname
}

// IsRegular returns true if the entry is a regular file.
func (t *tarEntry) IsRegular() bool {
	return t.hdr.Typeflag == tar.TypeReg
}

// IsDir returns true if the entry is a directory.
func (t *tarEntry) IsDir() bool {
	return t.hdr.Typeflag == tar.TypeDir
}

// IsSymlink returns true if the entry is a symlink.
func (t *tarEntry) IsSymlink() bool {
	return t.hdr.Typeflag == tar.TypeSymlink
}

// Open returns a reader for the entry.
func (t *tarEntry) Open() (io.ReadCloser, error) {
	return noopReaderCloser{t.tr}, nil
}

// isPaxGlobalHeader reports the git comment member `pax_global_header`
// of type flag 'g', which carries no payload worth extracting.
func isPaxGlobalHeader(ae archiveEntry) bool {
	te, ok := ae.(*tarEntry)
	return ok && te.hdr.Typeflag == tar.TypeXGlobalHeader && te.hdr.Name == "pax_global_header"
}
