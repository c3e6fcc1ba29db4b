// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"bytes"
	"io"
	"regexp"

	"github.com/andybalholm/brotli"
	"github.com/dsnet/compress/bzip2"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// decompressionFunc returns an io.Reader that decompresses src.
type decompressionFunc func(src io.Reader) (io.Reader, error)

var (
	magicBytesGZip   = [][]byte{{0x1f, 0x8b}}
	magicBytesBzip2  = [][]byte{[]byte("BZh")}
	magicBytesXz     = [][]byte{{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}}
	magicBytesZstd   = [][]byte{{0x28, 0xb5, 0x2f, 0xfd}}
	magicBytesLZ4    = [][]byte{{0x04, 0x22, 0x4d, 0x18}}
	magicBytesSnappy = [][]byte{{0xff, 0x06, 0x00, 0x00, 0x73, 0x4e, 0x61, 0x50, 0x70, 0x59}}
)

func decompressGZipStream(src io.Reader) (io.Reader, error) {
	return gzip.NewReader(src)
}

func decompressBzip2Stream(src io.Reader) (io.Reader, error) {
	return bzip2.NewReader(src, nil)
}

func decompressXzStream(src io.Reader) (io.Reader, error) {
	return xz.NewReader(src)
}

func decompressZstdStream(src io.Reader) (io.Reader, error) {
	zr, err := zstd.NewReader(src)
	if err != nil {
		return nil, err
	}
	return zr.IOReadCloser(), nil
}

func decompressLZ4Stream(src io.Reader) (io.Reader, error) {
	return lz4.NewReader(src), nil
}

func decompressBrotliStream(src io.Reader) (io.Reader, error) {
	return brotli.NewReader(src), nil
}

func decompressSnappyStream(src io.Reader) (io.Reader, error) {
	return snappy.NewReader(src), nil
}

// decompressor describes one compression scheme: how to recognize it in
// a stream header and how to open it. Brotli has no magic bytes and is
// resolved by suffix only.
type decompressor struct {
	format Format
	magic  [][]byte
	fn     decompressionFunc
}

var decompressors = []decompressor{
	{FormatGZip, magicBytesGZip, decompressGZipStream},
	{FormatBzip2, magicBytesBzip2, decompressBzip2Stream},
	{FormatXz, magicBytesXz, decompressXzStream},
	{FormatZstd, magicBytesZstd, decompressZstdStream},
	{FormatLZ4, magicBytesLZ4, decompressLZ4Stream},
	{FormatSnappy, magicBytesSnappy, decompressSnappyStream},
	{FormatBrotli, nil, decompressBrotliStream},
}

// maxHeaderLength is the longest prefix needed to identify any
// supported stream or archive by magic bytes.
var maxHeaderLength int

func init() {
	for _, d := range decompressors {
		for _, mb := range d.magic {
			if len(mb) > maxHeaderLength {
				maxHeaderLength = len(mb)
			}
		}
	}
	for _, mb := range magicBytesTar {
		if offsetTar+len(mb) > maxHeaderLength {
			maxHeaderLength = offsetTar + len(mb)
		}
	}
	for _, mb := range magicBytesZip {
		if len(mb) > maxHeaderLength {
			maxHeaderLength = len(mb)
		}
	}
	for _, mb := range magicBytesRar {
		if len(mb) > maxHeaderLength {
			maxHeaderLength = len(mb)
		}
	}
	for _, mb := range magicBytes7zip {
		if len(mb) > maxHeaderLength {
			maxHeaderLength = len(mb)
		}
	}
}

// decompressorFor returns the decompression function for a stream
// format, or nil if f is not a single-stream compression format.
func decompressorFor(f Format) decompressionFunc {
	for _, d := range decompressors {
		if d.format == f {
			return d.fn
		}
	}
	return nil
}

// detectDecompressor identifies the compression of a stream header by
// magic bytes.
func detectDecompressor(header []byte) (decompressionFunc, bool) {
	for _, d := range decompressors {
		if len(d.magic) == 0 {
			continue
		}
		if matchesMagicBytes(header, 0, d.magic) {
			return d.fn, true
		}
	}
	return nil, false
}

// matchesMagicBytes checks if data contains one of the magicBytes
// sequences at offset.
func matchesMagicBytes(data []byte, offset int, magicBytes [][]byte) bool {
	// check all possible magic bytes until a match is found
	for _, mb := range magicBytes {
		// check if header is long enough
		if offset+len(mb) > len(data) {
			continue
		}

		// check for byte match
		if bytes.Equal(mb, data[offset:offset+len(mb)]) {
			return true
		}
	}

	// no match found
	return false
}

// nameRestriction is a named regex that an output filename must not
// match.
type nameRestriction struct {
	restriction string
	regex       *regexp.Regexp
}

// outputNameRestrictions rejects anything that is not a plain filename.
// The output name of a single-stream decompression is derived from the
// source filename, which could otherwise redirect the output outside
// the target directory.
var outputNameRestrictions = []nameRestriction{
	{"empty name", regexp.MustCompile(`^$`)},
	{"current directory", regexp.MustCompile(`^\.$`)},
	{"parent directory", regexp.MustCompile(`^\.\.$`)},
	{"path separator", regexp.MustCompile(`[/\\]`)},
	{"null byte", regexp.MustCompile(`\x00`)},
}

// validOutputName checks name against the restriction list and returns
// the violated restriction, if any.
func validOutputName(name string) (string, bool) {
	for _, r := range outputNameRestrictions {
		if r.regex.FindStringIndex(name) != nil {
			return r.restriction, false
		}
	}
	return "", true
}
