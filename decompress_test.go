// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"bytes"
	"io"
	"testing"
)

func TestDetectDecompressor(t *testing.T) {
	gz := gzipBytes(t, []byte("payload"))

	fn, ok := detectDecompressor(gz)
	if !ok || fn == nil {
		t.Fatalf("detectDecompressor() did not recognize a gzip header")
	}

	stream, err := fn(bytes.NewReader(gz))
	if err != nil {
		t.Fatalf("decompression func error = %v", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("cannot read decompressed stream: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("decompressed = %q, want %q", data, "payload")
	}
}

func TestDetectDecompressorNoMatch(t *testing.T) {
	if _, ok := detectDecompressor([]byte("plain text content")); ok {
		t.Errorf("detectDecompressor() recognized plain text")
	}
	if _, ok := detectDecompressor(nil); ok {
		t.Errorf("detectDecompressor() recognized an empty header")
	}
}

func TestDecompressorFor(t *testing.T) {
	for _, f := range []Format{FormatGZip, FormatBzip2, FormatXz, FormatZstd, FormatLZ4, FormatBrotli, FormatSnappy} {
		if decompressorFor(f) == nil {
			t.Errorf("decompressorFor(%v) = nil, want a decompression func", f)
		}
	}
	for _, f := range []Format{FormatZip, FormatTar, FormatPackage, FormatUnknown} {
		if decompressorFor(f) != nil {
			t.Errorf("decompressorFor(%v) != nil for a non-stream format", f)
		}
	}
}

func TestMatchesMagicBytes(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		offset int
		magic  [][]byte
		want   bool
	}{
		{"gzip header", []byte{0x1f, 0x8b, 0x08}, 0, magicBytesGZip, true},
		{"wrong bytes", []byte{0x00, 0x00, 0x00}, 0, magicBytesGZip, false},
		{"too short", []byte{0x1f}, 0, magicBytesGZip, false},
		{"at offset", append(bytes.Repeat([]byte{0}, 257), []byte("ustar\x00")...), 257, magicBytesTar, true},
		{"empty data", nil, 0, magicBytesGZip, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := matchesMagicBytes(test.data, test.offset, test.magic); got != test.want {
				t.Errorf("matchesMagicBytes() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestArchiveSniffers(t *testing.T) {
	zipData := zipBytes(t, map[string]string{"a.txt": "a"})
	tarData := tarBytes(t, map[string]string{"a.txt": "a"})

	if !isZip(zipData) {
		t.Errorf("isZip() = false for a zip archive")
	}
	if !isTar(tarData) {
		t.Errorf("isTar() = false for a tar archive")
	}
	if isZip(tarData) || isTar(zipData) {
		t.Errorf("sniffers cross-matched zip and tar")
	}

	if !isRar(magicBytesRar[0]) || !isRar(magicBytesRar[1]) {
		t.Errorf("isRar() = false for rar magic bytes")
	}
	if !is7zip(magicBytes7zip[0]) {
		t.Errorf("is7zip() = false for 7zip magic bytes")
	}
	if isRar(zipData) || is7zip(zipData) {
		t.Errorf("sniffers matched a zip archive as rar or 7zip")
	}
}

func TestValidOutputName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"data.txt", true},
		{"archive.tar", true},
		{"", false},
		{".", false},
		{"..", false},
		{"a/b", false},
		{`a\b`, false},
		{"a\x00b", false},
		{"..hidden", true},
		{".hidden", true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, ok := validOutputName(test.name); ok != test.valid {
				t.Errorf("validOutputName(%q) = %v, want %v", test.name, ok, test.valid)
			}
		})
	}
}
