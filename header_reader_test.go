// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestHeaderReader(t *testing.T) {
	hr, err := newHeaderReader(strings.NewReader("0123456789"), 4)
	if err != nil {
		t.Fatalf("newHeaderReader() error = %v", err)
	}

	if got := hr.PeekHeader(); !bytes.Equal(got, []byte("0123")) {
		t.Errorf("PeekHeader() = %q, want %q", got, "0123")
	}

	// the peeked bytes are read again as part of the stream
	data, err := io.ReadAll(hr)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "0123456789" {
		t.Errorf("ReadAll() = %q, want the full stream", data)
	}
}

func TestHeaderReaderShortInput(t *testing.T) {
	hr, err := newHeaderReader(strings.NewReader("ab"), 10)
	if err != nil {
		t.Fatalf("newHeaderReader() error = %v", err)
	}
	if got := hr.PeekHeader(); !bytes.Equal(got, []byte("ab")) {
		t.Errorf("PeekHeader() = %q, want %q", got, "ab")
	}
	data, err := io.ReadAll(hr)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "ab" {
		t.Errorf("ReadAll() = %q, want %q", data, "ab")
	}
}
