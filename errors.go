// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import "errors"

var (
	// ErrUnsupportedFormat is returned when a filename does not resolve
	// to any supported archive format.
	ErrUnsupportedFormat = errors.New("unsupported archive format")

	// ErrPathTraversal is returned when an archive member would resolve
	// outside its extraction directory. It is never downgraded to a
	// warning, an archive triggering it is considered hostile.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrCorruptArchive is returned when an archive cannot be opened or
	// iterated.
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrInvalidOutputName is returned when the output filename derived
	// for a single-stream decompression is not a plain filename.
	ErrInvalidOutputName = errors.New("invalid output name")

	// ErrMaxFilesExceeded is returned when an archive contains more
	// entries than the configured maximum.
	ErrMaxFilesExceeded = errors.New("maximum files exceeded")

	// ErrMaxExtractionSizeExceeded is returned when the decompressed
	// output exceeds the configured maximum.
	ErrMaxExtractionSizeExceeded = errors.New("maximum extraction size exceeded")

	// ErrMaxInputSizeExceeded is returned when the input archive exceeds
	// the configured maximum.
	ErrMaxInputSizeExceeded = errors.New("maximum input size exceeded")
)
