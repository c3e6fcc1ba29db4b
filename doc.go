// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

// Package insight implements a recursive, depth-bounded, safe archive
// extraction engine with a classified inventory of the extracted tree.
//
// Given an archive file, [Process] extracts it into a deterministic
// target directory next to the source, repeats extraction on any
// newly revealed inner archives up to a fixed depth, and classifies
// every resulting file into class files, application/package artifacts
// and other formats. Given a directory, [Process] only classifies.
//
// Extraction is secure by default: every archive member path is
// validated against its extraction directory before any byte is
// written, symlink members cannot point outside the target, and input
// and output sizes as well as file counts are bounded. Supported
// containers are zip (including jar, war, exe, dll, apk, ipa and so
// packages), tar with gzip, bzip2, xz and zstd compression, 7z and
// rar; single-stream gzip, bzip2, xz, zstd, lz4, brotli and snappy
// inputs decompress to one file.
package insight
