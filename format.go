// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"path/filepath"
	"sort"
	"strings"
)

// Format identifies a recognized archive or container kind. The zero
// value [FormatUnknown] means the name did not resolve to any supported
// format.
type Format string

const (
	FormatZip      Format = "zip"
	FormatTar      Format = "tar"
	FormatTarGZip  Format = "tar.gz"
	FormatTarBzip2 Format = "tar.bz2"
	FormatTarXz    Format = "tar.xz"
	FormatTarZstd  Format = "tar.zst"
	FormatSevenZip Format = "7z"
	FormatRar      Format = "rar"
	FormatGZip     Format = "gz"
	FormatBzip2    Format = "bz2"
	FormatXz       Format = "xz"
	FormatZstd     Format = "zst"
	FormatLZ4      Format = "lz4"
	FormatBrotli   Format = "br"
	FormatSnappy   Format = "sz"

	// FormatPackage marks zip-structured application and library
	// artifacts such as jar, war, exe, dll, apk, ipa and so files.
	FormatPackage Format = "package"

	FormatUnknown Format = ""
)

// suffixGZip is deliberately kept out of the sorted candidate table and
// tried after all other suffixes, so that name.tar.gz resolves to
// [FormatTarGZip] and never to [FormatGZip].
const suffixGZip = ".gz"

// defaultContainerSuffixes maps archive suffixes to their format.
var defaultContainerSuffixes = map[string]Format{
	".zip":     FormatZip,
	".tar":     FormatTar,
	".tar.gz":  FormatTarGZip,
	".tgz":     FormatTarGZip,
	".tar.bz2": FormatTarBzip2,
	".tbz2":    FormatTarBzip2,
	".tar.xz":  FormatTarXz,
	".txz":     FormatTarXz,
	".tar.zst": FormatTarZstd,
	".tzst":    FormatTarZstd,
	".7z":      FormatSevenZip,
	".rar":     FormatRar,
}

// defaultPackageSuffixes are zip containers that carry an application or
// library artifact rather than a generic compressed folder.
var defaultPackageSuffixes = map[string]Format{
	".jar": FormatPackage,
	".war": FormatPackage,
	".exe": FormatPackage,
	".dll": FormatPackage,
	".apk": FormatPackage,
	".ipa": FormatPackage,
	".so":  FormatPackage,
}

// defaultStreamSuffixes are single-stream compression formats that
// decompress to exactly one output file.
var defaultStreamSuffixes = map[string]Format{
	".bz2": FormatBzip2,
	".xz":  FormatXz,
	".zst": FormatZstd,
	".lz4": FormatLZ4,
	".br":  FormatBrotli,
	".sz":  FormatSnappy,
}

// isStreamFormat returns true for single-stream compression formats,
// including gzip.
func isStreamFormat(f Format) bool {
	if f == FormatGZip {
		return true
	}
	for _, sf := range defaultStreamSuffixes {
		if f == sf {
			return true
		}
	}
	return false
}

// sortSuffixes orders suffixes by descending length so that multi-part
// suffixes like .tar.gz win over their shorter tails. Equal lengths are
// ordered lexicographically to keep resolution deterministic.
func sortSuffixes(suffixes map[string]Format) []string {
	sorted := make([]string, 0, len(suffixes))
	for s := range suffixes {
		sorted = append(sorted, s)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}

// ResolveFormat maps a filename to its [Format]. Matching is
// case-insensitive and longest-suffix-first over the configured suffix
// table, with the bare .gz suffix checked last.
func (c *Config) ResolveFormat(name string) Format {
	_, f := c.resolveSuffix(name)
	return f
}

// resolveSuffix returns the recognized suffix of name and its format.
// If no suffix from the table matches, it falls back to a trailing .gz
// and finally to the generic final-dot suffix with [FormatUnknown].
func (c *Config) resolveSuffix(name string) (string, Format) {
	lower := strings.ToLower(name)
	for _, suffix := range c.suffixCandidates {
		if strings.HasSuffix(lower, suffix) {
			return suffix, c.suffixes[suffix]
		}
	}
	if strings.HasSuffix(lower, suffixGZip) {
		return suffixGZip, FormatGZip
	}
	return strings.ToLower(filepath.Ext(name)), FormatUnknown
}

// stripSuffix removes the recognized suffix from path. Paths that do not
// resolve to a supported format are returned unchanged.
func (c *Config) stripSuffix(path string) string {
	suffix, f := c.resolveSuffix(filepath.Base(path))
	if f == FormatUnknown {
		return path
	}
	return path[:len(path)-len(suffix)]
}
