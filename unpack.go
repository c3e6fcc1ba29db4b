// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// targetDirMarker is appended to the suffix-stripped source path to
// form the top-level extraction directory.
const targetDirMarker = "_extracted"

// UnpackedSet records the formats that were acted on during one
// top-level extraction, used to annotate the final inventory.
type UnpackedSet map[Format]struct{}

// Contains reports whether f was unpacked.
func (s UnpackedSet) Contains(f Format) bool {
	_, ok := s[f]
	return ok
}

// Formats returns the recorded formats in sorted order.
func (s UnpackedSet) Formats() []Format {
	formats := make([]Format, 0, len(s))
	for f := range s {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Result is the outcome of one top-level [Process] request.
type Result struct {
	// Source is the path the request was started with.
	Source string

	// TargetDir is the directory the inventory was taken of. For an
	// archive input this is the extraction target, for a directory
	// input the directory itself.
	TargetDir string

	// Inventory is the classification of TargetDir after extraction
	// settled.
	Inventory *Inventory

	// Unpacked contains the formats consumed by recursive unpacking.
	Unpacked UnpackedSet
}

// Process runs one top-level request. For an archive file it derives
// the extraction target from the source path, extracts, recursively
// unpacks nested archives up to the configured depth and classifies the
// result. For a directory it only classifies.
//
// The target directory is exclusively owned by this request for its
// duration; callers must serialize requests that could share a target.
func Process(ctx context.Context, path string, cfg *Config) (*Result, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat input: %w", err)
	}

	// a directory is analyzed in place, nothing is extracted
	if stat.IsDir() {
		inv, err := Scan(path, cfg)
		if err != nil {
			return nil, err
		}
		return &Result{Source: path, TargetDir: path, Inventory: inv, Unpacked: UnpackedSet{}}, nil
	}

	suffix, f := cfg.resolveSuffix(filepath.Base(path))
	if f == FormatUnknown {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, suffix)
	}

	// extraction is replace-in-place, a stale target is destroyed
	dst := cfg.stripSuffix(path) + targetDirMarker
	t := cfg.Target()
	if err := t.RemoveAll(dst); err != nil {
		return nil, fmt.Errorf("cannot clear target directory: %w", err)
	}
	if err := t.CreateDir(dst, cfg.CustomCreateDirMode()); err != nil {
		return nil, fmt.Errorf("cannot create target directory: %w", err)
	}

	unpacked := UnpackedSet{}
	if _, err := Extract(ctx, path, dst, cfg); err != nil {
		return nil, err
	}
	unpacked[f] = struct{}{}

	unpackTree(ctx, dst, 1, unpacked, cfg)

	inv, err := Scan(dst, cfg)
	if err != nil {
		return nil, err
	}
	return &Result{Source: path, TargetDir: dst, Inventory: inv, Unpacked: unpacked}, nil
}

// unpackTree extracts every recognized archive below dir into a sibling
// directory named by stripping the recognized suffix, records its
// format in unpacked and recurses into the new directory one level
// deeper. depth counts the extractions already performed along the
// chain; reaching the configured maximum is a terminal state, not an
// error.
//
// Extraction errors of single nested archives are logged and swallowed,
// one corrupt nested archive must not abort the scan of its siblings.
// Cycles are structurally impossible: each recursion strictly increases
// depth and targets a directory that did not exist before.
func unpackTree(ctx context.Context, dir string, depth int, unpacked UnpackedSet, cfg *Config) {
	if depth >= cfg.MaxDepth() {
		return
	}

	// collect candidates first, extraction mutates the tree under dir
	var archives []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if cfg.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if cfg.skipFile(d.Name()) {
			return nil
		}
		if cfg.ResolveFormat(d.Name()) != FormatUnknown {
			archives = append(archives, path)
		}
		return nil
	})
	if err != nil {
		cfg.Logger().Warn("walk failed during recursive unpacking", "dir", dir, "error", err)
		return
	}

	t := cfg.Target()
	for _, src := range archives {
		if ctx.Err() != nil {
			return
		}

		dst := cfg.stripSuffix(src)
		if err := t.RemoveAll(dst); err != nil {
			cfg.Logger().Warn("cannot clear nested target", "path", dst, "error", err)
			continue
		}
		if err := t.CreateDir(dst, cfg.CustomCreateDirMode()); err != nil {
			cfg.Logger().Warn("cannot create nested target", "path", dst, "error", err)
			continue
		}

		f, err := Extract(ctx, src, dst, cfg)
		if err != nil {
			// best effort, continue with the next file; the target is
			// removed so a failed archive leaves no directory behind
			cfg.Logger().Warn("skipping nested archive", "path", src, "error", err)
			if err := t.RemoveAll(dst); err != nil {
				cfg.Logger().Warn("cannot clean nested target", "path", dst, "error", err)
			}
			continue
		}

		unpacked[f] = struct{}{}
		unpackTree(ctx, dst, depth+1, unpacked, cfg)
	}
}
