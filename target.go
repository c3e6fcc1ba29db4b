// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Target specifies all functions that are needed to materialize
// extracted contents on a filesystem.
type Target interface {
	// CreateFile creates a file at the specified path with src as
	// content. The size of the file must not exceed maxSize; a negative
	// maxSize disables the limit. It returns the number of bytes
	// written.
	CreateFile(path string, src io.Reader, mode fs.FileMode, maxSize int64) (int64, error)

	// CreateDir creates a directory at the specified path with the
	// specified mode. Existing directories are left alone.
	CreateDir(path string, mode fs.FileMode) error

	// CreateSymlink creates a symbolic link from newname to oldname.
	CreateSymlink(oldname string, newname string) error

	// Lstat see docs for os.Lstat. Main purpose is to check for
	// symlinks in the extraction path and for zip-slip attacks.
	Lstat(path string) (fs.FileInfo, error)

	// Remove see docs for os.Remove. Used to delete consumed archives.
	Remove(path string) error

	// RemoveAll see docs for os.RemoveAll. Used to recreate extraction
	// targets fresh.
	RemoveAll(path string) error
}

// createFile is a wrapper around [Target.CreateFile] that validates the
// member name against dst before any byte is written.
//
// The parent directory of the file is created with the
// config.CustomCreateDirMode() if it does not exist.
func createFile(t Target, dst string, name string, src io.Reader, mode fs.FileMode, maxSize int64, cfg *Config) (int64, error) {
	// check if a name is provided
	if len(name) == 0 {
		return 0, fmt.Errorf("cannot create file without name")
	}

	// adjust path to be os specific
	parts := strings.Split(name, "/")
	name = filepath.Join(parts...)

	// ensure the directory exists and is safe to write to
	fDir := filepath.Dir(name)
	if err := createDir(t, dst, fDir, cfg.CustomCreateDirMode(), cfg); err != nil {
		return 0, fmt.Errorf("cannot create directory: %w", err)
	}

	// ensure that the file stays inside dst and does not sit behind a
	// symlinked path element
	if err := securityCheck(t, dst, name, cfg); err != nil {
		return 0, err
	}

	return t.CreateFile(filepath.Join(dst, name), src, mode, maxSize)
}

// createDir is a wrapper around [Target.CreateDir] that validates the
// directory name against dst.
func createDir(t Target, dst string, name string, mode fs.FileMode, cfg *Config) error {
	// no action needed
	if name == "." {
		return nil
	}

	// perform security check to ensure that the path is safe to write to
	if err := securityCheck(t, dst, name, cfg); err != nil {
		return err
	}

	// combine the path
	parts := strings.Split(name, "/")
	path := filepath.Join(dst, filepath.Join(parts...))
	return t.CreateDir(path, mode)
}

// createSymlink is a wrapper around [Target.CreateSymlink].
//
// Symlink extraction can be denied wholesale via the config. Link
// targets that are absolute paths or resolve outside dst are rejected.
func createSymlink(t Target, dst string, name string, linkTarget string, cfg *Config) error {
	// check if symlink extraction is denied
	if cfg.DenySymlinkExtraction() {
		return fmt.Errorf("symlinks are not allowed")
	}

	// check if a name is provided
	if len(name) == 0 {
		return fmt.Errorf("empty name")
	}

	// check if link target is an absolute path
	if filepath.IsAbs(linkTarget) {
		return fmt.Errorf("symlink with absolute path as target: %s", linkTarget)
	}

	// convert name to platform specific path
	parts := strings.Split(name, "/")
	name = filepath.Join(parts...)

	// create link directory and check for traversal in the link name
	linkDirectory := filepath.Dir(name)
	if err := createDir(t, dst, linkDirectory, cfg.CustomCreateDirMode(), cfg); err != nil {
		return fmt.Errorf("cannot create directory for symlink: %w", err)
	}
	if err := securityCheck(t, dst, name, cfg); err != nil {
		return err
	}

	// check link target for traversal
	targetCleaned := filepath.Join(linkDirectory, linkTarget)
	if err := securityCheck(t, dst, targetCleaned, cfg); err != nil {
		return fmt.Errorf("symlink target check failed: %w", err)
	}

	return t.CreateSymlink(linkTarget, filepath.Join(dst, name))
}

// securityCheck checks that path, joined with dst, stays inside dst and
// does not pass through a symlinked directory. The containment check is
// path-separator-aware, a sibling directory sharing the dst prefix is
// rejected.
func securityCheck(t Target, dst string, path string, cfg *Config) error {
	// check if dst is empty, then path must not be an absolute path
	if len(dst) == 0 {
		if filepath.IsAbs(path) {
			return fmt.Errorf("%w: absolute path %q", ErrPathTraversal, path)
		}
	}

	// clean the target
	parts := strings.Split(path, "/")
	path = filepath.Join(parts...)

	// get relative path from base to the new entry
	rel, err := filepath.Rel(dst, filepath.Join(dst, path))
	if err != nil {
		return fmt.Errorf("failed to get relative path: %w", err)
	}

	// check if the relative path is local
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("%w: %q", ErrPathTraversal, path)
	}

	// check each dir in path for symlinks
	targetPathElements := strings.Split(path, string(os.PathSeparator))
	for i := 0; i < len(targetPathElements); i++ {
		subDirs := filepath.Join(targetPathElements[0 : i+1]...)
		checkDir := filepath.Join(dst, subDirs)

		if len(checkDir) == 0 || checkDir == "." {
			continue
		}

		stat, err := t.Lstat(checkDir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("invalid path: %w", err)
		}
		if stat.Mode()&os.ModeSymlink == os.ModeSymlink {
			return fmt.Errorf("%w: symlink in path %q", ErrPathTraversal, subDirs)
		}
	}

	return nil
}
