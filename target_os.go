// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// OSTarget is the [Target] implementation for the local filesystem.
type OSTarget struct{}

// NewOSTarget creates a new [OSTarget].
func NewOSTarget() *OSTarget {
	return &OSTarget{}
}

// CreateFile creates a file at path with src as content. The size of
// the output must not exceed maxSize; a negative maxSize disables the
// limit. It returns the number of bytes written.
func (o *OSTarget) CreateFile(path string, src io.Reader, mode fs.FileMode, maxSize int64) (int64, error) {
	// ensure the parent exists; members can precede their directories
	if err := os.MkdirAll(filepath.Dir(path), defaultCustomCreateDirMode); err != nil {
		return 0, fmt.Errorf("cannot create parent directory: %w", err)
	}

	dstFile, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return 0, fmt.Errorf("cannot create file: %w", err)
	}
	defer dstFile.Close()

	writer := limitWriter(dstFile, maxSize)
	n, err := io.Copy(writer, src)
	if err != nil {
		if err == io.ErrShortWrite {
			return n, ErrMaxExtractionSizeExceeded
		}
		return n, fmt.Errorf("cannot write file: %w", err)
	}
	return n, nil
}

// CreateDir creates a directory at path with the given mode. Existing
// directories are left alone.
func (o *OSTarget) CreateDir(path string, mode fs.FileMode) error {
	if err := os.MkdirAll(path, mode.Perm()); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	return nil
}

// CreateSymlink creates a symbolic link from newname to oldname.
func (o *OSTarget) CreateSymlink(oldname string, newname string) error {
	if err := os.MkdirAll(filepath.Dir(newname), defaultCustomCreateDirMode); err != nil {
		return fmt.Errorf("cannot create parent directory: %w", err)
	}
	if err := os.Symlink(oldname, newname); err != nil {
		return fmt.Errorf("cannot create symlink: %w", err)
	}
	return nil
}

// Lstat implements [Target.Lstat].
func (o *OSTarget) Lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

// Remove implements [Target.Remove].
func (o *OSTarget) Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll implements [Target.RemoveAll].
func (o *OSTarget) RemoveAll(path string) error {
	return os.RemoveAll(path)
}
