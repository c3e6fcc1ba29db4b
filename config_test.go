// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"errors"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if got := cfg.ClassSuffix(); got != ".class" {
		t.Errorf("ClassSuffix() = %q, want %q", got, ".class")
	}
	if got := cfg.MaxDepth(); got != 5 {
		t.Errorf("MaxDepth() = %d, want 5", got)
	}
	if got := cfg.MaxFiles(); got != 100000 {
		t.Errorf("MaxFiles() = %d, want 100000", got)
	}
	if got := cfg.MaxExtractionSize(); got != 1<<30 {
		t.Errorf("MaxExtractionSize() = %d, want 1 GB", got)
	}
	if got := cfg.MaxInputSize(); got != 1<<30 {
		t.Errorf("MaxInputSize() = %d, want 1 GB", got)
	}
	if cfg.ContinueOnError() {
		t.Errorf("ContinueOnError() = true, want false")
	}
	if cfg.DenySymlinkExtraction() {
		t.Errorf("DenySymlinkExtraction() = true, want false")
	}
	if cfg.Target() == nil {
		t.Errorf("Target() = nil, want default os target")
	}
	if cfg.Logger() == nil {
		t.Errorf("Logger() = nil, want default discard logger")
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithClassSuffix(".java"),
		WithContinueOnError(true),
		WithDenySymlinkExtraction(true),
		WithMaxDepth(2),
		WithMaxExtractionSize(-1),
		WithMaxFiles(10),
		WithMaxInputSize(-1),
	)

	if got := cfg.ClassSuffix(); got != ".java" {
		t.Errorf("ClassSuffix() = %q, want %q", got, ".java")
	}
	if !cfg.ContinueOnError() {
		t.Errorf("ContinueOnError() = false, want true")
	}
	if !cfg.DenySymlinkExtraction() {
		t.Errorf("DenySymlinkExtraction() = false, want true")
	}
	if got := cfg.MaxDepth(); got != 2 {
		t.Errorf("MaxDepth() = %d, want 2", got)
	}
	if got := cfg.MaxFiles(); got != 10 {
		t.Errorf("MaxFiles() = %d, want 10", got)
	}
}

func TestConfigInvalidMaxDepthIgnored(t *testing.T) {
	cfg := NewConfig(WithMaxDepth(0))
	if got := cfg.MaxDepth(); got != 5 {
		t.Errorf("MaxDepth() = %d, want default 5 for non-positive option", got)
	}
	cfg = NewConfig(WithMaxDepth(-3))
	if got := cfg.MaxDepth(); got != 5 {
		t.Errorf("MaxDepth() = %d, want default 5 for non-positive option", got)
	}
}

// TestConfigFormatSuffix pins that suffixes registered via options
// participate in longest-first matching.
func TestConfigFormatSuffix(t *testing.T) {
	cfg := NewConfig(WithFormatSuffix(".backup.zip", FormatZip))

	if got := cfg.ResolveFormat("data.backup.zip"); got != FormatZip {
		t.Errorf("ResolveFormat(data.backup.zip) = %v, want %v", got, FormatZip)
	}
	if got := cfg.stripSuffix("/x/data.backup.zip"); got != "/x/data" {
		t.Errorf("stripSuffix() = %q, want %q", got, "/x/data")
	}
}

func TestConfigFormatSuffixRejectsMalformed(t *testing.T) {
	cfg := NewConfig(WithFormatSuffix("nodot", FormatZip))
	if got := cfg.ResolveFormat("x.nodot"); got == FormatZip {
		t.Errorf("malformed suffix registered")
	}
}

func TestCheckMaxFiles(t *testing.T) {
	cfg := NewConfig(WithMaxFiles(2))
	if err := cfg.CheckMaxFiles(2); err != nil {
		t.Errorf("CheckMaxFiles(2) = %v, want nil", err)
	}
	if err := cfg.CheckMaxFiles(3); !errors.Is(err, ErrMaxFilesExceeded) {
		t.Errorf("CheckMaxFiles(3) = %v, want ErrMaxFilesExceeded", err)
	}

	cfg = NewConfig(WithMaxFiles(-1))
	if err := cfg.CheckMaxFiles(1 << 40); err != nil {
		t.Errorf("CheckMaxFiles() with disabled check = %v, want nil", err)
	}
}

func TestCheckExtractionSize(t *testing.T) {
	cfg := NewConfig(WithMaxExtractionSize(100))
	if err := cfg.CheckExtractionSize(100); err != nil {
		t.Errorf("CheckExtractionSize(100) = %v, want nil", err)
	}
	if err := cfg.CheckExtractionSize(101); !errors.Is(err, ErrMaxExtractionSizeExceeded) {
		t.Errorf("CheckExtractionSize(101) = %v, want ErrMaxExtractionSizeExceeded", err)
	}

	cfg = NewConfig(WithMaxExtractionSize(-1))
	if err := cfg.CheckExtractionSize(1 << 40); err != nil {
		t.Errorf("CheckExtractionSize() with disabled check = %v, want nil", err)
	}
}

func TestSkipRules(t *testing.T) {
	cfg := NewConfig()
	if !cfg.skipDir("__MACOSX") {
		t.Errorf("skipDir(__MACOSX) = false, want true")
	}
	if cfg.skipDir("src") {
		t.Errorf("skipDir(src) = true, want false")
	}
	if !cfg.skipFile("._resource") {
		t.Errorf("skipFile(._resource) = false, want true")
	}
	if cfg.skipFile("file.txt") {
		t.Errorf("skipFile(file.txt) = true, want false")
	}

	cfg = NewConfig(WithSkipDirNames("node_modules"), WithSkipFilePrefixes("~"))
	if cfg.skipDir("__MACOSX") {
		t.Errorf("skipDir(__MACOSX) = true after replacement, want false")
	}
	if !cfg.skipDir("node_modules") {
		t.Errorf("skipDir(node_modules) = false, want true")
	}
	if !cfg.skipFile("~lock") {
		t.Errorf("skipFile(~lock) = false, want true")
	}
}
