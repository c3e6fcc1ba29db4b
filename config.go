// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
)

// ConfigOption is a function pointer to implement the option pattern.
type ConfigOption func(*Config)

// Config holds all configuration options for format resolution,
// extraction, recursive unpacking and inventory scans. The defaults are
// secure by default and prevent exhaustion, path traversal and symlink
// attacks.
type Config struct {
	// classSuffix is the suffix that classifies a file as a class file
	classSuffix string

	// continueOnError decides if member extraction continues after a
	// non-security error
	continueOnError bool

	// customCreateDirMode is the file mode for created directories that
	// are not defined in the archive (respecting umask)
	customCreateDirMode fs.FileMode

	// customDecompressFileMode is the file mode for a decompressed file
	// (respecting umask)
	customDecompressFileMode fs.FileMode

	// denySymlinkExtraction offers the option to disable the extraction
	// of symlinks
	denySymlinkExtraction bool

	// logger stream for extraction
	logger logger

	// maxDepth is the maximum recursion depth for nested archives
	maxDepth int

	// maxExtractionSize is the maximum size over all extracted files.
	// Set value to -1 to disable the check.
	maxExtractionSize int64

	// maxFiles is the maximum number of entries in an archive.
	// Set value to -1 to disable the check.
	maxFiles int64

	// maxInputSize is the maximum size of the input.
	// Set value to -1 to disable the check.
	maxInputSize int64

	// skipDirNames are directory names excluded from walks, such as
	// platform metadata directories from prior cross-platform archives
	skipDirNames []string

	// skipFilePrefixes are filename prefixes excluded from walks, such
	// as hidden resource-fork files
	skipFilePrefixes []string

	// suffixes maps recognized suffixes to formats, bare .gz excluded
	suffixes map[string]Format

	// suffixCandidates is the suffix table ordered longest-first
	suffixCandidates []string

	// target abstracts the filesystem the extraction writes to
	target Target

	// telemetryHook is a function to consume telemetry data after a
	// finished extraction
	telemetryHook TelemetryHook
}

const (
	defaultClassSuffix              = ".class"
	defaultContinueOnError          = false
	defaultCustomCreateDirMode      = 0750
	defaultCustomDecompressFileMode = 0640
	defaultDenySymlinkExtraction    = false
	defaultMaxDepth                 = 5
	defaultMaxExtractionSize        = 1 << (10 * 3) // 1 GB
	defaultMaxFiles                 = 100000
	defaultMaxInputSize             = 1 << (10 * 3) // 1 GB
)

var (
	// slog to discard
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	// no operation telemetry hook
	defaultTelemetryHook = func(ctx context.Context, td *TelemetryData) {
		// noop
	}

	defaultSkipDirNames     = []string{"__MACOSX"}
	defaultSkipFilePrefixes = []string{"._"}
)

// NewConfig creates a [Config] with the default values adjusted by opts
// in an option pattern style.
func NewConfig(opts ...ConfigOption) *Config {
	config := &Config{
		classSuffix:              defaultClassSuffix,
		continueOnError:          defaultContinueOnError,
		customCreateDirMode:      defaultCustomCreateDirMode,
		customDecompressFileMode: defaultCustomDecompressFileMode,
		denySymlinkExtraction:    defaultDenySymlinkExtraction,
		logger:                   defaultLogger,
		maxDepth:                 defaultMaxDepth,
		maxExtractionSize:        defaultMaxExtractionSize,
		maxFiles:                 defaultMaxFiles,
		maxInputSize:             defaultMaxInputSize,
		skipDirNames:             append([]string(nil), defaultSkipDirNames...),
		skipFilePrefixes:         append([]string(nil), defaultSkipFilePrefixes...),
		suffixes:                 defaultSuffixTable(),
		target:                   NewOSTarget(),
		telemetryHook:            defaultTelemetryHook,
	}

	for _, opt := range opts {
		opt(config)
	}

	// the candidate table is rebuilt after the options ran, so that
	// suffixes registered via options participate in longest-first
	// matching
	config.suffixCandidates = sortSuffixes(config.suffixes)

	return config
}

// defaultSuffixTable merges the container, package and stream suffix
// tables. The bare .gz suffix is intentionally absent, see suffixGZip.
func defaultSuffixTable() map[string]Format {
	table := make(map[string]Format)
	for s, f := range defaultContainerSuffixes {
		table[s] = f
	}
	for s, f := range defaultPackageSuffixes {
		table[s] = f
	}
	for s, f := range defaultStreamSuffixes {
		table[s] = f
	}
	return table
}

// ClassSuffix returns the suffix that classifies a file as a class file.
func (c *Config) ClassSuffix() string {
	return c.classSuffix
}

// ContinueOnError returns true if member extraction should continue
// after a non-security error.
func (c *Config) ContinueOnError() bool {
	return c.continueOnError
}

// CustomCreateDirMode returns the file mode for created directories
// that are not defined in the archive. (respecting umask)
func (c *Config) CustomCreateDirMode() fs.FileMode {
	return c.customCreateDirMode
}

// CustomDecompressFileMode returns the file mode for a decompressed
// file. (respecting umask)
func (c *Config) CustomDecompressFileMode() fs.FileMode {
	return c.customDecompressFileMode
}

// DenySymlinkExtraction returns true if symlinks are NOT allowed.
func (c *Config) DenySymlinkExtraction() bool {
	return c.denySymlinkExtraction
}

// Logger returns the logger.
func (c *Config) Logger() logger {
	return c.logger
}

// MaxDepth returns the maximum recursion depth for nested archives.
func (c *Config) MaxDepth() int {
	return c.maxDepth
}

// MaxExtractionSize returns the maximum size over all extracted files.
func (c *Config) MaxExtractionSize() int64 {
	return c.maxExtractionSize
}

// MaxFiles returns the maximum number of entries in an archive.
func (c *Config) MaxFiles() int64 {
	return c.maxFiles
}

// MaxInputSize returns the maximum size of the input.
func (c *Config) MaxInputSize() int64 {
	return c.maxInputSize
}

// SkipDirNames returns the directory names excluded from walks.
func (c *Config) SkipDirNames() []string {
	return c.skipDirNames
}

// SkipFilePrefixes returns the filename prefixes excluded from walks.
func (c *Config) SkipFilePrefixes() []string {
	return c.skipFilePrefixes
}

// Target returns the filesystem target extraction writes to.
func (c *Config) Target() Target {
	return c.target
}

// TelemetryHook returns the telemetry hook.
func (c *Config) TelemetryHook() TelemetryHook {
	if c.telemetryHook == nil {
		return defaultTelemetryHook
	}
	return c.telemetryHook
}

// CheckMaxFiles checks if counter exceeds the configured maximum. If the
// maximum is exceeded, a [ErrMaxFilesExceeded] error is returned.
func (c *Config) CheckMaxFiles(counter int64) error {
	if c.MaxFiles() == -1 {
		return nil
	}
	if counter > c.MaxFiles() {
		return ErrMaxFilesExceeded
	}
	return nil
}

// CheckExtractionSize checks if fileSize exceeds the configured maximum.
// If the maximum is exceeded, a [ErrMaxExtractionSizeExceeded] error is
// returned.
func (c *Config) CheckExtractionSize(fileSize int64) error {
	if c.MaxExtractionSize() == -1 {
		return nil
	}
	if fileSize > c.MaxExtractionSize() {
		return ErrMaxExtractionSizeExceeded
	}
	return nil
}

// skipDir reports whether a directory name is walk-excluded noise.
func (c *Config) skipDir(name string) bool {
	for _, d := range c.skipDirNames {
		if name == d {
			return true
		}
	}
	return false
}

// skipFile reports whether a filename is walk-excluded noise.
func (c *Config) skipFile(name string) bool {
	for _, p := range c.skipFilePrefixes {
		if len(p) > 0 && len(name) >= len(p) && name[:len(p)] == p {
			return true
		}
	}
	return false
}

// WithClassSuffix options pattern function to set the class file suffix.
func WithClassSuffix(suffix string) ConfigOption {
	return func(c *Config) {
		if len(suffix) > 0 {
			c.classSuffix = suffix
		}
	}
}

// WithContinueOnError options pattern function to continue member
// extraction after a non-security error. Path traversal always aborts.
func WithContinueOnError(yes bool) ConfigOption {
	return func(c *Config) {
		c.continueOnError = yes
	}
}

// WithCustomCreateDirMode options pattern function to set the file mode
// for created directories that are not defined in the archive.
// (respecting umask)
func WithCustomCreateDirMode(mode fs.FileMode) ConfigOption {
	return func(c *Config) {
		c.customCreateDirMode = mode
	}
}

// WithCustomDecompressFileMode options pattern function to set the file
// mode for a decompressed file. (respecting umask)
func WithCustomDecompressFileMode(mode fs.FileMode) ConfigOption {
	return func(c *Config) {
		c.customDecompressFileMode = mode
	}
}

// WithDenySymlinkExtraction options pattern function to deny symlink
// extraction.
func WithDenySymlinkExtraction(deny bool) ConfigOption {
	return func(c *Config) {
		c.denySymlinkExtraction = deny
	}
}

// WithFormatSuffix options pattern function to register an additional
// suffix in the resolution table. The suffix must start with a dot.
func WithFormatSuffix(suffix string, format Format) ConfigOption {
	return func(c *Config) {
		if len(suffix) > 1 && suffix[0] == '.' {
			c.suffixes[suffix] = format
		}
	}
}

// WithLogger options pattern function to set a custom logger.
func WithLogger(logger logger) ConfigOption {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithMaxDepth options pattern function to set the maximum recursion
// depth for nested archives.
func WithMaxDepth(depth int) ConfigOption {
	return func(c *Config) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithMaxExtractionSize options pattern function to set the maximum
// size over all extracted files. (-1 to disable check)
func WithMaxExtractionSize(maxExtractionSize int64) ConfigOption {
	return func(c *Config) {
		c.maxExtractionSize = maxExtractionSize
	}
}

// WithMaxFiles options pattern function to set the maximum number of
// entries in an archive. (-1 to disable check)
func WithMaxFiles(maxFiles int64) ConfigOption {
	return func(c *Config) {
		c.maxFiles = maxFiles
	}
}

// WithMaxInputSize options pattern function to set the maximum input
// size. (-1 to disable check)
func WithMaxInputSize(maxInputSize int64) ConfigOption {
	return func(c *Config) {
		c.maxInputSize = maxInputSize
	}
}

// WithSkipDirNames options pattern function to replace the directory
// names excluded from walks.
func WithSkipDirNames(names ...string) ConfigOption {
	return func(c *Config) {
		c.skipDirNames = names
	}
}

// WithSkipFilePrefixes options pattern function to replace the filename
// prefixes excluded from walks.
func WithSkipFilePrefixes(prefixes ...string) ConfigOption {
	return func(c *Config) {
		c.skipFilePrefixes = prefixes
	}
}

// WithTarget options pattern function to set the filesystem target.
func WithTarget(t Target) ConfigOption {
	return func(c *Config) {
		if t != nil {
			c.target = t
		}
	}
}

// WithTelemetryHook options pattern function to set the telemetry hook
// that is called after an extraction finished.
func WithTelemetryHook(hook TelemetryHook) ConfigOption {
	return func(c *Config) {
		c.telemetryHook = hook
	}
}
