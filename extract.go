// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Extract extracts the archive at src into the directory dst and
// returns the format that was acted on. The caller prepares dst fresh;
// no other operation may target the same directory concurrently.
//
// Every member path is validated against dst before any byte is
// written; a member escaping dst aborts the extraction with
// [ErrPathTraversal]. On success the source archive is deleted.
func Extract(ctx context.Context, src string, dst string, cfg *Config) (Format, error) {
	suffix, f := cfg.resolveSuffix(filepath.Base(src))
	if f == FormatUnknown {
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, suffix)
	}

	// prepare telemetry data collection and emit
	td := &TelemetryData{ExtractedType: string(f)}
	defer cfg.TelemetryHook()(ctx, td)
	defer captureExtractionDuration(td, now())

	t := cfg.Target()

	// reject inputs over the configured size before reading them; a
	// failure here is terminal, nothing has been extracted yet
	if cfg.MaxInputSize() != -1 {
		stat, err := os.Stat(src)
		if err != nil {
			return f, recordError(td, "cannot stat input", err)
		}
		if stat.Size() > cfg.MaxInputSize() {
			return f, recordError(td, "cannot unpack archive", ErrMaxInputSizeExceeded)
		}
		td.InputSize = stat.Size()
	}

	cfg.Logger().Info("extracting archive", "src", src, "format", f)

	var err error
	switch f {
	case FormatZip, FormatPackage:
		err = unpackZip(ctx, t, src, dst, f, cfg, td)
	case FormatSevenZip:
		err = unpackSevenZip(ctx, t, src, dst, cfg, td)
	case FormatTar, FormatTarGZip, FormatTarBzip2, FormatTarXz, FormatTarZstd:
		err = unpackTar(ctx, t, src, dst, f, cfg, td)
	case FormatRar:
		err = unpackRar(ctx, t, src, dst, cfg, td)
	default:
		err = unpackStream(ctx, t, src, dst, f, cfg, td)
	}
	if err != nil {
		return f, err
	}

	// extraction has move semantics, the consumed archive is removed
	if err := t.Remove(src); err != nil {
		return f, handleError(cfg, td, "cannot remove consumed archive", err)
	}
	return f, nil
}

// unpackZip extracts a zip-structured archive, including package
// containers such as jar, war, exe, dll, apk, ipa and so files.
func unpackZip(ctx context.Context, t Target, src string, dst string, f Format, cfg *Config, td *TelemetryData) error {
	walker, closer, err := newZipWalker(src, f)
	if err != nil {
		return recordError(td, "cannot open zip archive", fmt.Errorf("%w: %v", ErrCorruptArchive, err))
	}
	defer closer()

	return extractMembers(ctx, t, dst, walker, cfg, td)
}

// unpackSevenZip extracts a 7zip archive. The file content is
// sniff-confirmed against the 7zip magic bytes before the index is
// parsed.
func unpackSevenZip(ctx context.Context, t Target, src string, dst string, cfg *Config, td *TelemetryData) error {
	header, err := peekFileHeader(src)
	if err != nil {
		return recordError(td, "cannot read archive header", err)
	}
	if !is7zip(header) {
		return recordError(td, "cannot open 7zip archive", fmt.Errorf("%w: no 7zip header", ErrCorruptArchive))
	}

	walker, closer, err := newSevenZipWalker(src)
	if err != nil {
		return recordError(td, "cannot open 7zip archive", fmt.Errorf("%w: %v", ErrCorruptArchive, err))
	}
	defer closer()

	return extractMembers(ctx, t, dst, walker, cfg, td)
}

// unpackTar extracts a tar archive, optionally compressed. The
// compression is detected from the stream header by magic bytes; when
// detection fails the stream is handed to a plain tar reader, since
// some archives carry a compression suffix inconsistent with their
// content.
func unpackTar(ctx context.Context, t Target, src string, dst string, f Format, cfg *Config, td *TelemetryData) error {
	file, err := os.Open(src)
	if err != nil {
		return recordError(td, "cannot open archive", err)
	}
	defer file.Close()

	limitedReader := newLimitErrorReader(file, cfg.MaxInputSize())
	defer captureInputSize(td, limitedReader)

	headerReader, err := newHeaderReader(limitedReader, maxHeaderLength)
	if err != nil {
		return recordError(td, "cannot read archive header", fmt.Errorf("%w: %v", ErrCorruptArchive, err))
	}

	stream := io.Reader(headerReader)
	if decFunc, ok := detectDecompressor(headerReader.PeekHeader()); ok {
		decompressed, err := decFunc(stream)
		if err != nil {
			return recordError(td, "cannot start decompression", fmt.Errorf("%w: %v", ErrCorruptArchive, err))
		}
		defer func() {
			if closer, ok := decompressed.(io.Closer); ok {
				closer.Close()
			}
		}()
		stream = decompressed
	}

	return extractMembers(ctx, t, dst, newTarWalker(stream, f), cfg, td)
}

// unpackRar extracts a rar archive. The stream is sniff-confirmed
// against the rar magic bytes before it is handed to the decoder.
func unpackRar(ctx context.Context, t Target, src string, dst string, cfg *Config, td *TelemetryData) error {
	file, err := os.Open(src)
	if err != nil {
		return recordError(td, "cannot open archive", err)
	}
	defer file.Close()

	limitedReader := newLimitErrorReader(file, cfg.MaxInputSize())
	defer captureInputSize(td, limitedReader)

	headerReader, err := newHeaderReader(limitedReader, maxHeaderLength)
	if err != nil {
		return recordError(td, "cannot read archive header", fmt.Errorf("%w: %v", ErrCorruptArchive, err))
	}
	if !isRar(headerReader.PeekHeader()) {
		return recordError(td, "cannot open rar archive", fmt.Errorf("%w: no rar header", ErrCorruptArchive))
	}

	walker, err := newRarWalker(headerReader)
	if err != nil {
		return recordError(td, "cannot open rar archive", fmt.Errorf("%w: %v", ErrCorruptArchive, err))
	}

	return extractMembers(ctx, t, dst, walker, cfg, td)
}

// unpackStream decompresses a single-stream input such as a bare gzip
// file to exactly one output file in dst, named by stripping the
// compression suffix from the source filename. The derived name must be
// a plain filename; a crafted source filename could otherwise redirect
// the output outside the target directory.
//
// Every failure here is terminal: a single stream has no member loop
// whose remaining members could still succeed, so the continue-on-error
// policy does not apply.
func unpackStream(ctx context.Context, t Target, src string, dst string, f Format, cfg *Config, td *TelemetryData) error {
	decFunc := decompressorFor(f)
	if decFunc == nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}

	base := filepath.Base(src)
	suffix, _ := cfg.resolveSuffix(base)
	outputName := base[:len(base)-len(suffix)]
	if restriction, ok := validOutputName(outputName); !ok {
		return fmt.Errorf("%w: %q (%s)", ErrInvalidOutputName, outputName, restriction)
	}
	cfg.Logger().Debug("determined output name", "name", outputName)

	file, err := os.Open(src)
	if err != nil {
		return recordError(td, "cannot open input", err)
	}
	defer file.Close()

	limitedReader := newLimitErrorReader(file, cfg.MaxInputSize())
	defer captureInputSize(td, limitedReader)

	if err := ctx.Err(); err != nil {
		return recordError(td, "context error", err)
	}

	stream, err := decFunc(limitedReader)
	if err != nil {
		return recordError(td, "cannot start decompression", fmt.Errorf("%w: %v", ErrCorruptArchive, err))
	}
	defer func() {
		if closer, ok := stream.(io.Closer); ok {
			closer.Close()
		}
	}()

	n, err := createFile(t, dst, outputName, stream, cfg.CustomDecompressFileMode(), cfg.MaxExtractionSize(), cfg)
	td.ExtractionSize = n
	if err != nil {
		return recordError(td, "cannot create file", err)
	}
	td.ExtractedFiles++

	return nil
}

// extractMembers checks ctx for cancellation while it walks the archive
// members from src and materializes them below dst.
func extractMembers(ctx context.Context, t Target, dst string, src archiveWalker, cfg *Config, td *TelemetryData) error {
	cfg.Logger().Info("start extraction", "format", src.Format())
	var memberCounter int64
	var extractedBytes int64

	for {
		// check if context is canceled
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// get next member
		ae, err := src.Next()

		switch {

		// if no more members are found exit loop
		case err == io.EOF:
			// extraction finished
			return nil

		// return any other error
		case err != nil:
			return handleError(cfg, td, "error reading archive", fmt.Errorf("%w: %v", ErrCorruptArchive, err))

		// if the entry is nil, just skip it
		case ae == nil:
			continue
		}

		// check if maximum of members is exceeded
		memberCounter++
		if err := cfg.CheckMaxFiles(memberCounter); err != nil {
			return handleError(cfg, td, "max files check failed", err)
		}

		cfg.Logger().Debug("extract", "name", ae.Name())
		switch {

		// if it's a dir and it doesn't exist create it
		case ae.IsDir():
			if err := createDir(t, dst, ae.Name(), ae.Mode().Perm(), cfg); err != nil {
				if err := handleError(cfg, td, "failed to create safe directory", err); err != nil {
					return err
				}

				// do not end on error
				continue
			}
			td.ExtractedDirs++
			continue

		// if it's a file create it
		case ae.IsRegular():
			if err := cfg.CheckExtractionSize(extractedBytes + ae.Size()); err != nil {
				return handleError(cfg, td, "max extraction size exceeded", err)
			}

			fin, err := ae.Open()
			if err != nil {
				if err := handleError(cfg, td, "failed to open member", fmt.Errorf("%w: %v", ErrCorruptArchive, err)); err != nil {
					return err
				}
				continue
			}

			maxSize := cfg.MaxExtractionSize()
			if maxSize != -1 {
				maxSize -= extractedBytes
			}
			writtenBytes, err := createFile(t, dst, ae.Name(), fin, ae.Mode(), maxSize, cfg)
			fin.Close()
			if err != nil {
				if err := handleError(cfg, td, "failed to create file", err); err != nil {
					return err
				}

				// do not end on error
				continue
			}
			extractedBytes += writtenBytes

			td.ExtractionSize = extractedBytes
			td.ExtractedFiles++
			continue

		// it's a symlink
		case ae.IsSymlink():
			if err := createSymlink(t, dst, ae.Name(), ae.Linkname(), cfg); err != nil {
				if err := handleError(cfg, td, "failed to create symlink", err); err != nil {
					return err
				}

				// do not end on error
				continue
			}
			td.ExtractedSymlinks++
			continue

		default:

			// tar specific: skip the git comment member `pax_global_header`
			if isPaxGlobalHeader(ae) {
				continue
			}

			td.UnsupportedFiles++
			td.LastUnsupportedFile = ae.Name()
			if err := handleError(cfg, td, "cannot extract member", fmt.Errorf("unsupported filetype in archive (%x)", ae.Mode())); err != nil {
				return err
			}

			// do not end on error
			continue
		}
	}
}

// recordError increases the error counter and sets the latest error.
// The returned error is always terminal; it is used outside the member
// loop, where nothing remains that could still succeed.
func recordError(td *TelemetryData, msg string, err error) error {
	td.ExtractionErrors++
	td.LastExtractionError = fmt.Errorf("%s: %w", msg, err)
	return td.LastExtractionError
}

// handleError records the error and decides if member extraction should
// continue. A path traversal is never downgraded to a warning, the
// archive triggering it is considered hostile and its extraction is
// aborted.
func handleError(cfg *Config, td *TelemetryData, msg string, err error) error {
	recorded := recordError(td, msg, err)

	if errors.Is(err, ErrPathTraversal) {
		return recorded
	}

	// do not end on error
	if cfg.ContinueOnError() {
		cfg.Logger().Error(msg, "error", err)
		return nil
	}

	// end extraction on error
	return recorded
}
