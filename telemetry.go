// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"context"
	"encoding/json"
	"time"
)

// now is a function pointer that returns time.Now to the caller.
var now = time.Now

// TelemetryData holds all telemetry data of one extraction.
type TelemetryData struct {
	// ExtractedDirs is the number of extracted directories
	ExtractedDirs int64 `json:"extracted_dirs"`

	// ExtractionDuration is the time it took to extract the archive
	ExtractionDuration time.Duration `json:"extraction_duration"`

	// ExtractionErrors is the number of errors during extraction
	ExtractionErrors int64 `json:"extraction_errors"`

	// ExtractedFiles is the number of extracted files
	ExtractedFiles int64 `json:"extracted_files"`

	// ExtractionSize is the size of the extracted files
	ExtractionSize int64 `json:"extraction_size"`

	// ExtractedSymlinks is the number of extracted symlinks
	ExtractedSymlinks int64 `json:"extracted_symlinks"`

	// ExtractedType is the format of the archive
	ExtractedType string `json:"extracted_type"`

	// InputSize is the size of the input
	InputSize int64 `json:"input_size"`

	// LastExtractionError is the last error during extraction
	LastExtractionError error `json:"last_extraction_error"`

	// UnsupportedFiles is the number of skipped unsupported members
	UnsupportedFiles int64 `json:"unsupported_files"`

	// LastUnsupportedFile is the last skipped unsupported member
	LastUnsupportedFile string `json:"last_unsupported_file"`
}

// String returns a string representation of [TelemetryData].
func (td TelemetryData) String() string {
	b, _ := json.Marshal(td)
	return string(b)
}

// MarshalJSON implements the [encoding/json.Marshaler] interface.
func (td TelemetryData) MarshalJSON() ([]byte, error) {
	var lastError string
	if td.LastExtractionError != nil {
		lastError = td.LastExtractionError.Error()
	}

	type Alias TelemetryData
	return json.Marshal(&struct {
		LastExtractionError string `json:"last_extraction_error"`
		*Alias
	}{
		LastExtractionError: lastError,
		Alias:               (*Alias)(&td),
	})
}

// TelemetryHook is a function type that consumes [TelemetryData] after
// an extraction has finished, which can be used to submit the data to a
// telemetry service, for example.
type TelemetryHook func(context.Context, *TelemetryData)

// captureExtractionDuration captures the duration of the extraction.
func captureExtractionDuration(td *TelemetryData, start time.Time) {
	stop := now()
	td.ExtractionDuration = stop.Sub(start)
}

// captureInputSize captures the input size of the extraction.
func captureInputSize(td *TelemetryData, ler *limitErrorReader) {
	td.InputSize = int64(ler.ReadBytes())
}
