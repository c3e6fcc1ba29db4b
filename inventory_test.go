// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestScanClassification(t *testing.T) {
	tmp := t.TempDir()
	writeTestFile(t, filepath.Join(tmp, "a.class"), []byte("bytecode"))
	if err := os.MkdirAll(filepath.Join(tmp, "lib"), 0750); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, filepath.Join(tmp, "lib", "app.jar"), []byte("pk"))
	writeTestFile(t, filepath.Join(tmp, "data.gz"), []byte("gz"))
	writeTestFile(t, filepath.Join(tmp, "readme.txt"), []byte("text"))
	writeTestFile(t, filepath.Join(tmp, "noext"), []byte("raw"))

	inv, err := Scan(tmp, NewConfig())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if want := []string{"a.class"}; !reflect.DeepEqual(inv.Classes, want) {
		t.Errorf("Classes = %v, want %v", inv.Classes, want)
	}

	wantSpecials := map[string]bool{
		filepath.Join("lib", "app.jar"): true,
		"data.gz":                       true,
	}
	if len(inv.Specials) != len(wantSpecials) {
		t.Fatalf("Specials = %v, want %v", inv.Specials, wantSpecials)
	}
	for _, s := range inv.Specials {
		if !wantSpecials[s] {
			t.Errorf("unexpected special %q", s)
		}
	}

	// only the uncategorized suffixes remain as other formats
	if want := []string{".txt"}; !reflect.DeepEqual(inv.Formats, want) {
		t.Errorf("Formats = %v, want %v", inv.Formats, want)
	}
}

func TestScanCaseInsensitiveClassSuffix(t *testing.T) {
	tmp := t.TempDir()
	writeTestFile(t, filepath.Join(tmp, "Upper.CLASS"), []byte("bytecode"))

	inv, err := Scan(tmp, NewConfig())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(inv.Classes) != 1 {
		t.Errorf("Classes = %v, want the upper-cased class file", inv.Classes)
	}
}

func TestScanSkipsJunk(t *testing.T) {
	tmp := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmp, "__MACOSX"), 0750); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, filepath.Join(tmp, "__MACOSX", "ghost.class"), []byte("x"))
	writeTestFile(t, filepath.Join(tmp, "._fork.class"), []byte("x"))
	writeTestFile(t, filepath.Join(tmp, "real.class"), []byte("bytecode"))

	inv, err := Scan(tmp, NewConfig())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if want := []string{"real.class"}; !reflect.DeepEqual(inv.Classes, want) {
		t.Errorf("Classes = %v, want %v", inv.Classes, want)
	}
	if len(inv.Formats) != 0 {
		t.Errorf("Formats = %v, want none from junk", inv.Formats)
	}
}

// TestScanIdempotent pins that scanning the same unmodified tree twice
// yields identical results.
func TestScanIdempotent(t *testing.T) {
	tmp := t.TempDir()
	writeTestFile(t, filepath.Join(tmp, "a.class"), []byte("bytecode"))
	writeTestFile(t, filepath.Join(tmp, "app.exe"), []byte("mz"))
	writeTestFile(t, filepath.Join(tmp, "notes.md"), []byte("text"))

	cfg := NewConfig()
	first, err := Scan(tmp, cfg)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	second, err := Scan(tmp, cfg)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated scans differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if first.Report() != second.Report() {
		t.Errorf("repeated reports differ")
	}
}

func TestReport(t *testing.T) {
	tmp := t.TempDir()
	writeTestFile(t, filepath.Join(tmp, "a.class"), []byte("bytecode"))
	writeTestFile(t, filepath.Join(tmp, "app.jar"), []byte("pk"))
	writeTestFile(t, filepath.Join(tmp, "readme.txt"), []byte("text"))

	inv, err := Scan(tmp, NewConfig())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	report := inv.Report()
	if !strings.HasPrefix(report, "Report for formats: ") {
		t.Errorf("report header missing: %q", report)
	}

	header, _, ok := strings.Cut(report, "\n\n")
	if !ok {
		t.Fatalf("report has no blank line after the header: %q", report)
	}
	for _, want := range []string{".class", ".jar", ".gz", ".tar.gz"} {
		if !strings.Contains(header, want) {
			t.Errorf("report header lacks %q: %q", want, header)
		}
	}

	for _, line := range []string{
		"a.class -> .class\n",
		"app.jar -> .jar\n",
		"* -> .txt\n",
	} {
		if !strings.Contains(report, line) {
			t.Errorf("report lacks line %q:\n%s", line, report)
		}
	}
}

func TestWriteReport(t *testing.T) {
	tmp := t.TempDir()
	writeTestFile(t, filepath.Join(tmp, "a.class"), []byte("bytecode"))

	inv, err := Scan(tmp, NewConfig())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	out := filepath.Join(tmp, "report.txt")
	if err := inv.WriteReport(out); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	if got := mustReadFile(t, out); got != inv.Report() {
		t.Errorf("written report differs from rendered report")
	}
}

func TestSummaryAnnotation(t *testing.T) {
	tmp := t.TempDir()
	writeTestFile(t, filepath.Join(tmp, "a.class"), []byte("bytecode"))
	writeTestFile(t, filepath.Join(tmp, "app.war"), []byte("pk"))
	writeTestFile(t, filepath.Join(tmp, "data.gz"), []byte("gz"))
	writeTestFile(t, filepath.Join(tmp, "readme.txt"), []byte("text"))

	inv, err := Scan(tmp, NewConfig())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	result := &Result{
		Inventory: inv,
		Unpacked:  UnpackedSet{FormatPackage: {}},
	}
	summary := result.Summary()

	if !strings.Contains(summary, "Class files (1):") {
		t.Errorf("summary lacks class section:\n%s", summary)
	}
	if !strings.Contains(summary, "app.war (unpacked)") {
		t.Errorf("summary lacks unpacked annotation:\n%s", summary)
	}
	if strings.Contains(summary, "data.gz (unpacked)") {
		t.Errorf("summary annotates a format that was not unpacked:\n%s", summary)
	}
	if !strings.Contains(summary, "Other formats:") || !strings.Contains(summary, ".txt") {
		t.Errorf("summary lacks other formats section:\n%s", summary)
	}
}

func TestSummaryEmpty(t *testing.T) {
	inv, err := Scan(t.TempDir(), NewConfig())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	result := &Result{Inventory: inv, Unpacked: UnpackedSet{}}
	if got := result.Summary(); got != "No files classified.\n" {
		t.Errorf("Summary() = %q, want the empty marker", got)
	}
}

// TestProcessScenario runs the full pipeline over an archive carrying a
// class file, a nested tarball with a package artifact and a text file.
func TestProcessScenario(t *testing.T) {
	innerTarGz := gzipBytes(t, tarBytes(t, map[string]string{
		"c.exe": "not a real pe file",
	}))

	files := map[string][]byte{
		"a/b.class":      []byte("bytecode"),
		"a/inner.tar.gz": innerTarGz,
		"readme.txt":     []byte("docs"),
	}
	tmp := t.TempDir()
	src := filepath.Join(tmp, "sample.zip")
	writeTestFile(t, src, zipBytesRaw(t, files))

	result, err := Process(context.Background(), src, NewConfig())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	inv := result.Inventory

	if want := []string{filepath.Join("a", "b.class")}; !reflect.DeepEqual(inv.Classes, want) {
		t.Errorf("Classes = %v, want %v", inv.Classes, want)
	}

	// the tarball was consumed, its package artifact survived the failed
	// nested unpacking attempt and is classified
	if want := []string{filepath.Join("a", "inner", "c.exe")}; !reflect.DeepEqual(inv.Specials, want) {
		t.Errorf("Specials = %v, want %v", inv.Specials, want)
	}
	if _, err := os.Stat(filepath.Join(result.TargetDir, "a", "inner", "c")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("failed nested extraction left a target directory behind")
	}
	if want := []string{".txt"}; !reflect.DeepEqual(inv.Formats, want) {
		t.Errorf("Formats = %v, want %v", inv.Formats, want)
	}
	for _, f := range []Format{FormatZip, FormatTarGZip} {
		if !result.Unpacked.Contains(f) {
			t.Errorf("Unpacked does not contain %v", f)
		}
	}
}
