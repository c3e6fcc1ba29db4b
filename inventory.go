// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Inventory is the classification of one directory tree. It is built
// fresh by every [Scan] and never mutated afterwards.
type Inventory struct {
	// Classes are the relative paths of class files, in walk order.
	Classes []string

	// Specials are the relative paths of application and package
	// artifacts and single-stream compressed files, in walk order.
	Specials []string

	// Formats are the observed suffixes not covered by any classified
	// file, sorted.
	Formats []string

	classSuffix  string
	special      map[string]specialEntry
	reportWorthy []string
}

// specialEntry carries the resolved suffix and format of a classified
// special file.
type specialEntry struct {
	suffix string
	format Format
}

// Scan walks dir once and classifies every file by its resolved format.
// Walk-excluded noise (platform metadata directories, hidden
// resource-fork files) contributes nothing. Scanning the same
// unmodified directory twice yields identical results.
func Scan(dir string, cfg *Config) (*Inventory, error) {
	inv := &Inventory{
		classSuffix:  cfg.ClassSuffix(),
		special:      make(map[string]specialEntry),
		reportWorthy: reportWorthySuffixes(cfg),
	}
	observed := make(map[string]struct{})
	categorized := make(map[string]struct{})

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

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		name := d.Name()
		if strings.HasSuffix(strings.ToLower(name), cfg.ClassSuffix()) {
			inv.Classes = append(inv.Classes, rel)
			categorized[cfg.ClassSuffix()] = struct{}{}
		}

		suffix, f := cfg.resolveSuffix(name)
		if f == FormatPackage || isStreamFormat(f) {
			inv.Specials = append(inv.Specials, rel)
			inv.special[rel] = specialEntry{suffix: suffix, format: f}
			categorized[suffix] = struct{}{}
		}
		if suffix != "" {
			observed[suffix] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot scan directory: %w", err)
	}

	for suffix := range observed {
		if _, ok := categorized[suffix]; ok {
			continue
		}
		inv.Formats = append(inv.Formats, suffix)
	}
	sort.Strings(inv.Formats)

	return inv, nil
}

// reportWorthySuffixes names the suffixes the report header announces:
// the special and package set, the class suffix, the compressed-tar
// suffixes and the single-stream compression suffixes.
func reportWorthySuffixes(cfg *Config) []string {
	worthy := make(map[string]struct{})
	for suffix, f := range cfg.suffixes {
		switch {
		case f == FormatPackage:
			worthy[suffix] = struct{}{}
		case isStreamFormat(f):
			worthy[suffix] = struct{}{}
		case strings.HasPrefix(suffix, ".tar."):
			worthy[suffix] = struct{}{}
		}
	}
	worthy[cfg.ClassSuffix()] = struct{}{}
	worthy[suffixGZip] = struct{}{}

	sorted := make([]string, 0, len(worthy))
	for s := range worthy {
		sorted = append(sorted, s)
	}
	sort.Strings(sorted)
	return sorted
}

// Report renders the inventory as a deterministic text report: a header
// naming the report-worthy suffixes, one line per classified file and
// one wildcard line per otherwise-unreferenced observed format.
func (i *Inventory) Report() string {
	var b strings.Builder
	b.WriteString("Report for formats: ")
	b.WriteString(strings.Join(i.reportWorthy, ", "))
	b.WriteString("\n\n")

	for _, c := range i.Classes {
		fmt.Fprintf(&b, "%s -> %s\n", c, i.classSuffix)
	}
	for _, s := range i.Specials {
		fmt.Fprintf(&b, "%s -> %s\n", s, i.special[s].suffix)
	}
	for _, suffix := range i.Formats {
		fmt.Fprintf(&b, "* -> %s\n", suffix)
	}
	return b.String()
}

// WriteReport writes the rendered report UTF-8 encoded to path.
func (i *Inventory) WriteReport(path string) error {
	if err := os.WriteFile(path, []byte(i.Report()), 0644); err != nil {
		return fmt.Errorf("cannot write report: %w", err)
	}
	return nil
}

// Summary renders the classification for on-screen display. Special
// files whose format was consumed by recursive unpacking are annotated.
func (r *Result) Summary() string {
	var b strings.Builder
	inv := r.Inventory

	if len(inv.Classes) > 0 {
		fmt.Fprintf(&b, "Class files (%d):\n", len(inv.Classes))
		for _, c := range inv.Classes {
			fmt.Fprintf(&b, "  %s\n", c)
		}
		b.WriteString("\n")
	}

	if len(inv.Specials) > 0 {
		fmt.Fprintf(&b, "Application and package files (%d):\n", len(inv.Specials))
		for _, s := range inv.Specials {
			if r.Unpacked.Contains(inv.special[s].format) {
				fmt.Fprintf(&b, "  %s (unpacked)\n", s)
			} else {
				fmt.Fprintf(&b, "  %s\n", s)
			}
		}
		b.WriteString("\n")
	}

	if len(inv.Formats) > 0 {
		b.WriteString("Other formats:\n")
		for _, suffix := range inv.Formats {
			fmt.Fprintf(&b, "  %s\n", suffix)
		}
	}

	if b.Len() == 0 {
		return "No files classified.\n"
	}
	return b.String()
}
