/*
Zaparoo 1G1R
Copyright (C) 2025 The Zaparoo Project Contributors

This file is part of Zaparoo 1G1R.

Zaparoo 1G1R is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Zaparoo 1G1R is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Zaparoo 1G1R.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package report builds the listing of resolved files printed when no
// output directory is configured.
package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"
	"golang.org/x/text/cases"
)

// Size is a byte count that may be unknown, for example when the file could
// not be inspected.
type Size struct {
	Bytes int64
	Known bool
}

func KnownSize(n int64) Size {
	return Size{Bytes: n, Known: true}
}

func (s Size) String() string {
	if !s.Known {
		return ""
	}
	return strconv.FormatInt(s.Bytes, 10)
}

type Entry struct {
	Path string
	// Uncompressed is the size declared in the catalog.
	Uncompressed Size
	// Actual is the size of the file on disk.
	Actual Size
}

// Manifest collects resolved files. The zero value is ready to use.
type Manifest struct {
	entries []Entry
	// WithActual adds on-disk totals to the summary. Only meaningful when
	// files were located in an input directory.
	WithActual bool
}

func (m *Manifest) Add(e Entry) {
	m.entries = append(m.entries, e)
}

func (m *Manifest) Len() int {
	return len(m.entries)
}

// Entries returns the entries sorted by case folded path.
func (m *Manifest) Entries() []Entry {
	fold := cases.Fold()
	sorted := slices.Clone(m.entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return cmp.Compare(fold.String(a.Path), fold.String(b.Path))
	})
	return sorted
}

type Totals struct {
	Files        int
	Uncompressed int64
	Actual       int64
	// Unknown counts entries whose on-disk size could not be read.
	Unknown int
}

func (m *Manifest) Totals() Totals {
	t := Totals{Files: len(m.entries)}
	for _, e := range m.entries {
		if e.Uncompressed.Known {
			t.Uncompressed += e.Uncompressed.Bytes
		}
		if e.Actual.Known {
			t.Actual += e.Actual.Bytes
		} else {
			t.Unknown++
		}
	}
	return t
}

// Summary formats the totals line, e.g. "2 Files, 1.5 MiB (Uncompressed)".
func (m *Manifest) Summary() string {
	t := m.Totals()
	noun := "Files"
	if t.Files == 1 {
		noun = "File"
	}
	s := fmt.Sprintf(
		"%s %s, %s (Uncompressed)",
		humanize.Comma(int64(t.Files)), noun, humanize.IBytes(uint64(max(t.Uncompressed, 0))),
	)
	if m.WithActual {
		s += fmt.Sprintf(" / %s (Actual)", humanize.IBytes(uint64(max(t.Actual, 0))))
	}
	return s
}

// Write prints one path per line followed by a blank line and the summary.
func (m *Manifest) Write(w io.Writer) error {
	for _, e := range m.Entries() {
		if _, err := fmt.Fprintln(w, e.Path); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "\n%s\n", m.Summary()); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

type csvRow struct {
	Path         string `csv:"path"`
	Uncompressed string `csv:"uncompressed_size"`
	Actual       string `csv:"actual_size"`
}

// WriteCSV writes the sorted entries as CSV with a header row. Unknown
// sizes are empty cells.
func (m *Manifest) WriteCSV(w io.Writer) error {
	entries := m.Entries()
	rows := make([]*csvRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, &csvRow{
			Path:         e.Path,
			Uncompressed: e.Uncompressed.String(),
			Actual:       e.Actual.String(),
		})
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
