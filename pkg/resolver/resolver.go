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

// Package resolver walks the ranked candidates of every bucket and picks
// the first one whose files can be found in the input collection.
package resolver

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/games"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/hasher"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/indexer"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/patterns"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/report"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/transfer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Resolver locates candidates in one of three modes: by digest when Index
// is set, by file name when only InputDir is set, and by name alone when
// neither is set.
type Resolver struct {
	Fs           afero.Fs
	Index        indexer.Index
	ExcludeAfter patterns.List
	InputDir     string
	// OutputDir is empty for a dry run.
	OutputDir string
	// Extension is appended to candidate names in file name mode.
	Extension          string
	Inclusion          Inclusion
	GroupByFirstLetter bool
}

// Item is one file of a selected candidate.
type Item struct {
	// Source is empty when only names are resolved.
	Source string
	// Destination is empty without an output directory.
	Destination string
	// Display is the path listed in the manifest, relative to the input
	// directory.
	Display      string
	Roms         []games.RomRef
	Uncompressed report.Size
	Actual       report.Size
	// Container is set when Source is a ZIP archive.
	Container bool
}

type Selection struct {
	Variant *games.Variant
	Bucket  string
	// Dir and DirDestination are set when the candidate was found as a
	// directory of ROMs; the directory metadata is carried over.
	Dir            string
	DirDestination string
	Items          []Item
}

type Plan struct {
	Selections []Selection
	// Failed lists buckets where no candidate could be located.
	Failed []string
	// Stopped lists buckets ended by an exclude-after match.
	Stopped []string
	// Empty lists buckets where every candidate was filtered out.
	Empty []string
}

// Resolve picks a candidate for every bucket, in key order. Buckets must
// already be ranked. Nothing is written.
func (r *Resolver) Resolve(ctx context.Context, buckets games.Buckets) (*Plan, error) {
	if r.Fs == nil {
		r.Fs = afero.NewOsFs()
	}

	plan := &Plan{}
	for _, key := range buckets.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolving interrupted: %w", err)
		}

		candidates := r.Inclusion.Filter(buckets[key])
		if e := log.Debug(); e.Enabled() {
			names := make([]string, len(candidates))
			for i, v := range candidates {
				names[i] = v.Name
			}
			e.Str("game", key).Strs("candidates", names).Msg("candidates after filtering")
		}
		if len(candidates) == 0 {
			plan.Empty = append(plan.Empty, key)
			continue
		}

		r.resolveBucket(plan, key, candidates)
	}
	return plan, nil
}

func (r *Resolver) resolveBucket(plan *Plan, key string, candidates []*games.Variant) {
	for _, v := range candidates {
		if r.ExcludeAfter.Match(v.Name) {
			log.Info().Str("game", key).Str("candidate", v.Name).Msg("exclude-after match, skipping game")
			plan.Stopped = append(plan.Stopped, key)
			return
		}

		var (
			sel Selection
			ok  bool
		)
		switch {
		case r.Index != nil:
			sel, ok = r.byDigest(v)
		case r.InputDir != "":
			sel, ok = r.byFileName(v)
		default:
			sel, ok = r.byName(v), true
		}
		if ok {
			sel.Bucket = key
			sel.Variant = v
			plan.Selections = append(plan.Selections, sel)
			return
		}
		log.Warn().Str("candidate", v.Name).Msg("candidate not found, trying next one")
	}

	log.Warn().Str("game", key).Msg("no eligible candidates have been found")
	plan.Failed = append(plan.Failed, key)
}

func (r *Resolver) outputDir(name string) string {
	if r.OutputDir == "" {
		return ""
	}
	return transfer.OutputDir(r.OutputDir, name, r.GroupByFirstLetter)
}

// byDigest requires every ROM of v to be in the index. ROMs found in the
// same file share one item.
func (r *Resolver) byDigest(v *games.Variant) (Selection, bool) {
	var (
		sel     Selection
		missing bool
	)
	bySource := make(map[string]int)
	outDir := r.outputDir(v.Name)

	for _, rom := range v.Roms {
		e, found := r.Index.Lookup(rom.Digest)
		if rom.Digest == "" || !found {
			log.Warn().Str("rom", rom.Name).Str("candidate", v.Name).Msg("rom file not found")
			missing = true
			continue
		}

		if i, seen := bySource[e.Path]; seen {
			sel.Items[i].Roms = append(sel.Items[i].Roms, rom)
			sel.Items[i].Uncompressed.Bytes += rom.Size
			continue
		}

		item := Item{
			Source:       e.Path,
			Display:      r.display(e.Path),
			Roms:         []games.RomRef{rom},
			Uncompressed: report.KnownSize(rom.Size),
			Actual:       r.actual(e.Path),
			Container:    hasher.IsZip(r.Fs, e.Path),
		}
		if outDir != "" {
			switch {
			case item.Container:
				item.Destination = filepath.Join(outDir, v.Name+".zip")
			case len(v.Roms) > 1:
				item.Destination = filepath.Join(outDir, v.Name, rom.Name)
			default:
				item.Destination = filepath.Join(outDir, rom.Name)
			}
		}
		bySource[e.Path] = len(sel.Items)
		sel.Items = append(sel.Items, item)
	}

	if missing || len(sel.Items) == 0 {
		return Selection{}, false
	}
	return sel, true
}

// byFileName looks for "<name>.<ext>" in the input directory, either as a
// file or as a directory holding every ROM by name.
func (r *Resolver) byFileName(v *games.Variant) (Selection, bool) {
	fileName := withExtension(v.Name, r.Extension)
	full := filepath.Join(r.InputDir, fileName)
	outDir := r.outputDir(v.Name)

	info, err := r.Fs.Stat(full)
	if err != nil {
		return Selection{}, false
	}

	if !info.IsDir() {
		item := Item{
			Source:       full,
			Display:      fileName,
			Roms:         v.Roms,
			Uncompressed: report.KnownSize(romsSize(v.Roms)),
			Actual:       report.KnownSize(info.Size()),
		}
		if outDir != "" {
			item.Destination = filepath.Join(outDir, fileName)
		}
		return Selection{Items: []Item{item}}, true
	}

	sel := Selection{Dir: full}
	if outDir != "" {
		sel.DirDestination = filepath.Join(outDir, fileName)
	}
	missing := false
	for _, rom := range v.Roms {
		src := filepath.Join(full, rom.Name)
		romInfo, err := r.Fs.Stat(src)
		if err != nil || romInfo.IsDir() {
			log.Warn().Str("rom", rom.Name).Str("candidate", fileName).Msg("rom file not found")
			missing = true
			continue
		}
		item := Item{
			Source:       src,
			Display:      fileName + "/" + rom.Name,
			Roms:         []games.RomRef{rom},
			Uncompressed: report.KnownSize(rom.Size),
			Actual:       report.KnownSize(romInfo.Size()),
		}
		if sel.DirDestination != "" {
			item.Destination = filepath.Join(sel.DirDestination, rom.Name)
		}
		sel.Items = append(sel.Items, item)
	}

	if missing || len(sel.Items) == 0 {
		return Selection{}, false
	}
	return sel, true
}

func (r *Resolver) byName(v *games.Variant) Selection {
	return Selection{Items: []Item{{
		Display:      withExtension(v.Name, r.Extension),
		Roms:         v.Roms,
		Uncompressed: report.KnownSize(romsSize(v.Roms)),
	}}}
}

func (r *Resolver) display(path string) string {
	if r.InputDir == "" {
		return path
	}
	rel, err := filepath.Rel(r.InputDir, path)
	if err != nil {
		return path
	}
	return rel
}

func (r *Resolver) actual(path string) report.Size {
	info, err := r.Fs.Stat(path)
	if err != nil {
		log.Debug().Err(err).Str("file", path).Msg("failed to stat file")
		return report.Size{}
	}
	return report.KnownSize(info.Size())
}

func withExtension(name, ext string) string {
	if ext == "" {
		return name
	}
	return name + "." + ext
}

func romsSize(roms []games.RomRef) int64 {
	var n int64
	for _, r := range roms {
		n += r.Size
	}
	return n
}

// Manifest lists every selected item. withActual adds on-disk totals to
// the summary.
func (p *Plan) Manifest(withActual bool) *report.Manifest {
	m := &report.Manifest{WithActual: withActual}
	for _, sel := range p.Selections {
		for _, it := range sel.Items {
			m.Add(report.Entry{Path: it.Display, Uncompressed: it.Uncompressed, Actual: it.Actual})
		}
	}
	return m
}

// TransferBytes is the on-disk size of every item with a destination.
func (p *Plan) TransferBytes() uint64 {
	var n uint64
	for _, sel := range p.Selections {
		for _, it := range sel.Items {
			if it.Destination != "" && it.Actual.Known && it.Actual.Bytes > 0 {
				n += uint64(it.Actual.Bytes)
			}
		}
	}
	return n
}
