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

// Package games groups catalog entries into buckets of regional variants.
// Every bucket is keyed by the parent title and holds one variant per
// region a release was published in.
package games

import (
	"slices"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/patterns"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/regions"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/tags"
	"github.com/rs/zerolog/log"
)

// RomRef is one file belonging to a variant.
type RomRef struct {
	Name string
	// Digest is the lowercase SHA-1 from the catalog, empty if absent.
	Digest string
	Size   int64
}

// Score holds the numeric sort keys derived for a variant. Lower values
// rank first.
type Score struct {
	Revision []int
	Version  []int
	Sample   []int
	Demo     []int
	Beta     []int
	Proto    []int
	Region   int
	Language int
}

// Variant is a (game, region) pair. A release listed for three regions
// produces three variants sharing everything but Region.
type Variant struct {
	Name      string
	Region    string
	Languages []string
	Roms      []RomRef

	// Dotted sub-tags, zero padded across the bucket before scoring.
	Revision string
	Version  string
	Sample   string
	Demo     string
	Beta     string
	Proto    string

	Score Score
	// SourceOrder is the position of the game in the catalog.
	SourceOrder int

	BadDump           bool
	Prerelease        bool
	Parent            bool
	ExplicitLanguages bool
}

// Filters selects which categories of releases are dropped while building
// buckets.
type Filters struct {
	Exclude          patterns.List
	BIOS             bool
	Program          bool
	EnhancementChip  bool
	Proto            bool
	Beta             bool
	Demo             bool
	Sample           bool
	Pirate           bool
	Bad              bool
	Aftermarket      bool
	Homebrew         bool
	Kiosk            bool
	Promo            bool
	Debug            bool
	Unlicensed       bool
	UnlicensedStrict bool
}

// All returns filters with every category enabled except the unlicensed
// ones.
func All() Filters {
	return Filters{
		BIOS:            true,
		Program:         true,
		EnhancementChip: true,
		Proto:           true,
		Beta:            true,
		Demo:            true,
		Sample:          true,
		Pirate:          true,
		Bad:             true,
		Aftermarket:     true,
		Homebrew:        true,
		Kiosk:           true,
		Promo:           true,
		Debug:           true,
	}
}

// Excludes reports whether a game named name with the given flags is
// dropped.
func (f *Filters) Excludes(name string, fl tags.Flags) bool {
	switch {
	case f.BIOS && fl.BIOS,
		f.Unlicensed && fl.Unlicensed && !fl.Aftermarket && !fl.Homebrew,
		f.UnlicensedStrict && fl.Unlicensed,
		f.Pirate && fl.Pirate,
		f.Bad && fl.BadDump,
		f.Aftermarket && fl.Aftermarket,
		f.Homebrew && fl.Homebrew,
		f.Kiosk && fl.Kiosk,
		f.Promo && fl.Promo,
		f.Debug && fl.Debug,
		f.Program && fl.Program,
		f.EnhancementChip && fl.EnhancementChip,
		f.Beta && fl.Beta,
		f.Demo && fl.Demo,
		f.Sample && fl.Sample,
		f.Proto && fl.Proto:
		return true
	}
	return f.Exclude.Match(name)
}

// Active returns the names of the enabled filters, for the verbose
// printout.
func (f *Filters) Active() []string {
	named := []struct {
		name string
		on   bool
	}{
		{"bios", f.BIOS},
		{"program", f.Program},
		{"enhancement-chip", f.EnhancementChip},
		{"proto", f.Proto},
		{"beta", f.Beta},
		{"demo", f.Demo},
		{"sample", f.Sample},
		{"pirate", f.Pirate},
		{"bad", f.Bad},
		{"aftermarket", f.Aftermarket},
		{"homebrew", f.Homebrew},
		{"kiosk", f.Kiosk},
		{"promo", f.Promo},
		{"debug", f.Debug},
		{"unlicensed", f.Unlicensed},
		{"unlicensed-strict", f.UnlicensedStrict},
	}
	var active []string
	for _, n := range named {
		if n.on {
			active = append(active, n.name)
		}
	}
	if len(f.Exclude) > 0 {
		active = append(active, "exclude")
	}
	return active
}

// Buckets maps a parent title to its variants.
type Buckets map[string][]*Variant

// Keys returns the bucket keys in sorted order.
func (b Buckets) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Build groups the catalog into buckets, applying filters. Regions named
// in <release> entries but not in the title are added after the title
// regions, registering unknown codes in table.
func Build(dat *catalog.Datafile, table *regions.Table, filters *Filters) Buckets {
	buckets := make(Buckets)

	for i := range dat.Games {
		game := &dat.Games[i]

		flags := tags.ParseFlags(game.Name)
		if filters != nil && filters.Excludes(game.Name, flags) {
			continue
		}

		attrs := tags.Parse(table, game.Name)
		regs := attrs.Regions
		for _, rel := range game.Releases {
			if rel.Region != "" && !regions.Contains(regs, rel.Region) {
				regs = append(regs, table.ResolveOrRegister(rel.Region))
			}
		}
		languages := attrs.Languages
		if !attrs.ExplicitLanguages {
			languages = regions.Languages(regs)
		}

		if len(regs) == 0 {
			log.Warn().Str("game", game.Name).Msg("no recognizable regions found")
			continue
		}
		if len(game.Roms) == 0 {
			log.Warn().Str("game", game.Name).Msg("no roms found in dat file")
			continue
		}

		roms := make([]RomRef, 0, len(game.Roms))
		for _, r := range game.Roms {
			roms = append(roms, RomRef{Name: r.Name, Digest: r.SHA1, Size: r.Size})
		}

		key := game.CloneOf
		if key == "" {
			key = game.Name
		}

		// each variant owns its slices
		for _, r := range regs {
			buckets[key] = append(buckets[key], &Variant{
				Name:              game.Name,
				Region:            r.Code,
				Languages:         slices.Clone(languages),
				ExplicitLanguages: attrs.ExplicitLanguages,
				Roms:              slices.Clone(roms),
				Revision:          attrs.Revision,
				Version:           attrs.Version,
				Sample:            attrs.Sample,
				Demo:              attrs.Demo,
				Beta:              attrs.Beta,
				Proto:             attrs.Proto,
				SourceOrder:       i,
				BadDump:           flags.BadDump,
				Prerelease:        attrs.Prerelease,
				Parent:            game.CloneOf == "",
			})
		}
	}

	return buckets
}
