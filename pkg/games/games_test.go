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

package games

import (
	"context"
	"testing"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/patterns"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/regions"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func game(name, cloneOf string, releaseRegions ...string) catalog.Game {
	g := catalog.Game{
		Name:    name,
		CloneOf: cloneOf,
		Roms:    []catalog.Rom{{Name: name + ".bin", SHA1: "da39a3ee5e6b4b0d3255bfef95601890afd80709", Size: 1}},
	}
	for _, r := range releaseRegions {
		g.Releases = append(g.Releases, catalog.Release{Name: name, Region: r})
	}
	return g
}

func variantRegions(vs []*Variant) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Region
	}
	return out
}

func TestBuildGroupsClones(t *testing.T) {
	t.Parallel()

	dat := &catalog.Datafile{Games: []catalog.Game{
		game("Game (USA)", ""),
		game("Game (Europe) (En,Fr,De)", "Game (USA)"),
		game("Other (Japan)", ""),
	}}

	buckets := Build(dat, regions.NewTable(), nil)
	assert.Equal(t, []string{"Game (USA)", "Other (Japan)"}, buckets.Keys())

	vs := buckets["Game (USA)"]
	require.Len(t, vs, 2)
	assert.True(t, vs[0].Parent)
	assert.False(t, vs[1].Parent)
	assert.Equal(t, 0, vs[0].SourceOrder)
	assert.Equal(t, 1, vs[1].SourceOrder)
	assert.Equal(t, []string{"en", "fr", "de"}, vs[1].Languages)
	assert.True(t, vs[1].ExplicitLanguages)
	assert.Equal(t, "Z", vs[0].Beta)
	assert.Equal(t, "0", vs[0].Revision)
	require.Len(t, vs[0].Roms, 1)
	assert.Equal(t, "Game (USA).bin", vs[0].Roms[0].Name)
}

func TestBuildOneVariantPerRegion(t *testing.T) {
	t.Parallel()

	dat := &catalog.Datafile{Games: []catalog.Game{
		game("Game (USA, Europe)", "", "USA", "EUR", "BRA"),
	}}

	vs := Build(dat, regions.NewTable(), nil)["Game (USA, Europe)"]
	assert.Equal(t, []string{"USA", "EUR", "BRA"}, variantRegions(vs))
	for _, v := range vs {
		assert.Equal(t, "Game (USA, Europe)", v.Name)
		assert.Equal(t, []string{"en", "pt"}, v.Languages)
	}
}

func TestBuildRegistersUnknownReleaseRegion(t *testing.T) {
	t.Parallel()

	table := regions.NewTable()
	dat := &catalog.Datafile{Games: []catalog.Game{
		game("Game (Europe)", "", "XYZ"),
	}}

	vs := Build(dat, table, nil)["Game (Europe)"]
	assert.Equal(t, []string{"EUR", "XYZ"}, variantRegions(vs))

	r, ok := table.Lookup("XYZ")
	require.True(t, ok)
	assert.Empty(t, r.Languages)
}

func TestBuildDropsGamesWithoutRegions(t *testing.T) {
	t.Parallel()

	dat := &catalog.Datafile{Games: []catalog.Game{
		game("Game (Germany-ish)", ""),
	}}

	assert.Empty(t, Build(dat, regions.NewTable(), nil))
}

func TestBuildDropsGamesWithoutRoms(t *testing.T) {
	t.Parallel()

	dat := &catalog.Datafile{Games: []catalog.Game{
		{Name: "Empty (USA)"},
		game("Full (USA)", ""),
	}}

	buckets := Build(dat, regions.NewTable(), nil)
	assert.Equal(t, []string{"Full (USA)"}, buckets.Keys())
}

func TestBuildVariantsOwnTheirSlices(t *testing.T) {
	t.Parallel()

	dat := &catalog.Datafile{Games: []catalog.Game{
		game("Game (USA, Europe)", ""),
	}}

	vs := Build(dat, regions.NewTable(), nil)["Game (USA, Europe)"]
	require.Len(t, vs, 2)

	vs[0].Roms[0].Name = "changed.bin"
	vs[0].Languages[0] = "xx"
	assert.Equal(t, "Game (USA, Europe).bin", vs[1].Roms[0].Name)
	assert.Equal(t, "en", vs[1].Languages[0])
}

func TestBuildFilters(t *testing.T) {
	t.Parallel()

	dat := &catalog.Datafile{Games: []catalog.Game{
		game("[BIOS] System (Japan)", ""),
		game("Game (USA)", ""),
		game("Game (USA) (Beta)", "Game (USA)"),
		game("Unl Game (USA) (Unl)", ""),
		game("Indie (World) (Aftermarket) (Unl)", ""),
		game("Compilation (Europe)", ""),
	}}

	exclude, err := patterns.Parse(context.Background(), "Compilation", patterns.Options{})
	require.NoError(t, err)

	tests := []struct {
		name    string
		filters Filters
		keys    []string
	}{
		{
			name:    "no filters",
			filters: Filters{},
			keys: []string{
				"Compilation (Europe)", "Game (USA)", "Indie (World) (Aftermarket) (Unl)",
				"Unl Game (USA) (Unl)", "[BIOS] System (Japan)",
			},
		},
		{
			name:    "no bios",
			filters: Filters{BIOS: true},
			keys: []string{
				"Compilation (Europe)", "Game (USA)", "Indie (World) (Aftermarket) (Unl)",
				"Unl Game (USA) (Unl)",
			},
		},
		{
			name:    "unlicensed keeps aftermarket",
			filters: Filters{Unlicensed: true},
			keys: []string{
				"Compilation (Europe)", "Game (USA)", "Indie (World) (Aftermarket) (Unl)",
				"[BIOS] System (Japan)",
			},
		},
		{
			name:    "unlicensed strict",
			filters: Filters{UnlicensedStrict: true},
			keys:    []string{"Compilation (Europe)", "Game (USA)", "[BIOS] System (Japan)"},
		},
		{
			name:    "exclude list",
			filters: Filters{Exclude: exclude},
			keys: []string{
				"Game (USA)", "Indie (World) (Aftermarket) (Unl)",
				"Unl Game (USA) (Unl)", "[BIOS] System (Japan)",
			},
		},
		{
			name:    "all",
			filters: All(),
			keys:    []string{"Compilation (Europe)", "Game (USA)", "Unl Game (USA) (Unl)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			buckets := Build(dat, regions.NewTable(), &tt.filters)
			assert.Equal(t, tt.keys, buckets.Keys())
		})
	}
}

func TestBuildBetaFilterKeepsParent(t *testing.T) {
	t.Parallel()

	dat := &catalog.Datafile{Games: []catalog.Game{
		game("Game (USA)", ""),
		game("Game (USA) (Beta)", "Game (USA)"),
	}}

	vs := Build(dat, regions.NewTable(), &Filters{Beta: true})["Game (USA)"]
	require.Len(t, vs, 1)
	assert.Equal(t, "Game (USA)", vs[0].Name)
}

func TestFiltersExcludes(t *testing.T) {
	t.Parallel()

	f := Filters{Unlicensed: true}
	assert.True(t, f.Excludes("x", tags.Flags{Unlicensed: true}))
	assert.False(t, f.Excludes("x", tags.Flags{Unlicensed: true, Homebrew: true}))
	assert.False(t, f.Excludes("x", tags.Flags{}))
}

func TestFiltersActive(t *testing.T) {
	t.Parallel()

	f := Filters{BIOS: true, Demo: true}
	assert.Equal(t, []string{"bios", "demo"}, f.Active())

	all := All()
	assert.NotContains(t, all.Active(), "unlicensed")
	assert.Len(t, all.Active(), 14)
}
