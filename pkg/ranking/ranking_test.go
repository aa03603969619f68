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

package ranking

import (
	"context"
	"slices"
	"strconv"
	"testing"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/games"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/patterns"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/regions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func romGame(name, cloneOf string) catalog.Game {
	return catalog.Game{Name: name, CloneOf: cloneOf, Roms: []catalog.Rom{{Name: name + ".bin", Size: 1}}}
}

func bucket(t *testing.T, names ...string) []*games.Variant {
	t.Helper()
	dat := &catalog.Datafile{}
	for i, n := range names {
		cloneOf := ""
		if i > 0 {
			cloneOf = names[0]
		}
		dat.Games = append(dat.Games, romGame(n, cloneOf))
	}
	buckets := games.Build(dat, regions.NewTable(), nil)
	require.Len(t, buckets, 1)
	return buckets[names[0]]
}

func rank(t *testing.T, p Params, opts Options, names ...string) []string {
	t.Helper()
	vs := bucket(t, names...)
	PadVariants(vs)
	Score(vs, p)
	NewComparator(opts).Sort(vs)
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Name
	}
	return out
}

func TestPad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"single", []string{"1"}, []string{"1"}},
		{"widths", []string{"1", "10"}, []string{"01", "10"}},
		{"dotted", []string{"1.2", "1.10", "2"}, []string{"1.02", "1.10", "2"}},
		{"prerelease marker", []string{"Z", "12"}, []string{"0Z", "12"}},
		{"empty segment", []string{"", "3"}, []string{"0", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Pad(tt.in))
		})
	}
}

func TestLanguageRank(t *testing.T) {
	t.Parallel()

	selected := []string{"en", "fr"}
	assert.Equal(t, -6, languageRank(selected, []string{"en"}, 3))
	assert.Equal(t, -3, languageRank(selected, []string{"fr"}, 3))
	assert.Equal(t, -9, languageRank(selected, []string{"en", "fr", "de"}, 3))
	assert.Equal(t, 0, languageRank(selected, []string{"ja"}, 3))
	assert.Equal(t, 0, languageRank(nil, []string{"en"}, 3))
}

func TestScore(t *testing.T) {
	t.Parallel()

	vs := bucket(t, "Game (USA) (Rev 1)", "Game (Brazil)")
	PadVariants(vs)
	Score(vs, Params{Regions: []string{"USA"}, Languages: []string{"en"}})

	assert.Equal(t, 0, vs[0].Score.Region)
	assert.Equal(t, Unselected, vs[1].Score.Region)
	assert.Equal(t, -3, vs[0].Score.Language)
	assert.Equal(t, 0, vs[1].Score.Language)
	assert.Equal(t, []int{-'1'}, vs[0].Score.Revision)
	assert.Equal(t, []int{-'Z'}, vs[0].Score.Beta)

	Score(vs, Params{Regions: []string{"USA"}, EarlyRevisions: true})
	assert.Equal(t, []int{'1'}, vs[0].Score.Revision)
}

func TestRankScenarios(t *testing.T) {
	t.Parallel()

	usaFirst := Params{Regions: []string{"USA", "EUR"}}

	tests := []struct {
		name   string
		params Params
		opts   Options
		names  []string
		want   string
	}{
		{
			name:   "region order",
			params: usaFirst,
			names:  []string{"Game (Europe)", "Game (USA)"},
			want:   "Game (USA)",
		},
		{
			name:   "released before beta",
			params: usaFirst,
			names:  []string{"Game (USA) (Beta)", "Game (USA)"},
			want:   "Game (USA)",
		},
		{
			name:   "prefer prereleases",
			params: usaFirst,
			opts:   Options{PreferPrereleases: true},
			names:  []string{"Game (USA)", "Game (USA) (Beta)"},
			want:   "Game (USA) (Beta)",
		},
		{
			name:   "latest revision is numeric",
			params: usaFirst,
			names:  []string{"Game (USA) (Rev 1)", "Game (USA) (Rev 10)", "Game (USA) (Rev 2)"},
			want:   "Game (USA) (Rev 10)",
		},
		{
			name:   "early revisions",
			params: Params{Regions: []string{"USA"}, EarlyRevisions: true},
			opts:   Options{EarlyRevisions: true},
			names:  []string{"Game (USA) (Rev 2)", "Game (USA)", "Game (USA) (Rev 1)"},
			want:   "Game (USA)",
		},
		{
			name:   "latest version",
			params: usaFirst,
			names:  []string{"Game (USA) (v1.2)", "Game (USA) (v1.10)"},
			want:   "Game (USA) (v1.10)",
		},
		{
			name:   "good dump first",
			params: usaFirst,
			names:  []string{"Game (USA) [b]", "Game (Europe)"},
			want:   "Game (Europe)",
		},
		{
			name:   "prioritize languages",
			params: Params{Regions: []string{"USA", "JPN"}, Languages: []string{"ja"}},
			opts:   Options{PrioritizeLanguages: true},
			names:  []string{"Game (USA)", "Game (Japan)"},
			want:   "Game (Japan)",
		},
		{
			name:   "more languages win ties",
			params: usaFirst,
			names:  []string{"Game (Europe) (En,Fr)", "Game (Europe) (En,Fr,De)"},
			want:   "Game (Europe) (En,Fr,De)",
		},
		{
			name:   "input order",
			params: Params{Regions: []string{"USA"}},
			opts:   Options{InputOrder: true},
			names:  []string{"Game (USA) (Rev 1)", "Game (USA) (Rev 2)"},
			want:   "Game (USA) (Rev 1)",
		},
		{
			name:   "parent wins final tie",
			params: usaFirst,
			names:  []string{"Game (USA)", "Game (USA) (Alt)"},
			want:   "Game (USA)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rank(t, tt.params, tt.opts, tt.names...)
			assert.Equal(t, tt.want, got[0], "order: %v", got)
		})
	}
}

func TestRankPreferAndAvoid(t *testing.T) {
	t.Parallel()

	avoid, err := patterns.Parse(context.Background(), "Virtual Console", patterns.Options{})
	require.NoError(t, err)
	prefer, err := patterns.Parse(context.Background(), "Collector", patterns.Options{})
	require.NoError(t, err)

	p := Params{Regions: []string{"USA", "EUR"}}

	got := rank(t, p, Options{Avoid: avoid}, "Game (USA) (Virtual Console)", "Game (Europe)")
	assert.Equal(t, "Game (Europe)", got[0])

	got = rank(t, p, Options{Prefer: prefer}, "Game (USA)", "Game (USA) (Collector's Edition)")
	assert.Equal(t, "Game (USA) (Collector's Edition)", got[0])
}

func TestComparatorCriteria(t *testing.T) {
	t.Parallel()

	c := NewComparator(Options{})
	assert.Equal(t, []Criterion{
		BadDump, Prerelease, Region, Language, Revision, Version,
		Sample, Demo, Beta, Proto, LanguageCount, Parent,
	}, c.Criteria())

	c = NewComparator(Options{PrioritizeLanguages: true, PreferParents: true, InputOrder: true})
	crit := c.Criteria()
	assert.Less(t, slices.Index(crit, Language), slices.Index(crit, Region))
	assert.Contains(t, crit, PreferParents)
	assert.Contains(t, crit, InputOrder)
	assert.NotContains(t, crit, Avoided)
}

func TestComparatorDescribe(t *testing.T) {
	t.Parallel()

	lines := NewComparator(Options{EarlyVersions: true}).Describe()
	require.Len(t, lines, 16)
	assert.Equal(t, "Good dumps", lines[0])
	assert.Equal(t, "Released ROMs", lines[1])
	assert.Equal(t, "Non-avoided items (ignored)", lines[2])
	assert.Equal(t, "Best region match", lines[3])
	assert.Equal(t, "Latest revision", lines[8])
	assert.Equal(t, "Earliest version", lines[9])
	assert.Equal(t, "Parent ROMs", lines[15])
}

func TestCriterionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "bad-dump", BadDump.String())
	assert.Equal(t, "parent", Parent.String())
	assert.Equal(t, "unknown", Criterion(99).String())
}

func TestRank(t *testing.T) {
	t.Parallel()

	dat := &catalog.Datafile{Games: []catalog.Game{
		romGame("Alpha (Europe)", ""),
		romGame("Alpha (USA)", "Alpha (Europe)"),
		romGame("Beta Quest (Japan)", ""),
		romGame("Beta Quest (USA) (Rev 1)", "Beta Quest (Japan)"),
	}}
	buckets := games.Build(dat, regions.NewTable(), nil)

	Rank(buckets, Params{Regions: []string{"USA", "EUR", "JPN"}}, NewComparator(Options{}))

	assert.Equal(t, "Alpha (USA)", buckets["Alpha (Europe)"][0].Name)
	assert.Equal(t, "Beta Quest (USA) (Rev 1)", buckets["Beta Quest (Japan)"][0].Name)
}

// ============================================================================
// Property tests
// ============================================================================

// TestPropertyPadPreservesNumericOrder checks that padded integer strings
// sort the same way the integers do.
func TestPropertyPadPreservesNumericOrder(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(0, 99999).Draw(t, "a")
		b := rapid.IntRange(0, 99999).Draw(t, "b")
		padded := Pad([]string{strconv.Itoa(a), strconv.Itoa(b)})
		if len(padded[0]) != len(padded[1]) {
			t.Fatalf("unequal widths: %v", padded)
		}
		if (a < b) != (padded[0] < padded[1]) {
			t.Fatalf("order changed: %d %d -> %v", a, b, padded)
		}
	})
}

// TestPropertySortIdempotent checks that sorting an already sorted bucket
// leaves it unchanged and that the result does not depend on input order.
func TestPropertySortIdempotent(t *testing.T) {
	t.Parallel()

	pool := []string{
		"Game (USA)", "Game (Europe)", "Game (Japan)", "Game (USA) (Rev 1)",
		"Game (USA) (Beta)", "Game (Europe) (En,Fr,De)", "Game (USA) [b]",
		"Game (Japan) (Rev 2)", "Game (USA) (v1.1)", "Game (Korea) (Proto)",
	}

	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfNDistinct(rapid.SampledFrom(pool), 1, len(pool), rapid.ID[string]).Draw(t, "names")
		opts := Options{
			PrioritizeLanguages: rapid.Bool().Draw(t, "prioritizeLanguages"),
			PreferPrereleases:   rapid.Bool().Draw(t, "preferPrereleases"),
		}
		p := Params{Regions: []string{"USA", "EUR", "JPN"}, Languages: []string{"en", "ja"}}
		c := NewComparator(opts)

		dat := &catalog.Datafile{}
		for _, n := range names {
			dat.Games = append(dat.Games, romGame(n, "Game"))
		}
		vs := games.Build(dat, regions.NewTable(), nil)["Game"]
		PadVariants(vs)
		Score(vs, p)
		c.Sort(vs)

		once := slices.Clone(vs)
		c.Sort(vs)
		if !slices.Equal(once, vs) {
			t.Fatalf("second sort changed order")
		}

		rev := slices.Clone(vs)
		slices.Reverse(rev)
		c.Sort(rev)
		for i := range vs {
			if c.Compare(vs[i], rev[i]) != 0 {
				t.Fatalf("order depends on input at %d", i)
			}
		}
	})
}
