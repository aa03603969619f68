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

package tags

import (
	"testing"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/regions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func regionCodes(rs []*regions.Region) []string {
	codes := make([]string, 0, len(rs))
	for _, r := range rs {
		codes = append(codes, r.Code)
	}
	return codes
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		regions   []string
		languages []string
		explicit  bool
		revision  string
		version   string
		beta      string
		demo      string
		sample    string
		proto     string
	}{
		{
			name:      "plain release",
			input:     "Game (USA)",
			regions:   []string{"USA"},
			languages: []string{"en"},
			revision:  "0", version: "0",
			beta: "Z", demo: "Z", sample: "Z", proto: "Z",
		},
		{
			name:      "multi region with languages",
			input:     "Game (USA, Europe) (En,Fr)",
			regions:   []string{"USA", "EUR"},
			languages: []string{"en", "fr"},
			explicit:  true,
			revision:  "0", version: "0",
			beta: "Z", demo: "Z", sample: "Z", proto: "Z",
		},
		{
			name:      "revision and beta",
			input:     "Game (Japan) (Rev 1) (Beta 2)",
			regions:   []string{"JPN"},
			languages: []string{"ja"},
			revision:  "1", version: "0",
			beta: "2", demo: "Z", sample: "Z", proto: "Z",
		},
		{
			name:      "beta without number",
			input:     "Game (Europe) (Beta)",
			regions:   []string{"EUR"},
			languages: []string{"en"},
			revision:  "0", version: "0",
			beta: "0", demo: "Z", sample: "Z", proto: "Z",
		},
		{
			name:      "version tag",
			input:     "Game (Germany) (v1.02)",
			regions:   []string{"GER"},
			languages: []string{"de"},
			revision:  "0", version: "1.02",
			beta: "Z", demo: "Z", sample: "Z", proto: "Z",
		},
		{
			name:      "plus joined languages",
			input:     "Game (Canada) (En+Fr,De)",
			regions:   []string{"CAN"},
			languages: []string{"en", "fr", "de"},
			explicit:  true,
			revision:  "0", version: "0",
			beta: "Z", demo: "Z", sample: "Z", proto: "Z",
		},
		{
			name:      "default languages union",
			input:     "Game (Canada, France)",
			regions:   []string{"CAN", "FRA"},
			languages: []string{"en", "fr"},
			revision:  "0", version: "0",
			beta: "Z", demo: "Z", sample: "Z", proto: "Z",
		},
		{
			name:      "unrecognized region word",
			input:     "Game (Germany-ish)",
			regions:   []string{},
			languages: []string{},
			revision:  "0", version: "0",
			beta: "Z", demo: "Z", sample: "Z", proto: "Z",
		},
		{
			name:      "trial counts as demo",
			input:     "Game (USA) (Trial 3)",
			regions:   []string{"USA"},
			languages: []string{"en"},
			revision:  "0", version: "0",
			beta: "Z", demo: "3", sample: "Z", proto: "Z",
		},
		{
			name:      "labeled demo has no sub-tag",
			input:     "Game (USA) (Labeled Demo)",
			regions:   []string{"USA"},
			languages: []string{"en"},
			revision:  "0", version: "0",
			beta: "Z", demo: "0", sample: "Z", proto: "Z",
		},
		{
			name:      "prototype",
			input:     "Game (Japan) (Proto 2)",
			regions:   []string{"JPN"},
			languages: []string{"ja"},
			revision:  "0", version: "0",
			beta: "Z", demo: "Z", sample: "Z", proto: "2",
		},
		{
			name:      "sample",
			input:     "Game (Korea) (Sample)",
			regions:   []string{"KOR"},
			languages: []string{"ko"},
			revision:  "0", version: "0",
			beta: "Z", demo: "Z", sample: "0", proto: "Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			attrs := Parse(regions.NewTable(), tt.input)

			assert.Equal(t, tt.regions, regionCodes(attrs.Regions))
			assert.Equal(t, tt.languages, attrs.Languages)
			assert.Equal(t, tt.explicit, attrs.ExplicitLanguages)
			assert.Equal(t, tt.revision, attrs.Revision, "revision")
			assert.Equal(t, tt.version, attrs.Version, "version")
			assert.Equal(t, tt.beta, attrs.Beta, "beta")
			assert.Equal(t, tt.demo, attrs.Demo, "demo")
			assert.Equal(t, tt.sample, attrs.Sample, "sample")
			assert.Equal(t, tt.proto, attrs.Proto, "proto")
		})
	}
}

func TestParsePrerelease(t *testing.T) {
	t.Parallel()

	table := regions.NewTable()
	assert.True(t, Parse(table, "Game (USA) (Beta)").Prerelease)
	assert.True(t, Parse(table, "Game (USA) (Demo)").Prerelease)
	assert.True(t, Parse(table, "Game (USA) (GameCube Preview)").Prerelease)
	assert.True(t, Parse(table, "Game (USA) (Possible Proto)").Prerelease)
	assert.False(t, Parse(table, "Game (USA) (Rev 2)").Prerelease)
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		check func(Flags) bool
	}{
		{"[BIOS] System (Japan)", func(f Flags) bool { return f.BIOS }},
		{"Game (USA) [b]", func(f Flags) bool { return f.BadDump }},
		{"Game (USA) (Test Program)", func(f Flags) bool { return f.Program }},
		{"Game (USA) (SDK Build)", func(f Flags) bool { return f.Program }},
		{"Game (USA) (DS Expansion Cartridge)", func(f Flags) bool { return f.Program }},
		{"Chip (Japan) (Enhancement Chip)", func(f Flags) bool { return f.EnhancementChip }},
		{"Game (Asia) (Pirate)", func(f Flags) bool { return f.Pirate }},
		{"Game (USA) (Unl)", func(f Flags) bool { return f.Unlicensed }},
		{"Game (World) (Aftermarket) (Unl)", func(f Flags) bool { return f.Aftermarket && f.Unlicensed }},
		{"Game (World) (Homebrew)", func(f Flags) bool { return f.Homebrew }},
		{"Game (USA) (Kiosk, Demo)", func(f Flags) bool { return f.Kiosk }},
		{"Game (Europe) (Wi-Fi Kiosk)", func(f Flags) bool { return f.Kiosk }},
		{"Game (USA) (Promo)", func(f Flags) bool { return f.Promo }},
		{"Game (Japan) (Debug Version)", func(f Flags) bool { return f.Debug }},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.check(ParseFlags(tt.input)))
		})
	}

	assert.Equal(t, Flags{}, ParseFlags("Game (USA) (Rev 1)"))
}

func TestParseLanguages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"en", "fr", "de"}, ParseLanguages("Game (Europe) (En,Fr,De)"))
	assert.Equal(t, []string{"ja"}, ParseLanguages("Game (Japan) (JA)"))
	assert.Nil(t, ParseLanguages("Game (Europe)"))
	assert.Nil(t, ParseLanguages("Game (Europe) (English)"))
}

func TestParseRegionsKeepsDuplicates(t *testing.T) {
	t.Parallel()

	rs := ParseRegions(regions.NewTable(), "Game (USA) (USA, Japan)")
	require.Len(t, rs, 3)
	assert.Equal(t, []string{"USA", "USA", "JPN"}, regionCodes(rs))
}

// ============================================================================
// Property tests
// ============================================================================

// TestPropertyParseNeverPanics checks that arbitrary names always yield
// defaulted attributes.
func TestPropertyParseNeverPanics(t *testing.T) {
	t.Parallel()
	table := regions.NewTable()

	rapid.Check(t, func(t *rapid.T) {
		name := rapid.String().Draw(t, "name")
		attrs := Parse(table, name)

		for _, v := range []string{attrs.Revision, attrs.Version, attrs.Beta, attrs.Demo, attrs.Sample, attrs.Proto} {
			if v == "" {
				t.Fatalf("empty attribute for %q", name)
			}
		}
		if !attrs.ExplicitLanguages && len(attrs.Regions) == 0 && len(attrs.Languages) != 0 {
			t.Fatalf("languages without regions for %q", name)
		}
	})
}

// TestPropertyRevisionRoundTrip checks that the numeric revision sub-tag is
// captured verbatim.
func TestPropertyRevisionRoundTrip(t *testing.T) {
	t.Parallel()
	table := regions.NewTable()

	rapid.Check(t, func(t *rapid.T) {
		rev := rapid.StringMatching(`[0-9]{1,3}(\.[0-9]{1,2})?`).Draw(t, "rev")
		attrs := Parse(table, "Game (USA) (Rev "+rev+")")
		if attrs.Revision != rev {
			t.Fatalf("got %q want %q", attrs.Revision, rev)
		}
	})
}
