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
	"slices"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/games"
)

// Unselected is the region rank of a variant whose region was not
// requested.
const Unselected = 10000

// DefaultLanguageWeight scales the language rank.
const DefaultLanguageWeight = 3

type Params struct {
	// Regions in order of preference.
	Regions []string
	// Languages in order of preference, most preferred first.
	Languages      []string
	LanguageWeight int
	// EarlyRevisions and EarlyVersions prefer the oldest instead of the
	// newest.
	EarlyRevisions bool
	EarlyVersions  bool
}

// Score computes the sort keys of every variant. Variants must already be
// padded.
func Score(vs []*games.Variant, p Params) {
	weight := p.LanguageWeight
	if weight <= 0 {
		weight = DefaultLanguageWeight
	}

	for _, v := range vs {
		v.Score = games.Score{
			Region:   regionRank(p.Regions, v.Region),
			Language: languageRank(p.Languages, v.Languages, weight),
			Revision: codes(v.Revision, direction(p.EarlyRevisions)),
			Version:  codes(v.Version, direction(p.EarlyVersions)),
			Sample:   codes(v.Sample, -1),
			Demo:     codes(v.Demo, -1),
			Beta:     codes(v.Beta, -1),
			Proto:    codes(v.Proto, -1),
		}
	}
}

func regionRank(selected []string, region string) int {
	if i := slices.Index(selected, region); i >= 0 {
		return i
	}
	return Unselected
}

// languageRank sums a negative term per language the variant supports. The
// most preferred language gives the largest term, unselected languages
// give nothing.
func languageRank(selected, langs []string, weight int) int {
	rank := 0
	for _, l := range langs {
		if i := slices.Index(selected, l); i >= 0 {
			rank -= (len(selected) - i) * weight
		}
	}
	return rank
}

func direction(ascending bool) int {
	if ascending {
		return 1
	}
	return -1
}

// codes maps every rune of s to its code point times sign.
func codes(s string, sign int) []int {
	out := make([]int, 0, len(s))
	for _, r := range s {
		out = append(out, int(r)*sign)
	}
	return out
}
