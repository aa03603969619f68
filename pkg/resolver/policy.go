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

package resolver

import (
	"slices"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/games"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/ranking"
)

// Policy controls which regions a bucket's candidates may come from.
type Policy int

const (
	// SelectedRegions keeps only variants of a requested region.
	SelectedRegions Policy = iota
	// AllRegions keeps everything; the ranking still prefers requested
	// regions.
	AllRegions
	// AllRegionsWithLanguage also keeps variants from other regions when
	// they are in a requested language.
	AllRegionsWithLanguage
)

func (p Policy) String() string {
	switch p {
	case SelectedRegions:
		return "selected regions"
	case AllRegions:
		return "all regions"
	case AllRegionsWithLanguage:
		return "all regions with language"
	default:
		return "unknown"
	}
}

type Inclusion struct {
	// Languages are the requested language codes.
	Languages []string
	Policy    Policy
	// OnlySelectedLanguage drops variants that match no requested
	// language. It has no effect with AllRegions.
	OnlySelectedLanguage bool
}

// Include reports whether v may be picked. Scores must already be set.
func (in Inclusion) Include(v *games.Variant) bool {
	if in.Policy == AllRegions {
		return true
	}
	matchesLanguage := v.Score.Language < 0

	if in.Policy == AllRegionsWithLanguage {
		if !v.ExplicitLanguages {
			return matchesLanguage
		}
		if !slices.ContainsFunc(v.Languages, func(l string) bool {
			return slices.Contains(in.Languages, l)
		}) {
			return false
		}
	}

	if in.OnlySelectedLanguage && !matchesLanguage {
		return false
	}
	if in.Policy == AllRegionsWithLanguage && matchesLanguage {
		return true
	}
	return v.Score.Region != ranking.Unselected
}

// Filter returns the included variants in their ranked order.
func (in Inclusion) Filter(vs []*games.Variant) []*games.Variant {
	out := make([]*games.Variant, 0, len(vs))
	for _, v := range vs {
		if in.Include(v) {
			out = append(out, v)
		}
	}
	return out
}
