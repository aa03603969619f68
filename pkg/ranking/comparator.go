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
	"cmp"
	"slices"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/games"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/patterns"
	"github.com/rs/zerolog/log"
)

// Criterion is one step of the variant ordering.
type Criterion int

const (
	BadDump Criterion = iota
	Prerelease
	Avoided
	Region
	Language
	PreferParents
	InputOrder
	Preferred
	Revision
	Version
	Sample
	Demo
	Beta
	Proto
	LanguageCount
	Parent
)

var criterionNames = [...]string{
	BadDump:       "bad-dump",
	Prerelease:    "prerelease",
	Avoided:       "avoided",
	Region:        "region",
	Language:      "language",
	PreferParents: "prefer-parents",
	InputOrder:    "input-order",
	Preferred:     "preferred",
	Revision:      "revision",
	Version:       "version",
	Sample:        "sample",
	Demo:          "demo",
	Beta:          "beta",
	Proto:         "proto",
	LanguageCount: "language-count",
	Parent:        "parent",
}

func (c Criterion) String() string {
	if c < 0 || int(c) >= len(criterionNames) {
		return "unknown"
	}
	return criterionNames[c]
}

// Options configure the ordering of variants within a bucket.
type Options struct {
	Prefer              patterns.List
	Avoid               patterns.List
	PrioritizeLanguages bool
	PreferPrereleases   bool
	PreferParents       bool
	InputOrder          bool
	// Only used for Describe; the direction is baked into the scores.
	EarlyRevisions bool
	EarlyVersions  bool
}

type step struct {
	compare   func(a, b *games.Variant) int
	label     string
	criterion Criterion
	ignored   bool
}

// Comparator is a fixed list of comparison steps. The first step that
// tells two variants apart decides their order.
type Comparator struct {
	steps  []step
	active []step
}

// NewComparator builds the step list for opts.
func NewComparator(opts Options) *Comparator {
	regionStep := step{
		criterion: Region,
		label:     "Best region match",
		compare:   func(a, b *games.Variant) int { return cmp.Compare(a.Score.Region, b.Score.Region) },
	}
	languageStep := step{
		criterion: Language,
		label:     "Best language match",
		compare:   func(a, b *games.Variant) int { return cmp.Compare(a.Score.Language, b.Score.Language) },
	}
	first, second := regionStep, languageStep
	if opts.PrioritizeLanguages {
		first, second = languageStep, regionStep
	}

	released := "Released ROMs"
	if opts.PreferPrereleases {
		released = "Prerelease ROMs"
	}

	steps := []step{
		{
			criterion: BadDump,
			label:     "Good dumps",
			compare:   func(a, b *games.Variant) int { return compareBool(a.BadDump, b.BadDump) },
		},
		{
			criterion: Prerelease,
			label:     released,
			compare: func(a, b *games.Variant) int {
				return compareBool(opts.PreferPrereleases != a.Prerelease, opts.PreferPrereleases != b.Prerelease)
			},
		},
		{
			criterion: Avoided,
			label:     "Non-avoided items",
			ignored:   len(opts.Avoid) == 0,
			compare: func(a, b *games.Variant) int {
				return compareBool(opts.Avoid.Match(a.Name), opts.Avoid.Match(b.Name))
			},
		},
		first,
		second,
		{
			criterion: PreferParents,
			label:     "Parent ROMs",
			ignored:   !opts.PreferParents,
			compare:   func(a, b *games.Variant) int { return compareBool(!a.Parent, !b.Parent) },
		},
		{
			criterion: InputOrder,
			label:     "Input order",
			ignored:   !opts.InputOrder,
			compare:   func(a, b *games.Variant) int { return cmp.Compare(a.SourceOrder, b.SourceOrder) },
		},
		{
			criterion: Preferred,
			label:     "Preferred items",
			ignored:   len(opts.Prefer) == 0,
			compare: func(a, b *games.Variant) int {
				return compareBool(!opts.Prefer.Match(a.Name), !opts.Prefer.Match(b.Name))
			},
		},
		{
			criterion: Revision,
			label:     order(opts.EarlyRevisions) + " revision",
			compare:   func(a, b *games.Variant) int { return slices.Compare(a.Score.Revision, b.Score.Revision) },
		},
		{
			criterion: Version,
			label:     order(opts.EarlyVersions) + " version",
			compare:   func(a, b *games.Variant) int { return slices.Compare(a.Score.Version, b.Score.Version) },
		},
		{
			criterion: Sample,
			label:     "Latest sample",
			compare:   func(a, b *games.Variant) int { return slices.Compare(a.Score.Sample, b.Score.Sample) },
		},
		{
			criterion: Demo,
			label:     "Latest demo",
			compare:   func(a, b *games.Variant) int { return slices.Compare(a.Score.Demo, b.Score.Demo) },
		},
		{
			criterion: Beta,
			label:     "Latest beta",
			compare:   func(a, b *games.Variant) int { return slices.Compare(a.Score.Beta, b.Score.Beta) },
		},
		{
			criterion: Proto,
			label:     "Latest prototype",
			compare:   func(a, b *games.Variant) int { return slices.Compare(a.Score.Proto, b.Score.Proto) },
		},
		{
			criterion: LanguageCount,
			label:     "Most languages supported",
			compare:   func(a, b *games.Variant) int { return cmp.Compare(len(b.Languages), len(a.Languages)) },
		},
		{
			criterion: Parent,
			label:     "Parent ROMs",
			compare:   func(a, b *games.Variant) int { return compareBool(!a.Parent, !b.Parent) },
		},
	}

	c := &Comparator{steps: steps}
	for _, s := range steps {
		if !s.ignored {
			c.active = append(c.active, s)
		}
	}
	return c
}

// Compare orders a before b when it returns a negative number.
func (c *Comparator) Compare(a, b *games.Variant) int {
	for _, s := range c.active {
		if r := s.compare(a, b); r != 0 {
			return r
		}
	}
	return 0
}

// Criteria returns the steps that take part in comparisons.
func (c *Comparator) Criteria() []Criterion {
	out := make([]Criterion, len(c.active))
	for i, s := range c.active {
		out[i] = s.criterion
	}
	return out
}

// Describe returns a human readable line per step, including ignored ones.
func (c *Comparator) Describe() []string {
	out := make([]string, len(c.steps))
	for i, s := range c.steps {
		out[i] = s.label
		if s.ignored {
			out[i] += " (ignored)"
		}
	}
	return out
}

// Sort orders vs best first. Equal variants keep their relative order.
func (c *Comparator) Sort(vs []*games.Variant) {
	slices.SortStableFunc(vs, c.Compare)
}

// Rank pads, scores and sorts every bucket in place.
func Rank(buckets games.Buckets, p Params, c *Comparator) {
	for _, key := range buckets.Keys() {
		vs := buckets[key]
		PadVariants(vs)
		Score(vs, p)
		c.Sort(vs)

		if e := log.Debug(); e.Enabled() {
			names := make([]string, len(vs))
			for i, v := range vs {
				names[i] = v.Name + " [" + v.Region + "]"
			}
			e.Str("game", key).Strs("candidates", names).Msg("candidate order")
		}
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func order(early bool) string {
	if early {
		return "Earliest"
	}
	return "Latest"
}
