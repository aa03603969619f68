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
	"strings"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/games"
)

// Pad left-pads every dot separated segment with zeros to the longest
// segment found at the same position across values, so "1.2" and "1.10"
// become "1.02" and "1.10" and compare correctly as strings.
func Pad(values []string) []string {
	split := make([][]string, len(values))
	var widths []int
	for i, v := range values {
		split[i] = strings.Split(v, ".")
		for j, seg := range split[i] {
			if j == len(widths) {
				widths = append(widths, 0)
			}
			widths[j] = max(widths[j], len(seg))
		}
	}

	padded := make([]string, len(values))
	for i, segs := range split {
		for j, seg := range segs {
			if n := widths[j] - len(seg); n > 0 {
				segs[j] = strings.Repeat("0", n) + seg
			}
		}
		padded[i] = strings.Join(segs, ".")
	}
	return padded
}

type field struct {
	get func(*games.Variant) string
	set func(*games.Variant, string)
}

// padded in this order
var paddedFields = []field{
	{func(v *games.Variant) string { return v.Version }, func(v *games.Variant, s string) { v.Version = s }},
	{func(v *games.Variant) string { return v.Revision }, func(v *games.Variant, s string) { v.Revision = s }},
	{func(v *games.Variant) string { return v.Sample }, func(v *games.Variant, s string) { v.Sample = s }},
	{func(v *games.Variant) string { return v.Demo }, func(v *games.Variant, s string) { v.Demo = s }},
	{func(v *games.Variant) string { return v.Beta }, func(v *games.Variant, s string) { v.Beta = s }},
	{func(v *games.Variant) string { return v.Proto }, func(v *games.Variant, s string) { v.Proto = s }},
}

// PadVariants pads the version-like fields of a bucket in place.
func PadVariants(vs []*games.Variant) {
	if len(vs) == 0 {
		return
	}
	values := make([]string, len(vs))
	for _, f := range paddedFields {
		for i, v := range vs {
			values[i] = f.get(v)
		}
		for i, p := range Pad(values) {
			f.set(vs[i], p)
		}
	}
}
