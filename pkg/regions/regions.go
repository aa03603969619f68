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

// Package regions holds the region code table used to recognise release
// regions in catalog names and to derive the default spoken languages of a
// release when its name carries no explicit language tag.
package regions

import (
	"regexp"
	"slices"
	"strings"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// Region correlates a region code with the word used for it in release
// names and the languages spoken there.
type Region struct {
	// Pattern is nil for codes registered at runtime. Those regions can be
	// attached to a release through catalog <release> entries but are never
	// detected from a name.
	Pattern   *regexp.Regexp
	Code      string
	Languages []string
}

type seed struct {
	code      string
	word      string
	languages []string
}

var builtin = []seed{
	{"ARG", "Argentina", []string{"es"}},
	{"ASI", "Asia", []string{"zh"}},
	{"AUS", "Australia", []string{"en"}},
	{"BRA", "Brazil", []string{"pt"}},
	{"CAN", "Canada", []string{"en", "fr"}},
	{"CHN", "China", []string{"zh"}},
	{"COL", "Colombia", []string{"es"}},
	{"DAN", "Denmark", []string{"da"}},
	{"EUR", "Europe", []string{"en"}},
	{"FIN", "Finland", []string{"fi"}},
	{"FRA", "France", []string{"fr"}},
	{"GER", "Germany", []string{"de"}},
	{"GRE", "Greece", []string{"el"}},
	{"HK", "Hong Kong", []string{"zh"}},
	{"ITA", "Italy", []string{"it"}},
	{"JPN", "Japan", []string{"ja"}},
	{"KOR", "Korea", []string{"ko"}},
	{"LAM", "Latin America", []string{"en", "es"}},
	{"MEX", "Mexico", []string{"es"}},
	{"HOL", "Netherlands", []string{"nl"}},
	{"NZ", "New Zealand", []string{"en"}},
	{"NOR", "Norway", []string{"no"}},
	{"PER", "Peru", []string{"es"}},
	{"POR", "Portugal", []string{"pt"}},
	{"RUS", "Russia", []string{"ru"}},
	{"SCA", "Scandinavia", []string{"en"}},
	{"SPA", "Spain", []string{"es"}},
	{"SWE", "Sweden", []string{"sv"}},
	{"TAI", "Taiwan", []string{"zh"}},
	{"UK", "United Kingdom", []string{"en"}},
	{"USA", "USA", []string{"en"}},
	{"UNK", "Unknown", []string{"en"}},
	{"WOR", "World", []string{"en"}},
}

// Table is the lookup service for regions. It starts with the built-in
// codes and grows when a catalog references a code it has never seen.
// It is safe for concurrent use.
type Table struct {
	byCode  map[string]*Region
	regions []*Region
	mu      syncutil.RWMutex
}

// NewTable returns a table seeded with the built-in regions.
func NewTable() *Table {
	t := &Table{
		regions: make([]*Region, 0, len(builtin)),
		byCode:  make(map[string]*Region, len(builtin)),
	}
	for _, s := range builtin {
		r := &Region{
			Code:      s.code,
			Pattern:   regexp.MustCompile(`^(?i:` + regexp.QuoteMeta(s.word) + `)$`),
			Languages: s.languages,
		}
		t.regions = append(t.regions, r)
		t.byCode[r.Code] = r
	}
	return t
}

// Match returns every region whose detection word equals token, ignoring
// case. The token must be the whole word: "Germany-ish" matches nothing.
func (t *Table) Match(token string) []*Region {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var matched []*Region
	for _, r := range t.regions {
		if r.Pattern != nil && r.Pattern.MatchString(token) {
			matched = append(matched, r)
		}
	}
	return matched
}

// Lookup returns the region registered under code.
func (t *Table) Lookup(code string) (*Region, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.byCode[strings.ToUpper(code)]
	return r, ok
}

// ResolveOrRegister returns the region for code, registering an empty entry
// the first time an unknown code is seen.
func (t *Table) ResolveOrRegister(code string) *Region {
	code = strings.ToUpper(code)
	if r, ok := t.Lookup(code); ok {
		return r
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// another caller may have registered it between the two locks
	if r, ok := t.byCode[code]; ok {
		return r
	}

	log.Warn().Str("region", code).Msg("unrecognized region")
	r := &Region{Code: code, Languages: []string{}}
	t.regions = append(t.regions, r)
	t.byCode[code] = r
	return r
}

// Codes returns all known region codes in table order.
func (t *Table) Codes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	codes := make([]string, len(t.regions))
	for i, r := range t.regions {
		codes[i] = r.Code
	}
	return codes
}

// Languages returns the union of the default languages of rs, in the order
// they are first seen.
func Languages(rs []*Region) []string {
	langs := make([]string, 0, len(rs))
	for _, r := range rs {
		for _, l := range r.Languages {
			if !slices.Contains(langs, l) {
				langs = append(langs, l)
			}
		}
	}
	return langs
}

// Contains reports whether a region with code is present in rs.
func Contains(rs []*Region, code string) bool {
	return slices.ContainsFunc(rs, func(r *Region) bool {
		return r.Code == code
	})
}
