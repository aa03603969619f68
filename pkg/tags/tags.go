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

// Package tags turns a catalog release name such as
// "Game (USA, Europe) (En,Fr) (Rev 1) (Beta 2)" into the structured
// attributes used for ranking and filtering.
package tags

import (
	"regexp"
	"strings"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/regions"
)

const (
	// NotPrerelease marks a prerelease family that did not match the name.
	NotPrerelease = "Z"
	// DefaultSubTag is used when a tag is present without a number, e.g.
	// "(Beta)" or "(Rev)".
	DefaultSubTag = "0"
)

// Package-level compiled regexes for name parsing.
var (
	reSections  = regexp.MustCompile(`\(([^()]+)\)`)
	reLanguages = regexp.MustCompile(`(?i)\(([a-z]{2}(?:[,+][a-z]{2})*)\)`)
	reRevision  = regexp.MustCompile(`(?i)\(Rev\s*([a-z0-9.]+)\)`)
	reVersion   = regexp.MustCompile(`(?i)\(v\s*([a-z0-9.]+)\)`)

	reBeta = regexp.MustCompile(`(?i)\(Beta(?:\s*([a-z0-9.]+))?\)`)
	reDemo = regexp.MustCompile(
		`(?i)\(Demo(?:\s*([a-z0-9.]+))?\)|` +
			`\((?:Multiplayer|Singleplayer|Labeled) Demo\)|` +
			`\(Trial(?:\s*([a-z0-9.]+))?\)|` +
			`\(Tech Demo(?:,)?.*?\)|` +
			`\((?:GameCube\s*)?Preview\)`,
	)
	reSample = regexp.MustCompile(`(?i)\(Sample(?:\s*([a-z0-9.]+))?\)`)
	reProto  = regexp.MustCompile(
		`(?i)\(Proto(?:\s*([a-z0-9.]+))?\)|` +
			`\(Possible Proto\)|` +
			`\(Prototype(?:\s*(.*?))?\)`,
	)

	reBad             = regexp.MustCompile(`(?i)\[b\]`)
	reBIOS            = regexp.MustCompile(`(?i)\[BIOS\]`)
	reAftermarket     = regexp.MustCompile(`(?i)\(Aftermarket\)`)
	reDebug           = regexp.MustCompile(`(?i)\(Debug(?:\s*Version)?\)`)
	reEnhancementChip = regexp.MustCompile(`(?i)\(Enhancement\s*Chip\)`)
	reHomebrew        = regexp.MustCompile(`(?i)\(Homebrew\)`)
	reKiosk           = regexp.MustCompile(`(?i)\(Kiosk(?:,)?.*?\)|\(Wi-Fi Kiosk(?:,)?.*?\)`)
	rePirate          = regexp.MustCompile(`(?i)\(Pirate\)`)
	reProgram         = regexp.MustCompile(
		`(?i)\((?:Test\s*)?Program\)|\(SDK Build\)|\(DS (?:Expansion|Cheat) Cartridge\)`,
	)
	rePromo = regexp.MustCompile(`(?i)\(Promo\)`)
	reUnl   = regexp.MustCompile(`(?i)\(Unl\)`)
)

// Flags records the presence of tags that only matter to exclusion filters.
type Flags struct {
	BadDump         bool
	BIOS            bool
	Program         bool
	EnhancementChip bool
	Pirate          bool
	Unlicensed      bool
	Aftermarket     bool
	Homebrew        bool
	Kiosk           bool
	Promo           bool
	Debug           bool
	Beta            bool
	Demo            bool
	Sample          bool
	Proto           bool
}

// Attributes is the structured form of a release name.
type Attributes struct {
	Revision  string
	Version   string
	Beta      string
	Demo      string
	Sample    string
	Proto     string
	Regions   []*regions.Region
	Languages []string
	Flags     Flags
	// ExplicitLanguages is true when Languages came from a language tag
	// rather than from the default languages of the detected regions.
	ExplicitLanguages bool
	Prerelease        bool
}

// Parse extracts the attributes of name. Regions are resolved against table.
// Missing tags always produce defaulted values; parsing never fails.
func Parse(table *regions.Table, name string) Attributes {
	attrs := Attributes{
		Revision: firstCapture(reRevision, name, DefaultSubTag),
		Version:  firstCapture(reVersion, name, DefaultSubTag),
		Regions:  ParseRegions(table, name),
		Flags:    ParseFlags(name),
	}

	attrs.Beta = prerelease(reBeta, name)
	attrs.Demo = prerelease(reDemo, name)
	attrs.Sample = prerelease(reSample, name)
	attrs.Proto = prerelease(reProto, name)
	attrs.Prerelease = attrs.Flags.Beta || attrs.Flags.Demo || attrs.Flags.Sample || attrs.Flags.Proto

	attrs.Languages = ParseLanguages(name)
	if len(attrs.Languages) > 0 {
		attrs.ExplicitLanguages = true
	} else {
		attrs.Languages = regions.Languages(attrs.Regions)
	}

	return attrs
}

// ParseRegions returns every region named in the parenthesized sections of
// name. Sections may list several regions separated by commas. Duplicates
// are kept.
func ParseRegions(table *regions.Table, name string) []*regions.Region {
	var found []*regions.Region
	for _, section := range reSections.FindAllStringSubmatch(name, -1) {
		for _, token := range strings.Split(section[1], ",") {
			found = append(found, table.Match(strings.TrimSpace(token))...)
		}
	}
	return found
}

// ParseLanguages returns the lowercased codes of the first language tag in
// name, e.g. "(En,Fr+De)" gives [en fr de]. It returns nil when there is none.
func ParseLanguages(name string) []string {
	m := reLanguages.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	var langs []string
	for _, entry := range strings.Split(m[1], ",") {
		for _, lang := range strings.Split(entry, "+") {
			langs = append(langs, strings.ToLower(lang))
		}
	}
	return langs
}

// ParseFlags reports which filterable tags appear in name.
func ParseFlags(name string) Flags {
	return Flags{
		BadDump:         reBad.MatchString(name),
		BIOS:            reBIOS.MatchString(name),
		Program:         reProgram.MatchString(name),
		EnhancementChip: reEnhancementChip.MatchString(name),
		Pirate:          rePirate.MatchString(name),
		Unlicensed:      reUnl.MatchString(name),
		Aftermarket:     reAftermarket.MatchString(name),
		Homebrew:        reHomebrew.MatchString(name),
		Kiosk:           reKiosk.MatchString(name),
		Promo:           rePromo.MatchString(name),
		Debug:           reDebug.MatchString(name),
		Beta:            reBeta.MatchString(name),
		Demo:            reDemo.MatchString(name),
		Sample:          reSample.MatchString(name),
		Proto:           reProto.MatchString(name),
	}
}

func prerelease(re *regexp.Regexp, name string) string {
	if !re.MatchString(name) {
		return NotPrerelease
	}
	return firstCapture(re, name, DefaultSubTag)
}

// firstCapture returns the first non-empty capture group of the leftmost
// match, or def.
func firstCapture(re *regexp.Regexp, name, def string) string {
	m := re.FindStringSubmatch(name)
	for _, g := range m[min(1, len(m)):] {
		if g != "" {
			return g
		}
	}
	return def
}
