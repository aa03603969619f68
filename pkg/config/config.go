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

// Package config holds the settings of a run. Values come from an optional
// TOML profile and are then overridden by command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/hasher"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/indexer"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/patterns"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/ranking"
	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	SchemaVersion = 1
	AppName       = "zaparoo-1g1r"
	CfgFile       = "config.toml"
	CfgEnv        = "ZAPAROO_1G1R_CFG"
)

// AppVersion is set at build time.
var AppVersion = "DEVELOPMENT"

type Values struct {
	Dat            string    `toml:"dat" validate:"required"`
	Regions        []string  `toml:"regions" validate:"min=1,dive,required"`
	Languages      []string  `toml:"languages,omitempty" validate:"dive,required"`
	Filters        Filters   `toml:"filters"`
	Lists          Lists     `toml:"lists"`
	Scan           Scan      `toml:"scan"`
	Output         Output    `toml:"output"`
	Selection      Selection `toml:"selection"`
	LanguageWeight int       `toml:"language_weight" validate:"gt=0"`
	ConfigSchema   int       `toml:"config_schema"`
	Force          bool      `toml:"force"`
}

// Filters drop categories of releases before ranking.
type Filters struct {
	All              bool `toml:"all"`
	BIOS             bool `toml:"bios"`
	Program          bool `toml:"program"`
	EnhancementChip  bool `toml:"enhancement_chip"`
	Proto            bool `toml:"proto"`
	Beta             bool `toml:"beta"`
	Demo             bool `toml:"demo"`
	Sample           bool `toml:"sample"`
	Pirate           bool `toml:"pirate"`
	Bad              bool `toml:"bad"`
	Aftermarket      bool `toml:"aftermarket"`
	Homebrew         bool `toml:"homebrew"`
	Kiosk            bool `toml:"kiosk"`
	Promo            bool `toml:"promo"`
	Debug            bool `toml:"debug"`
	Unlicensed       bool `toml:"unlicensed"`
	UnlicensedStrict bool `toml:"unlicensed_strict"`
}

type Selection struct {
	AllRegions          bool `toml:"all_regions"`
	AllRegionsWithLang  bool `toml:"all_regions_with_lang"`
	OnlySelectedLang    bool `toml:"only_selected_lang"`
	PrioritizeLanguages bool `toml:"prioritize_languages"`
	EarlyRevisions      bool `toml:"early_revisions"`
	EarlyVersions       bool `toml:"early_versions"`
	InputOrder          bool `toml:"input_order"`
	PreferParents       bool `toml:"prefer_parents"`
	PreferPrereleases   bool `toml:"prefer_prereleases"`
}

// Lists are pattern list sources: inline entries, "file:<path>" or
// "url:<address>".
type Lists struct {
	Prefer       string `toml:"prefer,omitempty"`
	Avoid        string `toml:"avoid,omitempty"`
	Exclude      string `toml:"exclude,omitempty"`
	ExcludeAfter string `toml:"exclude_after,omitempty"`
	Separator    string `toml:"separator" validate:"required"`
	IgnoreCase   bool   `toml:"ignore_case"`
	Regex        bool   `toml:"regex"`
}

type Scan struct {
	InputDir    string `toml:"input_dir,omitempty"`
	Extension   string `toml:"extension,omitempty"`
	HeaderFile  string `toml:"header_file,omitempty"`
	Threads     int    `toml:"threads" validate:"gt=0"`
	ChunkSize   int    `toml:"chunk_size" validate:"gt=0"`
	MaxFileSize int64  `toml:"max_file_size" validate:"gt=0"`
	NoScan      bool   `toml:"no_scan"`
	// Cache keeps digests between runs in the user cache directory.
	Cache bool `toml:"cache"`
}

type Output struct {
	Dir       string `toml:"dir,omitempty"`
	ReportCSV string `toml:"report_csv,omitempty"`
	Move      bool   `toml:"move"`
	Symlink   bool   `toml:"symlink"`
	Relative  bool   `toml:"relative"`
	// GroupByFirstLetter places releases in a/ through z/ and #/.
	GroupByFirstLetter bool `toml:"group_by_first_letter"`
	Verify             bool `toml:"verify"`
}

var BaseDefaults = Values{
	ConfigSchema:   SchemaVersion,
	LanguageWeight: ranking.DefaultLanguageWeight,
	Lists: Lists{
		Separator: patterns.DefaultSeparator,
	},
	Scan: Scan{
		Threads:     indexer.DefaultWorkers,
		ChunkSize:   hasher.DefaultChunkSize,
		MaxFileSize: hasher.DefaultMaxRuleSize,
		Cache:       true,
	},
}

// DefaultPath is the profile location used when none is given.
func DefaultPath() string {
	if p := os.Getenv(CfgEnv); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, AppName, CfgFile)
}

// CacheDir is where persistent digest caches are kept.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Load returns BaseDefaults overlaid with the profile at path. An empty
// path loads DefaultPath if it exists.
func Load(afs afero.Fs, path string) (Values, error) {
	vals := BaseDefaults

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := afero.ReadFile(afs, helpers.ExpandHome(path))
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("path", path).Msg("no config file found, using defaults")
			return vals, nil
		}
		return vals, fmt.Errorf("failed to read config file: %w", err)
	}

	err = toml.Unmarshal(data, &vals)
	if err != nil {
		return vals, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if vals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			vals.ConfigSchema,
			SchemaVersion,
		)
		return vals, errors.New("schema version mismatch")
	}

	log.Info().Str("path", path).Msg("loaded config file")
	return vals, nil
}

// Normalize cleans up user input: region codes are upper cased, language
// codes lower cased, paths expanded and the extension stripped of its
// leading dot. Filters.All switches on every filter except the unlicensed
// ones.
func (v *Values) Normalize() {
	v.Regions = cleanList(v.Regions, strings.ToUpper)
	v.Languages = cleanList(v.Languages, strings.ToLower)

	v.Dat = strings.TrimSpace(v.Dat)
	if !strings.HasPrefix(v.Dat, patterns.URLPrefix) {
		v.Dat = helpers.ExpandHome(v.Dat)
	}
	v.Scan.InputDir = helpers.ExpandHome(strings.TrimSpace(v.Scan.InputDir))
	v.Scan.HeaderFile = helpers.ExpandHome(strings.TrimSpace(v.Scan.HeaderFile))
	v.Scan.Extension = strings.TrimPrefix(strings.TrimSpace(v.Scan.Extension), ".")
	v.Output.Dir = helpers.ExpandHome(strings.TrimSpace(v.Output.Dir))
	v.Output.ReportCSV = helpers.ExpandHome(strings.TrimSpace(v.Output.ReportCSV))
	v.Lists.Separator = strings.TrimSpace(v.Lists.Separator)

	if v.Filters.All {
		f := &v.Filters
		f.BIOS, f.Program, f.EnhancementChip = true, true, true
		f.Proto, f.Beta, f.Demo, f.Sample = true, true, true, true
		f.Pirate, f.Bad, f.Aftermarket, f.Homebrew = true, true, true, true
		f.Kiosk, f.Promo, f.Debug = true, true, true
	}
}

// UseHashes reports whether the input directory is indexed by digest.
func (v *Values) UseHashes() bool {
	return v.Scan.InputDir != "" && !v.Scan.NoScan
}

// HasLists reports whether any list that honours IgnoreCase and Regex is
// set.
func (v *Values) HasLists() bool {
	return v.Lists.Prefer != "" || v.Lists.Avoid != "" || v.Lists.Exclude != ""
}

func cleanList(in []string, norm func(string) string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, norm(s))
		}
	}
	return out
}
