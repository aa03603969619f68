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

package cli

import (
	"fmt"
	"io"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/config"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/helpers"
	"github.com/spf13/pflag"
)

// Flags are the options that only exist on the command line.
type Flags struct {
	Config  string
	LogFile string
	Help    bool
	Version bool
	Verbose bool
	Debug   bool
	NoLog   bool
}

// newFlagSet binds every option to vals and flags. Values already in vals
// become the defaults, so parsing on top of a loaded profile lets the
// command line win.
func newFlagSet(vals *config.Values, flags *Flags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(config.AppName, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)

	fs.BoolVarP(&flags.Help, "help", "h", false, "print this help")
	fs.BoolVarP(&flags.Version, "version", "v", false, "print the version")
	fs.StringVar(&flags.Config, "config", "", "TOML profile to load (default "+config.DefaultPath()+")")

	fs.StringVarP(&vals.Dat, "dat", "d", vals.Dat, "DAT file to parse, or url:<address>")
	fs.StringSliceVarP(&vals.Regions, "regions", "r", vals.Regions, "region codes in order of preference, e.g. USA,EUR,JPN")
	fs.StringSliceVarP(&vals.Languages, "languages", "l", vals.Languages, "language codes in order of preference, e.g. en,es,ru")
	fs.IntVarP(&vals.LanguageWeight, "language-weight", "w", vals.LanguageWeight, "weight of the first selected language")
	fs.BoolVar(&vals.Selection.PrioritizeLanguages, "prioritize-languages", vals.Selection.PrioritizeLanguages,
		"prefer language matches over region matches")
	fs.BoolVar(&vals.Selection.EarlyRevisions, "early-revisions", vals.Selection.EarlyRevisions,
		"prefer earlier revisions")
	fs.BoolVar(&vals.Selection.EarlyVersions, "early-versions", vals.Selection.EarlyVersions,
		"prefer earlier versions")
	fs.BoolVar(&vals.Selection.InputOrder, "input-order", vals.Selection.InputOrder,
		"prefer the order the entries appear in the DAT")
	fs.BoolVar(&vals.Selection.PreferParents, "prefer-parents", vals.Selection.PreferParents,
		"prefer parent entries over clones")
	fs.BoolVar(&vals.Selection.PreferPrereleases, "prefer-prereleases", vals.Selection.PreferPrereleases,
		"prefer prereleases over released entries")
	fs.BoolVar(&vals.Selection.AllRegions, "all-regions", vals.Selection.AllRegions,
		"fall back to unselected regions")
	fs.BoolVar(&vals.Selection.AllRegionsWithLang, "all-regions-with-lang", vals.Selection.AllRegionsWithLang,
		"fall back to unselected regions in a selected language")
	fs.BoolVar(&vals.Selection.OnlySelectedLang, "only-selected-lang", vals.Selection.OnlySelectedLang,
		"drop entries that match no selected language")

	f := &vals.Filters
	fs.BoolVar(&f.All, "no-all", f.All, "apply every --no-* filter except the unlicensed ones")
	fs.BoolVar(&f.BIOS, "no-bios", f.BIOS, "filter out BIOSes")
	fs.BoolVar(&f.Program, "no-program", f.Program, "filter out programs and test programs")
	fs.BoolVar(&f.EnhancementChip, "no-enhancement-chip", f.EnhancementChip, "filter out enhancement chips")
	fs.BoolVar(&f.Proto, "no-proto", f.Proto, "filter out prototypes")
	fs.BoolVar(&f.Beta, "no-beta", f.Beta, "filter out betas")
	fs.BoolVar(&f.Demo, "no-demo", f.Demo, "filter out demos")
	fs.BoolVar(&f.Sample, "no-sample", f.Sample, "filter out samples")
	fs.BoolVar(&f.Pirate, "no-pirate", f.Pirate, "filter out pirate dumps")
	fs.BoolVar(&f.Bad, "no-bad", f.Bad, "filter out bad dumps")
	fs.BoolVar(&f.Aftermarket, "no-aftermarket", f.Aftermarket, "filter out aftermarket releases")
	fs.BoolVar(&f.Homebrew, "no-homebrew", f.Homebrew, "filter out homebrew")
	fs.BoolVar(&f.Kiosk, "no-kiosk", f.Kiosk, "filter out kiosk releases")
	fs.BoolVar(&f.Promo, "no-promo", f.Promo, "filter out promotional releases")
	fs.BoolVar(&f.Debug, "no-debug", f.Debug, "filter out debug builds")
	fs.BoolVar(&f.Unlicensed, "no-unlicensed", f.Unlicensed, "filter out unlicensed releases except aftermarket and homebrew")
	fs.BoolVar(&f.UnlicensedStrict, "no-unlicensed-strict", f.UnlicensedStrict, "filter out every unlicensed release")

	l := &vals.Lists
	fs.StringVar(&l.Prefer, "prefer", l.Prefer, "names to prefer; inline, file:<path> or url:<address>")
	fs.StringVar(&l.Avoid, "avoid", l.Avoid, "names to rank last")
	fs.StringVar(&l.Exclude, "exclude", l.Exclude, "names to drop")
	fs.StringVar(&l.ExcludeAfter, "exclude-after", l.ExcludeAfter, "skip a game entirely if its best candidate matches")
	fs.StringVar(&l.Separator, "separator", l.Separator, "separator of inline lists")
	fs.BoolVar(&l.IgnoreCase, "ignore-case", l.IgnoreCase, "match list entries case insensitively")
	fs.BoolVar(&l.Regex, "regex", l.Regex, "treat list entries as regular expressions")

	s := &vals.Scan
	fs.StringVarP(&s.InputDir, "input-dir", "i", s.InputDir, "directory holding the ROM collection")
	fs.StringVarP(&s.Extension, "extension", "e", s.Extension, "file extension used when matching by name")
	fs.BoolVar(&s.NoScan, "no-scan", s.NoScan, "match files by name instead of by content")
	fs.StringVar(&s.HeaderFile, "header-file", s.HeaderFile, "header detector XML used before hashing")
	fs.IntVar(&s.Threads, "threads", s.Threads, "number of hashing workers")
	fs.IntVar(&s.ChunkSize, "chunk-size", s.ChunkSize, "read buffer size in bytes")
	fs.Int64Var(&s.MaxFileSize, "max-file-size", s.MaxFileSize, "largest file, in bytes, that header rules are applied to")
	fs.BoolVar(&s.Cache, "cache", s.Cache, "reuse digests of unchanged files between runs")

	o := &vals.Output
	fs.StringVarP(&o.Dir, "output-dir", "o", o.Dir, "directory to place the selected files in")
	fs.BoolVar(&o.Move, "move", o.Move, "move files instead of copying them")
	fs.BoolVar(&o.Symlink, "symlink", o.Symlink, "symlink files instead of copying them")
	fs.BoolVar(&o.Relative, "relative", o.Relative, "make symlinks relative")
	fs.BoolVar(&o.GroupByFirstLetter, "group-by-first-letter", o.GroupByFirstLetter,
		"place files in one subdirectory per first letter")
	fs.BoolVar(&o.Verify, "verify", o.Verify, "re-hash transferred files and compare them with the source")
	fs.StringVar(&o.ReportCSV, "report-csv", o.ReportCSV, "also write the selected files as CSV")

	fs.BoolVar(&vals.Force, "force", vals.Force, "skip every confirmation prompt")
	fs.BoolVarP(&flags.Verbose, "verbose", "V", false, "log more information")
	fs.BoolVarP(&flags.Debug, "debug", "D", false, "log everything, including the scan result")
	fs.BoolVar(&flags.NoLog, "no-log", false, "do not write a log file")
	fs.StringVar(&flags.LogFile, "log-file", helpers.LogFile, "log file location")

	return fs
}

// parseArgs parses args on top of base.
func parseArgs(args []string, base config.Values) (config.Values, Flags, *pflag.FlagSet, error) {
	vals := base
	vals.Regions = append([]string(nil), base.Regions...)
	vals.Languages = append([]string(nil), base.Languages...)
	var flags Flags

	fs := newFlagSet(&vals, &flags)
	if err := fs.Parse(args); err != nil {
		return vals, flags, fs, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return vals, flags, fs, fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}
	return vals, flags, fs, nil
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	_, _ = fmt.Fprintf(w, "Usage: %s -d <dat> -r <regions> [options]\n\nOptions:\n%s", config.AppName, fs.FlagUsages())
}
