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

// Package cli wires the resolver stages together behind the command line
// interface.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/config"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/games"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/hashcache"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/hasher"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/headers"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/indexer"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/patterns"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/progress"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/ranking"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/regions"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/resolver"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/shared/httpclient"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/transfer"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var (
	// ErrUsage is returned for unparsable command lines.
	ErrUsage = errors.New("invalid usage")
	// ErrAborted is returned when a confirmation prompt is declined.
	ErrAborted = errors.New("operation aborted")
)

// App holds the process dependencies of a run.
type App struct {
	Fs     afero.Fs
	Client *httpclient.Client
	Clock  clockwork.Clock
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// CacheDir defaults to config.CacheDir().
	CacheDir string
	// LogPath is the log file of the last run, empty if disabled.
	LogPath string
	// Finished is set once a resolver run completes, not for --help or
	// --version.
	Finished bool
}

// NewApp returns an App using the real filesystem and standard streams.
func NewApp() *App {
	return &App{
		Fs:     afero.NewOsFs(),
		Client: httpclient.NewClient(),
		Clock:  clockwork.NewRealClock(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes one resolver run for args, the command line without the
// program name.
func (a *App) Run(ctx context.Context, args []string) error {
	a.defaults()

	_, flags, fs, err := parseArgs(args, config.BaseDefaults)
	if err != nil || len(args) == 0 {
		if err == nil {
			err = fmt.Errorf("%w: no options or arguments provided", ErrUsage)
		}
		_, _ = fmt.Fprintf(a.Stderr, "[ERROR] %v\n\n", err)
		printUsage(a.Stderr, fs)
		return err
	}
	if flags.Help {
		printUsage(a.Stdout, fs)
		return nil
	}
	if flags.Version {
		_, _ = fmt.Fprintf(a.Stdout, "%s %s\n", config.AppName, config.AppVersion)
		return nil
	}

	profile, err := config.Load(a.Fs, flags.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	vals, flags, _, err := parseArgs(args, profile)
	if err != nil {
		return err
	}

	if err := a.initLogging(flags); err != nil {
		return err
	}

	vals.Normalize()
	if err := vals.Validate(); err != nil {
		_, _ = fmt.Fprintf(a.Stderr, "[ERROR] %v\n", err)
		return err
	}

	if err := a.run(ctx, &vals, flags); err != nil {
		return err
	}
	a.Finished = true
	return nil
}

func (a *App) defaults() {
	if a.Fs == nil {
		a.Fs = afero.NewOsFs()
	}
	if a.Client == nil {
		a.Client = httpclient.NewClient()
	}
	if a.Clock == nil {
		a.Clock = clockwork.NewRealClock()
	}
	if a.Stdin == nil {
		a.Stdin = os.Stdin
	}
	if a.Stdout == nil {
		a.Stdout = io.Discard
	}
	if a.Stderr == nil {
		a.Stderr = io.Discard
	}
	if a.CacheDir == "" {
		a.CacheDir = config.CacheDir()
	}
}

func (a *App) initLogging(flags Flags) error {
	level := zerolog.WarnLevel
	switch {
	case flags.Debug:
		level = zerolog.DebugLevel
	case flags.Verbose:
		level = zerolog.InfoLevel
	}

	a.LogPath = ""
	if !flags.NoLog {
		a.LogPath = flags.LogFile
	}
	if err := helpers.InitLogging(a.LogPath, level, helpers.ConsoleWriter(a.Stderr)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	log.Logger = log.With().Str("run", uuid.NewString()).Logger()
	log.Info().Str("version", config.AppVersion).Msg("starting")
	return nil
}

// confirm asks a yes/no question unless the run is forced. No is the
// default.
func (a *App) confirm(vals *config.Values, label string) bool {
	if vals.Force {
		return true
	}
	return helpers.YesNoPrompt(a.Stdin, a.Stderr, label, false)
}

type lists struct {
	prefer       patterns.List
	avoid        patterns.List
	exclude      patterns.List
	excludeAfter patterns.List
}

func (a *App) run(ctx context.Context, vals *config.Values, flags Flags) error {
	table := regions.NewTable()
	for _, w := range vals.UnknownRegions(table) {
		log.Warn().Msg(w)
	}

	if err := a.checkDirs(vals); err != nil {
		return err
	}

	ls, err := a.parseLists(ctx, vals)
	if err != nil {
		return err
	}

	dat, err := a.loadDat(ctx, vals.Dat)
	if err != nil {
		return err
	}
	if err := a.checkDat(dat, vals); err != nil {
		return err
	}

	var index indexer.Index
	if vals.UseHashes() {
		index, err = a.buildIndex(ctx, dat, vals, flags.Debug)
		if err != nil {
			return err
		}
	}

	filters := gameFilters(vals, ls.exclude)
	buckets := games.Build(dat, table, &filters)

	comparator := ranking.NewComparator(ranking.Options{
		Prefer:              ls.prefer,
		Avoid:               ls.avoid,
		PrioritizeLanguages: vals.Selection.PrioritizeLanguages,
		PreferPrereleases:   vals.Selection.PreferPrereleases,
		PreferParents:       vals.Selection.PreferParents,
		InputOrder:          vals.Selection.InputOrder,
		EarlyRevisions:      vals.Selection.EarlyRevisions,
		EarlyVersions:       vals.Selection.EarlyVersions,
	})
	if flags.Verbose || flags.Debug {
		a.printCriteria(vals, &filters, comparator)
	}

	ranking.Rank(buckets, ranking.Params{
		Regions:        vals.Regions,
		Languages:      vals.Languages,
		LanguageWeight: vals.LanguageWeight,
		EarlyRevisions: vals.Selection.EarlyRevisions,
		EarlyVersions:  vals.Selection.EarlyVersions,
	}, comparator)

	return a.resolve(ctx, vals, buckets, index, ls.excludeAfter)
}

func (a *App) checkDirs(vals *config.Values) error {
	if vals.Scan.InputDir != "" {
		info, err := a.Fs.Stat(vals.Scan.InputDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: invalid input directory: %s", config.ErrInvalid, vals.Scan.InputDir)
		}
	}

	if vals.Output.Dir != "" {
		if err := a.Fs.MkdirAll(vals.Output.Dir, 0o750); err != nil {
			return fmt.Errorf("%w: invalid output directory: %s: %w", config.ErrInvalid, vals.Output.Dir, err)
		}
	}

	if !vals.Scan.NoScan && vals.Scan.InputDir == "" {
		log.Warn().Msg("input directory not specified, file scanning skipped")
		if !a.confirm(vals, "Continue anyway?") {
			return ErrAborted
		}
	}
	return nil
}

func (a *App) parseLists(ctx context.Context, vals *config.Values) (lists, error) {
	opts := patterns.Options{
		Fs:         a.Fs,
		Client:     a.Client,
		Separator:  vals.Lists.Separator,
		IgnoreCase: vals.Lists.IgnoreCase,
		Regex:      vals.Lists.Regex,
	}

	var ls lists
	for _, l := range []struct {
		dst  *patterns.List
		name string
		src  string
	}{
		{&ls.prefer, "prefer", vals.Lists.Prefer},
		{&ls.avoid, "avoid", vals.Lists.Avoid},
		{&ls.exclude, "exclude", vals.Lists.Exclude},
		{&ls.excludeAfter, "exclude-after", vals.Lists.ExcludeAfter},
	} {
		parsed, err := patterns.Parse(ctx, l.src, opts)
		if err != nil {
			return ls, fmt.Errorf("%w: invalid %s list: %w", config.ErrInvalid, l.name, err)
		}
		*l.dst = parsed
	}
	return ls, nil
}

func (a *App) loadDat(ctx context.Context, src string) (*catalog.Datafile, error) {
	if u, ok := strings.CutPrefix(src, patterns.URLPrefix); ok {
		data, err := a.Client.Fetch(ctx, strings.TrimSpace(u))
		if err != nil {
			return nil, fmt.Errorf("failed to download DAT file: %w", err)
		}
		dat, err := catalog.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse DAT file: %w", err)
		}
		return dat, nil
	}

	dat, err := catalog.Load(a.Fs, src)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid DAT file: %w", config.ErrInvalid, err)
	}
	log.Info().
		Str("dat", src).
		Str("name", dat.Header.Name).
		Str("version", dat.Header.Version).
		Int("games", len(dat.Games)).
		Msg("loaded DAT file")
	return dat, nil
}

func (a *App) checkDat(dat *catalog.Datafile, vals *config.Values) error {
	useHashes := vals.UseHashes()
	integrity := dat.Check(useHashes)

	if len(integrity.MissingDigests) > 0 {
		_, _ = fmt.Fprintf(a.Stderr, "[ERROR] No SHA-1 digests found in DAT for:\n - %s\n",
			strings.Join(integrity.MissingDigests, "\n - "))
		if !a.confirm(vals, "Continue anyway?") {
			return ErrAborted
		}
	}

	if !integrity.HasCloneOf {
		log.Warn().Msg("DAT appears to be standard (no clone relationships), " +
			"a parent/clone DAT is required for 1G1R set generation")
		if useHashes {
			log.Warn().Msg("standard DAT sufficient for hash based file renaming")
		}
		if !a.confirm(vals, "Continue anyway?") {
			return ErrAborted
		}
	}
	return nil
}

func (a *App) loadRules(dat *catalog.Datafile, vals *config.Values) ([]headers.Rule, string, error) {
	path := vals.Scan.HeaderFile
	if path == "" {
		found, ok := dat.HeaderRulesPath(a.Fs, vals.Dat)
		if !ok {
			return nil, "", nil
		}
		path = found
	}

	rules, err := headers.Load(a.Fs, path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid header file: %w", config.ErrInvalid, err)
	}
	log.Info().Str("path", path).Int("rules", len(rules)).Msg("loaded header rules")
	return rules, path, nil
}

func (a *App) buildIndex(
	ctx context.Context,
	dat *catalog.Datafile,
	vals *config.Values,
	dump bool,
) (indexer.Index, error) {
	rules, rulesPath, err := a.loadRules(dat, vals)
	if err != nil {
		return nil, err
	}

	opts := indexer.Options{
		Fs:      a.Fs,
		Workers: vals.Scan.Threads,
		Hash: hasher.Options{
			Rules:       rules,
			MaxRuleSize: vals.Scan.MaxFileSize,
			ChunkSize:   vals.Scan.ChunkSize,
		},
		HashContainers: dat.HasArchiveRoms(),
		Progress:       progress.NewLogger(log.Logger, "hashing", a.Clock, progress.DefaultInterval),
	}

	if vals.Scan.Cache {
		if cache := a.openCache(rulesPath, opts); cache != nil {
			defer func() {
				if err := cache.Close(); err != nil {
					log.Warn().Err(err).Msg("failed to close hash cache")
				}
			}()
			opts.Cache = cache
		}
	}

	required := dat.RequiredDigests()
	index, err := indexer.Build(ctx, vals.Scan.InputDir, required, opts)
	if err != nil {
		return nil, err
	}
	log.Info().Int("digests", len(index)).Msg("indexed input directory")

	if dump {
		data, err := json.Marshal(index.Filter(required))
		if err == nil {
			log.Debug().RawJSON("files", data).Msg("scanned files")
		}
	}
	return index, nil
}

// openCache returns nil if the cache cannot be used; the run continues
// without it.
func (a *App) openCache(rulesPath string, opts indexer.Options) *hashcache.Cache {
	rulesDigest := ""
	if rulesPath != "" {
		d, err := hasher.DigestFile(a.Fs, rulesPath, hasher.Options{})
		if err != nil {
			log.Warn().Err(err).Msg("failed to fingerprint header rules, not caching digests")
			return nil
		}
		rulesDigest = d
	}
	fingerprint := fmt.Sprintf(
		"rules=%s containers=%t max=%d",
		rulesDigest, opts.HashContainers, opts.Hash.MaxRuleSize,
	)

	if err := os.MkdirAll(a.CacheDir, 0o750); err != nil {
		log.Warn().Err(err).Msg("failed to create cache directory")
		return nil
	}
	cache, err := hashcache.Open(filepath.Join(a.CacheDir, hashcache.DBFile), fingerprint)
	if err != nil {
		log.Warn().Err(err).Msg("failed to open hash cache")
		return nil
	}
	return cache
}

func gameFilters(vals *config.Values, exclude patterns.List) games.Filters {
	f := vals.Filters
	return games.Filters{
		Exclude:          exclude,
		BIOS:             f.BIOS,
		Program:          f.Program,
		EnhancementChip:  f.EnhancementChip,
		Proto:            f.Proto,
		Beta:             f.Beta,
		Demo:             f.Demo,
		Sample:           f.Sample,
		Pirate:           f.Pirate,
		Bad:              f.Bad,
		Aftermarket:      f.Aftermarket,
		Homebrew:         f.Homebrew,
		Kiosk:            f.Kiosk,
		Promo:            f.Promo,
		Debug:            f.Debug,
		Unlicensed:       f.Unlicensed,
		UnlicensedStrict: f.UnlicensedStrict,
	}
}

func (a *App) printCriteria(vals *config.Values, filters *games.Filters, c *ranking.Comparator) {
	active := filters.Active()
	if vals.Selection.OnlySelectedLang {
		active = append(active, "only-selected-lang")
	}
	if vals.Lists.ExcludeAfter != "" {
		active = append(active, "exclude-after")
	}

	w := a.Stderr
	if len(active) > 0 {
		_, _ = fmt.Fprintln(w, "Filtering out:")
		for i, name := range active {
			_, _ = fmt.Fprintf(w, "\t%d. %s\n", i+1, name)
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintln(w, "Sorting with the following criteria:")
	for i, line := range c.Describe() {
		_, _ = fmt.Fprintf(w, "\t%d. %s\n", i+1, line)
	}
	_, _ = fmt.Fprintln(w)
}

func inclusion(vals *config.Values) resolver.Inclusion {
	in := resolver.Inclusion{
		Languages:            vals.Languages,
		OnlySelectedLanguage: vals.Selection.OnlySelectedLang,
	}
	switch {
	case vals.Selection.AllRegions:
		in.Policy = resolver.AllRegions
	case vals.Selection.AllRegionsWithLang:
		in.Policy = resolver.AllRegionsWithLanguage
	}
	return in
}

func transferMode(vals *config.Values) transfer.Mode {
	switch {
	case vals.Output.Move:
		return transfer.Move
	case vals.Output.Symlink:
		return transfer.Symlink
	default:
		return transfer.Copy
	}
}

func (a *App) resolve(
	ctx context.Context,
	vals *config.Values,
	buckets games.Buckets,
	index indexer.Index,
	excludeAfter patterns.List,
) error {
	r := &resolver.Resolver{
		Fs:                 a.Fs,
		Index:              index,
		ExcludeAfter:       excludeAfter,
		InputDir:           vals.Scan.InputDir,
		OutputDir:          vals.Output.Dir,
		Extension:          vals.Scan.Extension,
		Inclusion:          inclusion(vals),
		GroupByFirstLetter: vals.Output.GroupByFirstLetter,
	}

	plan, err := r.Resolve(ctx, buckets)
	if err != nil {
		return err
	}
	manifest := plan.Manifest(vals.Scan.InputDir != "")

	opts := resolver.ApplyOptions{Verify: vals.Output.Verify}
	if vals.Output.Dir != "" {
		mode := transferMode(vals)
		if _, ok := a.Fs.(*afero.OsFs); ok && mode == transfer.Copy {
			if err := transfer.CheckFreeSpace(vals.Output.Dir, plan.TransferBytes()); err != nil {
				return err
			}
		}
		opts.Transferer = transfer.New(a.Fs, mode, vals.Output.Relative)
	}

	res, err := r.Apply(ctx, plan, opts)
	if err != nil {
		return err
	}
	log.Info().
		Int("resolved", res.Resolved).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Int("transferred", res.Transferred).
		Int("errors", res.Errors).
		Msg("finished resolving")

	if vals.Output.ReportCSV != "" {
		var buf bytes.Buffer
		if err := manifest.WriteCSV(&buf); err != nil {
			return err
		}
		if err := afero.WriteFile(a.Fs, vals.Output.ReportCSV, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write csv report: %w", err)
		}
	}

	if vals.Output.Dir == "" {
		return manifest.Write(a.Stdout)
	}
	_, err = fmt.Fprintf(a.Stdout, "%s\n", manifest.Summary())
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
