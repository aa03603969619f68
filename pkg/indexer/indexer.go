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

// Package indexer scans an input collection and builds a digest index
// covering plain files and the members of ZIP archives.
package indexer

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/hasher"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/progress"
	"github.com/charlievieth/fastwalk"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of hashing goroutines.
const DefaultWorkers = 4

// Record is one digest produced while hashing a file.
type Record struct {
	Digest    string `json:"digest"`
	Container bool   `json:"container,omitempty"`
}

// Cache remembers the records of files that have not changed since they
// were last hashed.
type Cache interface {
	Lookup(path string, size int64, modTime time.Time) ([]Record, bool)
	Store(path string, size int64, modTime time.Time, records []Record) error
}

type Options struct {
	// Fs defaults to the OS filesystem.
	Fs       afero.Fs
	Progress progress.Reporter
	Cache    Cache
	Hash     hasher.Options
	Workers  int
	// HashContainers also hashes archives as whole files. Needed when the
	// catalog itself lists archives as ROMs.
	HashContainers bool
}

type file struct {
	modTime time.Time
	path    string
	size    int64
}

// Build hashes every regular file below root. Only digests in required
// are kept; a nil required keeps everything. Unreadable files are logged
// and skipped. Cancelling ctx discards all results.
func Build(ctx context.Context, root string, required map[string]struct{}, opts Options) (Index, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Progress == nil {
		opts.Progress = progress.Nop{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	files, err := listFiles(opts.Fs, root)
	if err != nil {
		return nil, err
	}
	log.Info().Str("dir", root).Int("files", len(files)).Msg("scanning input directory")

	// largest first so the slowest files do not end up on a single worker
	slices.SortStableFunc(files, func(a, b file) int {
		if c := cmp.Compare(b.size, a.size); c != 0 {
			return c
		}
		return cmp.Compare(a.path, b.path)
	})

	opts.Progress.Start(len(files))
	defer opts.Progress.Done()

	queue := make(chan file)
	partial := make([]Index, workers)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		for _, f := range files {
			select {
			case queue <- f:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := range workers {
		g.Go(func() error {
			ix := make(Index)
			for f := range queue {
				if err := gctx.Err(); err != nil {
					return err
				}
				for _, rec := range hashFile(opts, f) {
					if keep(required, rec.Digest) {
						ix.Add(rec.Digest, Entry{Path: f.path, Container: rec.Container})
					}
				}
				opts.Progress.Step(w, f.path)
			}
			partial[w] = ix
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("indexing interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("indexing interrupted: %w", err)
	}

	result := make(Index)
	for _, ix := range partial {
		Merge(result, ix)
	}
	return result, nil
}

func keep(required map[string]struct{}, digest string) bool {
	if required == nil {
		return true
	}
	_, ok := required[digest]
	return ok
}

// hashFile returns every digest found in f: one per archive member if f
// is a ZIP, and one for the whole file if it is not or if containers are
// hashed too.
func hashFile(opts Options, f file) []Record {
	if opts.Cache != nil {
		if recs, ok := opts.Cache.Lookup(f.path, f.size, f.modTime); ok {
			return recs
		}
	}

	var recs []Record
	isZip := hasher.IsZip(opts.Fs, f.path)

	if isZip {
		err := hasher.ZipMembers(opts.Fs, f.path, func(name string, size int64, r io.Reader) error {
			digest, err := hasher.Digest(r, size, opts.Hash)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			log.Debug().Str("file", f.path).Str("member", name).Str("sha1", digest).Msg("scan result")
			recs = append(recs, Record{Digest: digest, Container: true})
			return nil
		})
		if err != nil {
			log.Error().Err(err).Str("file", f.path).Msg("error while reading archive")
			return nil
		}
	}

	if !isZip || opts.HashContainers {
		digest, err := hasher.DigestFile(opts.Fs, f.path, opts.Hash)
		if err != nil {
			log.Error().Err(err).Str("file", f.path).Msg("error while reading file")
			return nil
		}
		log.Debug().Str("file", f.path).Str("sha1", digest).Msg("scan result")
		recs = append(recs, Record{Digest: digest})
	}

	if opts.Cache != nil {
		if err := opts.Cache.Store(f.path, f.size, f.modTime, recs); err != nil {
			log.Warn().Err(err).Str("file", f.path).Msg("failed to cache digests")
		}
	}
	return recs
}

// listFiles enumerates regular files below root. Entries that cannot be
// inspected are logged and left out.
func listFiles(afs afero.Fs, root string) ([]file, error) {
	if _, ok := afs.(*afero.OsFs); ok {
		return walkOS(afs, root)
	}

	var files []file
	err := afero.Walk(afs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Error().Err(err).Str("path", path).Msg("error while reading file")
			return nil
		}
		if info.Mode().IsRegular() {
			files = append(files, file{path: path, size: info.Size(), modTime: info.ModTime()})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}

// walkOS uses the parallel walker for real directories.
func walkOS(afs afero.Fs, root string) ([]file, error) {
	var (
		mu    sync.Mutex
		files []file
	)

	conf := fastwalk.Config{Follow: true}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Error().Err(err).Str("path", path).Msg("error while reading file")
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := afs.Stat(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("error while reading file")
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		mu.Lock()
		files = append(files, file{path: filepath.Clean(path), size: info.Size(), modTime: info.ModTime()})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}
