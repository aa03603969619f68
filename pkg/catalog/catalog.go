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

// Package catalog reads Logiqx style XML DAT files.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/spf13/afero"
)

// ErrNoDatafile is returned when the document has no <datafile> root.
var ErrNoDatafile = errors.New("not a datafile document")

type Rom struct {
	Name string
	SHA1 string
	CRC  string
	MD5  string
	Size int64
}

type Release struct {
	Name   string
	Region string
}

type Game struct {
	Name     string
	CloneOf  string
	Releases []Release
	Roms     []Rom
}

type Header struct {
	Name        string
	Description string
	Version     string
	// ClrMameProHeader is the detector file named in
	// <clrmamepro header="..."/>, if any.
	ClrMameProHeader string
}

type Datafile struct {
	Header Header
	Games  []Game
}

// Load parses the DAT file at path from fs.
func Load(fs afero.Fs, path string) (*Datafile, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dat file: %w", err)
	}
	defer func() { _ = f.Close() }()

	dat, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return dat, nil
}

// Parse reads a datafile document. Both <game> and <machine> records are
// accepted, and digests are lowercased.
func Parse(r io.Reader) (*Datafile, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to read xml: %w", err)
	}

	root := doc.SelectElement("datafile")
	if root == nil {
		return nil, ErrNoDatafile
	}

	dat := &Datafile{}
	if h := root.SelectElement("header"); h != nil {
		dat.Header = parseHeader(h)
	}

	for _, el := range root.ChildElements() {
		if el.Tag != "game" && el.Tag != "machine" {
			continue
		}
		game, err := parseGame(el)
		if err != nil {
			return nil, err
		}
		dat.Games = append(dat.Games, game)
	}

	return dat, nil
}

func parseHeader(el *etree.Element) Header {
	h := Header{
		Name:        childText(el, "name"),
		Description: childText(el, "description"),
		Version:     childText(el, "version"),
	}
	if cmp := el.SelectElement("clrmamepro"); cmp != nil {
		h.ClrMameProHeader = cmp.SelectAttrValue("header", "")
	}
	return h
}

func parseGame(el *etree.Element) (Game, error) {
	g := Game{
		Name:    el.SelectAttrValue("name", ""),
		CloneOf: el.SelectAttrValue("cloneof", ""),
	}

	for _, rel := range el.SelectElements("release") {
		g.Releases = append(g.Releases, Release{
			Name:   rel.SelectAttrValue("name", ""),
			Region: rel.SelectAttrValue("region", ""),
		})
	}

	for _, romEl := range el.SelectElements("rom") {
		rom := Rom{
			Name: romEl.SelectAttrValue("name", ""),
			SHA1: strings.ToLower(romEl.SelectAttrValue("sha1", "")),
			CRC:  strings.ToLower(romEl.SelectAttrValue("crc", "")),
			MD5:  strings.ToLower(romEl.SelectAttrValue("md5", "")),
		}
		if s := romEl.SelectAttrValue("size", ""); s != "" {
			size, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return Game{}, fmt.Errorf("invalid size for rom %q in %q: %w", rom.Name, g.Name, err)
			}
			rom.Size = size
		}
		g.Roms = append(g.Roms, rom)
	}

	return g, nil
}

func childText(el *etree.Element, tag string) string {
	if c := el.SelectElement(tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

// Integrity summarizes the checks run before a catalog is used.
type Integrity struct {
	// MissingDigests lists games with at least one ROM lacking a SHA-1.
	// Only filled when hashes are required.
	MissingDigests []string
	// HasCloneOf is false for standard (non parent/clone) catalogs.
	HasCloneOf bool
}

// Check inspects the catalog for clone relationships and, if useHashes is
// set, for ROMs that cannot be matched by content.
func (d *Datafile) Check(useHashes bool) Integrity {
	var in Integrity
	for i := range d.Games {
		g := &d.Games[i]
		if g.CloneOf != "" {
			in.HasCloneOf = true
		}
		if !useHashes {
			continue
		}
		for _, rom := range g.Roms {
			if rom.SHA1 == "" {
				in.MissingDigests = append(in.MissingDigests, g.Name)
				break
			}
		}
	}
	return in
}

// RequiredDigests returns the set of SHA-1 digests referenced by the
// catalog.
func (d *Datafile) RequiredDigests() map[string]struct{} {
	required := make(map[string]struct{})
	for _, g := range d.Games {
		for _, rom := range g.Roms {
			if rom.SHA1 != "" {
				required[rom.SHA1] = struct{}{}
			}
		}
	}
	return required
}

// HasArchiveRoms reports whether any ROM is itself a ZIP file, in which
// case archives in the input must also be hashed as whole files.
func (d *Datafile) HasArchiveRoms() bool {
	for _, g := range d.Games {
		for _, rom := range g.Roms {
			if strings.EqualFold(filepath.Ext(rom.Name), ".zip") {
				return true
			}
		}
	}
	return false
}

// HeaderRulesPath returns the detector file referenced by the catalog
// header, looked up in a "headers" directory under the working directory
// first and then next to the DAT file.
func (d *Datafile) HeaderRulesPath(fs afero.Fs, datPath string) (string, bool) {
	name := d.Header.ClrMameProHeader
	if name == "" {
		return "", false
	}

	candidates := []string{filepath.Join("headers", name)}
	if dir := filepath.Dir(datPath); dir != "." {
		candidates = append(candidates, filepath.Join(dir, "headers", name))
	}

	for _, p := range candidates {
		if info, err := fs.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return candidates[0], false
}
