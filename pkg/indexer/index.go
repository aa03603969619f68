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

package indexer

import "strings"

// Entry is where content with a given digest was found.
type Entry struct {
	Path string `json:"path"`
	// Container is true when the digest belongs to a member of the archive
	// at Path rather than to Path itself.
	Container bool `json:"container,omitempty"`
}

// Index maps a lowercase SHA-1 digest to its location.
type Index map[string]Entry

// Lookup returns the entry for digest.
func (ix Index) Lookup(digest string) (Entry, bool) {
	e, ok := ix[strings.ToLower(digest)]
	return e, ok
}

// Add records e under digest unless a better entry is already present. A
// plain file beats an archive member; between equals the smaller path
// wins so the outcome does not depend on insertion order.
func (ix Index) Add(digest string, e Entry) {
	cur, ok := ix[digest]
	if !ok || supersedes(e, cur) {
		ix[digest] = e
	}
}

func supersedes(e, cur Entry) bool {
	if e.Container != cur.Container {
		return !e.Container
	}
	return e.Path < cur.Path
}

// Merge adds every entry of src to dst.
func Merge(dst, src Index) {
	for d, e := range src {
		dst.Add(d, e)
	}
}

// Filter returns the entries whose digest is in required.
func (ix Index) Filter(required map[string]struct{}) Index {
	out := make(Index, len(required))
	for d, e := range ix {
		if _, ok := required[d]; ok {
			out[d] = e
		}
	}
	return out
}
