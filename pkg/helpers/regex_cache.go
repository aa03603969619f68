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

package helpers

import (
	"fmt"
	"regexp"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/helpers/syncutil"
)

// RegexCache keeps compiled user supplied patterns so the same expression
// listed in several places is only compiled once. Safe for concurrent use.
type RegexCache struct {
	cache map[string]*regexp.Regexp
	mu    syncutil.RWMutex
}

// GlobalRegexCache is shared by all pattern lists of a run.
var GlobalRegexCache = NewRegexCache()

func NewRegexCache() *RegexCache {
	return &RegexCache{cache: make(map[string]*regexp.Regexp)}
}

func (rc *RegexCache) get(pattern string) (*regexp.Regexp, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	re, ok := rc.cache[pattern]
	return re, ok
}

// Compile returns the cached expression for pattern, compiling it on first
// use.
func (rc *RegexCache) Compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := rc.get(pattern); ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile regex pattern %q: %w", pattern, err)
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if cached, ok := rc.cache[pattern]; ok {
		return cached, nil
	}
	rc.cache[pattern] = re
	return re, nil
}

// Size returns the number of cached patterns.
func (rc *RegexCache) Size() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.cache)
}

// CachedCompile compiles pattern through the global cache.
func CachedCompile(pattern string) (*regexp.Regexp, error) {
	return GlobalRegexCache.Compile(pattern)
}
