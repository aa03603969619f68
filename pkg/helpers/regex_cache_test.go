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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexCacheCompile(t *testing.T) {
	t.Parallel()
	cache := NewRegexCache()

	re1, err := cache.Compile(`(?i)\(Rev \d+\)`)
	require.NoError(t, err)
	re2, err := cache.Compile(`(?i)\(Rev \d+\)`)
	require.NoError(t, err)

	assert.Same(t, re1, re2)
	assert.True(t, re1.MatchString("Game (USA) (rev 2)"))
	assert.Equal(t, 1, cache.Size())

	_, err = cache.Compile(`[`)
	require.Error(t, err)
	assert.Equal(t, 1, cache.Size())
}

func TestRegexCacheConcurrent(t *testing.T) {
	t.Parallel()
	cache := NewRegexCache()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Compile(`^Game`)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Size())
}
