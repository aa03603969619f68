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

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	testhelpers "github.com/ZaparooProject/zaparoo-1g1r/pkg/testing/helpers"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pgregory.net/rapid"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	romA = []byte("rom A contents")
	romB = []byte("rom B contents, a little longer")
	romC = []byte("rom C")
)

func setupCollection(t *testing.T) *testhelpers.FSHelper {
	t.Helper()
	fsh := testhelpers.NewMemoryFS()
	require.NoError(t, fsh.WriteFile("/in/a.bin", romA))
	require.NoError(t, fsh.WriteZip("/in/sub/b.zip", map[string][]byte{"b.bin": romB, "c.bin": romC}))
	return fsh
}

func TestBuildPlainAndArchive(t *testing.T) {
	t.Parallel()
	fsh := setupCollection(t)

	ix, err := Build(context.Background(), "/in", nil, Options{Fs: fsh.Fs, Workers: 2})
	require.NoError(t, err)

	e, ok := ix.Lookup(testhelpers.SHA1(romA))
	require.True(t, ok)
	assert.Equal(t, Entry{Path: "/in/a.bin"}, e)

	e, ok = ix.Lookup(testhelpers.SHA1(romB))
	require.True(t, ok)
	assert.Equal(t, Entry{Path: "/in/sub/b.zip", Container: true}, e)

	_, ok = ix.Lookup(testhelpers.SHA1(romC))
	assert.True(t, ok)

	assert.Len(t, ix, 3, "the archive itself is not hashed")
}

func TestBuildHashContainers(t *testing.T) {
	t.Parallel()
	fsh := setupCollection(t)

	zipData, err := fsh.ReadFile("/in/sub/b.zip")
	require.NoError(t, err)

	ix, err := Build(context.Background(), "/in", nil, Options{Fs: fsh.Fs, HashContainers: true})
	require.NoError(t, err)

	e, ok := ix.Lookup(testhelpers.SHA1(zipData))
	require.True(t, ok)
	assert.Equal(t, Entry{Path: "/in/sub/b.zip"}, e)
	assert.Len(t, ix, 4)
}

func TestBuildRequiredOnly(t *testing.T) {
	t.Parallel()
	fsh := setupCollection(t)

	required := map[string]struct{}{testhelpers.SHA1(romB): {}}
	ix, err := Build(context.Background(), "/in", required, Options{Fs: fsh.Fs})
	require.NoError(t, err)

	assert.Len(t, ix, 1)
	_, ok := ix.Lookup(testhelpers.SHA1(romB))
	assert.True(t, ok)
}

func TestBuildPlainFileSupersedesArchive(t *testing.T) {
	t.Parallel()
	fsh := testhelpers.NewMemoryFS()
	require.NoError(t, fsh.WriteZip("/in/a.zip", map[string][]byte{"game.bin": romA}))
	require.NoError(t, fsh.WriteFile("/in/z/game.bin", romA))

	for range 5 {
		ix, err := Build(context.Background(), "/in", nil, Options{Fs: fsh.Fs, Workers: 3})
		require.NoError(t, err)
		e, _ := ix.Lookup(testhelpers.SHA1(romA))
		assert.Equal(t, Entry{Path: "/in/z/game.bin"}, e)
	}
}

func TestBuildSkipsUnreadableArchive(t *testing.T) {
	t.Parallel()
	fsh := testhelpers.NewMemoryFS()
	require.NoError(t, fsh.WriteFile("/in/broken.zip", []byte("PK\x03\x04not really")))
	require.NoError(t, fsh.WriteFile("/in/a.bin", romA))

	ix, err := Build(context.Background(), "/in", nil, Options{Fs: fsh.Fs})
	require.NoError(t, err)
	assert.Len(t, ix, 1)
}

func TestBuildMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := Build(context.Background(), "/nope", nil, Options{Fs: afero.NewMemMapFs()})
	require.Error(t, err)
}

func TestBuildCancelled(t *testing.T) {
	t.Parallel()
	fsh := setupCollection(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ix, err := Build(ctx, "/in", nil, Options{Fs: fsh.Fs})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, ix)
}

func TestBuildOSFilesystem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested", "deeper"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "deeper", "a.bin"), romA, 0o600))
	zipData, err := testhelpers.ZipBytes(map[string][]byte{"b.bin": romB})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.zip"), zipData, 0o600))

	ix, err := Build(context.Background(), dir, nil, Options{Fs: afero.NewOsFs()})
	require.NoError(t, err)

	e, ok := ix.Lookup(testhelpers.SHA1(romA))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "nested", "deeper", "a.bin"), e.Path)

	e, ok = ix.Lookup(testhelpers.SHA1(romB))
	require.True(t, ok)
	assert.True(t, e.Container)
}

type memCache struct {
	data map[string][]Record
	hits int
	mu   sync.Mutex
}

func (c *memCache) Lookup(path string, _ int64, _ time.Time) ([]Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	recs, ok := c.data[path]
	if ok {
		c.hits++
	}
	return recs, ok
}

func (c *memCache) Store(path string, _ int64, _ time.Time, recs []Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[path] = recs
	return nil
}

func TestBuildUsesCache(t *testing.T) {
	t.Parallel()
	fsh := setupCollection(t)
	cache := &memCache{data: make(map[string][]Record)}

	first, err := Build(context.Background(), "/in", nil, Options{Fs: fsh.Fs, Cache: cache})
	require.NoError(t, err)
	assert.Equal(t, 0, cache.hits)

	second, err := Build(context.Background(), "/in", nil, Options{Fs: fsh.Fs, Cache: cache})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.hits)
	assert.Equal(t, first, second)
}

func TestIndexFilter(t *testing.T) {
	t.Parallel()

	ix := Index{"aa": {Path: "/a"}, "bb": {Path: "/b"}}
	assert.Equal(t, Index{"bb": {Path: "/b"}}, ix.Filter(map[string]struct{}{"bb": {}, "cc": {}}))
}

func TestLookupIgnoresCase(t *testing.T) {
	t.Parallel()

	ix := Index{"abcdef": {Path: "/a"}}
	_, ok := ix.Lookup("ABCDEF")
	assert.True(t, ok)
}

// ============================================================================
// Property tests
// ============================================================================

func indexGen() *rapid.Generator[Index] {
	return rapid.Custom(func(t *rapid.T) Index {
		ix := make(Index)
		n := rapid.IntRange(0, 8).Draw(t, "n")
		for range n {
			d := rapid.SampledFrom([]string{"d1", "d2", "d3", "d4"}).Draw(t, "digest")
			e := Entry{
				Path:      rapid.SampledFrom([]string{"/a", "/b", "/c.zip", "/d.zip"}).Draw(t, "path"),
				Container: rapid.Bool().Draw(t, "container"),
			}
			ix.Add(d, e)
		}
		return ix
	})
}

// TestPropertyMergeCommutative checks that the merged index does not
// depend on the order worker results are merged in.
func TestPropertyMergeCommutative(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		a := indexGen().Draw(t, "a")
		b := indexGen().Draw(t, "b")

		ab := make(Index)
		Merge(ab, a)
		Merge(ab, b)

		ba := make(Index)
		Merge(ba, b)
		Merge(ba, a)

		if len(ab) != len(ba) {
			t.Fatalf("size differs: %v vs %v", ab, ba)
		}
		for d, e := range ab {
			if ba[d] != e {
				t.Fatalf("digest %s: %v vs %v", d, e, ba[d])
			}
		}

		again := make(Index)
		Merge(again, ab)
		Merge(again, ab)
		for d, e := range ab {
			if again[d] != e {
				t.Fatalf("merge not idempotent for %s", d)
			}
		}
	})
}

// TestPropertyPlainBeatsContainer checks that a digest seen as a plain file
// never maps to an archive.
func TestPropertyPlainBeatsContainer(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		ix := indexGen().Draw(t, "ix")
		plain := Entry{Path: rapid.SampledFrom([]string{"/x", "/y"}).Draw(t, "plain")}
		ix.Add("d1", plain)
		if ix["d1"].Container {
			t.Fatalf("container kept over plain file: %v", ix["d1"])
		}
	})
}
