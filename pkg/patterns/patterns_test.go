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

package patterns

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		opts    Options
		match   []string
		noMatch []string
	}{
		{
			name:    "literal substring",
			src:     "Virtual Console, Collection",
			match:   []string{"Game (USA) (Virtual Console)", "Hits Collection (Europe)"},
			noMatch: []string{"Game (USA)", "game (usa) (virtual console)"},
		},
		{
			name:    "literal escapes metacharacters",
			src:     "(Rev 1)",
			match:   []string{"Game (USA) (Rev 1)"},
			noMatch: []string{"Game (USA) Rev 1"},
		},
		{
			name:  "ignore case",
			src:   "virtual console",
			opts:  Options{IgnoreCase: true},
			match: []string{"Game (USA) (Virtual Console)"},
		},
		{
			name:    "regex",
			src:     `^Game \(Rev [0-9]\)$`,
			opts:    Options{Regex: true, Separator: "|||"},
			match:   []string{"Game (Rev 2)"},
			noMatch: []string{"Other Game (Rev 2)"},
		},
		{
			name:  "custom separator",
			src:   "Alpha;Beta",
			opts:  Options{Separator: ";"},
			match: []string{"Alpha Quest", "The Beta Files"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			list, err := Parse(context.Background(), tt.src, tt.opts)
			require.NoError(t, err)
			for _, name := range tt.match {
				assert.True(t, list.Match(name), "expected match: %s", name)
			}
			for _, name := range tt.noMatch {
				assert.False(t, list.Match(name), "expected no match: %s", name)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	list, err := Parse(context.Background(), "", Options{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.False(t, list.Match("anything"))

	list, err = Parse(context.Background(), " , ,", Options{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestParseInvalidRegex(t *testing.T) {
	t.Parallel()

	_, err := Parse(context.Background(), "([", Options{Regex: true})
	require.Error(t, err)
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	content := "Game One <game>\n\n// a comment line\nGame Two // trailing\n<!-- note -->Game Three\n"
	require.NoError(t, afero.WriteFile(fs, "/lists/exclude.txt", []byte(content), 0o644))

	list, err := Parse(context.Background(), "file:/lists/exclude.txt", Options{Fs: fs})
	require.NoError(t, err)
	assert.Equal(t, []string{"Game One", "Game Two", "Game Three"}, list.Strings())
}

func TestParseMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Parse(context.Background(), "file:/nope.txt", Options{Fs: afero.NewMemMapFs()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file")
}

func TestParseURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Beta Quest\nDemo Disc\n"))
	}))
	t.Cleanup(srv.Close)

	list, err := Parse(context.Background(), "url:"+srv.URL, Options{IgnoreCase: true})
	require.NoError(t, err)
	assert.True(t, list.Match("beta quest (USA)"))
	assert.True(t, list.Match("DEMO DISC (Japan)"))
	assert.False(t, list.Match("Game (USA)"))
}
