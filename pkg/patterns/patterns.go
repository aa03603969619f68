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

// Package patterns builds the name pattern lists used by the prefer, avoid,
// exclude and exclude-after options.
package patterns

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-1g1r/pkg/shared/httpclient"
	"github.com/spf13/afero"
)

const (
	// FilePrefix marks a list read from a local file, one entry per line.
	FilePrefix = "file:"
	// URLPrefix marks a list downloaded from a remote address.
	URLPrefix = "url:"
	// DefaultSeparator splits inline lists.
	DefaultSeparator = ","
)

// list files may carry XML-ish tags and comments next to entries
var reListNoise = regexp.MustCompile(`\s*(<[^>]*>|//.*$|<!--.*?-->)`)

// List is an ordered set of compiled name patterns.
type List []*regexp.Regexp

// Match reports whether any pattern occurs anywhere in name. An empty list
// never matches.
func (l List) Match(name string) bool {
	for _, re := range l {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Strings returns the source expressions, for logging.
func (l List) Strings() []string {
	out := make([]string, len(l))
	for i, re := range l {
		out[i] = re.String()
	}
	return out
}

type Options struct {
	// Fs is used for file: sources. Defaults to the OS filesystem.
	Fs afero.Fs
	// Client is used for url: sources. Defaults to httpclient.NewClient().
	Client *httpclient.Client
	// Separator splits inline lists. Defaults to DefaultSeparator.
	Separator  string
	IgnoreCase bool
	// Regex treats entries as regular expressions instead of literals.
	Regex bool
}

// Parse builds a List from src, which is either an inline list split on
// the separator, "file:<path>" or "url:<address>". An empty src gives an
// empty list.
func Parse(ctx context.Context, src string, opts Options) (List, error) {
	if src == "" {
		return nil, nil
	}

	var entries []string
	switch {
	case strings.HasPrefix(src, FilePrefix):
		fs := opts.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		path := helpers.ExpandHome(strings.TrimSpace(src[len(FilePrefix):]))
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("invalid file: %s: %w", path, err)
		}
		entries = readLines(bytes.NewReader(data))
	case strings.HasPrefix(src, URLPrefix):
		client := opts.Client
		if client == nil {
			client = httpclient.NewClient()
		}
		url := strings.TrimSpace(src[len(URLPrefix):])
		data, err := client.Fetch(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to download list %s: %w", url, err)
		}
		entries = readLines(bytes.NewReader(data))
	default:
		sep := opts.Separator
		if sep == "" {
			sep = DefaultSeparator
		}
		entries = strings.Split(src, sep)
	}

	return Compile(entries, opts.IgnoreCase, opts.Regex)
}

// Compile turns raw entries into a List. Blank entries are skipped.
func Compile(entries []string, ignoreCase, regex bool) (List, error) {
	list := make(List, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		expr := entry
		if !regex {
			expr = regexp.QuoteMeta(entry)
		}
		if ignoreCase {
			expr = "(?i)" + expr
		}
		re, err := helpers.CachedCompile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", entry, err)
		}
		list = append(list, re)
	}
	return list, nil
}

func readLines(r io.Reader) []string {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, reListNoise.ReplaceAllString(line, ""))
	}
	return lines
}
