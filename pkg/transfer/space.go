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

package transfer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
)

var ErrInsufficientSpace = errors.New("not enough free space")

// usage is swapped in tests.
var usage = func(path string) (uint64, error) {
	stat, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get disk usage: %w", err)
	}
	return stat.Free, nil
}

// CheckFreeSpace fails if the volume holding dir has less than need bytes
// free. dir does not have to exist yet; its nearest existing parent is
// checked instead.
func CheckFreeSpace(dir string, need uint64) error {
	if need == 0 {
		return nil
	}

	path, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		parent := filepath.Dir(path)
		if parent == path {
			break
		}
		path = parent
	}

	free, err := usage(path)
	if err != nil {
		return err
	}
	if free < need {
		return fmt.Errorf(
			"%w in %s: need %s, have %s",
			ErrInsufficientSpace, path, humanize.IBytes(need), humanize.IBytes(free),
		)
	}
	return nil
}
