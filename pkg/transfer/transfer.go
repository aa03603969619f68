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

// Package transfer places resolved files into the output directory.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

type Mode int

const (
	Copy Mode = iota
	Move
	Symlink
)

func (m Mode) String() string {
	switch m {
	case Copy:
		return "copy"
	case Move:
		return "move"
	case Symlink:
		return "symlink"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts the names returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "copy":
		return Copy, nil
	case "move":
		return Move, nil
	case "symlink":
		return Symlink, nil
	default:
		return Copy, fmt.Errorf("unknown transfer mode: %s", s)
	}
}

var (
	ErrSymlinkUnsupported = errors.New("filesystem does not support symlinks")
	// ErrSameFile is returned when copying or linking a file onto itself.
	ErrSameFile = errors.New("source and destination are the same file")
)

type Transferer struct {
	Fs   afero.Fs
	Mode Mode
	// Relative makes symlink targets relative to the link's directory.
	Relative bool
}

func New(fs afero.Fs, mode Mode, relative bool) *Transferer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Transferer{Fs: fs, Mode: mode, Relative: relative}
}

// Transfer places src at dst, creating dst's parent directories. Existing
// files at dst are replaced. Moving a file onto itself does nothing.
func (t *Transferer) Transfer(src, dst string) error {
	same, err := t.sameFile(src, dst)
	if err != nil {
		return err
	}
	if same {
		if t.Mode == Move {
			log.Debug().Str("file", src).Msg("already in place")
			return nil
		}
		return fmt.Errorf("%w: %s", ErrSameFile, src)
	}

	if err := t.Fs.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	switch t.Mode {
	case Move:
		log.Info().Str("from", src).Str("to", dst).Msg("moving")
		return t.move(src, dst)
	case Symlink:
		log.Info().Str("from", src).Str("to", dst).Msg("linking")
		return t.symlink(src, dst)
	case Copy:
		log.Info().Str("from", src).Str("to", dst).Msg("copying")
		return t.copy(src, dst)
	default:
		return fmt.Errorf("unknown transfer mode: %v", t.Mode)
	}
}

// sameFile compares absolute paths, then file identity for hard links and
// aliased directories on the OS filesystem.
func (t *Transferer) sameFile(src, dst string) (bool, error) {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return false, fmt.Errorf("failed to resolve %s: %w", src, err)
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return false, fmt.Errorf("failed to resolve %s: %w", dst, err)
	}
	if absSrc == absDst {
		return true, nil
	}

	si, err := t.Fs.Stat(src)
	if err != nil {
		return false, nil //nolint:nilerr // a missing source fails in the transfer itself
	}
	di, err := t.Fs.Stat(dst)
	if err != nil {
		return false, nil //nolint:nilerr // nothing at dst yet
	}
	return os.SameFile(si, di), nil
}

func (t *Transferer) copy(src, dst string) error {
	in, err := t.Fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer func() {
		_ = in.Close()
	}()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	out, err := t.Fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}

	return t.CopyStat(src, dst)
}

// CopyStat copies the permission bits and modification time of src to dst.
func (t *Transferer) CopyStat(src, dst string) error {
	info, err := t.Fs.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if err := t.Fs.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set mode of %s: %w", dst, err)
	}
	if err := t.Fs.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set times of %s: %w", dst, err)
	}
	return nil
}

func (t *Transferer) move(src, dst string) error {
	err := t.Fs.Rename(src, dst)
	if err == nil {
		return nil
	}

	// rename fails across devices, fall back to copy and delete
	log.Debug().Err(err).Str("from", src).Msg("rename failed, copying instead")
	if err := t.copy(src, dst); err != nil {
		return err
	}
	if err := t.Fs.Remove(src); err != nil {
		return fmt.Errorf("failed to remove source file %s: %w", src, err)
	}
	return nil
}

func (t *Transferer) symlink(src, dst string) error {
	linker, ok := t.Fs.(afero.Linker)
	if !ok {
		return ErrSymlinkUnsupported
	}

	target, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", src, err)
	}
	if t.Relative {
		absDst, err := filepath.Abs(dst)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", dst, err)
		}
		target, err = filepath.Rel(filepath.Dir(absDst), target)
		if err != nil {
			return fmt.Errorf("failed to make link relative: %w", err)
		}
	}

	if lst, ok := t.Fs.(afero.Lstater); ok {
		if info, _, err := lst.LstatIfPossible(dst); err == nil && info.Mode()&os.ModeSymlink != 0 {
			if err := t.Fs.Remove(dst); err != nil {
				return fmt.Errorf("failed to replace link %s: %w", dst, err)
			}
		}
	}

	if err := linker.SymlinkIfPossible(target, dst); err != nil {
		return fmt.Errorf("failed to create symlink: %w", err)
	}
	return nil
}

// OutputDir returns the directory a release called name is placed in. With
// group set, releases are split into one subdirectory per lowercase first
// letter, and names not starting with a letter go in "#".
func OutputDir(base, name string, group bool) string {
	if !group {
		return base
	}
	if name != "" {
		c := name[0] | 0x20
		if c >= 'a' && c <= 'z' {
			return filepath.Join(base, string(c))
		}
	}
	return filepath.Join(base, "#")
}
