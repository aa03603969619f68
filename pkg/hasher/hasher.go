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

// Package hasher computes the content digests used to match files on disk
// against catalog ROM entries.
package hasher

import (
	"archive/zip"
	"bytes"
	"crypto/md5"  //nolint:gosec // catalog digests, not security
	"crypto/sha1" //nolint:gosec // catalog digests, not security
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strings"

	"github.com/ZaparooProject/zaparoo-1g1r/pkg/headers"
	"github.com/spf13/afero"
)

const (
	// DefaultMaxRuleSize is the largest input read into memory so header
	// rules can be applied. Larger inputs are hashed unmodified.
	DefaultMaxRuleSize int64 = 256 << 20
	// DefaultChunkSize is the read size used when streaming.
	DefaultChunkSize = 32 << 20
)

// Options control how digests are computed.
type Options struct {
	Rules       []headers.Rule
	MaxRuleSize int64
	ChunkSize   int
}

func (o Options) maxRuleSize() int64 {
	if o.MaxRuleSize <= 0 {
		return DefaultMaxRuleSize
	}
	return o.MaxRuleSize
}

func (o Options) chunkSize() int {
	if o.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return o.ChunkSize
}

// Digest returns the lowercase hex SHA-1 of r. When header rules are set
// and size is within MaxRuleSize the whole input is read and normalized by
// the matching rules first; otherwise it is streamed in chunks.
func Digest(r io.Reader, size int64, opts Options) (string, error) {
	h := sha1.New() //nolint:gosec // catalog digests, not security

	if len(opts.Rules) > 0 && size <= opts.maxRuleSize() {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("failed to read data: %w", err)
		}
		_, _ = h.Write(headers.ApplyAll(opts.Rules, data))
		return hex.EncodeToString(h.Sum(nil)), nil
	}

	buf := make([]byte, min(int64(opts.chunkSize()), max(size, 32<<10)))
	if _, err := io.CopyBuffer(h, onlyReader{r}, buf); err != nil {
		return "", fmt.Errorf("failed to read data: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// onlyReader hides WriterTo so CopyBuffer honours the chunk size.
type onlyReader struct {
	io.Reader
}

// DigestFile hashes a whole file.
func DigestFile(fs afero.Fs, path string, opts Options) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to get file stats: %w", err)
	}
	return Digest(f, info.Size(), opts)
}

var zipSignatures = [][]byte{
	[]byte("PK\x03\x04"), // local file header
	[]byte("PK\x05\x06"), // end of central directory, empty archive
	[]byte("PK\x07\x08"), // spanned archive
}

// IsZip reports whether path starts with a ZIP signature. The file
// extension is not considered.
func IsZip(fs afero.Fs, path string) bool {
	f, err := fs.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return false
	}
	for _, sig := range zipSignatures {
		if bytes.Equal(magic, sig) {
			return true
		}
	}
	return false
}

// MemberFunc is called for every file in an archive. r is only valid for
// the duration of the call.
type MemberFunc func(name string, size int64, r io.Reader) error

// ZipMembers calls fn for every non-directory member of the archive at
// path, in archive order. An error from fn stops the iteration.
func ZipMembers(fs afero.Fs, path string, fn MemberFunc) error {
	f, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file stats: %w", err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return fmt.Errorf("failed to read zip: %w", err)
	}

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		if err := member(zf, fn); err != nil {
			return err
		}
	}
	return nil
}

func member(zf *zip.File, fn MemberFunc) error {
	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s in zip: %w", zf.Name, err)
	}
	defer func() { _ = rc.Close() }()
	return fn(zf.Name, int64(zf.UncompressedSize64), rc) //nolint:gosec // sizes fit in int64
}

// FileHash contains all hash information for a file.
type FileHash struct {
	CRC32    string
	MD5      string
	SHA1     string
	FileSize int64
}

// ErrMemberNotFound is returned when an archive path names a missing member.
var ErrMemberNotFound = errors.New("file not found in archive")

// ComputeFileHashes calculates CRC32, MD5 and SHA-1 of a file. A path of the
// form "archive.zip/member.bin" hashes that member of the archive.
func ComputeFileHashes(fs afero.Fs, path string) (*FileHash, error) {
	lower := strings.ToLower(path)
	if i := strings.LastIndex(lower, ".zip/"); i > 0 {
		zipPath, name := path[:i+4], path[i+5:]
		if info, err := fs.Stat(zipPath); err == nil && !info.IsDir() {
			return hashZipMember(fs, zipPath, name)
		}
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats: %w", err)
	}
	return hashReader(f, info.Size())
}

var errStop = errors.New("stop")

func hashZipMember(fs afero.Fs, zipPath, name string) (*FileHash, error) {
	var result *FileHash
	err := ZipMembers(fs, zipPath, func(member string, size int64, r io.Reader) error {
		if member != name {
			return nil
		}
		h, err := hashReader(r, size)
		if err != nil {
			return err
		}
		result = h
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrMemberNotFound, name, zipPath)
	}
	return result, nil
}

// hashReader computes all hashes in one pass.
func hashReader(r io.Reader, size int64) (*FileHash, error) {
	crc := crc32.NewIEEE()
	md := md5.New()   //nolint:gosec // catalog digests, not security
	sha := sha1.New() //nolint:gosec // catalog digests, not security

	if _, err := io.Copy(io.MultiWriter(crc, md, sha), r); err != nil {
		return nil, fmt.Errorf("failed to read file for hashing: %w", err)
	}

	return &FileHash{
		CRC32:    fmt.Sprintf("%08x", crc.Sum32()),
		MD5:      hex.EncodeToString(md.Sum(nil)),
		SHA1:     hex.EncodeToString(sha.Sum(nil)),
		FileSize: size,
	}, nil
}

// Matches reports whether every non-empty field of expected equals h.
func (h *FileHash) Matches(expected *FileHash) bool {
	switch {
	case expected.CRC32 != "" && !strings.EqualFold(h.CRC32, expected.CRC32),
		expected.MD5 != "" && !strings.EqualFold(h.MD5, expected.MD5),
		expected.SHA1 != "" && !strings.EqualFold(h.SHA1, expected.SHA1),
		expected.FileSize > 0 && h.FileSize != expected.FileSize:
		return false
	}
	return true
}

// ValidateHashes checks a file against the expected hashes. Empty fields
// of expected are not checked.
func ValidateHashes(fs afero.Fs, path string, expected *FileHash) (bool, error) {
	computed, err := ComputeFileHashes(fs, path)
	if err != nil {
		return false, err
	}
	return computed.Matches(expected), nil
}
