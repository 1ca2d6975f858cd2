// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package corpus

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	"github.com/SnellerInc/fastutf8/compr"
)

// ErrChecksum is returned when a text does not match
// the checksum recorded in its manifest entry.
var ErrChecksum = errors.New("corpus: checksum mismatch")

// Sum returns the hex-encoded BLAKE2b-256 sum of text,
// in the form stored in Entry.BLAKE2b.
func Sum(text []byte) string {
	h := blake2b.Sum256(text)
	return hex.EncodeToString(h[:])
}

// Loader reads corpus texts from a file system.
type Loader struct {
	// FS is the directory containing the manifest.
	FS fs.FS
	// Logf, if non-nil, is used to log progress.
	Logf func(f string, args ...any)
}

// Open decodes the manifest file at name and
// returns it together with a Loader rooted at its directory.
func Open(name string) (*Manifest, *Loader, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	m, err := DecodeManifest(f, filepath.Ext(name))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, &Loader{FS: os.DirFS(filepath.Dir(name))}, nil
}

func (l *Loader) logf(f string, args ...any) {
	if l.Logf != nil {
		l.Logf(f, args...)
	}
}

func (e *Entry) compression() string {
	if e.Compression != "" {
		return e.Compression
	}
	return compr.ForPath(e.Path)
}

// Reader returns the decompressed text of e as a stream.
// The checksum is not verified.
func (l *Loader) Reader(e *Entry) (io.ReadCloser, error) {
	f, err := l.FS.Open(path.Clean(e.Path))
	if err != nil {
		return nil, err
	}
	r, err := compr.NewReader(e.compression(), f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	return &readCloser{Reader: r, closers: []io.Closer{r, f}}, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Load returns the decompressed text of e and verifies
// it against e.BLAKE2b when that is set.
func (l *Loader) Load(e *Entry) ([]byte, error) {
	raw, err := fs.ReadFile(l.FS, path.Clean(e.Path))
	if err != nil {
		return nil, err
	}
	alg := e.compression()
	text, err := compr.Decode(alg, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: decompressing (%s): %w", e.Name, alg, err)
	}
	l.logf("loaded %s: %d bytes (%d stored, %s)", e.Name, len(text), len(raw), alg)
	if e.BLAKE2b != "" {
		if got := Sum(text); got != e.BLAKE2b {
			return nil, fmt.Errorf("%s: %w: got %s", e.Name, ErrChecksum, got)
		}
	}
	return text, nil
}
