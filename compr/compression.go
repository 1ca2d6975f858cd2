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

// Package compr provides a unified interface wrapping
// third-party compression libraries, used to store
// and load text corpora.
package compr

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"runtime"
	"strings"
	"unsafe"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// ErrUnknown is returned for an unrecognized algorithm name.
var ErrUnknown = errors.New("compr: unknown compression algorithm")

// Compressor describes a block compression algorithm.
type Compressor interface {
	// Name is the name of the compression algorithm.
	Name() string
	// Compress should append the compressed contents
	// of src to dst and return the result.
	Compress(src, dst []byte) []byte
}

type zstdCompressor struct {
	enc *zstd.Encoder
}

func (z zstdCompressor) Compress(src, dst []byte) []byte {
	return z.enc.EncodeAll(src, dst)
}

func (z zstdCompressor) Name() string { return "zstd" }

var zstdDecoder *zstd.Decoder

func init() {
	// by default, concurrency is set to min(4, GOMAXPROCS);
	// we'd like it to *always* be GOMAXPROCS
	z, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		panic(err)
	}
	zstdDecoder = z
}

type s2Compressor struct{}

func (s2Compressor) Compress(src, dst []byte) []byte {
	tail := dst[len(dst):cap(dst)]
	// s2 requires non-overlapping src and dst
	if overlaps(src, tail) {
		tail = nil
	}
	got := s2.Encode(tail, src)
	if len(dst) == 0 {
		return got
	}
	if len(tail) > 0 && len(got) > 0 && &tail[0] == &got[0] {
		return dst[:len(dst)+len(got)]
	}
	return append(dst, got...)
}

func (s2Compressor) Name() string { return "s2" }

type gzipCompressor struct {
	level int
}

func (g gzipCompressor) Compress(src, dst []byte) []byte {
	out := bytes.NewBuffer(dst)
	w, err := gzip.NewWriterLevel(out, g.level)
	if err != nil {
		panic(err) // level is fixed by Compression
	}
	// writes to a bytes.Buffer cannot fail
	w.Write(src)
	w.Close()
	return out.Bytes()
}

func (gzipCompressor) Name() string { return "gzip" }

// Compression selects a compression algorithm by name.
// The returned Compressor will return the same value
// for Compressor.Name as the specified name, except
// that "zstd-better" reports "zstd".
func Compression(name string) Compressor {
	switch name {
	case "zstd-better":
		z, _ := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithEncoderConcurrency(1))
		return zstdCompressor{z}
	case "zstd":
		z, _ := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		return zstdCompressor{z}
	case "s2":
		return s2Compressor{}
	case "gzip":
		return gzipCompressor{level: gzip.BestCompression}
	default:
		return nil
	}
}

// Decode decompresses src, a complete stream produced
// by the named algorithm, and appends the result to dst.
func Decode(name string, src, dst []byte) ([]byte, error) {
	switch name {
	case "", "none":
		return append(dst, src...), nil
	case "zstd":
		return zstdDecoder.DecodeAll(src, dst)
	case "s2":
		n, err := s2.DecodedLen(src)
		if err != nil {
			return dst, fmt.Errorf("s2 decompress: %w", err)
		}
		out, err := s2.Decode(make([]byte, n), src)
		if err != nil {
			return dst, fmt.Errorf("s2 decompress: %w", err)
		}
		return append(dst, out...), nil
	}
	r, err := NewReader(name, bytes.NewReader(src))
	if err != nil {
		return dst, err
	}
	defer r.Close()
	out := bytes.NewBuffer(dst)
	_, err = io.Copy(out, r)
	return out.Bytes(), err
}

type zstdReader struct {
	*zstd.Decoder
}

func (z zstdReader) Close() error {
	z.Decoder.Close()
	return nil
}

// NewReader returns a reader that decompresses the
// named algorithm from r. The name "none" (or "")
// returns r unchanged.
func NewReader(name string, r io.Reader) (io.ReadCloser, error) {
	switch name {
	case "", "none":
		return io.NopCloser(r), nil
	case "zstd":
		d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return zstdReader{d}, nil
	case "s2":
		// s2Compressor writes the block format, which
		// carries no framing and has to be decoded whole
		src, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		out, err := Decode("s2", src, nil)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(out)), nil
	case "gzip":
		z, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return z, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknown, name)
}

// ForPath returns the algorithm implied by the extension
// of a file name, or "none" if it has no known extension.
func ForPath(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".zst", ".zstd":
		return "zstd"
	case ".s2":
		return "s2"
	case ".gz":
		return "gzip"
	}
	return "none"
}

// Extension is the inverse of ForPath.
func Extension(name string) string {
	switch name {
	case "zstd", "zstd-better":
		return ".zst"
	case "s2":
		return ".s2"
	case "gzip":
		return ".gz"
	}
	return ""
}

func overlaps(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	a0 := uintptr(unsafe.Pointer(&a[0]))
	a1 := a0 + uintptr(len(a))
	b0 := uintptr(unsafe.Pointer(&b[0]))
	b1 := b0 + uintptr(len(b))
	return a0 < b1 && b0 < a1
}
