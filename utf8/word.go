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

package utf8

import (
	"encoding/binary"
	"math/bits"
	"unsafe"

	"github.com/SnellerInc/fastutf8/ints"
)

const (
	// wordSize is the width of a native machine word in bytes.
	wordSize = bits.UintSize / 8

	// nonASCIIMask isolates the high bit of every byte in a word.
	nonASCIIMask = ^uint(0) / 0xff * 0x80

	runeSelf = 0x80
)

// loadWord returns the native word stored at buf[i:i+wordSize].
//
// The caller must guarantee i+wordSize <= len(buf).
// Bytes are assembled in little-endian order on every
// platform, so the lowest-addressed byte always occupies
// the least significant bits and bits.TrailingZeros
// identifies the first byte in memory order.
func loadWord(buf []byte, i int) uint {
	if wordSize == 8 {
		return uint(binary.LittleEndian.Uint64(buf[i:]))
	}
	return uint(binary.LittleEndian.Uint32(buf[i:]))
}

// alignOffset returns the number of bytes between the
// start of buf and the first word-aligned address inside it,
// or -1 if buf has no addressable first byte.
func alignOffset(buf []byte) int {
	if len(buf) == 0 {
		return -1
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	if ints.IsAligned(addr, wordSize) {
		return 0
	}
	return int(ints.AlignOffset(addr, wordSize))
}

// alignSteps returns how many bytes the cursor at cur has
// to advance before it sits on a word-aligned address, given
// the buffer's alignOffset off.
func alignSteps(off, cur int) int {
	return (off - cur) & (wordSize - 1)
}

func hasNonASCII2(buf []byte, i int) bool {
	_ = buf[i+2*wordSize-1]
	w := loadWord(buf, i) | loadWord(buf, i+wordSize)
	return w&nonASCIIMask != 0
}

func hasNonASCII4(buf []byte, i int) bool {
	_ = buf[i+4*wordSize-1]
	w := loadWord(buf, i) |
		loadWord(buf, i+wordSize) |
		loadWord(buf, i+2*wordSize) |
		loadWord(buf, i+3*wordSize)
	return w&nonASCIIMask != 0
}

func hasNonASCII8(buf []byte, i int) bool {
	_ = buf[i+8*wordSize-1]
	lo := loadWord(buf, i) |
		loadWord(buf, i+wordSize) |
		loadWord(buf, i+2*wordSize) |
		loadWord(buf, i+3*wordSize)
	hi := loadWord(buf, i+4*wordSize) |
		loadWord(buf, i+5*wordSize) |
		loadWord(buf, i+6*wordSize) |
		loadWord(buf, i+7*wordSize)
	return (lo|hi)&nonASCIIMask != 0
}

// hasNonASCII reports whether the block of words native
// words starting at buf[i] contains a byte >= 0x80.
func hasNonASCII(buf []byte, i, words int) bool {
	switch words {
	case 8:
		return hasNonASCII8(buf, i)
	case 4:
		return hasNonASCII4(buf, i)
	default:
		return hasNonASCII2(buf, i)
	}
}

// nonASCIIBytePosition returns the number of consecutive ASCII
// bytes at the start of the block of words native words starting
// at buf[i], and true if a non-ASCII byte terminates that run.
//
// If the whole block is ASCII it returns words*wordSize and false.
func nonASCIIBytePosition(buf []byte, i, words int) (int, bool) {
	for k := 0; k < words; k++ {
		m := loadWord(buf, i+k*wordSize) & nonASCIIMask
		if m != 0 {
			return k*wordSize + bits.TrailingZeros(m)/8, true
		}
	}
	return words * wordSize, false
}

// charWidth is the UTF-8 encoded length implied by a lead byte
// (RFC 3629). Continuation bytes and bytes that can never
// appear in UTF-8 map to 0.
var charWidth = [256]uint8{
	// 1  2  3  4  5  6  7  8  9  A  B  C  D  E  F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 1
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 2
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 3
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 4
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 5
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 6
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 7
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 8
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 9
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // A
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // B
	0, 0, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // C
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // D
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, // E
	4, 4, 4, 4, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // F
}
