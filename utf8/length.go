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

// Package utf8 implements a word-at-a-time UTF-8 validator
// and related helpers.
//
// Runs of ASCII text are skipped in aligned groups of
// native machine words; multi-byte sequences are checked
// one at a time against the ranges of RFC 3629.
package utf8

import (
	"math/bits"
)

// ValidStringLength returns the number of runes in a valid UTF-8 string
func ValidStringLength(str []byte) int {
	n := len(str)
	continuation := 0
	// We count how many continuation bytes (0b10xx_xxxxxx) are there.
	// Then the remaining bytes are leading bytes, and it's the number of runes.

	// process one native word at once using a SWAR algorithm
	for len(str) >= wordSize {
		word := loadWord(str, 0)
		str = str[wordSize:]

		bit7 := word & nonASCIIMask
		if bit7 == 0 {
			continue
		}

		bit6 := word << 1
		comb := bit7 &^ bit6 // bit7 = 1 and bit6 = 0 => continuation byte
		continuation += bits.OnesCount(comb)
	}

	for _, b := range str {
		if b&0b11_000000 == 0b10_000000 {
			continuation++
		}
	}

	return n - continuation
}

// CountNonASCII returns the number of bytes >= 0x80 in buf.
// buf does not have to be valid UTF-8.
func CountNonASCII(buf []byte) int {
	n := 0
	for len(buf) >= wordSize {
		n += bits.OnesCount(loadWord(buf, 0) & nonASCIIMask)
		buf = buf[wordSize:]
	}
	for _, b := range buf {
		if b >= runeSelf {
			n++
		}
	}
	return n
}
