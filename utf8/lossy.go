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

// Replacement is the UTF-8 encoding of U+FFFD,
// the Unicode replacement character.
const Replacement = "\uFFFD"

// NextChunk splits buf into its longest valid prefix, the
// invalid unit that follows it and the remaining input.
//
// The invalid unit is ValidationError.ErrorLen bytes long, or
// all of the remaining input if buf ends in an incomplete
// sequence. If buf is entirely valid, invalid and rest are empty.
//
// Repeatedly calling NextChunk on rest visits the whole input:
//
//	for len(buf) > 0 {
//		valid, invalid, rest := utf8.NextChunk(buf)
//		...
//		buf = rest
//	}
func NextChunk(buf []byte) (valid, invalid, rest []byte) {
	n, errlen, ok := ValidPrefix(buf)
	if ok {
		return buf, nil, nil
	}
	if errlen == 0 {
		return buf[:n], buf[n:], nil
	}
	return buf[:n], buf[n : n+errlen], buf[n+errlen:]
}

// AppendLossy appends src to dst, replacing every invalid
// unit (as reported by NextChunk) with a single U+FFFD.
func AppendLossy(dst, src []byte) []byte {
	for len(src) > 0 {
		valid, invalid, rest := NextChunk(src)
		dst = append(dst, valid...)
		if len(invalid) > 0 {
			dst = append(dst, Replacement...)
		}
		src = rest
	}
	return dst
}

// CountInvalid returns the number of invalid units in buf,
// i.e. the number of replacements AppendLossy would make.
func CountInvalid(buf []byte) int {
	n := 0
	for len(buf) > 0 {
		_, invalid, rest := NextChunk(buf)
		if len(invalid) > 0 {
			n++
		}
		buf = rest
	}
	return n
}
