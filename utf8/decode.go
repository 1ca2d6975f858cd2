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

// continuation reports whether b is 10xxxxxx.
// As a signed byte, every continuation byte is <= -65.
func continuation(b byte) bool {
	return int8(b) < -64
}

// firstContinuation reports whether b may follow lead
// as the first continuation byte. The narrowed ranges
// reject overlong encodings (E0, F0), UTF-16 surrogates (ED)
// and code points above U+10FFFF (F4).
func firstContinuation(lead, b byte) bool {
	switch lead {
	case 0xE0:
		return b >= 0xA0 && b <= 0xBF
	case 0xED:
		return b >= 0x80 && b <= 0x9F
	case 0xF0:
		return b >= 0x90 && b <= 0xBF
	case 0xF4:
		return b >= 0x80 && b <= 0x8F
	default:
		return continuation(b)
	}
}

// decode validates the multi-byte sequence whose lead byte
// is buf[cur] (buf[cur] >= 0x80).
//
// On success it returns the position just past the sequence.
// Otherwise errlen is the number of bytes forming the
// maximal invalid subpart (1..3), or 0 if buf ends before
// the sequence could be completed.
func decode(buf []byte, cur int) (next, errlen int, ok bool) {
	end := len(buf)
	lead := buf[cur]
	switch charWidth[lead] {
	case 2:
		if cur+1 >= end {
			return cur, 0, false
		}
		if !continuation(buf[cur+1]) {
			return cur, 1, false
		}
		return cur + 2, 0, true
	case 3:
		if cur+1 >= end {
			return cur, 0, false
		}
		if !firstContinuation(lead, buf[cur+1]) {
			return cur, 1, false
		}
		if cur+2 >= end {
			return cur, 0, false
		}
		if !continuation(buf[cur+2]) {
			return cur, 2, false
		}
		return cur + 3, 0, true
	case 4:
		if cur+1 >= end {
			return cur, 0, false
		}
		if !firstContinuation(lead, buf[cur+1]) {
			return cur, 1, false
		}
		if cur+2 >= end {
			return cur, 0, false
		}
		if !continuation(buf[cur+2]) {
			return cur, 2, false
		}
		if cur+3 >= end {
			return cur, 0, false
		}
		if !continuation(buf[cur+3]) {
			return cur, 3, false
		}
		return cur + 4, 0, true
	default:
		// stray continuation byte, C0/C1 or F5..FF
		return cur, 1, false
	}
}
