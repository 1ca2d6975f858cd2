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

// Package ints provides integer alignment and bound arithmetic
// shared by the word-at-a-time scanners.
package ints

import (
	"golang.org/x/exp/constraints"
)

// IsAligned returns true if and only if v is an integer multiple of alignment
func IsAligned[T constraints.Unsigned](v, alignment T) bool {
	return v%alignment == 0
}

// AlignUp returns v aligned up to a given alignment.
func AlignUp[T constraints.Unsigned](v, alignment T) T {
	return ((v + alignment - 1) / alignment) * alignment
}

// AlignOffset returns the number of units that must be added
// to v in order to reach the next multiple of alignment.
// It returns 0 when v is already aligned.
func AlignOffset[T constraints.Unsigned](v, alignment T) T {
	return AlignUp(v, alignment) - v
}

// BlockEnd returns the exclusive upper bound for the starting
// position of a block of size units inside a buffer of end units:
// for every start < BlockEnd(end, size), start+size <= end.
// It returns 0 when no block of that size fits at all.
func BlockEnd[T constraints.Integer](end, size T) T {
	if end >= size {
		return end - size + 1
	}
	return 0
}
