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
	"fmt"
	"strings"
)

// BlockStats counts the word groups of one size
// tested by the ASCII fast path.
type BlockStats struct {
	Clean int64 // groups that were entirely ASCII
	Dirty int64 // groups that contained a non-ASCII byte
}

// SuccessRatio returns Clean / (Clean + Dirty),
// or 0 if no group of this size was tested.
func (b *BlockStats) SuccessRatio() float64 {
	total := b.Clean + b.Dirty
	if total == 0 {
		return 0
	}
	return float64(b.Clean) / float64(total)
}

// Stats is an optional diagnostics accumulator that
// can be passed to ValidateWithStats or Validator.
// Counters are only ever incremented; a Stats may be
// reused across calls to aggregate several buffers.
//
// A Stats must not be shared between goroutines
// without external synchronization; use one per
// goroutine and merge them with Add.
type Stats struct {
	Blocks8x BlockStats
	Blocks4x BlockStats
	Blocks2x BlockStats

	// Located is the number of dirty groups whose first
	// non-ASCII byte was found with the trailing-zero scan.
	Located int64
	// Unaligned is the number of ASCII bytes stepped over
	// one at a time to reach a word-aligned address.
	Unaligned int64
	// Bytewise is the number of ASCII bytes checked one at
	// a time because no word group fit (or during back-off).
	Bytewise int64
	// Sequences counts valid multi-byte sequences,
	// indexed by their encoded width (2, 3 or 4).
	Sequences [5]int64
	// Backoffs is the number of times the penalty
	// heuristic disabled group scanning.
	Backoffs int64
	// Validations and Errors count calls and failed calls.
	Validations int64
	Errors      int64
}

func (s *Stats) blocks(words int) *BlockStats {
	switch words {
	case 8:
		return &s.Blocks8x
	case 4:
		return &s.Blocks4x
	default:
		return &s.Blocks2x
	}
}

// Add accumulates o into s.
func (s *Stats) Add(o *Stats) {
	s.Blocks8x.Clean += o.Blocks8x.Clean
	s.Blocks8x.Dirty += o.Blocks8x.Dirty
	s.Blocks4x.Clean += o.Blocks4x.Clean
	s.Blocks4x.Dirty += o.Blocks4x.Dirty
	s.Blocks2x.Clean += o.Blocks2x.Clean
	s.Blocks2x.Dirty += o.Blocks2x.Dirty
	s.Located += o.Located
	s.Unaligned += o.Unaligned
	s.Bytewise += o.Bytewise
	for i := range s.Sequences {
		s.Sequences[i] += o.Sequences[i]
	}
	s.Backoffs += o.Backoffs
	s.Validations += o.Validations
	s.Errors += o.Errors
}

// SuccessRatio8x is the fraction of 8-word groups that were clean.
func (s *Stats) SuccessRatio8x() float64 { return s.Blocks8x.SuccessRatio() }

// SuccessRatio4x is the fraction of 4-word groups that were clean.
func (s *Stats) SuccessRatio4x() float64 { return s.Blocks4x.SuccessRatio() }

// SuccessRatio2x is the fraction of 2-word groups that were clean.
func (s *Stats) SuccessRatio2x() float64 { return s.Blocks2x.SuccessRatio() }

// GroupBytes returns the number of bytes skipped by
// clean word groups of any size.
func (s *Stats) GroupBytes() int64 {
	return (8*s.Blocks8x.Clean + 4*s.Blocks4x.Clean + 2*s.Blocks2x.Clean) * wordSize
}

func (s *Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "validations: %d (%d failed)\n", s.Validations, s.Errors)
	fmt.Fprintf(&b, "8x groups:   %d clean, %d dirty (%.3f)\n", s.Blocks8x.Clean, s.Blocks8x.Dirty, s.SuccessRatio8x())
	fmt.Fprintf(&b, "4x groups:   %d clean, %d dirty (%.3f)\n", s.Blocks4x.Clean, s.Blocks4x.Dirty, s.SuccessRatio4x())
	fmt.Fprintf(&b, "2x groups:   %d clean, %d dirty (%.3f)\n", s.Blocks2x.Clean, s.Blocks2x.Dirty, s.SuccessRatio2x())
	fmt.Fprintf(&b, "located:     %d\n", s.Located)
	fmt.Fprintf(&b, "unaligned:   %d bytes\n", s.Unaligned)
	fmt.Fprintf(&b, "bytewise:    %d bytes\n", s.Bytewise)
	fmt.Fprintf(&b, "sequences:   %d (2B), %d (3B), %d (4B)\n", s.Sequences[2], s.Sequences[3], s.Sequences[4])
	fmt.Fprintf(&b, "backoffs:    %d\n", s.Backoffs)
	return b.String()
}
