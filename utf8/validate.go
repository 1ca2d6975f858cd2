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

	"github.com/SnellerInc/fastutf8/ints"
)

// ValidationError describes why a buffer is not well-formed UTF-8.
type ValidationError struct {
	// ValidUpTo is the length of the longest prefix
	// of the input that is valid UTF-8.
	ValidUpTo int
	// ErrorLen is the number of bytes starting at ValidUpTo
	// that form an invalid encoding (1, 2 or 3). Callers doing
	// lossy recovery skip this many bytes and resume.
	//
	// ErrorLen is 0 when the input ended in the middle of
	// a sequence that more input could still complete.
	ErrorLen int
}

// Incomplete returns true if the input ended in the middle
// of a multi-byte sequence rather than containing a
// definitely malformed one.
func (e *ValidationError) Incomplete() bool { return e.ErrorLen == 0 }

func (e *ValidationError) Error() string {
	if e.Incomplete() {
		return fmt.Sprintf("incomplete utf-8 byte sequence from index %d", e.ValidUpTo)
	}
	return fmt.Sprintf("invalid utf-8 sequence of %d bytes from index %d", e.ErrorLen, e.ValidUpTo)
}

// Width selects the word group sizes used by the ASCII fast path.
type Width int

const (
	// Cascade tests groups of 8 words, then 4, then 2
	// as the remaining input shrinks.
	Cascade Width = 0
	// Width2 only tests groups of 2 words.
	Width2 Width = 2
	// Width4 only tests groups of 4 words.
	Width4 Width = 4
	// Width8 only tests groups of 8 words.
	Width8 Width = 8
)

func (w Width) String() string {
	switch w {
	case Cascade:
		return "cascade"
	case Width2, Width4, Width8:
		return fmt.Sprintf("%dx", int(w))
	default:
		return fmt.Sprintf("Width(%d)", int(w))
	}
}

// ParseWidth parses the output of Width.String.
func ParseWidth(s string) (Width, error) {
	switch s {
	case "cascade", "":
		return Cascade, nil
	case "2x":
		return Width2, nil
	case "4x":
		return Width4, nil
	case "8x":
		return Width8, nil
	}
	return Cascade, fmt.Errorf("utf8: unknown width %q (want cascade, 2x, 4x or 8x)", s)
}

// Validate is equivalent to Validator{Width: w}.Validate(buf).
func (w Width) Validate(buf []byte) error {
	v := Validator{Width: w}
	return v.Validate(buf)
}

// Penalty configures an adaptive back-off for inputs with a
// low share of ASCII text: every dirty word group raises a
// counter and every clean one lowers it, and once the counter
// reaches Limit the next Cooldown ASCII bytes are checked one
// at a time instead of in groups.
//
// The counter lives for a single call. A Penalty with
// Limit <= 0 or Cooldown <= 0 never backs off.
type Penalty struct {
	Limit    int
	Cooldown int
}

// DefaultPenalty is a starting point for text that is
// mostly non-ASCII (Greek, Cyrillic, CJK).
var DefaultPenalty = Penalty{Limit: 4, Cooldown: 256}

func (p *Penalty) enabled() bool {
	return p != nil && p.Limit > 0 && p.Cooldown > 0
}

// Validator is a configurable UTF-8 validator.
// The zero value behaves exactly like Validate.
//
// None of the options change the result of Validate;
// they only affect how the input is scanned.
type Validator struct {
	Width   Width
	Penalty *Penalty // nil disables back-off
	Stats   *Stats   // optional; updated additively
}

// Validate returns nil if buf is well-formed UTF-8,
// and a *ValidationError otherwise.
func (v *Validator) Validate(buf []byte) error {
	s := scanner{
		buf:   buf,
		align: alignOffset(buf),
		width: v.Width,
		pen:   v.Penalty,
		stats: v.Stats,
	}
	n, errlen, ok := s.run()
	if ok {
		return nil
	}
	return &ValidationError{ValidUpTo: n, ErrorLen: errlen}
}

// Validate returns nil if buf is well-formed UTF-8
// (RFC 3629), and a *ValidationError otherwise.
func Validate(buf []byte) error {
	n, errlen, ok := ValidPrefix(buf)
	if ok {
		return nil
	}
	return &ValidationError{ValidUpTo: n, ErrorLen: errlen}
}

// ValidateWithStats is Validate with an optional diagnostics
// accumulator. A nil stats is permitted.
func ValidateWithStats(buf []byte, stats *Stats) error {
	v := Validator{Stats: stats}
	return v.Validate(buf)
}

// Valid returns true if buf is well-formed UTF-8.
// It never allocates.
func Valid(buf []byte) bool {
	_, _, ok := ValidPrefix(buf)
	return ok
}

// ValidPrefix returns the length of the longest valid prefix
// of buf and true if that prefix is all of buf. Otherwise
// errlen has the meaning of ValidationError.ErrorLen.
// It never allocates.
func ValidPrefix(buf []byte) (n, errlen int, ok bool) {
	s := scanner{buf: buf, align: alignOffset(buf)}
	return s.run()
}

// scanner holds the state of one validation call.
type scanner struct {
	buf   []byte
	align int // result of alignOffset(buf)
	width Width
	pen   *Penalty
	stats *Stats

	penalty  int // dirty groups minus clean groups, floored at 0
	cooldown int // ASCII bytes left to check bytewise
}

func (s *scanner) run() (int, int, bool) {
	buf := s.buf
	if s.stats != nil {
		s.stats.Validations++
	}
	cur := 0
	for cur < len(buf) {
		if buf[cur] < runeSelf {
			cur = s.ascii(cur)
			continue
		}
		next, errlen, ok := decode(buf, cur)
		if !ok {
			if s.stats != nil {
				s.stats.Errors++
			}
			return cur, errlen, false
		}
		if s.stats != nil {
			s.stats.Sequences[next-cur]++
		}
		cur = next
	}
	return cur, 0, true
}

// ascii advances cur (which must sit on an ASCII byte)
// up to the next non-ASCII byte or the end of the buffer.
// It always advances by at least one byte.
func (s *scanner) ascii(cur int) int {
	if s.align < 0 {
		return s.bytewise(cur, len(s.buf))
	}
	if s.cooldown > 0 {
		next := s.bytewise(cur, ints.Min(len(s.buf), cur+s.cooldown))
		s.cooldown -= next - cur
		return next
	}

	buf := s.buf
	if steps := alignSteps(s.align, cur); steps != 0 {
		start := cur
		stop := ints.Min(len(buf), cur+steps)
		for cur < stop && buf[cur] < runeSelf {
			cur++
		}
		if s.stats != nil {
			s.stats.Unaligned += int64(cur - start)
		}
		if cur < start+steps {
			// hit a non-ASCII byte or the end
			return cur
		}
	}

	var dirty bool
	var words int
	switch s.width {
	case Width2, Width4, Width8:
		words = int(s.width)
		cur, dirty = s.groups(cur, words)
	default:
		for _, words = range [...]int{8, 4, 2} {
			cur, dirty = s.groups(cur, words)
			if dirty {
				break
			}
		}
	}
	if dirty {
		skip, _ := nonASCIIBytePosition(buf, cur, words)
		if s.stats != nil {
			s.stats.Located++
		}
		return cur + skip
	}
	// tail shorter than the smallest group
	return s.bytewise(cur, len(buf))
}

// groups skips clean groups of words native words starting at the
// word-aligned position cur. It stops at the first dirty group,
// returning its position and true, or when no further group fits.
func (s *scanner) groups(cur, words int) (int, bool) {
	size := words * wordSize
	last := ints.BlockEnd(len(s.buf), size)
	for cur < last {
		if hasNonASCII(s.buf, cur, words) {
			s.dirty(words)
			return cur, true
		}
		s.clean(words)
		cur += size
	}
	return cur, false
}

func (s *scanner) clean(words int) {
	if s.stats != nil {
		s.stats.blocks(words).Clean++
	}
	if s.penalty > 0 {
		s.penalty--
	}
}

func (s *scanner) dirty(words int) {
	if s.stats != nil {
		s.stats.blocks(words).Dirty++
	}
	if !s.pen.enabled() {
		return
	}
	s.penalty++
	if s.penalty >= s.pen.Limit {
		s.penalty = 0
		s.cooldown = s.pen.Cooldown
		if s.stats != nil {
			s.stats.Backoffs++
		}
	}
}

// bytewise advances cur over ASCII bytes, stopping at
// the first non-ASCII byte or at stop.
func (s *scanner) bytewise(cur, stop int) int {
	start := cur
	buf := s.buf
	for cur < stop && buf[cur] < runeSelf {
		cur++
	}
	if s.stats != nil {
		s.stats.Bytewise += int64(cur - start)
	}
	return cur
}
