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

// Stream validates UTF-8 text delivered in arbitrary chunks.
// A multi-byte sequence may be split across calls to Write;
// the (at most three) bytes of an unfinished sequence are
// held until the next Write or Close.
//
// Offsets in errors returned by a Stream are relative to
// the first byte ever written to it. After an error, every
// further call returns the same error.
//
// The zero value is ready to use.
type Stream struct {
	Validator Validator

	off     int     // stream offset of pending[0], or of the next byte when npend == 0
	pending [3]byte // unfinished sequence carried between writes
	npend   int
	err     *ValidationError
}

// Offset returns the number of bytes known to be valid so far.
func (s *Stream) Offset() int { return s.off }

// Write validates p as the continuation of everything
// written before. It returns len(p) and nil unless p
// contains a malformed sequence, in which case n is the
// number of bytes of p that precede the invalid one.
func (s *Stream) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	total := len(p)
	if s.npend > 0 {
		// pending[0] is a valid lead byte, so the
		// width of the unfinished sequence is known
		width := int(charWidth[s.pending[0]])
		var tmp [4]byte
		n := copy(tmp[:], s.pending[:s.npend])
		k := copy(tmp[n:width], p)
		_, errlen, ok := s.validate(tmp[:n+k])
		switch {
		case ok:
			p = p[k:]
			s.off += width
			s.npend = 0
		case errlen == 0:
			// still incomplete: p was too short to finish it
			s.npend += copy(s.pending[s.npend:], p)
			return total, nil
		default:
			s.err = &ValidationError{ValidUpTo: s.off, ErrorLen: errlen}
			return 0, s.err
		}
	}
	valid, errlen, ok := s.validate(p)
	if ok {
		s.off += len(p)
		return total, nil
	}
	if errlen == 0 {
		s.npend = copy(s.pending[:], p[valid:])
		s.off += valid
		return total, nil
	}
	s.err = &ValidationError{ValidUpTo: s.off + valid, ErrorLen: errlen}
	s.off += valid
	return total - len(p) + valid, s.err
}

// Close reports an error if the stream ended in
// the middle of a multi-byte sequence.
func (s *Stream) Close() error {
	if s.err != nil {
		return s.err
	}
	if s.npend > 0 {
		s.err = &ValidationError{ValidUpTo: s.off, ErrorLen: 0}
		return s.err
	}
	return nil
}

// Reset discards all state, keeping the Validator configuration.
func (s *Stream) Reset() {
	*s = Stream{Validator: s.Validator}
}

func (s *Stream) validate(p []byte) (int, int, bool) {
	sc := scanner{
		buf:   p,
		align: alignOffset(p),
		width: s.Validator.Width,
		pen:   s.Validator.Penalty,
		stats: s.Validator.Stats,
	}
	return sc.run()
}
