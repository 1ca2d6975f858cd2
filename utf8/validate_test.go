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
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	stdutf8 "unicode/utf8"
)

// reference is a straightforward RFC 3629 decoder used
// as the oracle for the word-at-a-time implementation.
func reference(buf []byte) (int, int, bool) {
	type span struct{ lo, hi byte }
	ranges := func(lead byte) (int, span) {
		switch {
		case lead < 0x80:
			return 1, span{}
		case lead >= 0xC2 && lead <= 0xDF:
			return 2, span{0x80, 0xBF}
		case lead == 0xE0:
			return 3, span{0xA0, 0xBF}
		case lead == 0xED:
			return 3, span{0x80, 0x9F}
		case lead >= 0xE1 && lead <= 0xEF:
			return 3, span{0x80, 0xBF}
		case lead == 0xF0:
			return 4, span{0x90, 0xBF}
		case lead >= 0xF1 && lead <= 0xF3:
			return 4, span{0x80, 0xBF}
		case lead == 0xF4:
			return 4, span{0x80, 0x8F}
		}
		return 0, span{}
	}
	i := 0
	for i < len(buf) {
		width, first := ranges(buf[i])
		if width == 0 {
			return i, 1, false
		}
		for k := 1; k < width; k++ {
			if i+k >= len(buf) {
				return i, 0, false
			}
			lo, hi := byte(0x80), byte(0xBF)
			if k == 1 {
				lo, hi = first.lo, first.hi
			}
			if b := buf[i+k]; b < lo || b > hi {
				return i, k, false
			}
		}
		i += width
	}
	return i, 0, true
}

var sharedStats Stats

// validators lists every configuration that must
// agree with Validate on every input.
var validators = map[string]func([]byte) error{
	"default":   Validate,
	"cascade":   Cascade.Validate,
	"2x":        Width2.Validate,
	"4x":        Width4.Validate,
	"8x":        Width8.Validate,
	"stats":     func(b []byte) error { return ValidateWithStats(b, &sharedStats) },
	"nil-stats": func(b []byte) error { return ValidateWithStats(b, nil) },
	"penalty": func(b []byte) error {
		v := Validator{Penalty: &Penalty{Limit: 1, Cooldown: 7}, Stats: &sharedStats}
		return v.Validate(b)
	},
	"penalty-8x": func(b []byte) error {
		v := Validator{Width: Width8, Penalty: &DefaultPenalty}
		return v.Validate(b)
	},
}

func checkAgainstReference(t *testing.T, buf []byte) {
	t.Helper()
	wantN, wantLen, wantOK := reference(buf)
	if wantOK != stdutf8.Valid(buf) {
		t.Fatalf("reference disagrees with unicode/utf8 on %x", buf)
	}
	for name, fn := range validators {
		err := fn(buf)
		if wantOK {
			if err != nil {
				t.Errorf("%s: %x: unexpected error %v", name, buf, err)
			}
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: %x: got %v, want *ValidationError", name, buf, err)
			continue
		}
		if verr.ValidUpTo != wantN || verr.ErrorLen != wantLen {
			t.Logf("want = {%d %d}", wantN, wantLen)
			t.Logf("got  = {%d %d}", verr.ValidUpTo, verr.ErrorLen)
			t.Errorf("%s: wrong result for %x", name, buf)
		}
	}
	n, errlen, ok := ValidPrefix(buf)
	if n != wantN || errlen != wantLen || ok != wantOK {
		t.Errorf("ValidPrefix(%x) = %d, %d, %v", buf, n, errlen, ok)
	}
	if Valid(buf) != wantOK {
		t.Errorf("Valid(%x) = %v", buf, !wantOK)
	}
}

func TestValidate(t *testing.T) {
	testcases := []struct {
		input  []byte
		ok     bool
		upto   int
		errlen int
	}{
		{input: []byte(""), ok: true},
		{input: []byte("Lorem ipsum dolor sit amet."), ok: true},
		{input: []byte("Lörem ipsüm dölör sit ämet."), ok: true},
		{input: []byte("A\xC3\xA9\x20\xF1\x20"), upto: 4, errlen: 1},
		{input: []byte("A\xC3\xA9\x20\xF1\x80\x20"), upto: 4, errlen: 2},
		{input: []byte("A\xC3\xA9\x20\xF1\x80\x80\x20"), upto: 4, errlen: 3},
		{input: []byte("abc\xE2\x82"), upto: 3, errlen: 0},
		{input: []byte("abc\xE2"), upto: 3, errlen: 0},
		{input: []byte("\xF0\x9F\x98"), upto: 0, errlen: 0},
		{input: []byte("\xF0\x9F\x98\x80"), ok: true},
		{input: []byte("\x80"), upto: 0, errlen: 1},
		{input: []byte("\xBF"), upto: 0, errlen: 1},
		{input: []byte("\xC0\x80"), upto: 0, errlen: 1},
		{input: []byte("\xC1\xBF"), upto: 0, errlen: 1},
		{input: []byte("\xE0\x80\x80"), upto: 0, errlen: 1},
		{input: []byte("\xE0\xA0\x80"), ok: true},
		{input: []byte("\xED\x9F\xBF"), ok: true},
		{input: []byte("\xED\xA0\x80"), upto: 0, errlen: 1},
		{input: []byte("\xEF\xBF\xBF"), ok: true},
		{input: []byte("\xF0\x8F\xBF\xBF"), upto: 0, errlen: 1},
		{input: []byte("\xF4\x8F\xBF\xBF"), ok: true},
		{input: []byte("\xF4\x90\x80\x80"), upto: 0, errlen: 1},
		{input: []byte("\xF5\x80\x80\x80"), upto: 0, errlen: 1},
		{input: []byte("\xFF"), upto: 0, errlen: 1},
		{input: []byte("\xE0\x80"), upto: 0, errlen: 1},
		{input: []byte("\xE1\x80\x41"), upto: 0, errlen: 2},
		{input: []byte("0123456789abcdef0123456789abcdef\xC3"), upto: 32, errlen: 0},
	}
	for i := range testcases {
		tc := &testcases[i]
		t.Run(fmt.Sprintf("case-%d", i), func(t *testing.T) {
			err := Validate(tc.input)
			if tc.ok {
				if err != nil {
					t.Fatalf("%x: unexpected error %v", tc.input, err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("%x: got %v, want *ValidationError", tc.input, err)
			}
			if verr.ValidUpTo != tc.upto || verr.ErrorLen != tc.errlen {
				t.Logf("want = {%d %d}", tc.upto, tc.errlen)
				t.Logf("got  = {%d %d}", verr.ValidUpTo, verr.ErrorLen)
				t.Errorf("wrong result for %x", tc.input)
			}
			if verr.Incomplete() != (tc.errlen == 0) {
				t.Errorf("Incomplete() = %v", verr.Incomplete())
			}
			checkAgainstReference(t, tc.input)
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	e := &ValidationError{ValidUpTo: 4, ErrorLen: 2}
	if got, want := e.Error(), "invalid utf-8 sequence of 2 bytes from index 4"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	e = &ValidationError{ValidUpTo: 7}
	if got, want := e.Error(), "incomplete utf-8 byte sequence from index 7"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// mixedText returns at least n bytes of valid text that is mostly
// ASCII with occasional two- and three-byte characters.
func mixedText(n int) []byte {
	const para = "Über den Wäldern liegt ein stiller Nebel, und die Straße führt " +
		"am Fluß entlang bis zur Brücke. Lorem ipsum dolor sit amet, consectetur " +
		"adipiscing elit. Señor Núñez zahlte 20 € für den Kaffee – ohne Milch.\n"
	var b bytes.Buffer
	for b.Len() < n {
		b.WriteString(para)
	}
	return b.Bytes()
}

func TestLongDocumentWithTrailingGarbage(t *testing.T) {
	doc := mixedText(16 * 1024)
	if err := Validate(doc); err != nil {
		t.Fatalf("document: %v", err)
	}
	bad := append(append([]byte{}, doc...), 0xFF)
	err := Validate(bad)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want *ValidationError", err)
	}
	if verr.ValidUpTo != len(doc) || verr.ErrorLen != 1 {
		t.Errorf("got {%d %d}, want {%d 1}", verr.ValidUpTo, verr.ErrorLen, len(doc))
	}
}

func TestTruncatedSequence(t *testing.T) {
	doc := append(mixedText(300), "€"...)
	// keep only the lead byte of the final three-byte sequence
	cut := doc[:len(doc)-2]
	err := Validate(cut)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want *ValidationError", err)
	}
	if !verr.Incomplete() || verr.ValidUpTo != len(doc)-3 {
		t.Errorf("got {%d %d}, want {%d 0}", verr.ValidUpTo, verr.ErrorLen, len(doc)-3)
	}
}

func TestAllTwoByteSequences(t *testing.T) {
	pre := []byte(strings.Repeat("x", 37))
	buf := make([]byte, 0, 128)
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			buf = append(buf[:0], pre...)
			buf = append(buf, byte(a), byte(b))
			checkAgainstReference(t, buf)
			buf = append(buf, "tail padding after the pair"...)
			checkAgainstReference(t, buf)
		}
	}
}

func TestLeadContinuationRanges(t *testing.T) {
	for lead := 0xC0; lead < 0x100; lead++ {
		for c := 0; c < 256; c++ {
			for _, rest := range []string{"\x80\x80", "\xBF\xBF", "\x80A", "A", "", "\x80"} {
				buf := append([]byte{byte(lead), byte(c)}, rest...)
				checkAgainstReference(t, buf)
			}
		}
	}
}

// pieces are the building blocks of randomly generated inputs.
var pieces = []string{
	"a", "hello", strings.Repeat("ascii-run ", 9), strings.Repeat("z", 64), strings.Repeat("q", 200),
	"é", "ß", "€", "ह", "𝄞", "😀", "\U0010FFFF", "�",
	"\x80", "\xBF", "\xC0\x80", "\xC3", "\xE2\x82", "\xED\xA0\x80", "\xE0\x9F\xBF",
	"\xF0\x8F\x80\x80", "\xF4\x90\x80\x80", "\xF5", "\xFF", "\xF0\x9F\x98",
}

func randomInput(rng *rand.Rand) []byte {
	var out []byte
	n := rng.Intn(24)
	for i := 0; i < n; i++ {
		p := pieces[rng.Intn(len(pieces))]
		// bias towards valid text so errors land deep in the buffer
		if rng.Intn(4) != 0 && !stdutf8.ValidString(p) {
			p = "valid"
		}
		out = append(out, p...)
	}
	return out
}

func TestRandomAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(0x5eed))
	for i := 0; i < 5000; i++ {
		checkAgainstReference(t, randomInput(rng))
		if t.Failed() {
			return
		}
	}
}

func TestPrefixIsLongestValid(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		buf := randomInput(rng)
		n, _, ok := ValidPrefix(buf)
		if !stdutf8.Valid(buf[:n]) {
			t.Fatalf("%x: prefix of %d bytes is not valid", buf, n)
		}
		if ok {
			continue
		}
		for k := n + 1; k <= len(buf); k++ {
			if stdutf8.Valid(buf[:k]) {
				t.Fatalf("%x: longer prefix of %d bytes is valid, got %d", buf, k, n)
			}
		}
	}
}

func TestAlignmentIndependence(t *testing.T) {
	base := mixedText(1000)
	inputs := [][]byte{
		base,
		append(append([]byte{}, base[:517]...), 0xFF),
		append(append([]byte{}, base[:100]...), 0xE2, 0x82),
		[]byte(strings.Repeat("a", 130) + "\xF1\x80\x20"),
		[]byte("short é"),
	}
	backing := make([]byte, 4096)
	for i, in := range inputs {
		want := fmt.Sprint(Validate(in))
		for off := 0; off <= 2*wordSize; off++ {
			buf := backing[off : off+len(in)]
			copy(buf, in)
			for name, fn := range validators {
				got := fmt.Sprint(fn(buf))
				if got != want {
					t.Errorf("input %d at offset %d (%s): got %s, want %s", i, off, name, got, want)
				}
			}
		}
	}
}

func TestStatsAccountForEveryASCIIByte(t *testing.T) {
	backing := make([]byte, 5000)
	for i := range backing {
		backing[i] = 'a' + byte(i%26)
	}
	for _, w := range []Width{Cascade, Width2, Width4, Width8} {
		for off := 0; off < wordSize; off++ {
			for _, n := range []int{0, 1, 7, 15, 16, 17, 63, 64, 65, 130, 4096} {
				buf := backing[off : off+n]
				var st Stats
				v := Validator{Width: w, Stats: &st}
				if err := v.Validate(buf); err != nil {
					t.Fatal(err)
				}
				covered := st.GroupBytes() + st.Unaligned + st.Bytewise
				if covered != int64(n) {
					t.Errorf("%s off=%d n=%d: stats cover %d bytes\n%s", w, off, n, covered, &st)
				}
				if st.Validations != 1 || st.Errors != 0 {
					t.Errorf("validations=%d errors=%d", st.Validations, st.Errors)
				}
			}
		}
	}
}

func TestStatsCounters(t *testing.T) {
	var st Stats
	buf := []byte(strings.Repeat("plain ascii text ", 100) + "é" + strings.Repeat("more ascii ", 50) + "\xFF")
	err := ValidateWithStats(buf, &st)
	if err == nil {
		t.Fatal("expected an error")
	}
	if st.Blocks8x.Clean == 0 {
		t.Error("expected clean 8x groups")
	}
	if st.Sequences[2] != 1 {
		t.Errorf("Sequences[2] = %d, want 1", st.Sequences[2])
	}
	if st.Errors != 1 || st.Validations != 1 {
		t.Errorf("validations=%d errors=%d", st.Validations, st.Errors)
	}

	var sum Stats
	sum.Add(&st)
	sum.Add(&st)
	if sum.Blocks8x.Clean != 2*st.Blocks8x.Clean || sum.Errors != 2 || sum.Sequences[2] != 2 {
		t.Errorf("Add did not accumulate:\n%s", &sum)
	}
	if r := (&Stats{}).SuccessRatio8x(); r != 0 {
		t.Errorf("empty ratio = %v", r)
	}
}

func TestPenaltyBackoff(t *testing.T) {
	var b bytes.Buffer
	for i := 0; i < 200; i++ {
		b.WriteString("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLM")
		b.WriteString("é")
	}
	buf := b.Bytes()
	var st Stats
	v := Validator{Penalty: &DefaultPenalty, Stats: &st}
	if err := v.Validate(buf); err != nil {
		t.Fatal(err)
	}
	if wordSize == 8 && st.Backoffs == 0 {
		t.Errorf("expected back-offs:\n%s", &st)
	}
	if st.Sequences[2] != 200 {
		t.Errorf("Sequences[2] = %d", st.Sequences[2])
	}
	// a disabled penalty never backs off
	st = Stats{}
	v = Validator{Penalty: &Penalty{}, Stats: &st}
	if err := v.Validate(buf); err != nil {
		t.Fatal(err)
	}
	if st.Backoffs != 0 {
		t.Errorf("Backoffs = %d with a zero penalty", st.Backoffs)
	}
}

func TestParseWidth(t *testing.T) {
	for _, w := range []Width{Cascade, Width2, Width4, Width8} {
		got, err := ParseWidth(w.String())
		if err != nil || got != w {
			t.Errorf("ParseWidth(%q) = %v, %v", w.String(), got, err)
		}
	}
	if _, err := ParseWidth("16x"); err == nil {
		t.Error("expected an error for 16x")
	}
}

func TestValidDoesNotAllocate(t *testing.T) {
	buf := mixedText(4096)
	bad := append(append([]byte{}, buf...), 0xC3)
	allocs := testing.AllocsPerRun(100, func() {
		Valid(buf)
		Valid(bad)
		ValidPrefix(bad)
	})
	if allocs != 0 {
		t.Errorf("got %v allocations", allocs)
	}
}
