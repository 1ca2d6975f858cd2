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

package corpus

import (
	"fmt"

	"github.com/SnellerInc/fastutf8/ints"
	"github.com/SnellerInc/fastutf8/utf8"
)

// Profile summarizes the composition of a text.
type Profile struct {
	Size  int // bytes
	ASCII int // bytes < 0x80
	Runes int // 0 unless the text is valid UTF-8
}

// Describe computes the Profile of text.
func Describe(text []byte) Profile {
	p := Profile{
		Size:  len(text),
		ASCII: len(text) - utf8.CountNonASCII(text),
	}
	if utf8.Valid(text) {
		p.Runes = utf8.ValidStringLength(text)
	}
	return p
}

// ASCIIPercent is the share of ASCII bytes, rounded down.
func (p Profile) ASCIIPercent() int {
	return ints.Percent(p.ASCII, p.Size)
}

var sizeUnits = []string{"b", "kb", "mb", "gb", "tb"}

// SizeLabel formats n bytes with decimal units,
// truncating: 16240 is "16kb" and 999 is "999b".
func SizeLabel(n int) string {
	i := 0
	for n >= 1000 && i < len(sizeUnits)-1 {
		n /= 1000
		i++
	}
	return fmt.Sprintf("%d%s", n, sizeUnits[i])
}

// Group returns the label under which results for e
// are reported, e.g. "german/16kb/98pct-ascii".
func (e *Entry) Group(p Profile) string {
	lang := e.Language
	if lang == "" {
		lang = "unknown"
	}
	return fmt.Sprintf("%s/%s/%dpct-ascii", lang, SizeLabel(p.Size), p.ASCIIPercent())
}
