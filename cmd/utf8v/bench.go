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

package main

import (
	"fmt"
	"io"
	"os"
	"time"
	stdutf8 "unicode/utf8"

	"github.com/SnellerInc/fastutf8/utf8"
)

// measure returns the fastest run of fn over
// repeated calls for (at least once and) up to d.
func measure(d time.Duration, fn func()) time.Duration {
	var min time.Duration
	deadline := time.Now().Add(d)
	for min == 0 || time.Now().Before(deadline) {
		start := time.Now()
		fn()
		dur := time.Since(start)
		if min == 0 || dur < min {
			min = dur
		}
		if dur == 0 {
			// clock granularity
			min = 1
		}
	}
	return min
}

func gbps(size int, d time.Duration) float64 {
	return float64(size) / float64(d)
}

type variant struct {
	name string
	fn   func([]byte) bool
}

func variants(all bool) []variant {
	var out []variant
	pen := penalty()
	for _, w := range widths(all) {
		v := utf8.Validator{Width: w, Penalty: pen}
		name := w.String()
		if pen != nil {
			name += "+penalty"
		}
		out = append(out, variant{
			name: name,
			fn:   func(buf []byte) bool { return v.Validate(buf) == nil },
		})
	}
	return append(out, variant{name: "std", fn: stdutf8.Valid})
}

func benchText(w io.Writer, text []byte, d time.Duration) {
	for _, v := range variants(true) {
		var ok bool
		min := measure(d, func() { ok = v.fn(text) })
		fmt.Fprintf(w, "%-16s %10s %8.3g GB/s valid=%v\n", v.name, min, gbps(len(text), min), ok)
	}
}

func init() {
	addApplet(applet{
		name: "bench",
		help: "[-t duration] [-w width] [-penalty] <file>",
		desc: `measure validation throughput
The command
  $ utf8v bench -t 3s text.zst
validates the (decompressed) file repeatedly for the given
duration with every word group width and with the
standard library validator, and prints the best time
and throughput of each. Use -w to measure one width only.
`,
		run: func(args []string) bool {
			if len(args) != 2 {
				return false
			}
			text, err := readInput(args[1])
			if err != nil {
				exitf("%s", err)
			}
			benchText(os.Stdout, text, measureTime())
			return true
		},
	})
}
