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

	"github.com/SnellerInc/fastutf8/internal/corpus"
	"github.com/SnellerInc/fastutf8/utf8"
)

func printStats(w io.Writer, group string, st *utf8.Stats) {
	fmt.Fprintf(w, "==========%s==========\n", group)
	fmt.Fprintln(w, st.String())
	fmt.Fprintf(w, "8x: %.4f 4x: %.4f 2x: %.4f\n",
		st.SuccessRatio8x(), st.SuccessRatio4x(), st.SuccessRatio2x())
}

func statsFile(name string) {
	text, err := readInput(name)
	if err != nil {
		exitf("%s", err)
	}
	var st utf8.Stats
	v := utf8.Validator{Width: widths(false)[0], Penalty: penalty(), Stats: &st}
	err = v.Validate(text)
	p := corpus.Describe(text)
	e := corpus.Entry{Name: name}
	printStats(os.Stdout, e.Group(p), &st)
	if err != nil {
		fmt.Printf("%s: %s (%d invalid units)\n", name, err, utf8.CountInvalid(text))
		return
	}
	fmt.Printf("%s: %d bytes, %d runes\n", name, p.Size, p.Runes)
}

func init() {
	addApplet(applet{
		name: "stats",
		help: "[-w width] [-penalty] <file>...",
		desc: `print fast path statistics
The command
  $ utf8v stats -w 8x greek.txt
validates each file while collecting statistics about
the ASCII fast path: how many word groups of each size
were clean or dirty, how many bytes were checked one at a
time and how often the back-off engaged (with -penalty).
`,
		run: func(args []string) bool {
			if len(args) < 2 {
				return false
			}
			for _, name := range args[1:] {
				statsFile(name)
			}
			return true
		},
	})
}
