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
	"os"

	"github.com/SnellerInc/fastutf8/compr"
	"github.com/SnellerInc/fastutf8/internal/corpus"
	"github.com/SnellerInc/fastutf8/utf8"
)

func pack(in, out string) {
	text, err := readInput(in)
	if err != nil {
		exitf("%s", err)
	}
	c := compr.Compression(dashc)
	if c == nil {
		exitf("unknown compression %q", dashc)
	}
	if compr.ForPath(out) != c.Name() {
		out += compr.Extension(c.Name())
	}
	if err := os.WriteFile(out, c.Compress(text, nil), 0644); err != nil {
		exitf("%s", err)
	}
	fmt.Printf("  - path: %s\n", out)
	fmt.Printf("    compression: %s\n", c.Name())
	fmt.Printf("    blake2b: %s\n", corpus.Sum(text))
	if !utf8.Valid(text) {
		fmt.Printf("    invalid: true\n")
	}
}

func init() {
	addApplet(applet{
		name: "pack",
		help: "[-c algo] <input> <output>",
		desc: `compress a text for use in a corpus
The command
  $ utf8v pack -c zstd faust.txt german/faust.txt
writes a compressed copy of the input (adding the
extension of the algorithm if the output lacks it)
and prints the corresponding manifest entry.
`,
		run: func(args []string) bool {
			if len(args) != 3 {
				return false
			}
			pack(args[1], args[2])
			return true
		},
	})
}
