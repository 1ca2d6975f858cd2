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

	"github.com/SnellerInc/fastutf8/internal/corpus"
	"github.com/SnellerInc/fastutf8/utf8"
)

func runCorpus(manifest string) {
	m, l, err := corpus.Open(manifest)
	if err != nil {
		exitf("%s", err)
	}
	l.Logf = logf
	m.Sort()
	logf("languages: %v", m.Languages())
	d := measureTime()
	unexpected := 0
	for i := range m.Corpora {
		e := &m.Corpora[i]
		text, err := l.Load(e)
		if err != nil {
			exitf("%s", err)
		}
		var st utf8.Stats
		v := utf8.Validator{Width: widths(false)[0], Penalty: penalty(), Stats: &st}
		err = v.Validate(text)
		if (err != nil) != e.Invalid {
			unexpected++
			fmt.Fprintf(os.Stderr, "%s: expected invalid=%v, got %v\n", e.Name, e.Invalid, err)
		}
		printStats(os.Stdout, e.Name+" "+e.Group(corpus.Describe(text)), &st)
		if dashbench {
			benchText(os.Stdout, text, d)
		}
	}
	if unexpected > 0 {
		exitf("%d of %d texts had unexpected results", unexpected, len(m.Corpora))
	}
}

func init() {
	addApplet(applet{
		name: "corpus",
		help: "[-bench] [-t duration] <manifest>",
		desc: `validate every text of a corpus manifest
The command
  $ utf8v corpus -bench texts/corpus.yaml
reads a manifest (YAML or JSON) of the form

  corpora:
    - name: faust
      language: german
      path: german/faust.txt.zst
      blake2b: 5d1c...
    - path: broken.txt
      invalid: true

loads every text (checking its BLAKE2b sum if present),
validates it and prints fast path statistics per text.
With -bench, the throughput of each variant is measured too.
`,
		run: func(args []string) bool {
			if len(args) != 2 {
				return false
			}
			runCorpus(args[1])
			return true
		},
	})
}
