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
	"io"
	"os"
	"time"

	"github.com/SnellerInc/fastutf8/compr"
	"github.com/SnellerInc/fastutf8/utf8"
)

// widthEnvVar overrides the default of -w.
const widthEnvVar = "FASTUTF8_WIDTH"

// readInput returns the contents of the named file,
// decompressed according to its extension,
// or all of stdin for "-".
func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return compr.Decode(compr.ForPath(name), raw, nil)
}

// widths returns the widths selected by -w,
// or every width if -w is empty and all is set.
func widths(all bool) []utf8.Width {
	if dashw == "" && all {
		return []utf8.Width{utf8.Cascade, utf8.Width2, utf8.Width4, utf8.Width8}
	}
	w, err := utf8.ParseWidth(dashw)
	if err != nil {
		exitf("%s", err)
	}
	return []utf8.Width{w}
}

func penalty() *utf8.Penalty {
	if dashp {
		p := utf8.DefaultPenalty
		return &p
	}
	return nil
}

func measureTime() time.Duration {
	d, err := time.ParseDuration(dasht)
	if err != nil {
		exitf("bad -t: %s", err)
	}
	return d
}
