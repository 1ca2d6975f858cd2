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

	"github.com/SnellerInc/fastutf8"
)

func init() {
	addApplet(applet{
		name: "version",
		help: "",
		desc: `print the version of this binary`,
		run: func(args []string) bool {
			v, ok := fastutf8.Version()
			if !ok {
				exitf("no version information available")
			}
			fmt.Println(v)
			return true
		},
	})
	addApplet(applet{
		name: "buildinfo",
		help: "",
		desc: `print the build information embedded in this binary`,
		run: func(args []string) bool {
			bi, ok := fastutf8.BuildInfo()
			if !ok {
				exitf("no build information available")
			}
			fmt.Print(bi.String())
			return true
		},
	})
}
