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
	"flag"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	dashv     bool
	dashh     bool
	dashlossy bool
	dashj     int
	dashw     string
	dasht     string
	dashc     string
	dashbench bool
	dashp     bool
)

func init() {
	flag.BoolVar(&dashv, "v", false, "verbose")
	flag.BoolVar(&dashh, "h", false, "show usage help")
	flag.BoolVar(&dashlossy, "lossy", false, "write input with invalid sequences replaced by U+FFFD to stdout (validate)")
	flag.IntVar(&dashj, "j", runtime.GOMAXPROCS(0), "number of files validated in parallel (validate)")
	flag.StringVar(&dashw, "w", os.Getenv(widthEnvVar), "word group width: cascade, 2x, 4x or 8x (default: all for bench; env "+widthEnvVar+")")
	flag.StringVar(&dasht, "t", "1s", "time spent measuring each variant (bench, corpus -bench)")
	flag.StringVar(&dashc, "c", "zstd", "compression algorithm: zstd, zstd-better, s2 or gzip (pack)")
	flag.BoolVar(&dashbench, "bench", false, "also measure throughput (corpus)")
	flag.BoolVar(&dashp, "penalty", false, "enable the penalty back-off (stats, corpus)")
}

type applet struct {
	name string
	help string
	desc string
	run  func(args []string) bool
}

var applets = make(map[string]*applet)

func addApplet(a applet) {
	if _, ok := applets[a.name]; ok {
		panic("duplicate applet " + a.name)
	}
	applets[a.name] = &a
}

func exitf(f string, args ...interface{}) {
	if f[len(f)-1] != '\n' {
		f += "\n"
	}
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func logf(f string, args ...interface{}) {
	if !dashv {
		return
	}
	if f[len(f)-1] != '\n' {
		f += "\n"
	}
	fmt.Fprintf(os.Stderr, f, args...)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage:\n")
	names := maps.Keys(applets)
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "    %s [flags] %s %s\n", os.Args[0], name, applets[name].help)
	}
	fmt.Fprintf(os.Stderr, "    %s help <command>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "flag usage:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 || dashh {
		usage()
		os.Exit(1)
	}
	if args[0] == "help" {
		if len(args) != 2 || applets[args[1]] == nil {
			usage()
			os.Exit(1)
		}
		a := applets[args[1]]
		fmt.Printf("%s %s\n%s\n", a.name, a.help, a.desc)
		return
	}
	a, ok := applets[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		usage()
		os.Exit(1)
	}
	if !a.run(args) {
		exitf("usage: %s %s", a.name, a.help)
	}
}
