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
	"math/bits"
	"runtime"
	"unsafe"

	"golang.org/x/sys/cpu"
)

func init() {
	addApplet(applet{
		name: "cpu",
		help: "",
		desc: `print the properties of this machine relevant to the fast path`,
		run: func(args []string) bool {
			fmt.Printf("arch: %s\n", runtime.GOARCH)
			fmt.Printf("word size: %d bytes\n", bits.UintSize/8)
			fmt.Printf("cache line pad: %d bytes\n", unsafe.Sizeof(cpu.CacheLinePad{}))
			switch runtime.GOARCH {
			case "amd64", "386":
				fmt.Printf("sse4.2: %v avx2: %v avx512bw: %v\n",
					cpu.X86.HasSSE42, cpu.X86.HasAVX2, cpu.X86.HasAVX512BW)
			case "arm64":
				fmt.Printf("asimd: %v\n", cpu.ARM64.HasASIMD)
			}
			return true
		},
	})
}
