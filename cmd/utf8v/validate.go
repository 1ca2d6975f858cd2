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
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dchest/siphash"
	"golang.org/x/sys/cpu"

	"github.com/SnellerInc/fastutf8/utf8"
)

// fingerprint keys; the fingerprint only
// needs to be stable within one run
const (
	fpKey0 = 0x736e656c6c657275
	fpKey1 = 0x7466382d76616c69
)

type fingerprint [2]uint64

// paddedStats keeps per-worker counters
// on separate cache lines.
type paddedStats struct {
	utf8.Stats
	_ cpu.CacheLinePad
}

type result struct {
	name  string
	size  int
	err   error // I/O or *utf8.ValidationError
	same  string
	fixed []byte // lossy output, if requested
	bad   []byte // the invalid unit, if known
}

type cached struct {
	name string
	size int
	err  error
}

// dedupCache remembers the outcome of validating
// each distinct content fingerprint.
type dedupCache struct {
	lock sync.Mutex
	seen map[fingerprint]cached
}

func (d *dedupCache) get(fp fingerprint) (cached, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	c, ok := d.seen[fp]
	return c, ok
}

func (d *dedupCache) put(fp fingerprint, c cached) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if _, ok := d.seen[fp]; !ok {
		d.seen[fp] = c
	}
}

func validateOne(r *result, cache *dedupCache, st *utf8.Stats) {
	text, err := readInput(r.name)
	if err != nil {
		r.err = err
		return
	}
	r.size = len(text)
	if dashlossy {
		r.fixed = utf8.AppendLossy(make([]byte, 0, len(text)), text)
	}
	lo, hi := siphash.Hash128(fpKey0, fpKey1, text)
	fp := fingerprint{lo, hi}
	if c, ok := cache.get(fp); ok && c.size == len(text) {
		logf("%s: same content as %s", r.name, c.name)
		r.same = c.name
		r.err = c.err
	} else {
		v := utf8.Validator{Stats: st}
		r.err = v.Validate(text)
		cache.put(fp, cached{name: r.name, size: len(text), err: r.err})
	}
	var verr *utf8.ValidationError
	if errors.As(r.err, &verr) {
		r.bad = append([]byte(nil), badBytes(text, verr)...)
	}
}

// validateStream feeds src through a utf8.Stream
// instead of buffering it.
func validateStream(r *result, src io.Reader, st *utf8.Stats) {
	s := utf8.Stream{Validator: utf8.Validator{Stats: st}}
	var lw *lossyWriter
	var w io.Writer = &s
	if dashlossy {
		lw = &lossyWriter{s: &s}
		w = lw
	}
	n, err := io.Copy(w, src)
	r.size = int(n)
	if err == nil {
		err = s.Close()
	}
	if lw != nil {
		if len(lw.carried) > 0 {
			// incomplete trailing sequence
			lw.out.WriteString(utf8.Replacement)
		}
		r.fixed = lw.out.Bytes()
	}
	r.err = err
}

// lossyWriter collects valid text in out and replaces
// every invalid unit, without ever failing on bad input.
type lossyWriter struct {
	s       *utf8.Stream
	out     bytes.Buffer
	carried []byte
}

func (l *lossyWriter) Write(p []byte) (int, error) {
	buf := append(l.carried, p...)
	l.carried = nil
	for len(buf) > 0 {
		valid, invalid, rest := utf8.NextChunk(buf)
		l.out.Write(valid)
		if rest == nil && len(invalid) > 0 {
			if _, errlen, _ := utf8.ValidPrefix(invalid); errlen == 0 {
				// may be completed by the next write
				l.carried = append([]byte(nil), invalid...)
				break
			}
		}
		if len(invalid) > 0 {
			l.out.WriteString(utf8.Replacement)
		}
		buf = rest
	}
	// the stream records the first error for the exit status
	l.s.Write(p)
	return len(p), nil
}

// badBytes returns the invalid unit verr points at,
// or everything after ValidUpTo for an incomplete sequence.
func badBytes(text []byte, verr *utf8.ValidationError) []byte {
	if verr.ValidUpTo > len(text) {
		return nil
	}
	text = text[verr.ValidUpTo:]
	if verr.ErrorLen > 0 && verr.ErrorLen <= len(text) {
		text = text[:verr.ErrorLen]
	}
	return text
}

// validateAll validates every file with up to -j workers.
// The name "-" refers to stdin. Results are in argument order.
func validateAll(files []string, stdin io.Reader) ([]result, utf8.Stats) {
	results := make([]result, len(files))
	for i := range files {
		results[i].name = files[i]
	}
	workers := dashj
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}
	stats := make([]paddedStats, workers)
	cache := &dedupCache{seen: make(map[fingerprint]cached)}
	next := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(st *utf8.Stats) {
			defer wg.Done()
			for i := range next {
				logf("checking %s", results[i].name)
				if results[i].name == "-" {
					validateStream(&results[i], stdin, st)
					continue
				}
				validateOne(&results[i], cache, st)
			}
		}(&stats[w].Stats)
	}
	for i := range results {
		next <- i
	}
	close(next)
	wg.Wait()

	var total utf8.Stats
	for i := range stats {
		total.Add(&stats[i].Stats)
	}
	return results, total
}

// report writes the lossy output of every result to stdout
// in argument order and one line per failure to stderr.
// It returns true if any input failed.
func report(stdout, stderr io.Writer, results []result) (bool, error) {
	out := bufio.NewWriter(stdout)
	failed := false
	for i := range results {
		r := &results[i]
		out.Write(r.fixed)
		if r.err == nil {
			continue
		}
		failed = true
		if dashv && r.bad != nil {
			fmt.Fprintf(stderr, "%s: %s (% x)\n", r.name, r.err, r.bad)
			continue
		}
		fmt.Fprintf(stderr, "%s: %s\n", r.name, r.err)
	}
	return failed, out.Flush()
}

func validateFiles(files []string) {
	results, total := validateAll(files, os.Stdin)
	failed, err := report(os.Stdout, os.Stderr, results)
	if err != nil {
		exitf("%s", err)
	}
	dups := 0
	for i := range results {
		if results[i].same != "" {
			dups++
		}
	}
	logf("%d files (%d duplicates); %d clean 8x groups, %d multi-byte sequences",
		len(results), dups, total.Blocks8x.Clean,
		total.Sequences[2]+total.Sequences[3]+total.Sequences[4])
	if failed {
		os.Exit(1)
	}
}

func init() {
	addApplet(applet{
		name: "validate",
		help: "[-lossy] [-j n] <file>...",
		desc: `validate that each file is well-formed UTF-8
The command
  $ utf8v validate a.txt b.txt.zst -
checks every file (decompressed according to its
extension: .zst, .s2, .gz) and reports the offset of the
first invalid sequence of each invalid file on stderr.
The argument - reads stdin incrementally.

Files with identical contents are recognized by their
SipHash fingerprint and reported as such with -v.
With -lossy, the inputs are written to stdout with every
invalid sequence replaced by U+FFFD.

The exit status is 1 if any file is invalid.
`,
		run: func(args []string) bool {
			if len(args) < 2 {
				return false
			}
			validateFiles(args[1:])
			return true
		},
	})
}
