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

// Package corpus loads the text collections that the
// validator is measured against. A manifest lists the
// files of a corpus together with the language they are
// written in and a checksum of their decompressed text.
package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/slices"
	"sigs.k8s.io/yaml"
)

// Entry describes one text of a corpus.
type Entry struct {
	// Name identifies the text; it defaults to Path.
	Name string `json:"name,omitempty"`
	// Language is a free-form label used to group results.
	Language string `json:"language,omitempty"`
	// Path is relative to the directory of the manifest.
	Path string `json:"path"`
	// Compression is the algorithm the file is stored with.
	// If empty, it is derived from the file extension.
	Compression string `json:"compression,omitempty"`
	// BLAKE2b is the hex-encoded BLAKE2b-256 sum
	// of the decompressed text. Optional.
	BLAKE2b string `json:"blake2b,omitempty"`
	// Invalid marks texts that are expected
	// to fail validation.
	Invalid bool `json:"invalid,omitempty"`
}

// Manifest is the decoded form of a corpus manifest.
type Manifest struct {
	Corpora []Entry `json:"corpora"`
}

// DecodeManifest decodes a manifest from src.
// The extension ext (".json", ".yaml" or ".yml")
// selects the format.
func DecodeManifest(src io.Reader, ext string) (*Manifest, error) {
	buf, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	m := new(Manifest)
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.DisallowUnknownFields()
		err = dec.Decode(m)
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(buf, m)
	default:
		return nil, fmt.Errorf("corpus: unsupported manifest format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("corpus: decoding manifest: %w", err)
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) check() error {
	seen := make(map[string]struct{}, len(m.Corpora))
	for i := range m.Corpora {
		e := &m.Corpora[i]
		if e.Path == "" {
			return fmt.Errorf("corpus: entry %d has no path", i)
		}
		if e.Name == "" {
			e.Name = e.Path
		}
		if _, ok := seen[e.Name]; ok {
			return fmt.Errorf("corpus: duplicate entry %q", e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	return nil
}

// Sort orders the entries by language, then by name.
func (m *Manifest) Sort() {
	slices.SortFunc(m.Corpora, func(a, b Entry) bool {
		if a.Language != b.Language {
			return a.Language < b.Language
		}
		return a.Name < b.Name
	})
}

// Languages returns the distinct languages in the manifest, sorted.
func (m *Manifest) Languages() []string {
	var out []string
	for i := range m.Corpora {
		out = append(out, m.Corpora[i].Language)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
