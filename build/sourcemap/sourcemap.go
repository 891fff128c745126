// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sourcemap builds Source Map v3 documents.
package sourcemap

import (
	"cmp"
	"encoding/base64"
	"encoding/json"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/gx-org/pyjs/base/ordered"
)

// Version of the source map format.
const Version = 3

// Mapping maps a position in the generated code to a position in a source.
// Lines and columns are zero-based.
type Mapping struct {
	GenLine, GenCol int
	Source          string
	SrcLine, SrcCol int
	// Name is the original name of the mapped symbol, if any.
	Name string
}

// Map is a Source Map v3 document.
type Map struct {
	Version        int       `json:"version"`
	File           string    `json:"file"`
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent,omitempty"`
	Names          []string  `json:"names"`
	Mappings       string    `json:"mappings"`
}

// JSON returns the JSON encoding of the map.
func (m *Map) JSON() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// Comment returns the comment linking generated code to a source map file.
func Comment(url string) string {
	return "//# sourceMappingURL=" + url
}

// InlineComment returns the comment embedding the map in the generated code.
func (m *Map) InlineComment() (string, error) {
	data, err := m.JSON()
	if err != nil {
		return "", err
	}
	return Comment("data:application/json;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(data)), nil
}

// Builder accumulates mappings and sources.
type Builder struct {
	file     string
	sources  *ordered.Map[string, *string]
	mappings []Mapping
}

// NewBuilder returns a builder for the map of a generated file.
func NewBuilder(file string) *Builder {
	return &Builder{
		file:    file,
		sources: ordered.NewMap[string, *string](),
	}
}

// AddSource registers a source file. content is embedded in the map if not nil.
func (b *Builder) AddSource(name string, content *string) {
	b.sources.Store(name, content)
}

// AddMapping records a mapping. Its source is registered if required.
func (b *Builder) AddMapping(m Mapping) {
	if _, ok := b.sources.Load(m.Source); !ok {
		b.sources.Store(m.Source, nil)
	}
	b.mappings = append(b.mappings, m)
}

// Shift moves all the generated positions by a number of lines.
func (b *Builder) Shift(lines int) {
	for i := range b.mappings {
		b.mappings[i].GenLine += lines
	}
}

// Mappings returns the recorded mappings.
func (b *Builder) Mappings() []Mapping {
	return slices.Clone(b.mappings)
}

// Build encodes the map document.
func (b *Builder) Build() (*Map, error) {
	mappings := slices.Clone(b.mappings)
	slices.SortStableFunc(mappings, func(x, y Mapping) int {
		return cmp.Or(cmp.Compare(x.GenLine, y.GenLine), cmp.Compare(x.GenCol, y.GenCol))
	})
	names := ordered.NewMap[string, struct{}]()
	var enc strings.Builder
	var prevSource, prevSrcLine, prevSrcCol, prevName int
	line, prevGenCol := 0, 0
	for i, m := range mappings {
		if m.GenLine < 0 || m.GenCol < 0 || m.SrcLine < 0 || m.SrcCol < 0 {
			return nil, errors.Errorf("invalid mapping %+v", m)
		}
		if i > 0 && m.GenLine == line {
			enc.WriteByte(',')
		}
		for ; line < m.GenLine; line++ {
			enc.WriteByte(';')
			prevGenCol = 0
		}
		source, _ := b.sources.Index(m.Source)
		EncodeVLQ(&enc, m.GenCol-prevGenCol)
		EncodeVLQ(&enc, source-prevSource)
		EncodeVLQ(&enc, m.SrcLine-prevSrcLine)
		EncodeVLQ(&enc, m.SrcCol-prevSrcCol)
		prevGenCol, prevSource, prevSrcLine, prevSrcCol = m.GenCol, source, m.SrcLine, m.SrcCol
		if m.Name != "" {
			name := names.Intern(m.Name)
			EncodeVLQ(&enc, name-prevName)
			prevName = name
		}
	}
	out := &Map{
		Version:  Version,
		File:     b.file,
		Sources:  b.sources.KeySlice(),
		Names:    names.KeySlice(),
		Mappings: enc.String(),
	}
	for content := range b.sources.Values() {
		if content != nil {
			out.SourcesContent = slices.Collect(b.sources.Values())
			break
		}
	}
	return out, nil
}

// Segment is a decoded mapping segment. Fields are absolute values.
type Segment struct {
	GenCol, Source, SrcLine, SrcCol int
	// Name is the index of the name or -1.
	Name int
}

// DecodeMappings decodes a mappings string into segments grouped by generated line.
func DecodeMappings(s string) ([][]Segment, error) {
	var lines [][]Segment
	var source, srcLine, srcCol, name int
	for _, lineText := range strings.Split(s, ";") {
		var segs []Segment
		genCol := 0
		for _, segText := range strings.Split(lineText, ",") {
			if segText == "" {
				continue
			}
			var fields []int
			for len(segText) > 0 {
				v, n, err := DecodeVLQ(segText)
				if err != nil {
					return nil, err
				}
				fields = append(fields, v)
				segText = segText[n:]
			}
			if len(fields) != 4 && len(fields) != 5 {
				return nil, errors.Errorf("segment with %d fields: want 4 or 5", len(fields))
			}
			genCol += fields[0]
			source += fields[1]
			srcLine += fields[2]
			srcCol += fields[3]
			seg := Segment{GenCol: genCol, Source: source, SrcLine: srcLine, SrcCol: srcCol, Name: -1}
			if len(fields) == 5 {
				name += fields[4]
				seg.Name = name
			}
			segs = append(segs, seg)
		}
		lines = append(lines, segs)
	}
	return lines, nil
}
