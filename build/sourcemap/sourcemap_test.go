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

package sourcemap_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/pyjs/build/sourcemap"
)

func TestVLQ(t *testing.T) {
	tests := []struct {
		v    int
		want string
	}{
		{v: 0, want: "A"},
		{v: 1, want: "C"},
		{v: -1, want: "D"},
		{v: 15, want: "e"},
		{v: 16, want: "gB"},
		{v: -16, want: "hB"},
		{v: 123, want: "2H"},
		{v: 1 << 20, want: "ggggC"},
	}
	for i, test := range tests {
		var b strings.Builder
		sourcemap.EncodeVLQ(&b, test.v)
		if got := b.String(); got != test.want {
			t.Errorf("test %d: EncodeVLQ(%d) = %q but want %q", i, test.v, got, test.want)
		}
		got, n, err := sourcemap.DecodeVLQ(test.want + "A")
		if err != nil {
			t.Errorf("test %d: %v", i, err)
			continue
		}
		if got != test.v || n != len(test.want) {
			t.Errorf("test %d: DecodeVLQ(%q) = %d, %d but want %d, %d", i, test.want, got, n, test.v, len(test.want))
		}
	}
	for _, s := range []string{"", "g", "!"} {
		if _, _, err := sourcemap.DecodeVLQ(s); err == nil {
			t.Errorf("DecodeVLQ(%q): expected an error", s)
		}
	}
}

func TestBuild(t *testing.T) {
	src := "x = 1\nprint(x)\n"
	b := sourcemap.NewBuilder("out.js")
	b.AddSource("in.py", &src)
	b.AddMapping(sourcemap.Mapping{GenLine: 2, GenCol: 0, Source: "in.py", SrcLine: 1, SrcCol: 0})
	b.AddMapping(sourcemap.Mapping{GenLine: 0, GenCol: 0, Source: "in.py", SrcLine: 0, SrcCol: 0, Name: "x"})
	b.AddMapping(sourcemap.Mapping{GenLine: 0, GenCol: 4, Source: "in.py", SrcLine: 0, SrcCol: 4})
	b.AddMapping(sourcemap.Mapping{GenLine: 2, GenCol: 8, Source: "in.py", SrcLine: 1, SrcCol: 6, Name: "x"})
	m, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	want := &sourcemap.Map{
		Version:        3,
		File:           "out.js",
		Sources:        []string{"in.py"},
		SourcesContent: []*string{&src},
		Names:          []string{"x"},
		Mappings:       "AAAAA,IAAI;;AACJ,QAAMA",
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("unexpected map:\n%s", diff)
	}
	data, err := m.JSON()
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"version", "file", "sources", "sourcesContent", "names", "mappings"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("key %q missing in %s", key, data)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	b := sourcemap.NewBuilder("out.js")
	in := []sourcemap.Mapping{
		{GenLine: 0, GenCol: 2, Source: "a.py", SrcLine: 3, SrcCol: 1},
		{GenLine: 0, GenCol: 10, Source: "b.py", SrcLine: 0, SrcCol: 0, Name: "f"},
		{GenLine: 1, GenCol: 0, Source: "a.py", SrcLine: 2, SrcCol: 7, Name: "g"},
		{GenLine: 4, GenCol: 3, Source: "b.py", SrcLine: 9, SrcCol: 0, Name: "f"},
	}
	for _, m := range in {
		b.AddMapping(m)
	}
	b.Shift(1)
	m, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if m.SourcesContent != nil {
		t.Errorf("got sources content %v but want none", m.SourcesContent)
	}
	lines, err := sourcemap.DecodeMappings(m.Mappings)
	if err != nil {
		t.Fatal(err)
	}
	var got []sourcemap.Mapping
	for line, segs := range lines {
		for _, seg := range segs {
			mapping := sourcemap.Mapping{
				GenLine: line,
				GenCol:  seg.GenCol,
				Source:  m.Sources[seg.Source],
				SrcLine: seg.SrcLine,
				SrcCol:  seg.SrcCol,
			}
			if seg.Name >= 0 {
				mapping.Name = m.Names[seg.Name]
			}
			got = append(got, mapping)
		}
	}
	want := make([]sourcemap.Mapping, len(in))
	for i, m := range in {
		m.GenLine++
		want[i] = m
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mappings do not round trip:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"f", "g"}, m.Names); diff != "" {
		t.Errorf("unexpected names:\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, s := range []string{"AA", "AAAAAA", "A!AA"} {
		if _, err := sourcemap.DecodeMappings(s); err == nil {
			t.Errorf("DecodeMappings(%q): expected an error", s)
		}
	}
}
