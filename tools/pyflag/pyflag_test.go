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

package pyflag_test

import (
	"flag"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/pyjs/tools/pyflag"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestStringList(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{args: nil, want: nil},
		{args: []string{"-paths=a,b"}, want: []string{"a", "b"}},
		{args: []string{"-paths= a, ,b ", "-paths=c"}, want: []string{"a", "b", "c"}},
	}
	for i, test := range tests {
		fs := newFlagSet()
		got := pyflag.StringListVar(fs, "paths", "")
		if err := fs.Parse(test.args); err != nil {
			t.Errorf("test %d: cannot parse %v: %v", i, test.args, err)
			continue
		}
		if diff := cmp.Diff(*got, test.want); diff != "" {
			t.Errorf("test %d: unexpected list:\n%s", i, diff)
		}
	}
}

func TestEnum(t *testing.T) {
	tests := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{args: nil, want: "inline"},
		{args: []string{"-stdlib=none"}, want: "none"},
		{args: []string{"-stdlib=other"}, wantErr: true},
	}
	for i, test := range tests {
		fs := newFlagSet()
		got := pyflag.EnumVar(fs, "stdlib", "", "inline", "external", "none")
		err := fs.Parse(test.args)
		if test.wantErr {
			if err == nil {
				t.Errorf("test %d: expected an error", i)
			}
			continue
		}
		if err != nil {
			t.Errorf("test %d: cannot parse %v: %v", i, test.args, err)
			continue
		}
		if *got != test.want {
			t.Errorf("test %d: got %q but want %q", i, *got, test.want)
		}
	}
}
