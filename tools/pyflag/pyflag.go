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

// Package pyflag provides flag types for pyjs tools.
package pyflag

import (
	"flag"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

type stringList struct {
	list *[]string
}

func (sl *stringList) String() string {
	if sl.list == nil {
		return ""
	}
	return strings.Join(*sl.list, ",")
}

func (sl *stringList) Set(values string) error {
	for _, value := range strings.Split(values, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		*sl.list = append(*sl.list, value)
	}
	return nil
}

// StringListVar defines a flag passing a comma-separated list of strings
// in a flag set.
func StringListVar(fs *flag.FlagSet, name, doc string) *[]string {
	var list []string
	fs.Var(&stringList{&list}, name, doc)
	return &list
}

// StringList returns a flag to pass a list of string from the command line.
func StringList(name, doc string) *[]string {
	return StringListVar(flag.CommandLine, name, doc)
}

type enum struct {
	value   *string
	choices []string
}

func (e *enum) String() string {
	if e.value == nil {
		return ""
	}
	return *e.value
}

func (e *enum) Set(value string) error {
	if !slices.Contains(e.choices, value) {
		return errors.Errorf("invalid value %q: want one of %s", value, strings.Join(e.choices, ", "))
	}
	*e.value = value
	return nil
}

// EnumVar defines a flag in a flag set whose value is one of choices.
// The first choice is the default value.
func EnumVar(fs *flag.FlagSet, name, doc string, choices ...string) *string {
	value := choices[0]
	fs.Var(&enum{value: &value, choices: choices}, name, doc+" ("+strings.Join(choices, "|")+")")
	return &value
}
