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

// Package fmt formats generated code for humans.
package fmt

import (
	"fmt"
	"strings"
)

// Number adds a line number prefix to all lines in a string.
// Numbers start at 1 and are padded to the same width.
func Number(x string) string {
	return NumberFrom(x, 1)
}

// NumberFrom adds a line number prefix to all lines in a string,
// starting at first.
func NumberFrom(x string, first int) string {
	lines := strings.Split(strings.TrimSuffix(x, "\n"), "\n")
	width := len(fmt.Sprint(first + len(lines) - 1))
	var s strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&s, "%0*d %s", width, first+i, line)
		if i < len(lines)-1 || strings.HasSuffix(x, "\n") {
			s.WriteString("\n")
		}
	}
	return s.String()
}
