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

package fmterr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FormatWithContext returns the summary of the error followed by the offending
// source line and a caret underline spanning the columns of the node.
// The summary is returned alone if the line is not in the source.
func (err *Error) FormatWithContext(src string) string {
	summary := err.Error()
	if !err.Loc.Valid() {
		return summary
	}
	lines := strings.Split(src, "\n")
	if err.Loc.Line > len(lines) {
		return summary
	}
	line := strings.TrimRight(lines[err.Loc.Line-1], "\r")
	gutter := fmt.Sprintf("%d", err.Loc.Line)
	var b strings.Builder
	b.WriteString(summary)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s | %s\n", gutter, line)
	fmt.Fprintf(&b, "%s | %s", strings.Repeat(" ", len(gutter)), underline(line, err.Loc.Col, err.Loc.EndLine, err.Loc.EndCol, err.Loc.Line))
	return b.String()
}

// underline returns the caret line for [col, endCol) on line.
// Tabs before the carets are kept so that the carets align with the source.
func underline(line string, col, endLine, endCol, lineNum int) string {
	runes := []rune(line)
	if col > len(runes) {
		col = len(runes)
	}
	if col < 0 {
		col = 0
	}
	end := endCol
	if endLine != lineNum || end > len(runes) {
		end = len(runes)
	}
	if end <= col {
		end = col + 1
	}
	var b strings.Builder
	for _, r := range runes[:col] {
		if r == '\t' {
			b.WriteRune('\t')
		} else {
			b.WriteRune(' ')
		}
	}
	b.WriteString(strings.Repeat("^", end-col))
	return b.String()
}

// FormatWithContext formats any error: compiler errors get the source context,
// other errors their message.
func FormatWithContext(err error, src string) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.FormatWithContext(src)
	}
	return err.Error()
}
