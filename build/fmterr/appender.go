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
	"strings"

	"go.uber.org/multierr"
	"github.com/gx-org/pyjs/build/ast"
)

// Appender collects the errors of a pass over a file.
//
// All the append functions return false so that callers can write:
//
//	if bad {
//		return app.Appendf(...)
//	}
type Appender struct {
	file string
	errs []error
}

// NewAppender returns an appender for errors in a file.
func NewAppender(file string) *Appender {
	return &Appender{file: file}
}

// File returns the name of the file the errors belong to.
func (app *Appender) File() string {
	return app.file
}

// Append an error to the list of errors.
func (app *Appender) Append(err error) bool {
	if err != nil {
		app.errs = append(app.errs, err)
	}
	return false
}

// Appendf appends an error of a given kind at a node.
func (app *Appender) Appendf(kind Kind, node ast.Node, format string, a ...any) bool {
	return app.Append(Errorf(kind, app.file, node, format, a...))
}

// Unsupported appends an unsupported feature error at a node.
func (app *Appender) Unsupported(node ast.Node, feature string) bool {
	return app.Append(Unsupported(app.file, node, feature))
}

// AppendInternalf appends an internal error at a node.
func (app *Appender) AppendInternalf(node ast.Node, format string, a ...any) bool {
	return app.Append(Internalf(app.file, node, format, a...))
}

// Empty returns true if no error has been appended.
func (app *Appender) Empty() bool {
	return len(app.errs) == 0
}

// Errors returns all the errors appended so far.
func (app *Appender) Errors() []error {
	return append([]error{}, app.errs...)
}

// First returns the first error or nil.
func (app *Appender) First() error {
	if len(app.errs) == 0 {
		return nil
	}
	return app.errs[0]
}

// Err returns all the errors combined in a single error,
// or nil if no error has been appended.
func (app *Appender) Err() error {
	return multierr.Combine(app.errs...)
}

// String returns one error per line.
func (app *Appender) String() string {
	ss := make([]string, len(app.errs))
	for i, err := range app.errs {
		ss[i] = err.Error()
	}
	return strings.Join(ss, "\n")
}
