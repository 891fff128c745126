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

// Package fmterr formats compiler errors for the user.
package fmterr

import (
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/gx-org/pyjs/build/ast"
)

// Kind classifies compiler errors.
type Kind int

// Error kinds.
const (
	SyntaxError Kind = iota
	UnknownSymbol
	NameConflict
	StatementOutOfContext
	UnsupportedFeature
	UnknownType
	IncompatibleType
	IOError
	InternalAssertion
)

var kindNames = [...]string{
	SyntaxError:           "SyntaxError",
	UnknownSymbol:         "UnknownSymbol",
	NameConflict:          "NameConflict",
	StatementOutOfContext: "StatementOutOfContext",
	UnsupportedFeature:    "UnsupportedFeature",
	UnknownType:           "UnknownType",
	IncompatibleType:      "IncompatibleType",
	IOError:               "IOError",
	InternalAssertion:     "InternalAssertion",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// InternalMarker prefixes the message of internal errors.
const InternalMarker = "pyjs internal error"

// Location of an error in a source file.
type Location struct {
	File string
	ast.Pos
}

// String returns file:line:col, omitting what is unknown.
func (l Location) String() string {
	switch {
	case l.File == "" && !l.Valid():
		return "<unknown>"
	case !l.Valid():
		return l.File
	case l.File == "":
		return fmt.Sprintf("%d:%d", l.Line, l.Col+1)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col+1)
}

// Error is a compiler error attached to a location in the source.
type Error struct {
	Kind Kind
	Loc  Location
	Msg  string
	// Feature is the name of the unsupported feature for UnsupportedFeature errors.
	Feature string

	// err keeps the stack trace of where the error has been generated.
	err error
}

// Errorf returns a new positioned error.
func Errorf(kind Kind, file string, node ast.Node, format string, a ...any) *Error {
	var pos ast.Pos
	if node != nil {
		pos = node.Span()
	}
	return At(kind, Location{File: file, Pos: pos}, format, a...)
}

// At returns a new error at a given location.
func At(kind Kind, loc Location, format string, a ...any) *Error {
	err := errors.Errorf(format, a...)
	return &Error{
		Kind: kind,
		Loc:  loc,
		Msg:  err.Error(),
		err:  err,
	}
}

// Unsupported returns an UnsupportedFeature error naming the feature.
func Unsupported(file string, node ast.Node, feature string) *Error {
	err := Errorf(UnsupportedFeature, file, node, "unsupported feature: %s", feature)
	err.Feature = feature
	return err
}

// Wrap converts an error into an error of a given kind, keeping its message.
// A nil error returns nil. Compiler errors are returned unchanged.
func Wrap(kind Kind, loc Location, err error) error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return err
	}
	return &Error{
		Kind: kind,
		Loc:  loc,
		Msg:  err.Error(),
		err:  errors.WithStack(err),
	}
}

// Internal marks an error as internal to the compiler.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) && perr.Kind == InternalAssertion {
		return err
	}
	loc := Location{}
	if perr != nil {
		loc = perr.Loc
	}
	return &Error{
		Kind: InternalAssertion,
		Loc:  loc,
		Msg:  fmt.Sprintf("%s: %s. This is a bug in pyjs, please report it", InternalMarker, err.Error()),
		err:  errors.WithStack(err),
	}
}

// Internalf returns a formatted internal error at a position.
func Internalf(file string, node ast.Node, format string, a ...any) error {
	return Errorf(InternalAssertion, file, node, "%s: %s", InternalMarker, fmt.Sprintf(format, a...))
}

// Error returns a one-line summary file:line:col: error: msg.
func (err *Error) Error() (s string) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s = fmt.Sprintf("recovered from panic when building error message: %v:\n%s", r, string(debug.Stack()))
	}()
	return fmt.Sprintf("%s: error: %s", err.Loc.String(), err.Msg)
}

// Unwrap the error.
func (err *Error) Unwrap() error {
	return err.err
}

// Format writes the error into the state of the formatter.
func (err *Error) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}

// KindOf returns the kind of an error and true if the error is a compiler error.
func KindOf(err error) (Kind, bool) {
	var perr *Error
	if !errors.As(err, &perr) {
		return 0, false
	}
	return perr.Kind, true
}
