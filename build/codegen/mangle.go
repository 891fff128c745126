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

package codegen

import "strings"

// reserved are the target reserved words and the host globals the
// runtime shims rely on.
var reserved = map[string]bool{}

func init() {
	for _, words := range []string{
		// Keywords and literals.
		"arguments await break case catch class const continue debugger default delete do else enum eval " +
			"export extends false finally for function if implements import in instanceof interface let new " +
			"null package private protected public return static super switch this throw true try typeof var " +
			"void while with yield undefined NaN Infinity",
		// Host globals.
		"Array ArrayBuffer BigInt Boolean Date Error Function JSON Map Math Number Object Promise Proxy " +
			"RangeError ReferenceError Reflect RegExp Set String Symbol SyntaxError TextDecoder TextEncoder " +
			"TypeError Uint8Array WeakMap WeakSet console exports globalThis isFinite isNaN module parseFloat " +
			"parseInt process require",
	} {
		for _, w := range strings.Fields(words) {
			reserved[w] = true
		}
	}
}

// IsReserved returns true if a source identifier is renamed in the output.
func IsReserved(name string) bool {
	return reserved[name]
}

// Mangle returns the target identifier of a source identifier.
// Reserved words get a trailing underscore. Identifiers which could
// collide with runtime shims get a leading $. Compiler temporaries,
// which start with $, are unchanged.
func Mangle(name string) string {
	switch {
	case strings.HasPrefix(name, "$"):
		return name
	case strings.HasPrefix(name, "_fn_"), strings.HasPrefix(name, "_m_"):
		return "$" + name
	case reserved[name]:
		return name + "_"
	}
	return name
}
