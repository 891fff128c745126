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

package stdlib

import (
	"slices"

	"github.com/pkg/errors"
)

// Names resolved by the compiler without a runtime shim.
const (
	// Super is the zero-argument super() call.
	Super = "super"
	// Property is the decorator declaring a class property.
	Property = "property"
	// ModuleName evaluates to the name of the running module.
	ModuleName = "__name__"
)

// builtinNames are the builtin names of source programs implemented by
// the function shim of the same name.
var builtinNames = []string{
	// Types.
	"object", "bool", "int", "float", "str", "list", "tuple", "dict", "set", "frozenset", "bytes", "range", "type",
	// Functions.
	"abs", "all", "any", "ascii", "bin", "callable", "chr", "classmethod", "delattr", "divmod", "enumerate",
	"filter", "format", "getattr", "hasattr", "hash", "hex", "id", "input", "isinstance", "issubclass", "iter",
	"len", "map", "max", "min", "next", "oct", "ord", "pow", "print", "repr", "reversed", "round", "setattr",
	"sorted", "staticmethod", "sum", "zip",
	// Exceptions.
	"BaseException", "Exception", "ArithmeticError", "ZeroDivisionError", "OverflowError", "LookupError",
	"KeyError", "IndexError", "ValueError", "TypeError", "AttributeError", "NameError", "UnboundLocalError",
	"RuntimeError", "RecursionError", "NotImplementedError", "AssertionError", "StopIteration",
	// Constants.
	"NotImplemented",
}

var compileTimeNames = []string{Super, Property, ModuleName}

// Builtins returns the sorted list of builtin names of source programs.
func Builtins() []string {
	names := append(slices.Clone(builtinNames), compileTimeNames...)
	slices.Sort(names)
	return slices.Compact(names)
}

// IsCompileTime returns true if a builtin is resolved by the compiler.
func IsCompileTime(name string) bool {
	return slices.Contains(compileTimeNames, name)
}

// Builtin returns the function shim implementing a builtin name.
func (cat *Catalog) Builtin(name string) (*Shim, bool) {
	if !slices.Contains(builtinNames, name) {
		return nil, false
	}
	return cat.Lookup(Function, name)
}

// CheckBuiltins returns an error if a builtin name has no shim in the catalog.
func (cat *Catalog) CheckBuiltins() error {
	var missing []string
	for _, name := range builtinNames {
		if _, ok := cat.Builtin(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return errors.Errorf("%s: no shim for builtins %v", cat.file, missing)
	}
	return nil
}
