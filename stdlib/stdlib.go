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

// Package stdlib provides the runtime support library of compiled programs.
//
// The library is a catalog of shims written in the target language. Each
// shim is a function (its identifier starts with _fn_) or a method
// dispatcher (its identifier starts with _m_). The linker computes the
// shims required by generated code and emits their definitions.
package stdlib

import (
	_ "embed"
	"io/fs"
	"sync"

	"github.com/gx-org/pyjs/build/fmterr"
)

// SourceFile is the name of the embedded shim source.
const SourceFile = "shims.js"

//go:embed shims.js
var source []byte

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	cat, err := Parse(SourceFile, source)
	if err != nil {
		return nil, err
	}
	if err := cat.CheckBuiltins(); err != nil {
		return nil, fmterr.Internal(err)
	}
	return cat, nil
})

// Default returns the catalog built from the embedded shim source.
// The catalog is parsed once and shared read-only.
func Default() (*Catalog, error) {
	return defaultCatalog()
}

// Source returns the embedded shim source.
func Source() []byte {
	return source
}

// Load parses a shim catalog from a file system.
func Load(fsys fs.FS, path string) (*Catalog, error) {
	src, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmterr.Wrap(fmterr.IOError, fmterr.Location{File: path}, err)
	}
	return Parse(path, src)
}
