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

package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/gx-org/pyjs/build/compiler"
)

// inputs are the modules to compile.
type inputs struct {
	sourceDir string
	units     []compiler.Unit
	// sources maps unit files to their source.
	sources map[string]string
	// file is true if the command line names a single file.
	file bool
}

func isPythonFile(d fs.DirEntry) bool {
	return !d.IsDir() && strings.HasSuffix(d.Name(), ".py")
}

// collect reads the modules named on the command line.
// Directories are walked to find Python files.
func collect(args []string, sourceDir string) (*inputs, error) {
	if len(args) == 0 {
		return nil, usagef("no input file")
	}
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, usageError{err}
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		if sourceDir == "" {
			sourceDir = arg
		}
		if err := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if isPythonFile(d) {
				paths = append(paths, path)
			}
			return nil
		}); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	if len(paths) == 0 {
		return nil, usagef("no Python file found in %s", strings.Join(args, ", "))
	}
	if sourceDir == "" {
		sourceDir = filepath.Dir(paths[0])
	}
	in := &inputs{
		sourceDir: sourceDir,
		sources:   make(map[string]string),
		file:      len(args) == 1 && len(paths) == 1 && paths[0] == args[0],
	}
	for _, path := range paths {
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil, usagef("%s is not in the source directory %s", path, sourceDir)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		rel = filepath.ToSlash(rel)
		in.units = append(in.units, compiler.Unit{File: rel, Source: src})
		in.sources[rel] = string(src)
	}
	return in, nil
}
