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

package compiler

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"github.com/gx-org/pyjs/stdlib"
)

// Unit is a source module compiled by CompileAll.
type Unit struct {
	// File is the path of the module, relative to the source directory.
	File   string
	Source []byte
}

type asyncErrors struct {
	locker sync.Mutex
	errs   error
}

func (ae *asyncErrors) add(err error) {
	ae.locker.Lock()
	defer ae.locker.Unlock()

	ae.errs = multierr.Append(ae.errs, err)
}

// CompileAll compiles independent units in parallel with at most workers
// units compiled at the same time. A value of workers less than 1 means
// no limit.
//
// The results are in the order of the units. The result of a unit is nil
// if it has failed to compile. The returned error combines the errors of
// all the units.
func CompileAll(ctx context.Context, units []Unit, opts Options, workers int) ([]*Result, error) {
	if opts.Catalog == nil {
		cat, err := stdlib.Default()
		if err != nil {
			return nil, err
		}
		opts.Catalog = cat
	}
	results := make([]*Result, len(units))
	var errs asyncErrors
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, u := range units {
		g.Go(func() error {
			res, err := compile(ctx, u.Source, u.File, opts)
			if err != nil {
				errs.add(err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, errs.errs
}
