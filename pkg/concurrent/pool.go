// Copyright 2022 Peleiden
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package concurrent provides a bounded worker pool for fan-out work such as
// preprocessing files or sweeping parameter grids.
package concurrent

import (
	"context"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Pool runs submitted tasks on a fixed number of goroutines and collects
// their errors.
type Pool struct {
	pool *ants.Pool
	wg   sync.WaitGroup

	mu   sync.Mutex
	errs error
}

// NewPool returns a Pool with the given number of workers. Non-positive
// sizes default to GOMAXPROCS.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Pool{pool: p}, nil
}

// Submit schedules task on the pool, blocking when all workers are busy.
func (p *Pool) Submit(task func() error) error {
	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		if err := task(); err != nil {
			p.mu.Lock()
			p.errs = multierr.Append(p.errs, err)
			p.mu.Unlock()
		}
	})
	if err != nil {
		p.wg.Done()
	}
	return err
}

// Wait blocks until all submitted tasks have finished and returns their
// combined errors. The pool can keep being used afterwards.
func (p *Pool) Wait() error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.errs
	p.errs = nil
	return err
}

// Release waits for running tasks and shuts the pool down.
func (p *Pool) Release() error {
	err := p.Wait()
	p.pool.Release()
	return err
}

// ForEach calls fn(i) for every i in [0, n), spread over the given number of
// workers as contiguous index ranges. The first error cancels remaining
// ranges.
func ForEach(n, workers int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	g, ctx := errgroup.WithContext(context.Background())
	chunk := n / workers
	rest := n % workers
	start := 0
	for w := 0; w < workers; w++ {
		end := start + chunk
		if w < rest {
			end++
		}
		lo, hi := start, end
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
		start = end
	}
	return g.Wait()
}
