// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parallel is a utility package for running parallel/concurrent tasks.
package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Invoke runs the given callbacks concurrently. All the callbacks are run in a
// child of 'ctx'. If any of the callbacks returns an error, Invoke cancels this
// child context, waits for the remaining callbacks to complete, and returns the
// first error. Otherwise, Invoke waits for all the callbacks to complete, then
// returns nil.
func Invoke(ctx context.Context, calls ...func(ctx context.Context) error) error {
	return InvokeN(ctx, len(calls), 0,
		func(ctx context.Context, i int) error {
			return calls[i](ctx)
		})
}

// InvokeN runs the given callback 'n' times, with i=0, i=1, ..., i=n-1, in a
// child of 'ctx'. At most 'workers' callbacks run at once; 0 or less means no
// limit. If any of the callbacks returns an error, InvokeN cancels the child
// context, skips the callbacks that haven't started, waits for the running
// ones, and returns the first error. Otherwise, InvokeN waits for all the
// callbacks to complete, then returns nil.
func InvokeN(ctx context.Context, n int, workers int, call func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return call(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// GoCaptureError is like the go keyword but returns a function that blocks
// until the goroutine exits. The error returned by 'run' is the result of the
// wait function. It's safe to call the wait function multiple times, it always
// reports the same result.
func GoCaptureError(run func() error) (wait func() error) {
	done := make(chan struct{})
	var err error
	go func() {
		err = run()
		close(done)
	}()
	return func() error {
		<-done
		return err
	}
}
