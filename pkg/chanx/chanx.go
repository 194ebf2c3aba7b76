// Copyright 2025 Arcade Team
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

// Package chanx holds small channel plumbing helpers shared by the
// subscription and streaming code.
package chanx

import (
	"context"

	"github.com/go-arcade/courier/pkg/safe"
)

// Pipe forwards every value of in that fn keeps, transformed, into a new
// channel with the same capacity as in. The output is closed when in is
// closed or ctx is done. The forwarding runs in its own goroutine.
func Pipe[T, U any](ctx context.Context, in <-chan T, fn func(T) (U, bool)) <-chan U {
	out := make(chan U, cap(in))
	safe.Go(func() {
		defer close(out)
		forward(ctx, in, out, fn)
	})
	return out
}

// Redirect forwards every value of in into out, which may already hold
// values. Redirect takes over the sending side of out: it is closed when in
// is closed or ctx is done, so no other goroutine may send on it afterwards.
func Redirect[T any](ctx context.Context, in <-chan T, out chan<- T) {
	safe.Go(func() {
		defer close(out)
		forward(ctx, in, out, func(v T) (T, bool) { return v, true })
	})
}

// Drain receives from ch until it is closed.
func Drain[T any](ch <-chan T) {
	for range ch {
	}
}

func forward[T, U any](ctx context.Context, in <-chan T, out chan<- U, fn func(T) (U, bool)) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-in:
			if !ok {
				return
			}
			u, keep := fn(v)
			if !keep {
				continue
			}
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}
}
