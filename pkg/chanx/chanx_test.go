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

package chanx

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect[T any](t *testing.T, ch <-chan T) []T {
	t.Helper()
	var got []T
	timeout := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, v)
		case <-timeout:
			t.Fatal("channel was not closed")
			return nil
		}
	}
}

func TestPipe_FilterAndTransform(t *testing.T) {
	in := make(chan int, 8)
	for i := 1; i <= 6; i++ {
		in <- i
	}
	close(in)

	out := Pipe(context.Background(), in, func(v int) (string, bool) {
		if v%2 == 0 {
			return "", false
		}
		return strconv.Itoa(v * 10), true
	})

	assert.Equal(t, []string{"10", "30", "50"}, collect(t, out))
}

func TestPipe_StopsWhenConsumerGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan int)
	out := Pipe(ctx, in, func(v int) (int, bool) { return v, true })

	cancel()

	// the pipe must close its output even though in is still open
	assert.Empty(t, collect(t, out))
}

func TestPipe_UnblocksPendingSendOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan int, 1)
	out := Pipe(ctx, in, func(v int) (int, bool) { return v, true })

	// fill the output buffer so the next forward blocks
	in <- 1
	require.Eventually(t, func() bool { return len(out) == 1 }, time.Second, time.Millisecond)
	in <- 2

	cancel()
	got := collect(t, out)
	assert.LessOrEqual(t, len(got), 2)
}

func TestRedirect_AppendsAfterExistingItems(t *testing.T) {
	sink := make(chan string, 10)
	sink <- "backlog-1"
	sink <- "backlog-2"

	live := make(chan string, 10)
	live <- "live-1"
	live <- "live-2"
	close(live)

	Redirect(context.Background(), live, sink)

	assert.Equal(t, []string{"backlog-1", "backlog-2", "live-1", "live-2"}, collect(t, sink))
}

func TestRedirect_ClosesSinkOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sink := make(chan int)
	Redirect(ctx, make(chan int), sink)

	cancel()
	assert.Empty(t, collect(t, sink))
}

func TestDrain(t *testing.T) {
	ch := make(chan int, 3)
	ch <- 1
	ch <- 2
	close(ch)

	Drain(ch)
	_, ok := <-ch
	assert.False(t, ok)
}
